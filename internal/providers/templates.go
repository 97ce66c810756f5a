package providers

import "claudeswap/config/models"

// Names of templates referenced elsewhere
const (
	ZhipuName   = "Zhipu AI"
	VanchinName = "Vanchin"
	CustomName  = "Custom AI"
)

const zhipuBaseURL = "https://open.bigmodel.cn/api/anthropic"

// modelEnv builds the base URL and token keys plus the three model keys when given
func modelEnv(baseURL, haiku, sonnet, opus string) models.EnvMap {
	env := models.EnvMap{
		models.KeyBaseURL:   models.String(baseURL),
		models.KeyAuthToken: models.String(""),
	}
	if haiku != "" || sonnet != "" || opus != "" {
		env[models.KeyHaikuModel] = models.String(haiku)
		env[models.KeySonnetModel] = models.String(sonnet)
		env[models.KeyOpusModel] = models.String(opus)
	}
	return env
}

func with(env models.EnvMap, extra models.EnvMap) models.EnvMap {
	for k, v := range extra {
		env[k] = v
	}
	return env
}

// 内置模板，按展示顺序注册
func init() {
	Register(Template{
		Name:     ZhipuName,
		Icon:     IconZhipu,
		DocLink:  "https://docs.bigmodel.cn/cn/coding-plan/tool/claude",
		Env:      modelEnv(zhipuBaseURL, "glm-4.5-air", "glm-4.6", "glm-4.6"),
		Validate: AllOf(URLEquals(zhipuBaseURL), MinTokenLength(20)),
	})
	Register(Template{
		Name:    "z.ai",
		Icon:    IconZai,
		DocLink: "https://docs.z.ai/devpack/tool/claude",
		Env:     modelEnv("https://api.z.ai/api/anthropic", "glm-4.5-air", "glm-4.6", "glm-4.6"),
	})
	Register(Template{
		Name:    "MiniMax.com",
		Icon:    IconMiniMax,
		DocLink: "https://platform.minimaxi.com/docs/guides/text-ai-coding-tools",
		Env: with(modelEnv("https://api.minimaxi.com/anthropic", "MiniMax-M2", "MiniMax-M2", "MiniMax-M2"), models.EnvMap{
			models.KeyAPITimeout:          models.Integer(3000000),
			models.KeyDisableNonessential: models.Boolean(true),
		}),
	})
	Register(Template{
		Name:    "MiniMax.io",
		Icon:    IconMiniMax,
		DocLink: "https://platform.minimax.io/docs/guides/text-ai-coding-tools#use-minimax-m2-in-claude-code-recommended",
		Env: with(modelEnv("https://api.minimax.io/anthropic", "MiniMax-M2", "MiniMax-M2", "MiniMax-M2"), models.EnvMap{
			models.KeyAPITimeout:          models.Integer(3000000),
			models.KeyDisableNonessential: models.Boolean(true),
		}),
	})
	Register(Template{
		Name:    "Moonshot AI",
		Icon:    IconMoonshot,
		DocLink: "https://platform.moonshot.cn/docs/guide/agent-support",
		Env:     modelEnv("https://api.moonshot.cn/anthropic", "kimi-k2-turbo-preview", "kimi-k2-turbo-preview", "kimi-k2-turbo-preview"),
	})
	Register(Template{
		Name:    VanchinName,
		Icon:    IconStreamLake,
		DocLink: "https://www.streamlake.com/document/WANQING/me6ymdjrqv8lp4iq0o9",
		Env:     modelEnv("https://wanqing.streamlakeapi.com/api/gateway/v1/endpoints/xxx/claude-code-proxy", "KAT-Coder", "KAT-Coder", "KAT-Coder"),
		// endpoint ids look like ep-abc123-xyz
		Matcher:  NewSegmentMatcher(`endpoints/[A-Za-z0-9-]+/`, "endpoints/xxx/"),
		Validate: AllOf(URLContains("streamlakeapi.com", "claude-code-proxy"), MinTokenLength(10)),
	})
	Register(Template{
		Name:    "DeepSeek",
		Icon:    IconDeepSeek,
		DocLink: "https://api-docs.deepseek.com/",
		Env: with(modelEnv("https://api.deepseek.com/anthropic", "deepseek-chat", "deepseek-chat", "deepseek-chat"), models.EnvMap{
			models.KeyAPITimeout:          models.Integer(600000),
			models.KeyDisableNonessential: models.Boolean(true),
		}),
	})
	Register(Template{
		Name:    "Aliyuncs",
		Icon:    IconAliyuncs,
		DocLink: "https://help.aliyun.com/zh/model-studio/developer-reference/use-qwen-by-calling-api",
		Env:     modelEnv("https://dashscope.aliyuncs.com/apps/anthropic", "qwen-flash", "qwen-max", "qwen-max"),
	})
	Register(Template{
		Name:    "ModelScope",
		Icon:    IconModelScope,
		DocLink: "https://modelscope.cn/docs/models/inference",
		Env: modelEnv("https://api-inference.modelscope.cn",
			"Qwen/Qwen3-Coder-480B-A35B-Instruct", "Qwen/Qwen3-Coder-480B-A35B-Instruct", "deepseek-ai/DeepSeek-R1-0528"),
	})
	Register(Template{
		Name:    "PackyCode",
		Icon:    IconPackyCode,
		DocLink: "https://www.packycode.com/docs",
		Env: with(modelEnv("https://api.packycode.com", "", "", ""), models.EnvMap{
			models.KeyDisableNonessential: models.Boolean(true),
		}),
	})
	Register(Template{
		Name:    "AnyRouter",
		Icon:    IconAnyRouter,
		DocLink: "https://docs.anyrouter.top/",
		Env:     modelEnv("https://anyrouter.top", "", "", ""),
	})
	Register(Template{
		Name:    "LongCat",
		Icon:    IconLongCat,
		DocLink: "https://longcat.chat/platform/docs/ClaudeCode.html",
		Env: with(modelEnv("https://api.longcat.chat/anthropic", "LongCat-Flash-Chat", "LongCat-Flash-Chat", "LongCat-Flash-Thinking"), models.EnvMap{
			models.KeyMaxOutputTokens:     models.Integer(6000),
			models.KeyDisableNonessential: models.Boolean(true),
		}),
	})
	Register(Template{
		Name: CustomName,
		Icon: IconOther,
		Env: models.EnvMap{
			models.KeyBaseURL:     models.String(""),
			models.KeyAuthToken:   models.String(""),
			models.KeyHaikuModel:  models.String(""),
			models.KeySonnetModel: models.String(""),
			models.KeyOpusModel:   models.String(""),
		},
	})
}
