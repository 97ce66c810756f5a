// Package claude reads and writes the assistant's settings.json.
package claude

import "errors"

var (
	// ErrIO covers unreadable or unwritable files and uncreatable directories
	ErrIO = errors.New("settings file I/O error")
	// ErrDecode means settings.json is not a JSON object
	ErrDecode = errors.New("settings file is not a valid JSON object")
	// ErrPermissionDenied means no valid access grant exists for the settings directory
	ErrPermissionDenied = errors.New("access to the settings directory has not been granted")
)
