package errors

import (
	"strings"
	"unicode"
)

const maxEditorIDLength = 4096

// ValidateEditorID checks an editor identity before a session is keyed by it.
//
// Rules:
//   - No empty IDs
//   - No control characters or null bytes
//   - Maximum length of 4096 bytes
func ValidateEditorID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "editor id cannot be empty")
	}
	if len(id) > maxEditorIDLength {
		return New(ErrCodeInvalidInput, "editor id too long (max %d bytes)", maxEditorIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "editor id contains invalid control characters")
		}
	}
	return nil
}

// ValidateManifestFilename checks one entry of the manifest allow-list.
// Entries are matched as path suffixes, so they must be plain file names.
func ValidateManifestFilename(name string) error {
	if name == "" {
		return New(ErrCodeInvalidConfig, "manifest filename cannot be empty")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidConfig, "manifest filename %q contains control characters", name)
		}
	}
	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidConfig, "manifest filename %q cannot contain path separators", name)
	}
	return nil
}
