package attachment

import (
	"encoding/base64"
	"mime"
	"net/http"
	"strings"
	"unicode/utf8"

	"annotastore/internal/apperr"
)

const maxNameLength = 255

// SanitizeFilename strips path separators, parent references and control
// characters.
func SanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "..", "")
	filename = strings.ReplaceAll(filename, "/", "")
	filename = strings.ReplaceAll(filename, "\\", "")

	var b strings.Builder
	for _, r := range filename {
		if r >= 32 && r != 127 {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

func validateName(name string) (string, error) {
	clean := SanitizeFilename(name)
	if clean == "" {
		return "", apperr.Validation("attachment name is required")
	}
	if len(clean) > maxNameLength || !utf8.ValidString(clean) {
		return "", apperr.Validation("attachment name is invalid")
	}
	return clean, nil
}

// decodeFile decodes base64 file content. A data URL prefix is accepted and
// its media type returned.
func decodeFile(file string) ([]byte, string, error) {
	file = strings.TrimSpace(file)
	var declared string
	if rest, ok := strings.CutPrefix(file, "data:"); ok {
		header, payload, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(header, ";base64") {
			return nil, "", apperr.Validation("attachment file must be base64 encoded")
		}
		declared = strings.TrimSuffix(header, ";base64")
		file = payload
	}

	data, err := base64.StdEncoding.DecodeString(file)
	if err != nil {
		if data, err = base64.RawStdEncoding.DecodeString(file); err != nil {
			return nil, "", apperr.Validation("attachment file must be base64 encoded")
		}
	}
	return data, declared, nil
}

// resolveContentType validates a declared MIME type or sniffs one from data.
func resolveContentType(declared string, data []byte) (string, error) {
	if strings.TrimSpace(declared) == "" {
		mediaType, _, _ := mime.ParseMediaType(http.DetectContentType(data))
		return mediaType, nil
	}
	mediaType, params, err := mime.ParseMediaType(declared)
	if err != nil || !strings.Contains(mediaType, "/") {
		return "", apperr.Validation("attachment mimeType %q is invalid", declared)
	}
	return mime.FormatMediaType(mediaType, params), nil
}
