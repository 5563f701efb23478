package media

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultImageMimeType is used for inline images whose extension is not recognized.
const DefaultImageMimeType = "image/png"

var supportedImageTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// MimeType returns the content type for a supported image path.
// The extension match is case-insensitive.
func MimeType(path string) (string, bool) {
	mimeType, ok := supportedImageTypes[strings.ToLower(filepath.Ext(path))]
	return mimeType, ok
}

// IsSupported reports whether the path has a whitelisted image extension.
func IsSupported(path string) bool {
	_, ok := MimeType(path)
	return ok
}

// EncodeBase64 reads the whole file and returns its standard base64 encoding.
func EncodeBase64(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image file: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// BuildDataURL wraps base64 data into a data URL.
func BuildDataURL(mimeType, b64Data string) string {
	if mimeType == "" {
		mimeType = DefaultImageMimeType
	}
	return "data:" + mimeType + ";base64," + b64Data
}

// ExtensionFor returns the preferred file extension for a supported image mime type.
func ExtensionFor(mimeType string) string {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	default:
		return ""
	}
}
