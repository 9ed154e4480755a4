package validation

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	apperrors "github.com/anime-shed/lesion-inspector-go/internal/errors"
)

// AllowedExtensions lists the upload extensions accepted, lowercase
var AllowedExtensions = []string{"png", "jpg", "jpeg", "gif", "bmp", "tiff"}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// UploadValidator checks uploaded lesion photographs before analysis
type UploadValidator struct {
	maxSize int64
}

// NewUploadValidator creates a validator; maxSize <= 0 disables the size check
func NewUploadValidator(maxSize int64) *UploadValidator {
	return &UploadValidator{maxSize: maxSize}
}

// ValidateUpload checks the client filename and payload size
func (v *UploadValidator) ValidateUpload(filename string, size int64) error {
	if strings.TrimSpace(filename) == "" {
		return apperrors.NewValidationError("No file selected", nil)
	}
	if !AllowedFile(filename) {
		return apperrors.NewValidationError("Invalid file type", nil).
			WithDetails("allowed: " + strings.Join(AllowedExtensions, ", "))
	}
	if size == 0 {
		return apperrors.NewValidationError("Uploaded file is empty", nil)
	}
	if v.maxSize > 0 && size > v.maxSize {
		return apperrors.NewTooLargeError(
			fmt.Sprintf("File exceeds the %d byte upload limit", v.maxSize), nil)
	}
	return nil
}

// AllowedFile reports whether filename carries an accepted extension
func AllowedFile(filename string) bool {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return false
	}
	ext := strings.ToLower(filename[i+1:])
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// SanitizeFilename reduces a client filename to a safe ASCII base name:
// path components are dropped, whitespace runs become underscores, anything
// outside [A-Za-z0-9_.-] is removed and leading or trailing dots and
// underscores are trimmed. The result may be empty.
func SanitizeFilename(filename string) string {
	filename = norm.NFKD.String(filename)
	filename = strings.ReplaceAll(filename, "\\", "/")
	filename = path.Base("/" + filename)
	if filename == "/" {
		return ""
	}

	filename = strings.Join(strings.Fields(filename), "_")
	filename = unsafeFilenameChars.ReplaceAllString(filename, "")
	return strings.Trim(filename, "._")
}

// StoredFilename returns a collision-free name of the form <uuid>_<name>
func StoredFilename(filename string) string {
	safe := SanitizeFilename(filename)
	if safe == "" {
		safe = "upload"
	}
	return fmt.Sprintf("%s_%s", uuid.NewString(), safe)
}
