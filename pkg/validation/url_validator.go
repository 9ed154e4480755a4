package validation

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	apperrors "github.com/anime-shed/lesion-inspector-go/internal/errors"
)

// URLValidator checks lesion image URLs before they are fetched
type URLValidator struct {
	allowedSchemes []string
	allowedHosts   []string
}

// NewURLValidator accepts any http or https URL with a host
func NewURLValidator() *URLValidator {
	return &URLValidator{
		allowedSchemes: []string{"http", "https"},
		allowedHosts:   []string{}, // empty means all hosts allowed
	}
}

// NewURLValidatorWithOptions creates a URL validator with custom options
func NewURLValidatorWithOptions(schemes []string, hosts []string) *URLValidator {
	return &URLValidator{
		allowedSchemes: schemes,
		allowedHosts:   hosts,
	}
}

// NewBlobURLValidator only accepts https URLs of one Azure storage account
func NewBlobURLValidator(accountName string) *URLValidator {
	host := fmt.Sprintf("%s.blob.core.windows.net", strings.ToLower(accountName))
	return NewURLValidatorWithOptions([]string{"https"}, []string{host})
}

// ValidateImageURL returns a validation AppError describing the first problem
func (v *URLValidator) ValidateImageURL(imageURL string) error {
	if strings.TrimSpace(imageURL) == "" {
		return apperrors.NewValidationError("URL cannot be empty", nil)
	}

	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return apperrors.NewValidationError("Invalid URL format", err)
	}

	if !v.isSchemeAllowed(parsedURL.Scheme) {
		return apperrors.NewValidationError("URL scheme not allowed", nil)
	}

	if parsedURL.Hostname() == "" {
		return apperrors.NewValidationError("URL must have a valid host", nil)
	}

	if !v.isHostAllowed(parsedURL.Hostname()) {
		return apperrors.NewValidationError("URL host not allowed", nil)
	}

	return nil
}

func (v *URLValidator) isSchemeAllowed(scheme string) bool {
	return slices.Contains(v.allowedSchemes, strings.ToLower(scheme))
}

// isHostAllowed is true for every host when no restriction is configured
func (v *URLValidator) isHostAllowed(host string) bool {
	if len(v.allowedHosts) == 0 {
		return true
	}
	return slices.ContainsFunc(v.allowedHosts, func(allowed string) bool {
		return strings.EqualFold(host, allowed)
	})
}
