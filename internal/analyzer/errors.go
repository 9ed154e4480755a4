package analyzer

import (
	"errors"
	"fmt"
)

// ErrorKind enumerates the ways feature extraction can fail
type ErrorKind string

const (
	// ErrorKindDecode covers unreadable, unparseable or corrupt image input
	ErrorKindDecode ErrorKind = "decode"
	// ErrorKindEmptyImage covers images with a zero dimension after decoding
	ErrorKindEmptyImage ErrorKind = "empty_image"
)

// ExtractError is returned by the feature extractor. No partial features are
// ever returned alongside it.
type ExtractError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// Error implements the error interface
func (e *ExtractError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *ExtractError) Unwrap() error {
	return e.Cause
}

func newDecodeError(message string, cause error) *ExtractError {
	return &ExtractError{Kind: ErrorKindDecode, Message: message, Cause: cause}
}

func newEmptyImageError(width, height int) *ExtractError {
	return &ExtractError{
		Kind:    ErrorKindEmptyImage,
		Message: fmt.Sprintf("image has zero area (%dx%d)", width, height),
	}
}

// IsDecodeError reports whether err is an extraction decode failure
func IsDecodeError(err error) bool {
	return isKind(err, ErrorKindDecode)
}

// IsEmptyImageError reports whether err is a zero-area image failure
func IsEmptyImageError(err error) bool {
	return isKind(err, ErrorKindEmptyImage)
}

func isKind(err error, kind ErrorKind) bool {
	var extractErr *ExtractError
	if errors.As(err, &extractErr) {
		return extractErr.Kind == kind
	}
	return false
}
