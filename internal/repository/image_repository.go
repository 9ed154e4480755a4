package repository

import (
	"context"

	"github.com/anime-shed/lesion-inspector-go/internal/storage"
	"github.com/anime-shed/lesion-inspector-go/pkg/validation"
)

// RemoteImageRepository implements ImageRepository over any storage fetcher
type RemoteImageRepository struct {
	fetcher   storage.ImageFetcher
	validator *validation.URLValidator
}

// NewRemoteImageRepository creates an image repository; a nil validator
// accepts any http(s) URL
func NewRemoteImageRepository(fetcher storage.ImageFetcher, validator *validation.URLValidator) ImageRepository {
	if validator == nil {
		validator = validation.NewURLValidator()
	}
	return &RemoteImageRepository{
		fetcher:   fetcher,
		validator: validator,
	}
}

// FetchImage validates imageURL and retrieves its bytes
func (r *RemoteImageRepository) FetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	if err := r.ValidateImageURL(imageURL); err != nil {
		return nil, err
	}
	return r.fetcher.FetchImage(ctx, imageURL)
}

// ValidateImageURL validates if the provided URL is acceptable
func (r *RemoteImageRepository) ValidateImageURL(imageURL string) error {
	return r.validator.ValidateImageURL(imageURL)
}
