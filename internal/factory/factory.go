package factory

import (
	"fmt"

	"github.com/anime-shed/lesion-inspector-go/internal/storage"
)

// StorageType represents different types of image sources
type StorageType string

const (
	// HTTPStorage for images reachable over HTTP(S)
	HTTPStorage StorageType = "http"
	// AzureStorage for Azure blob storage
	AzureStorage StorageType = "azure"
)

// StorageSettings carries what the fetchers need to be built
type StorageSettings struct {
	HTTP         storage.HTTPFetcherOptions
	AzureAccount string
	AzureKey     string
}

// StorageFactory creates image fetchers
type StorageFactory interface {
	CreateStorage(storageType StorageType) (storage.ImageFetcher, error)
}

// storageFactory implements StorageFactory
type storageFactory struct {
	settings StorageSettings
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(settings StorageSettings) StorageFactory {
	return &storageFactory{settings: settings}
}

// CreateStorage creates a fetcher based on the specified type
func (f *storageFactory) CreateStorage(storageType StorageType) (storage.ImageFetcher, error) {
	switch storageType {
	case HTTPStorage:
		return storage.NewHTTPImageFetcher(f.settings.HTTP), nil
	case AzureStorage:
		if f.settings.AzureAccount == "" || f.settings.AzureKey == "" {
			return nil, fmt.Errorf("azure storage requires an account name and key")
		}
		fetcher, err := storage.NewAzureBlobFetcher(f.settings.AzureAccount, f.settings.AzureKey, f.settings.HTTP.MaxBytes)
		if err != nil {
			return nil, err
		}
		return fetcher, nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}
