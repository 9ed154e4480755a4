package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// AzureBlobFetcher reads images from one storage account. URLs take the form
// https://<account>.blob.core.windows.net/<container>/<blob>.
type AzureBlobFetcher struct {
	client      *azblob.Client
	accountName string
	maxBytes    int64
}

func NewAzureBlobFetcher(accountName string, accountKey string, maxBytes int64) (*AzureBlobFetcher, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid azure credentials: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create azure client: %w", err)
	}

	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	return &AzureBlobFetcher{client: client, accountName: accountName, maxBytes: maxBytes}, nil
}

func (s *AzureBlobFetcher) FetchImage(ctx context.Context, blobURL string) ([]byte, error) {
	containerName, blobName, err := parseBlobLocation(s.accountName, blobURL)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.ContentLength != nil && *resp.ContentLength > s.maxBytes {
		return nil, fmt.Errorf("image too large: %d bytes (limit %d)", *resp.ContentLength, s.maxBytes)
	}
	return readLimited(resp.Body, s.maxBytes)
}

// parseBlobLocation splits a blob URL into container and blob names,
// rejecting URLs that point at another account
func parseBlobLocation(accountName, blobURL string) (string, string, error) {
	parts, err := azblob.ParseURL(blobURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid blob URL: %w", err)
	}

	wantHost := strings.ToLower(accountName) + ".blob.core.windows.net"
	if !strings.EqualFold(parts.Host, wantHost) {
		return "", "", fmt.Errorf("blob URL host %q does not belong to account %q", parts.Host, accountName)
	}
	if parts.ContainerName == "" || parts.BlobName == "" {
		return "", "", fmt.Errorf("blob URL must name a container and a blob: %q", blobURL)
	}
	return parts.ContainerName, parts.BlobName, nil
}
