package services

import (
	"context"

	"github.com/dmitrijs2005/homeshare/internal/client/client"
	"github.com/dmitrijs2005/homeshare/internal/logging"
	"github.com/dmitrijs2005/homeshare/internal/netx"
)

var uploadToPresignedURL = netx.UploadToPresignedURL

// StorageService uploads files through presigned URLs and resolves public
// object URLs.
type StorageService struct {
	client client.Client
	logger logging.Logger
}

func NewStorageService(c client.Client, logger logging.Logger) *StorageService {
	return &StorageService{client: c, logger: logger.With("module", "storage_service")}
}

func (s *StorageService) CreateBucket(ctx context.Context, name string, public bool) error {
	return s.client.CreateBucket(ctx, name, public)
}

// Upload asks the server for a presigned PUT URL and sends data to it.
func (s *StorageService) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	url, err := s.client.CreateUploadURL(ctx, bucket, path, contentType)
	if err != nil {
		return err
	}

	if err := uploadToPresignedURL(ctx, url, data, contentType); err != nil {
		return err
	}

	s.logger.Debug(ctx, "uploaded", "bucket", bucket, "path", path, "size", len(data))
	return nil
}

func (s *StorageService) GetPublicURL(ctx context.Context, bucket, path string) (string, error) {
	return s.client.GetPublicURL(ctx, bucket, path)
}
