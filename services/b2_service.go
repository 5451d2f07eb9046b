package services

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/kurin/blazer/b2"
)

// B2Service implements BlobStore on Backblaze B2. Handles are generated
// object names; the tree engine stores them opaquely in FSO.FileName.
type B2Service struct {
	client *b2.Client
	bucket *b2.Bucket
}

func NewB2Service(ctx context.Context, keyID, applicationKey, bucketName string) (*B2Service, error) {
	client, err := b2.NewClient(ctx, keyID, applicationKey)
	if err != nil {
		return nil, fmt.Errorf("create B2 client: %w", err)
	}
	bucket, err := client.Bucket(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("get bucket %s: %w", bucketName, err)
	}
	return &B2Service{client: client, bucket: bucket}, nil
}

// Create streams r into a fresh object under the user's prefix and returns
// its handle and byte count. Nothing is read into memory beyond the copy
// buffer.
func (s *B2Service) Create(ctx context.Context, userID string, r io.Reader) (string, int64, error) {
	handle := "users/" + userID + "/" + uuid.NewString()

	writer := s.bucket.Object(handle).NewWriter(ctx)
	size, err := io.Copy(writer, r)
	if err != nil {
		writer.Close()
		return "", 0, fmt.Errorf("upload blob %s: %w", handle, err)
	}
	if err := writer.Close(); err != nil {
		return "", 0, fmt.Errorf("finish blob %s: %w", handle, err)
	}
	return handle, size, nil
}

func (s *B2Service) Open(ctx context.Context, handle string) (io.ReadCloser, error) {
	return s.bucket.Object(handle).NewReader(ctx), nil
}

func (s *B2Service) Delete(ctx context.Context, handle string) error {
	if err := s.bucket.Object(handle).Delete(ctx); err != nil {
		return fmt.Errorf("delete blob %s: %w", handle, err)
	}
	return nil
}
