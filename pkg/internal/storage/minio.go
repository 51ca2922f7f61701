package storage

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/viper"
)

type MinioStore struct {
	client *minio.Client
	bucket string
}

func NewMinioStore() (*MinioStore, error) {
	client, err := minio.New(viper.GetString("storage.endpoint"), &minio.Options{
		Creds: credentials.NewStaticV4(
			viper.GetString("storage.access_id"),
			viper.GetString("storage.secret_access_key"),
			"",
		),
		Secure: viper.GetBool("storage.secured"),
	})
	if err != nil {
		return nil, err
	}

	return &MinioStore{
		client: client,
		bucket: viper.GetString("storage.bucket"),
	}, nil
}

func (s *MinioStore) Put(ctx context.Context, ref string, src io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, ref, src, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (s *MinioStore) PutFile(ctx context.Context, ref string, localPath string, contentType string) error {
	_, err := s.client.FPutObject(ctx, s.bucket, ref, localPath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (s *MinioStore) GetFile(ctx context.Context, ref string, localPath string) error {
	return s.client.FGetObject(ctx, s.bucket, ref, localPath, minio.GetObjectOptions{})
}

func (s *MinioStore) Get(ctx context.Context, ref string) (io.ReadCloser, error) {
	return s.client.GetObject(ctx, s.bucket, ref, minio.GetObjectOptions{})
}

func (s *MinioStore) Delete(ctx context.Context, ref string) error {
	return s.client.RemoveObject(ctx, s.bucket, ref, minio.RemoveObjectOptions{})
}
