package services

import (
	"bytes"
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// BannerService stores the promo banner shown on /start and served at
// /banner.png. A missing object is not an error to callers; the bot
// degrades to text-only messages.
type BannerService interface {
	EnsureBucket(ctx context.Context) error
	Fetch(ctx context.Context) ([]byte, error)
	Upload(ctx context.Context, reader io.Reader, size int64) error
}

type bannerService struct {
	client *minio.Client
	bucket string
	object string
}

func NewBannerService(endpoint, accessKey, secretKey string, useSSL bool, bucket, object string) (BannerService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}
	return &bannerService{client: client, bucket: bucket, object: object}, nil
}

func (b *bannerService) EnsureBucket(ctx context.Context) error {
	found, err := b.client.BucketExists(ctx, b.bucket)
	if err != nil {
		return err
	}
	if !found {
		return b.client.MakeBucket(ctx, b.bucket, minio.MakeBucketOptions{})
	}
	return nil
}

func (b *bannerService) Fetch(ctx context.Context) ([]byte, error) {
	obj, err := b.client.GetObject(ctx, b.bucket, b.object, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, obj); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (b *bannerService) Upload(ctx context.Context, reader io.Reader, size int64) error {
	_, err := b.client.PutObject(ctx, b.bucket, b.object, reader, size, minio.PutObjectOptions{
		ContentType: "image/png",
	})
	return err
}
