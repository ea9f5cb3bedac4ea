package archiver

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Uploader is the object-store edge; faked in tests.
type Uploader interface {
	Upload(ctx context.Context, objectName string, r io.Reader, size int64) error
}

type MinIOUploader struct {
	mc     *minio.Client
	bucket string
}

func NewMinIOUploader(endpoint, access, secret string, useTLS bool, bucket string) (*MinIOUploader, error) {
	mc, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: useTLS,
	})
	if err != nil {
		return nil, err
	}
	return &MinIOUploader{mc: mc, bucket: bucket}, nil
}

func (u *MinIOUploader) EnsureBucket(ctx context.Context) error {
	exists, err := u.mc.BucketExists(ctx, u.bucket)
	if err != nil {
		return err
	}
	if !exists {
		return u.mc.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{})
	}
	return nil
}

func (u *MinIOUploader) Upload(ctx context.Context, objectName string, r io.Reader, size int64) error {
	_, err := u.mc.PutObject(ctx, u.bucket, objectName, r, size, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	return err
}

// objectPath partitions the archive by day, hive-style.
func objectPath(base string, t time.Time, file string) string {
	return fmt.Sprintf("%s/year=%04d/month=%02d/day=%02d/%s",
		base, t.UTC().Year(), t.UTC().Month(), t.UTC().Day(), file)
}
