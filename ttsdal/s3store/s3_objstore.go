package s3store

import (
	"context"
	"io"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/tts-data-client/ttsdal"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	// the OEDI data lake lives in us-west-2
	DefaultEndpoint = "s3.us-west-2.amazonaws.com"

	noSuchKeyErrorCode = "NoSuchKey"
)

var _ ttsdal.ObjStore = &S3ObjStore{}

// S3ObjStore reads one publicly-readable bucket over the S3 API with
// anonymous credentials.
type S3ObjStore struct {
	client     *minio.Client
	bucketName string
}

func NewS3ObjStore(endpoint, bucketName string) (*S3ObjStore, errorsx.Error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4("", "", ""),
		Secure: true,
	})
	if err != nil {
		return nil, errorsx.Wrap(err, "endpoint", endpoint)
	}

	return &S3ObjStore{client: client, bucketName: bucketName}, nil
}

func NewDefaultS3ObjStore() (*S3ObjStore, errorsx.Error) {
	return NewS3ObjStore(DefaultEndpoint, ttsdal.DefaultBucketName)
}

func (s *S3ObjStore) ListKeys(ctx context.Context, prefix string) ([]ttsdal.ObjectInfo, errorsx.Error) {
	objectsChan := s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	var infos []ttsdal.ObjectInfo
	for object := range objectsChan {
		if object.Err != nil {
			return nil, errorsx.Wrap(object.Err, "bucket", s.bucketName, "prefix", prefix)
		}

		infos = append(infos, ttsdal.ObjectInfo{Key: object.Key, Size: object.Size})
	}

	return infos, nil
}

func (s *S3ObjStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	object, err := s.client.GetObject(ctx, s.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errorsx.Wrap(err, "key", key)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		if minio.ToErrorResponse(err).Code == noSuchKeyErrorCode {
			return nil, errorsx.ObjectNotFound
		}

		return nil, errorsx.Wrap(err, "key", key)
	}

	return data, nil
}
