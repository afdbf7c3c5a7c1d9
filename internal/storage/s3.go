package storage

import (
	"bytes"
	"context"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"
)

// S3Config holds the connection details for an S3 compatible bucket.
type S3Config struct {
	Endpoint string
	Region   string
	Bucket   string
	Key      string
	Secret   string
}

// S3 stores attachments as objects. Folder ids are key prefixes and a folder
// exists once its "<prefix>/" marker object does.
type S3 struct {
	client s3iface.S3API
	bucket string
}

func NewS3(cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("requires bucket")
	}
	awsCfg := &aws.Config{
		Region:           aws.String(cfg.Region),
		S3ForcePathStyle: aws.Bool(true),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	if cfg.Key != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.Key, cfg.Secret, "")
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create S3 session")
	}
	return NewS3WithClient(s3.New(sess), cfg.Bucket), nil
}

func NewS3WithClient(client s3iface.S3API, bucket string) *S3 {
	return &S3{client: client, bucket: bucket}
}

func objectKey(parent, name string) string {
	return strings.TrimPrefix(path.Join(parent, name), "/")
}

func (s *S3) FindFolder(ctx context.Context, parent, name string) (string, bool, error) {
	key := objectKey(parent, name)
	out, err := s.client.ListObjectsV2WithContext(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(key + "/"),
		MaxKeys: aws.Int64(1),
	})
	if err != nil {
		return "", false, errors.Wrapf(err, "s3 find folder %q", key)
	}
	if aws.Int64Value(out.KeyCount) == 0 && len(out.Contents) == 0 {
		return "", false, nil
	}
	return key, true, nil
}

func (s *S3) CreateFolder(ctx context.Context, parent, name string) (string, error) {
	key := objectKey(parent, name)
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key + "/"),
		Body:   bytes.NewReader(nil),
	})
	if err != nil {
		return "", errors.Wrapf(err, "s3 create folder %q", key)
	}
	return key, nil
}

func (s *S3) Upload(ctx context.Context, parent, name, mimeType string, data []byte) (string, error) {
	key := objectKey(parent, name)
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if mimeType != "" {
		input.ContentType = aws.String(mimeType)
	}
	if _, err := s.client.PutObjectWithContext(ctx, input); err != nil {
		return "", errors.Wrapf(err, "s3 upload %q", key)
	}
	return key, nil
}
