package blobstore

import (
	"bytes"
	"context"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"

	"github.com/fmlibermann/website/core"
)

type s3Store struct {
	client s3iface.S3API
	bucket string
}

var _ core.BlobStore = (*s3Store)(nil) // interface compliance check

func NewS3Store(conf *core.Config) (core.BlobStore, error) {
	s3Conf := conf.Storage.S3
	awsConf := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(s3Conf.AccessKey, s3Conf.SecretKey, ""),
		Region:           aws.String(s3Conf.Region),
		DisableSSL:       aws.Bool(!s3Conf.UseSSL),
		S3ForcePathStyle: aws.Bool(true),
	}
	if s3Conf.Endpoint != "" {
		awsConf.Endpoint = aws.String(s3Conf.Endpoint)
	}

	sess, err := session.NewSession(awsConf)
	if err != nil {
		return nil, errors.Wrap(err, "creating aws session")
	}
	return newS3Store(s3.New(sess), s3Conf.Bucket), nil
}

func newS3Store(client s3iface.S3API, bucket string) *s3Store {
	return &s3Store{client: client, bucket: bucket}
}

// Put uploads r under key. The reference returned is the object key.
func (s *s3Store) Put(ctx context.Context, key string, r io.Reader) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}

	body, ok := r.(io.ReadSeeker)
	if !ok {
		content, err := io.ReadAll(r)
		if err != nil {
			return "", errors.Wrap(err, "reading blob")
		}
		body = bytes.NewReader(content)
	}
	contentType, ok := core.ContentTypeFor(key)
	if !ok {
		contentType = "application/octet-stream"
	}

	if _, err = s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}); err != nil {
		return "", errors.Wrapf(err, "uploading %s", key)
	}
	return key, nil
}

func (s *s3Store) Get(ctx context.Context, ref string) ([]byte, error) {
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	})
	if err != nil {
		if aErr, ok := err.(awserr.Error); ok && aErr.Code() == s3.ErrCodeNoSuchKey {
			return nil, core.ErrBlobNotFound
		}
		return nil, errors.Wrapf(err, "downloading %s", ref)
	}
	defer func() { _ = out.Body.Close() }()

	content, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", ref)
	}
	return content, nil
}
