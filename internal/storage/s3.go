package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// S3 is a Store that keeps objects in an S3 bucket under a key prefix.
type S3 struct {
	client   s3iface.S3API
	uploader *s3manager.Uploader
	bucket   string
	prefix   string
}

// NewS3 returns a Store writing to bucket.  prefix is prepended to every
// key.
func NewS3(sess *session.Session, bucket, prefix string) *S3 {
	client := s3.New(sess)
	return &S3{
		client:   client,
		uploader: s3manager.NewUploaderWithClient(client),
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
	}
}

func (s *S3) objectKey(key string) (string, error) {
	k, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	if s.prefix == "" {
		return k, nil
	}
	return s.prefix + "/" + k, nil
}

func (s *S3) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	k, err := s.objectKey(key)
	if err != nil {
		return err
	}
	_, err = s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:               aws.String(s.bucket),
		Key:                  aws.String(k),
		Body:                 r,
		ContentType:          aws.String(contentType),
		ServerSideEncryption: aws.String(s3.ServerSideEncryptionAes256),
	})
	return err
}

func (s *S3) Get(ctx context.Context, key string) (io.ReadCloser, http.Header, error) {
	k, err := s.objectKey(key)
	if err != nil {
		return nil, nil, err
	}
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(k),
	})
	if err != nil {
		return nil, nil, translateS3Error(err)
	}
	h := http.Header{}
	if out.ContentType != nil {
		h.Set("Content-Type", *out.ContentType)
	}
	if out.ContentLength != nil {
		h.Set("Content-Length", strconv.FormatInt(*out.ContentLength, 10))
	}
	return out.Body, h, nil
}

func (s *S3) Delete(ctx context.Context, key string) error {
	k, err := s.objectKey(key)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(k),
	})
	return translateS3Error(err)
}

func translateS3Error(err error) error {
	var aerr awserr.Error
	if errors.As(err, &aerr) && (aerr.Code() == s3.ErrCodeNoSuchKey || aerr.Code() == "NotFound") {
		return ErrNoObject
	}
	return err
}
