package datastore

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/danthegoodman1/cirecord/s3_helper"
	s3_pq "github.com/xitongsys/parquet-go-source/s3"
	"github.com/xitongsys/parquet-go/source"
)

type (
	S3DataStore struct {
		bucket string
		client *s3.S3
	}
)

func NewS3DataStore(bucket string) (*S3DataStore, error) {
	client, err := s3_helper.NewClient()
	if err != nil {
		return nil, fmt.Errorf("error in s3_helper.NewClient: %w", err)
	}
	return NewS3DataStoreWithClient(client, bucket), nil
}

func NewS3DataStoreWithClient(client *s3.S3, bucket string) *S3DataStore {
	return &S3DataStore{
		bucket: bucket,
		client: client,
	}
}

// countingReader tracks how many bytes the uploader pulled through it
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func (s *S3DataStore) WriteFile(ctx context.Context, p string, r io.Reader) (int64, error) {
	clean, err := CleanPath(p)
	if err != nil {
		return 0, err
	}
	cr := &countingReader{r: r}
	_, err = s3_helper.WriteBytesToS3(ctx, s.client, s.bucket, clean, cr, nil)
	if err != nil {
		return cr.n, fmt.Errorf("error in WriteBytesToS3: %w", err)
	}
	return cr.n, nil
}

func (s *S3DataStore) OpenParquetFile(ctx context.Context, p string) (source.ParquetFile, error) {
	clean, err := CleanPath(p)
	if err != nil {
		return nil, err
	}
	pf, err := s3_pq.NewS3FileReaderWithClient(ctx, s.client, s.bucket, clean)
	if err != nil {
		return nil, fmt.Errorf("error creating new s3 file reader: %w", err)
	}
	return pf, nil
}

func (s *S3DataStore) Shutdown(context.Context) error {
	return nil
}
