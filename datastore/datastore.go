package datastore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/danthegoodman1/cirecord/gologger"
	"github.com/danthegoodman1/cirecord/utils"
	"github.com/xitongsys/parquet-go/source"
)

var (
	logger = gologger.NewLogger()

	ErrInvalidPath      = errors.New("invalid path")
	ErrUnknownDataStore = errors.New("unknown datastore")
)

type (
	// DataStore is where exported parquet files live. Paths are slash separated and
	// relative, e.g. `ns=events/y=2022/file.parquet`.
	DataStore interface {
		// WriteFile stores everything read from r at path, returning the byte count
		WriteFile(ctx context.Context, path string, r io.Reader) (int64, error)
		// OpenParquetFile opens path for reading with parquet-go. The caller closes it.
		OpenParquetFile(ctx context.Context, path string) (source.ParquetFile, error)

		Shutdown(ctx context.Context) error
	}
)

// NewFromEnv builds the datastore selected by the DATASTORE env var.
func NewFromEnv() (DataStore, error) {
	switch utils.DATASTORE {
	case "s3":
		s3ds, err := NewS3DataStore(utils.S3_BUCKET_NAME)
		if err != nil {
			return nil, err
		}
		return s3ds, nil
	case "disk":
		dds, err := NewDiskDataStore(utils.DISK_ROOT)
		if err != nil {
			return nil, err
		}
		return dds, nil
	default:
		return nil, fmt.Errorf("%q: %w", utils.DATASTORE, ErrUnknownDataStore)
	}
}

// CleanPath normalizes p and rejects anything that could escape the store root.
func CleanPath(p string) (string, error) {
	if p == "" || strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("%q: %w", p, ErrInvalidPath)
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%q: %w", p, ErrInvalidPath)
		}
	}
	return path.Clean(p), nil
}
