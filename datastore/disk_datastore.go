package datastore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/source"
)

type (
	DiskDataStore struct {
		rootPath string
	}
)

func NewDiskDataStore(rootPath string) (*DiskDataStore, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("error in os.MkdirAll: %w", err)
	}
	dds := &DiskDataStore{
		rootPath: rootPath,
	}

	return dds, nil
}

func (dds *DiskDataStore) RootPath() string {
	return dds.rootPath
}

func (dds *DiskDataStore) fullPath(p string) (string, error) {
	clean, err := CleanPath(p)
	if err != nil {
		return "", err
	}
	return filepath.Join(dds.rootPath, filepath.FromSlash(clean)), nil
}

func (dds *DiskDataStore) WriteFile(_ context.Context, p string, r io.Reader) (int64, error) {
	full, err := dds.fullPath(p)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return 0, fmt.Errorf("error in os.MkdirAll: %w", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return 0, fmt.Errorf("error in os.Create: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		return n, fmt.Errorf("error in io.Copy: %w", err)
	}
	logger.Debug().Str("path", full).Int64("bytes", n).Msg("wrote file to disk")
	return n, f.Close()
}

func (dds *DiskDataStore) OpenParquetFile(_ context.Context, p string) (source.ParquetFile, error) {
	full, err := dds.fullPath(p)
	if err != nil {
		return nil, err
	}
	pf, err := local.NewLocalFileReader(full)
	if err != nil {
		return nil, fmt.Errorf("error in local.NewLocalFileReader: %w", err)
	}
	return pf, nil
}

func (dds *DiskDataStore) Shutdown(context.Context) error {
	return nil
}
