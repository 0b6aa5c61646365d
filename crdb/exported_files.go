package crdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danthegoodman1/cirecord/record"
	"github.com/danthegoodman1/cirecord/row"
	"github.com/jackc/pgx/v4"
)

type (
	ExportedFile struct {
		ID        string
		Namespace string
		// The partition path, minus the leading `ns={Namespace}/`.
		//
		// Ex: `year=2022/month=12/day=30`
		Partition string
		Name      string
		Bytes     int64
		Rows      int64
		Columns   []string
		Enabled   bool
		CreatedAt time.Time
	}

	SelectFilesForMergingParams struct {
		Namespace string
		// Empty picks the partition with the most enabled files
		Partition string
		MaxBytes  int64
		MaxFiles  int32
	}
)

var (
	ErrNothingToMerge = errors.New("nothing to merge")
)

// Path is where the file lives in the datastore.
func (f ExportedFile) Path() string {
	return FilePath(f.Namespace, f.Partition, f.Name)
}

func FilePath(namespace, partition, name string) string {
	if partition == "" {
		return fmt.Sprintf("ns=%s/%s", namespace, name)
	}
	return fmt.Sprintf("ns=%s/%s/%s", namespace, partition, name)
}

func InsertExportedFile(ctx context.Context, tx pgx.Tx, f ExportedFile) error {
	_, err := tx.Exec(ctx, `
	INSERT INTO exported_files (id, namespace, partition, name, bytes, rows, columns)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, f.ID, f.Namespace, f.Partition, f.Name, f.Bytes, f.Rows, f.Columns)
	if err != nil {
		return fmt.Errorf("error in tx.Exec: %w", err)
	}
	return nil
}

// ListExportedFiles returns the catalogue rows for a namespace as records, newest
// first.
func ListExportedFiles(ctx context.Context, tx pgx.Tx, namespace string) ([]*record.Record, error) {
	rows, err := tx.Query(ctx, `
	SELECT id, namespace, partition, name, bytes, rows, columns, enabled, created_at
	FROM exported_files
	WHERE namespace = $1
	ORDER BY created_at DESC
	`, namespace)
	if err != nil {
		return nil, fmt.Errorf("error in tx.Query: %w", err)
	}
	return row.FromPgxRows(rows)
}

// SelectFilesForMerging returns the oldest enabled files of a single partition that
// are under MaxBytes. Returns ErrNothingToMerge if fewer than two qualify.
func SelectFilesForMerging(ctx context.Context, tx pgx.Tx, params SelectFilesForMergingParams) ([]ExportedFile, error) {
	partition := params.Partition
	if partition == "" {
		err := tx.QueryRow(ctx, `
		SELECT partition
		FROM exported_files
		WHERE namespace = $1 AND enabled AND bytes < $2
		GROUP BY partition
		HAVING count(*) > 1
		ORDER BY count(*) DESC
		LIMIT 1
		`, params.Namespace, params.MaxBytes).Scan(&partition)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNothingToMerge
		}
		if err != nil {
			return nil, fmt.Errorf("error selecting partition: %w", err)
		}
	}

	rows, err := tx.Query(ctx, `
	SELECT id, namespace, partition, name, bytes, rows, columns, enabled, created_at
	FROM exported_files
	WHERE namespace = $1 AND partition = $2 AND enabled AND bytes < $3
	ORDER BY created_at
	LIMIT $4
	`, params.Namespace, partition, params.MaxBytes, params.MaxFiles)
	if err != nil {
		return nil, fmt.Errorf("error in tx.Query: %w", err)
	}
	defer rows.Close()

	var files []ExportedFile
	for rows.Next() {
		var f ExportedFile
		err := rows.Scan(&f.ID, &f.Namespace, &f.Partition, &f.Name, &f.Bytes, &f.Rows, &f.Columns, &f.Enabled, &f.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("error in rows.Scan: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error in rows.Err: %w", err)
	}
	if len(files) < 2 {
		return nil, ErrNothingToMerge
	}
	return files, nil
}

func DisableExportedFiles(ctx context.Context, tx pgx.Tx, namespace, partition string, names []string) error {
	_, err := tx.Exec(ctx, `
	UPDATE exported_files
	SET enabled = false
	WHERE namespace = $1 AND partition = $2 AND name = ANY($3)
	`, namespace, partition, names)
	if err != nil {
		return fmt.Errorf("error in tx.Exec: %w", err)
	}
	return nil
}
