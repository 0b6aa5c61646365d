package http_server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danthegoodman1/cirecord/crdb"
	"github.com/danthegoodman1/cirecord/parquet_accumulator"
	"github.com/danthegoodman1/cirecord/record"
	"github.com/danthegoodman1/cirecord/utils"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

type (
	MergeReqBody struct {
		Namespace string `validate:"required,excludesall=/"`
		// The partition path, minus the leading `ns={Namespace}/`.
		//
		// Ex: `year=2022/month=12/day=30`
		//
		// Default is the partition with the most enabled files.
		Partition *string
		// The max file size in bytes that will be considered for merging.
		//
		// Default 1GB.
		MaxPreMergeFileBytes *int64 `validate:"omitempty,gt=0"`
		// Max number of files to merge at once.
		//
		// Default 4.
		MaxMergeFiles *int32 `validate:"omitempty,gt=1"`
		// How many seconds before the merge will time out.
		//
		// Default `60`.
		MaxRuntimeSec *int64 `validate:"omitempty,gt=0"`
	}

	MergeStats struct {
		FilesMerged int64
		RowsMerged  int64
		// The size of the file after merging
		PostMergeBytes int64
		TimeMS         int64
		Partition      string
		// Datastore path of the merged file
		File string
	}
)

// MergeHandler compacts small files of one partition into a single file. Rows from
// files whose column casing differs end up in the same column.
func (s *HTTPServer) MergeHandler(c *CustomContext) error {
	var reqBody MergeReqBody
	if err := ValidateRequest(c, &reqBody); err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}

	maxRuntime := time.Second * time.Duration(utils.Deref(reqBody.MaxRuntimeSec, 60))
	ctx, cancel := context.WithTimeout(c.Request().Context(), maxRuntime)
	defer cancel()

	logger := zerolog.Ctx(ctx)
	start := time.Now()

	var files []crdb.ExportedFile
	err := utils.ReliableExecInTx(ctx, crdb.PGPool, maxRuntime, func(ctx context.Context, tx pgx.Tx) (err error) {
		files, err = crdb.SelectFilesForMerging(ctx, tx, crdb.SelectFilesForMergingParams{
			Namespace: reqBody.Namespace,
			Partition: utils.Deref(reqBody.Partition, ""),
			MaxBytes:  utils.Deref(reqBody.MaxPreMergeFileBytes, 1_000_000_000),
			MaxFiles:  utils.Deref(reqBody.MaxMergeFiles, 4),
		})
		if errors.Is(err, crdb.ErrNothingToMerge) {
			return utils.Permanent(err)
		}
		return
	})
	if errors.Is(err, crdb.ErrNothingToMerge) {
		logger.Debug().Msg("not enough files to merge")
		return c.NoContent(http.StatusNoContent)
	}
	if err != nil {
		return c.InternalError(err, "error getting files for merging")
	}

	res := MergeStats{
		Partition: files[0].Partition,
	}

	var merged []*record.Record
	for _, file := range files {
		rows, err := s.readExportedFile(ctx, file)
		if err != nil {
			return c.InternalError(err, "error reading file "+file.Path())
		}
		merged = append(merged, rows...)
		res.FilesMerged++
	}
	res.RowsMerged = int64(len(merged))

	var b bytes.Buffer
	acc, err := parquet_accumulator.EncodeRecords(&b, merged)
	if err != nil {
		return c.InternalError(err, "error encoding merged file")
	}

	fileName := fmt.Sprintf("%s.parquet", utils.GenKSortedID(""))
	res.File = crdb.FilePath(reqBody.Namespace, res.Partition, fileName)
	res.PostMergeBytes, err = s.DataStore.WriteFile(ctx, res.File, &b)
	if err != nil {
		return c.InternalError(err, "error writing merged file")
	}

	oldNames := make([]string, 0, len(files))
	for _, file := range files {
		oldNames = append(oldNames, file.Name)
	}

	err = utils.ReliableExecInTx(ctx, crdb.PGPool, maxRuntime, func(ctx context.Context, tx pgx.Tx) error {
		err := crdb.InsertExportedFile(ctx, tx, crdb.ExportedFile{
			ID:        utils.GenRandomID("f_"),
			Namespace: reqBody.Namespace,
			Partition: res.Partition,
			Name:      fileName,
			Bytes:     res.PostMergeBytes,
			Rows:      res.RowsMerged,
			Columns:   acc.GetColumnNames(),
		})
		if err != nil {
			return fmt.Errorf("error in InsertExportedFile: %w", err)
		}
		err = crdb.DisableExportedFiles(ctx, tx, reqBody.Namespace, res.Partition, oldNames)
		if err != nil {
			return fmt.Errorf("error in DisableExportedFiles: %w", err)
		}
		return nil
	})
	if err != nil {
		return c.InternalError(err, "error updating catalogue")
	}

	res.TimeMS = time.Since(start).Milliseconds()
	logger.Debug().Interface("response", res).Msg("merged files")

	return c.JSON(http.StatusOK, res)
}

func (s *HTTPServer) readExportedFile(ctx context.Context, file crdb.ExportedFile) ([]*record.Record, error) {
	pf, err := s.DataStore.OpenParquetFile(ctx, file.Path())
	if err != nil {
		return nil, fmt.Errorf("error in OpenParquetFile: %w", err)
	}
	defer pf.Close()

	rows, err := parquet_accumulator.DecodeRecords(pf)
	if err != nil {
		return nil, fmt.Errorf("error in DecodeRecords: %w", err)
	}
	return rows, nil
}
