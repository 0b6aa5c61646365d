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
	"github.com/danthegoodman1/cirecord/partitioner"
	"github.com/danthegoodman1/cirecord/utils"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

type (
	IngestReqBody struct {
		Namespace string `validate:"required,excludesall=/"`
		// Line-delimited JSON (NDJSON)
		RowsString *string
		// Array of JSON
		Rows        []map[string]any
		Partitioner []partitioner.PartitionPlan `validate:"dive"`
	}

	encodedPartition struct {
		id   string
		rows int64
		acc  parquet_accumulator.ParquetSchemaAccumulator
		buf  *bytes.Buffer
	}

	IngestStats struct {
		NumRows      int64
		NumFiles     int64
		BytesWritten int64
		TimeMS       int64
		// Datastore paths of the files written
		Files []string
	}
)

func (s *HTTPServer) IngestHandler(c *CustomContext) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), time.Second*60)
	defer cancel()

	logger := zerolog.Ctx(ctx)
	start := time.Now()

	var reqBody IngestReqBody
	if err := ValidateRequest(c, &reqBody); err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}

	records, err := parseRows(reqBody.RowsString, reqBody.Rows)
	if err != nil {
		return c.BadRequest(err)
	}

	parts, err := partitionRows(records, reqBody.Partitioner)
	if err != nil {
		return c.BadRequest(err)
	}

	// encode every partition first so a bad one fails the request before anything is written
	encoded := make([]encodedPartition, 0, len(parts.order))
	for _, partID := range parts.order {
		p := encodedPartition{id: partID, rows: int64(len(parts.rows[partID])), buf: &bytes.Buffer{}}
		p.acc, err = parquet_accumulator.EncodeRecords(p.buf, parts.rows[partID])
		if errors.Is(err, parquet_accumulator.ErrNoColumns) {
			return c.BadRequest(fmt.Errorf("partition %q: %w", partID, err))
		}
		if err != nil {
			return c.InternalError(err, "error encoding partition "+partID)
		}
		encoded = append(encoded, p)
	}

	var stats IngestStats
	for i := range encoded {
		p := &encoded[i]

		fileName := fmt.Sprintf("%s.parquet", utils.GenKSortedID(""))
		filePath := crdb.FilePath(reqBody.Namespace, p.id, fileName)
		byteLen, err := s.DataStore.WriteFile(ctx, filePath, p.buf)
		if err != nil {
			return c.InternalError(err, "error writing file to datastore")
		}

		err = utils.ReliableExecInTx(ctx, crdb.PGPool, time.Second*10, func(ctx context.Context, tx pgx.Tx) error {
			return crdb.InsertExportedFile(ctx, tx, crdb.ExportedFile{
				ID:        utils.GenRandomID("f_"),
				Namespace: reqBody.Namespace,
				Partition: p.id,
				Name:      fileName,
				Bytes:     byteLen,
				Rows:      p.rows,
				Columns:   p.acc.GetColumnNames(),
			})
		})
		if err != nil {
			return c.InternalError(err, "error inserting file")
		}

		logger.Debug().Str("path", filePath).Int64("rows", p.rows).Strs("columns", p.acc.GetColumnNames()).Msg("wrote partition")
		stats.NumRows += p.rows
		stats.BytesWritten += byteLen
		stats.NumFiles++
		stats.Files = append(stats.Files, filePath)
	}

	stats.TimeMS = time.Since(start).Milliseconds()
	return c.JSON(http.StatusAccepted, stats)
}
