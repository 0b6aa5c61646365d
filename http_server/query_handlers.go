package http_server

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/danthegoodman1/cirecord/crdb"
	"github.com/danthegoodman1/cirecord/datastore"
	"github.com/danthegoodman1/cirecord/gologger"
	"github.com/danthegoodman1/cirecord/parquet_accumulator"
	"github.com/danthegoodman1/cirecord/record"
	"github.com/danthegoodman1/cirecord/utils"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

type (
	QueryReqBody struct {
		SQL  string `validate:"required"`
		Args []any
	}

	ReadReqBody struct {
		// Datastore path, e.g. `ns=events/y=2022/2JT3...parquet`
		Path string `validate:"required"`
	}
)

// QueryHandler runs a SQL statement against the catalogue database and returns
// each result row as a JSON object in column order.
func (s *HTTPServer) QueryHandler(c *CustomContext) error {
	var reqBody QueryReqBody
	if err := ValidateRequest(c, &reqBody); err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}

	records, err := crdb.QueryRecords(c.Request().Context(), reqBody.SQL, reqBody.Args...)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) || errors.Is(err, record.ErrDuplicateKey) {
		return c.BadRequest(err)
	}
	if err != nil {
		return c.InternalError(err, "error running query")
	}

	if len(records) > 0 {
		zerolog.Ctx(c.Request().Context()).Debug().Int("rows", len(records)).Dict("first", gologger.RecordDict(records[0])).Msg("ran query")
	}
	return c.JSON(http.StatusOK, utils.ArrayOrEmpty(records))
}

// ReadHandler decodes a parquet file from the datastore back into records.
func (s *HTTPServer) ReadHandler(c *CustomContext) error {
	var reqBody ReadReqBody
	if err := ValidateRequest(c, &reqBody); err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	pf, err := s.DataStore.OpenParquetFile(ctx, reqBody.Path)
	if errors.Is(err, datastore.ErrInvalidPath) {
		return c.BadRequest(err)
	}
	if errors.Is(err, fs.ErrNotExist) {
		return c.NotFound("file " + reqBody.Path)
	}
	if err != nil {
		return c.InternalError(err, "error opening parquet file")
	}
	defer pf.Close()

	records, err := parquet_accumulator.DecodeRecords(pf)
	if err != nil {
		return c.InternalError(err, "error decoding parquet file")
	}
	return c.JSON(http.StatusOK, utils.ArrayOrEmpty(records))
}

func (s *HTTPServer) ListFilesHandler(c *CustomContext) error {
	ns := c.Param("ns")

	var files []*record.Record
	err := utils.ReliableExecInTx(c.Request().Context(), crdb.PGPool, time.Second*15, func(ctx context.Context, tx pgx.Tx) (err error) {
		files, err = crdb.ListExportedFiles(ctx, tx, ns)
		return
	})
	if err != nil {
		return c.InternalError(err, "error listing files")
	}

	return c.JSON(http.StatusOK, utils.ArrayOrEmpty(files))
}
