package crdb

import (
	"context"
	"fmt"
	"time"

	"github.com/danthegoodman1/cirecord/gologger"
	"github.com/danthegoodman1/cirecord/record"
	"github.com/danthegoodman1/cirecord/row"
	"github.com/danthegoodman1/cirecord/utils"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

var (
	PGPool                 *pgxpool.Pool
	StandardContextTimeout = 10 * time.Second

	// QueryTxOptions keeps caller supplied SQL from writing, which also makes
	// retrying it safe.
	QueryTxOptions = pgx.TxOptions{AccessMode: pgx.ReadOnly}

	logger = gologger.NewLogger()
)

func ConnectToDB() error {
	logger.Debug().Msg("connecting to CRDB...")
	var err error
	config, err := pgxpool.ParseConfig(utils.CRDB_DSN)
	if err != nil {
		return err
	}

	config.MaxConns = 10
	config.MinConns = 1
	config.HealthCheckPeriod = time.Second * 5
	config.MaxConnLifetime = time.Minute * 30
	config.MaxConnIdleTime = time.Minute * 30

	PGPool, err = pgxpool.ConnectConfig(context.Background(), config)
	if err != nil {
		return err
	}
	logger.Debug().Msg("connected to CRDB")
	return nil
}

// QueryRecords runs query in a read-only transaction on PGPool and returns one record
// per result row, keyed by the column names the server reports. Statements that
// write fail with SQLSTATE 25006 and are not retried.
func QueryRecords(ctx context.Context, query string, args ...any) ([]*record.Record, error) {
	var records []*record.Record
	err := utils.ReliableExecInTxWithOptions(ctx, PGPool, StandardContextTimeout, QueryTxOptions, func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("error in tx.Query: %w", err)
		}
		records, err = row.FromPgxRows(rows)
		if err != nil {
			// a result row that cannot become a record will not get better on retry
			return utils.Permanent(fmt.Errorf("error in row.FromPgxRows: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}
