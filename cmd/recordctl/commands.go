package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"slices"

	"github.com/danthegoodman1/cirecord/datastore"
	"github.com/danthegoodman1/cirecord/migrations"
	"github.com/danthegoodman1/cirecord/parquet_accumulator"
	"github.com/danthegoodman1/cirecord/record"
	"github.com/danthegoodman1/cirecord/row"
	"github.com/danthegoodman1/cirecord/utils"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/spf13/cobra"
)

var dsn string

func validateOutputFormat(*cobra.Command, []string) error {
	if !slices.Contains(availableOutputFormats, outputFormat) {
		return fmt.Errorf("invalid output format %s", outputFormat)
	}
	return nil
}

func buildQueryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "query <sql> [args...]",
		Example: `recordctl query "SELECT * FROM exported_files WHERE namespace = $1" events`,
		Args:    cobra.MinimumNArgs(1),
		PreRunE: validateOutputFormat,
		RunE: func(cmd *cobra.Command, args []string) error {
			queryArgs := make([]any, 0, len(args)-1)
			for _, a := range args[1:] {
				queryArgs = append(queryArgs, a)
			}
			records, err := runQuery(cmd.Context(), dsn, args[0], queryArgs...)
			if err != nil {
				return err
			}
			return printRecords(records)
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", utils.CRDB_DSN, "Postgres/CockroachDB connection string, defaults to $CRDB_DSN")
	return cmd
}

func buildReadCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "read <path>",
		Example: "recordctl read ns=events/y=2022/2JT3Yd6eJ0bE8dZVb8kmJ2Wx0mT.parquet",
		Short:   "Print a parquet file from the configured datastore",
		Args:    cobra.ExactArgs(1),
		PreRunE: validateOutputFormat,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := datastore.NewFromEnv()
			if err != nil {
				return fmt.Errorf("error in datastore.NewFromEnv: %w", err)
			}
			pf, err := ds.OpenParquetFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer pf.Close()

			records, err := parquet_accumulator.DecodeRecords(pf)
			if err != nil {
				return err
			}
			return printRecords(records)
		},
	}
}

func buildMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending catalogue migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := migrations.RunMigrations(dsn)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migrations\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", utils.CRDB_DSN, "Postgres/CockroachDB connection string, defaults to $CRDB_DSN")
	return cmd
}

var readOnlyTx = &sql.TxOptions{ReadOnly: true}

func runQuery(ctx context.Context, dsn, query string, args ...any) ([]*record.Record, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("error in sql.Open: %w", err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, readOnlyTx)
	if err != nil {
		return nil, fmt.Errorf("error in db.BeginTx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error in tx.QueryContext: %w", err)
	}
	defer rows.Close()

	return row.FromSQLRows(rows)
}

func printRecords(records []*record.Record) error {
	out, err := renderRecords(records, outputFormat)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, out)
	return err
}
