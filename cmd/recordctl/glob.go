package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/danthegoodman1/cirecord/crdb"
	"github.com/danthegoodman1/cirecord/record"
	"github.com/danthegoodman1/cirecord/utils"
	"github.com/spf13/cobra"
)

var (
	baseURL string

	ErrNoFiles = errors.New("no enabled files in range")
)

func buildGlobCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "glob <namespace> <from-partition> <to-partition>",
		Short:   "Print a brace glob of the enabled files in a partition range, for use with ClickHouse s3()",
		Example: "recordctl glob events y=2022/m=12/d=01 y=2022/m=12/d=31",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := runQuery(cmd.Context(), dsn, `
			SELECT partition, name
			FROM exported_files
			WHERE namespace = $1 AND enabled AND partition >= $2 AND partition <= $3
			ORDER BY partition, name
			`, args[0], args[1], args[2])
			if err != nil {
				return err
			}
			glob, err := fileGlob(baseURL, args[0], records)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(os.Stdout, glob)
			return err
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", utils.CRDB_DSN, "Postgres/CockroachDB connection string, defaults to $CRDB_DSN")
	cmd.Flags().StringVar(&baseURL, "base-url", strings.TrimSuffix(utils.S3_ENDPOINT, "/")+"/"+utils.S3_BUCKET_NAME, "URL prefix the file paths are joined onto")
	return cmd
}

// fileGlob joins the catalogue rows into `<baseURL>/{path1,path2}`.
func fileGlob(baseURL, namespace string, files []*record.Record) (string, error) {
	if len(files) == 0 {
		return "", ErrNoFiles
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		partition, err := f.Get("partition")
		if err != nil {
			return "", err
		}
		name, err := f.Get("name")
		if err != nil {
			return "", err
		}
		paths = append(paths, crdb.FilePath(namespace, fmt.Sprint(partition), fmt.Sprint(name)))
	}
	return fmt.Sprintf("%s/{%s}", strings.TrimSuffix(baseURL, "/"), strings.Join(paths, ",")), nil
}
