package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/danthegoodman1/cirecord/gologger"
	// ensure "pgx" driver is loaded
	_ "github.com/jackc/pgx/v4/stdlib"
	migrate "github.com/rubenv/sql-migrate"
)

var (
	//go:embed *.sql
	migrations embed.FS

	ErrMigrationsNotRun = fmt.Errorf("not all migrations applied")

	logger = gologger.NewLogger()
)

const dialect = "postgres"

func source() migrate.MigrationSource {
	return migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrations,
		Root:       ".",
	}
}

func migrationSet() migrate.MigrationSet {
	return migrate.MigrationSet{
		TableName: "migrations",
	}
}

// RunMigrations applies every pending migration and returns how many ran.
func RunMigrations(crdbDsn string) (int, error) {
	db, err := sql.Open("pgx", crdbDsn)
	if err != nil {
		return 0, fmt.Errorf("error in sql.Open: %w", err)
	}
	defer db.Close()

	ms := migrationSet()
	n, err := ms.Exec(db, dialect, source(), migrate.Up)
	if err != nil {
		return n, fmt.Errorf("error in ms.Exec: %w", err)
	}
	logger.Info().Int("applied", n).Msg("ran migrations")
	return n, nil
}

// CheckMigrations returns ErrMigrationsNotRun if any embedded migration has not been
// applied yet, logging each missing one.
func CheckMigrations(crdbDsn string) error {
	db, err := sql.Open("pgx", crdbDsn)
	if err != nil {
		return fmt.Errorf("error in sql.Open: %w", err)
	}
	defer db.Close()

	ms := migrationSet()
	planned, _, err := ms.PlanMigration(db, dialect, source(), migrate.Up, 0)
	if err != nil {
		return fmt.Errorf("error in ms.PlanMigration: %w", err)
	}
	if len(planned) > 0 {
		for _, mig := range planned {
			logger.Warn().Str("migrationID", mig.Id).Msg("missing migration")
		}
		return ErrMigrationsNotRun
	}
	return nil
}
