package main

import (
	"cmp"
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	_ "github.com/go-sql-driver/mysql"

	"github.com/artie-labs/cursor/config"
	"github.com/artie-labs/cursor/integration_tests/utils"
	"github.com/artie-labs/cursor/lib/cursor"
	"github.com/artie-labs/cursor/lib/iterator"
	"github.com/artie-labs/cursor/lib/logger"
	"github.com/artie-labs/cursor/lib/mtr"
	"github.com/artie-labs/cursor/lib/rdbms"
)

func main() {
	var configFilePath string
	flag.StringVar(&configFilePath, "config", "", "path to an optional config file")
	flag.Parse()

	settings := &config.Settings{
		MySQL: &config.MySQL{
			Host:      cmp.Or(os.Getenv("MYSQL_HOST"), "localhost"),
			Port:      3306,
			Username:  "root",
			Password:  "mysql",
			Database:  "mysql",
			BatchSize: 2,
		},
	}

	if configFilePath != "" {
		var err error
		settings, err = config.ReadConfig(configFilePath)
		if err != nil {
			logger.Fatal("Failed to read config file", slog.Any("err", err))
		}
		if settings.MySQL == nil {
			logger.Fatal("Config file has no MySQL section")
		}
	}

	_logger, usingSentry := logger.NewLogger(settings)
	slog.SetDefault(_logger)
	if usingSentry {
		defer sentry.Flush(2 * time.Second)
		slog.Info("Sentry logger enabled")
	}

	statsD, err := utils.SetUpMetrics(settings.Metrics)
	if err != nil {
		logger.Fatal("Failed to set up metrics", slog.Any("err", err))
	}

	db, err := sql.Open("mysql", settings.MySQL.ToDSN())
	if err != nil {
		logger.Fatal("Could not connect to MySQL", slog.Any("err", err))
	}
	defer db.Close()

	if err = testScan(context.Background(), db, settings.MySQL, statsD); err != nil {
		logger.Fatal("Scan test failed", slog.Any("err", err))
	}
	slog.Info("Test succeeded 😎")
}

const expectedMaps = `[
  {
    "favorite_food": "schnitzel",
    "id": "1",
    "name": "dusty"
  },
  {
    "favorite_food": null,
    "id": "2",
    "name": "snowflake"
  },
  {
    "favorite_food": "burrito",
    "id": "3",
    "name": "bella"
  }
]`

func testScan(ctx context.Context, db *sql.DB, mysqlCfg *config.MySQL, statsD *mtr.Client) error {
	tempTableName := utils.TempTableName()
	defer func() { _, _ = db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", tempTableName)) }()

	if _, err := db.Exec(fmt.Sprintf("CREATE TABLE %s (id int PRIMARY KEY, name text NOT NULL, favorite_food text)", tempTableName)); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	if _, err := db.Exec(fmt.Sprintf(`INSERT INTO %s VALUES
		(1, 'dusty', 'schnitzel'),
		(2, 'snowflake', NULL),
		(3, 'bella', 'burrito')`, tempTableName)); err != nil {
		return fmt.Errorf("failed to insert rows: %w", err)
	}

	newCursor := func() (*cursor.Cursor, error) {
		scanCfg := rdbms.ScannerConfig{
			TableName:    tempTableName,
			BatchSize:    mysqlCfg.BatchSize,
			ErrorRetries: 3,
			StatsD:       statsD,
		}
		return rdbms.NewCursor(ctx, db, scanCfg, fmt.Sprintf("SELECT id, name, favorite_food FROM %s ORDER BY id", tempTableName))
	}

	// Lazy map stream.
	streamCursor, err := newCursor()
	if err != nil {
		return err
	}

	streamed, err := iterator.Collect(streamCursor.MapStream(ctx))
	if err != nil {
		return fmt.Errorf("failed to drain map stream: %w", err)
	}

	if utils.CheckDifference("streamed maps", expectedMaps, utils.MustJSON(utils.NormalizeRows(streamed))) {
		return fmt.Errorf("streamed rows do not match expected")
	}

	// Eager materialization must agree with the stream.
	materializeCursor, err := newCursor()
	if err != nil {
		return err
	}

	materialized, err := materializeCursor.ToMaps(ctx)
	if err != nil {
		return fmt.Errorf("failed to materialize rows: %w", err)
	}

	if utils.CheckDifference("materialized maps", expectedMaps, utils.MustJSON(utils.NormalizeRows(materialized))) {
		return fmt.Errorf("materialized rows do not match expected")
	}

	// Draining a drained cursor reports exhaustion, not an error.
	leftover, err := materializeCursor.ToRows(ctx)
	if err != nil {
		return fmt.Errorf("failed to re-drain cursor: %w", err)
	} else if len(leftover) != 0 {
		return fmt.Errorf("expected no leftover rows, got %d", len(leftover))
	}
	return nil
}
