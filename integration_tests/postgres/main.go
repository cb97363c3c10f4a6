package main

import (
	"cmp"
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/artie-labs/cursor/config"
	"github.com/artie-labs/cursor/integration_tests/utils"
	"github.com/artie-labs/cursor/lib/cursor"
	"github.com/artie-labs/cursor/lib/logger"
	"github.com/artie-labs/cursor/lib/mtr"
	"github.com/artie-labs/cursor/lib/rdbms"
)

func main() {
	var configFilePath string
	flag.StringVar(&configFilePath, "config", "", "path to an optional config file")
	flag.Parse()

	settings := &config.Settings{
		PostgreSQL: &config.PostgreSQL{
			Host:       cmp.Or(os.Getenv("PG_HOST"), "localhost"),
			Port:       5432,
			Username:   "postgres",
			Password:   "postgres",
			Database:   "postgres",
			DisableSSL: true,
			BatchSize:  2,
		},
	}

	if configFilePath != "" {
		var err error
		settings, err = config.ReadConfig(configFilePath)
		if err != nil {
			logger.Fatal("Failed to read config file", slog.Any("err", err))
		}
		if settings.PostgreSQL == nil {
			logger.Fatal("Config file has no PostgreSQL section")
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

	db, err := sql.Open("pgx", settings.PostgreSQL.ToDSN())
	if err != nil {
		logger.Fatal("Could not connect to Postgres", slog.Any("err", err))
	}
	defer db.Close()

	if err = testScan(context.Background(), db, settings.PostgreSQL, statsD); err != nil {
		logger.Fatal("Scan test failed", slog.Any("err", err))
	}
	slog.Info("Test succeeded 😎")
}

const expectedMaps = `[
  {
    "favorite_food": "schnitzel",
    "id": 1,
    "name": "dusty"
  },
  {
    "favorite_food": null,
    "id": 2,
    "name": "snowflake"
  },
  {
    "favorite_food": "burrito",
    "id": 3,
    "name": "bella"
  },
  {
    "favorite_food": "sushi",
    "id": 4,
    "name": "mochi"
  },
  {
    "favorite_food": "taco",
    "id": 5,
    "name": "pico"
  }
]`

func testScan(ctx context.Context, db *sql.DB, pgCfg *config.PostgreSQL, statsD *mtr.Client) error {
	tempTableName := utils.TempTableName()
	defer func() { _, _ = db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", tempTableName)) }()

	if _, err := db.Exec(fmt.Sprintf(`CREATE TABLE %s (id int PRIMARY KEY, name text NOT NULL, favorite_food text)`, tempTableName)); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	if _, err := db.Exec(fmt.Sprintf(`INSERT INTO %s VALUES
		(1, 'dusty', 'schnitzel'),
		(2, 'snowflake', NULL),
		(3, 'bella', 'burrito'),
		(4, 'mochi', 'sushi'),
		(5, 'pico', 'taco')`, tempTableName)); err != nil {
		return fmt.Errorf("failed to insert rows: %w", err)
	}

	newCursor := func() (*cursor.Cursor, error) {
		scanCfg := rdbms.ScannerConfig{
			TableName:    tempTableName,
			BatchSize:    pgCfg.BatchSize,
			ErrorRetries: 3,
			StatsD:       statsD,
		}
		return rdbms.NewCursor(ctx, db, scanCfg, fmt.Sprintf("SELECT id, name, favorite_food FROM %s ORDER BY id", tempTableName))
	}

	// Row by row, reading values by qualified column name.
	rowCursor, err := newCursor()
	if err != nil {
		return err
	}

	var names []string
	for {
		ok, err := rowCursor.Next(ctx)
		if err != nil {
			return fmt.Errorf("failed to advance cursor: %w", err)
		} else if !ok {
			break
		}

		name, err := rowCursor.ColumnValueByName("name", tempTableName)
		if err != nil {
			return fmt.Errorf("failed to read name column: %w", err)
		}
		names = append(names, fmt.Sprint(name))
	}

	expectedNames := "dusty,snowflake,bella,mochi,pico"
	if actualNames := strings.Join(names, ","); actualNames != expectedNames {
		return fmt.Errorf("names do not match, expected %q, got %q", expectedNames, actualNames)
	}

	// Batch reads honoring a size hint.
	batchCursor, err := newCursor()
	if err != nil {
		return err
	}

	hint := 2
	var batchSizes []int
	for {
		batch, err := batchCursor.ReadBatchOfRows(ctx, &hint)
		if err != nil {
			return fmt.Errorf("failed to read batch: %w", err)
		} else if len(batch) == 0 {
			break
		}
		batchSizes = append(batchSizes, len(batch))
	}

	if utils.CheckDifference("batch sizes", utils.MustJSON([]int{2, 2, 1}), utils.MustJSON(batchSizes)) {
		return fmt.Errorf("batch sizes do not match expected")
	}

	// Full materialization as maps.
	mapCursor, err := newCursor()
	if err != nil {
		return err
	}

	rows, err := mapCursor.ToMaps(ctx)
	if err != nil {
		return fmt.Errorf("failed to materialize rows: %w", err)
	}

	if utils.CheckDifference("materialized maps", expectedMaps, utils.MustJSON(utils.NormalizeRows(rows))) {
		return fmt.Errorf("materialized rows do not match expected")
	}
	return nil
}
