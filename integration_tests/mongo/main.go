package main

import (
	"cmp"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/artie-labs/cursor/config"
	"github.com/artie-labs/cursor/integration_tests/utils"
	"github.com/artie-labs/cursor/lib/cursor"
	"github.com/artie-labs/cursor/lib/logger"
	"github.com/artie-labs/cursor/lib/mongodb"
)

func main() {
	var configFilePath string
	flag.StringVar(&configFilePath, "config", "", "path to an optional config file")
	flag.Parse()

	mongoHost := cmp.Or(os.Getenv("MONGO_HOST"), "localhost")
	settings := &config.Settings{
		MongoDB: &config.MongoDB{
			URI:        fmt.Sprintf("mongodb://root:example@%s:27017", mongoHost),
			Database:   "test",
			DisableTLS: true,
		},
	}

	if configFilePath != "" {
		var err error
		settings, err = config.ReadConfig(configFilePath)
		if err != nil {
			logger.Fatal("Failed to read config file", slog.Any("err", err))
		}
		if settings.MongoDB == nil {
			logger.Fatal("Config file has no MongoDB section")
		}
	}

	_logger, usingSentry := logger.NewLogger(settings)
	slog.SetDefault(_logger)
	if usingSentry {
		defer sentry.Flush(2 * time.Second)
		slog.Info("Sentry logger enabled")
	}

	ctx := context.Background()
	client, err := mongo.Connect(ctx, settings.MongoDB.ToClientOptions())
	if err != nil {
		logger.Fatal("Could not connect to MongoDB", slog.Any("err", err))
	}
	defer func() { _ = client.Disconnect(ctx) }()

	if err = testInferredColumns(ctx, client.Database(settings.MongoDB.Database)); err != nil {
		logger.Fatal("Inferred columns test failed", slog.Any("err", err))
	}
	slog.Info("Test succeeded 😎")
}

const expectedRows = `[
  [
    1,
    "dusty"
  ],
  [
    null,
    "snowflake"
  ]
]`

// Documents with inconsistent key sets must come back as a rectangular, column-aligned matrix.
func testInferredColumns(ctx context.Context, db *mongo.Database) error {
	collection := db.Collection(utils.TempTableName())
	defer func() { _ = collection.Drop(ctx) }()

	docs := []any{
		bson.D{{Key: "name", Value: "dusty"}, {Key: "age", Value: int32(1)}},
		bson.D{{Key: "name", Value: "snowflake"}},
	}
	if _, err := collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert documents: %w", err)
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetProjection(bson.D{{Key: "_id", Value: 0}})
	mongoCursor, err := collection.Find(ctx, bson.D{}, findOptions)
	if err != nil {
		return fmt.Errorf("failed to query collection: %w", err)
	}

	docCursor, err := mongodb.NewCursor(ctx, mongoCursor, nil)
	if err != nil {
		return fmt.Errorf("failed to build cursor: %w", err)
	}

	expectedColumns := []cursor.ColumnDescription{{Name: "age"}, {Name: "name"}}
	if utils.CheckDifference("columns", utils.MustJSON(expectedColumns), utils.MustJSON(docCursor.ColumnDescriptions())) {
		return fmt.Errorf("inferred columns do not match expected")
	}

	rows, err := docCursor.ToRows(ctx)
	if err != nil {
		return fmt.Errorf("failed to materialize rows: %w", err)
	}

	if utils.CheckDifference("rows", expectedRows, utils.MustJSON(rows)) {
		return fmt.Errorf("rows do not match expected")
	}
	return nil
}
