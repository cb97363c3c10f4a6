package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/artie-labs/cursor/lib/cursor"
)

const DefaultBatchSize = 500

// NewCursor exposes a mongo cursor's documents as a tabular [cursor.Cursor].
//
// With an explicit column list, documents are streamed lazily and each one is projected onto the
// fixed column order as it arrives. With a nil column list the columns have to be inferred from
// the union of keys across all documents, so the source cursor is drained up front.
func NewCursor(ctx context.Context, mongoCursor *mongo.Cursor, columns []cursor.ColumnDescription) (*cursor.Cursor, error) {
	if columns == nil {
		docs, err := drain(ctx, mongoCursor)
		if err != nil {
			return nil, err
		}
		return cursor.FromMaps(nil, docs)
	}

	src := &documentSource{
		ctx:     ctx,
		cursor:  mongoCursor,
		columns: columns,
	}
	return cursor.NewCursor(columns, src.nextBatch, src.release), nil
}

type documentSource struct {
	// immutable
	ctx     context.Context
	columns []cursor.ColumnDescription

	// mutable, nil once drained
	cursor *mongo.Cursor
}

func (d *documentSource) nextBatch(ctx context.Context, sizeHint *int) ([]cursor.Row, error) {
	if d.cursor == nil {
		return nil, nil
	}

	limit := DefaultBatchSize
	if sizeHint != nil {
		limit = *sizeHint
	}

	batch := make([]cursor.Row, 0, limit)
	for len(batch) < limit && d.cursor.Next(ctx) {
		doc, err := decode(d.cursor)
		if err != nil {
			_ = d.release()
			return nil, err
		}
		batch = append(batch, cursor.ProjectRow(d.columns, doc))
	}

	if len(batch) < limit {
		err := d.cursor.Err()
		if releaseErr := d.release(); releaseErr != nil && err == nil {
			err = releaseErr
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate over documents: %w", err)
		}
	}
	return batch, nil
}

func (d *documentSource) release() error {
	if d.cursor == nil {
		return nil
	}
	mongoCursor := d.cursor
	d.cursor = nil
	// The stream context may already be canceled by the time the cursor gets closed.
	return mongoCursor.Close(context.WithoutCancel(d.ctx))
}

func drain(ctx context.Context, mongoCursor *mongo.Cursor) ([]map[string]any, error) {
	defer func() { _ = mongoCursor.Close(ctx) }()

	var docs []map[string]any
	for mongoCursor.Next(ctx) {
		doc, err := decode(mongoCursor)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	if err := mongoCursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate over documents: %w", err)
	}
	return docs, nil
}

func decode(mongoCursor *mongo.Cursor) (map[string]any, error) {
	var doc bson.M
	if err := mongoCursor.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return map[string]any(doc), nil
}
