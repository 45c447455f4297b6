package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/fleetdeck/fleetdeck/internal/model"
	"github.com/fleetdeck/fleetdeck/internal/store"
)

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryInsert(ctx context.Context, db executor, doc *model.Document) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data`,
		doc.Collection,
		doc.ID,
		[]byte(doc.Data),
	)
	return err
}

func queryGet(ctx context.Context, db executor, collection, id string) (*model.Document, error) {
	row := db.QueryRowContext(ctx,
		`SELECT collection, id, data FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	)
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err == nil && doc == nil {
		// Malformed payload was dropped at the decode boundary.
		return nil, store.ErrNotFound
	}
	return doc, err
}

// queryList applies equality filters on jsonb payload fields and a bare
// LIMIT. There is deliberately no ORDER BY on payload fields: ordering is
// done client-side so no per-query-shape index is ever required.
func queryList(ctx context.Context, db executor, collection string, filters []model.Filter, limit int) ([]*model.Document, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT collection, id, data FROM documents WHERE collection = $1`)
	args := []any{collection}

	for _, f := range filters {
		args = append(args, f.Field, f.Value)
		fmt.Fprintf(&sb, " AND data->>$%d = $%d", len(args)-1, len(args))
	}

	if limit > 0 {
		args = append(args, limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}

	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*model.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		if doc != nil {
			docs = append(docs, doc)
		}
	}
	return docs, rows.Err()
}

// querySetStatus rewrites the status field inside the jsonb payload and
// returns the updated document.
func querySetStatus(ctx context.Context, db executor, collection, id, status string) (*model.Document, error) {
	row := db.QueryRowContext(ctx, `
		UPDATE documents
		SET data = jsonb_set(data, '{status}', to_jsonb($3::text))
		WHERE collection = $1 AND id = $2
		RETURNING collection, id, data`,
		collection, id, status,
	)
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err == nil && doc == nil {
		return nil, store.ErrNotFound
	}
	return doc, err
}

func queryDelete(ctx context.Context, db executor, collection, id string) error {
	res, err := db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}
