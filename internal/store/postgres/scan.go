package postgres

import (
	"encoding/json"
	"log/slog"

	"github.com/fleetdeck/fleetdeck/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanDocument scans a (collection, id, data) row and runs the payload
// through the boundary decode. A payload that fails decoding is dropped with
// a warning rather than poisoning the whole result set; in that case both
// return values are nil.
func scanDocument(row scannable) (*model.Document, error) {
	var (
		collection string
		id         string
		data       []byte
	)
	if err := row.Scan(&collection, &id, &data); err != nil {
		return nil, err
	}

	doc, err := model.DecodeDocument(collection, id, json.RawMessage(data))
	if err != nil {
		slog.Warn("dropping malformed document", "collection", collection, "id", id, "error", err)
		return nil, nil
	}
	return doc, nil
}
