package pgship

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/UDDITwork/shipsarthi-sub007/internal/models"
)

// UpsertDocument stores a carrier-pushed image. The (waybill, doc_type, url)
// unique key makes re-delivered images a no-op; created reports whether this
// call actually inserted.
func (s *Storage) UpsertDocument(ctx context.Context, doc *models.Document) (bool, error) {
	err := s.db.QueryRow(ctx, `
INSERT INTO documents (waybill, doc_type, url, content, order_id, created_at)
VALUES ($1,$2,$3,$4,$5, now())
ON CONFLICT (waybill, doc_type, url) DO NOTHING
RETURNING id
`, doc.Waybill, doc.DocType, doc.URL, doc.Content, doc.OrderID).Scan(&doc.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "insert document")
	}
	return true, nil
}

func (s *Storage) ListDocuments(ctx context.Context, waybill string) ([]*models.Document, error) {
	rows, err := s.db.Query(ctx, `
SELECT id, waybill, doc_type, url, content, order_id, created_at
FROM documents
WHERE waybill = $1
ORDER BY id
`, waybill)
	if err != nil {
		return nil, errors.Wrap(err, "select documents")
	}
	defer rows.Close()

	var out []*models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.ID, &d.Waybill, &d.DocType, &d.URL, &d.Content, &d.OrderID, &d.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan document")
		}
		out = append(out, &d)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}
