package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/copytrader/internal/domain"
)

// CopyStore implements domain.CopyStore using PostgreSQL. The journal is
// append-only; rows are never updated.
type CopyStore struct {
	pool *pgxpool.Pool
}

var _ domain.CopyStore = (*CopyStore)(nil)

// NewCopyStore creates a CopyStore backed by the given connection pool.
func NewCopyStore(pool *pgxpool.Pool) *CopyStore {
	return &CopyStore{pool: pool}
}

// Insert appends one copy record. A missing ID is filled in with a fresh UUID.
func (s *CopyStore) Insert(ctx context.Context, rec domain.CopyRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	const query = `
		INSERT INTO copy_records (
			id, kind, master_order_id, client_id, symbol, side,
			master_qty, slave_qty, status, reason, broker_order_id, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12
		)`

	_, err := s.pool.Exec(ctx, query,
		rec.ID, string(rec.Kind), rec.MasterOrderID, rec.ClientID,
		rec.Symbol, string(rec.Side),
		rec.MasterQty, rec.SlaveQty,
		string(rec.Status), rec.Reason, rec.BrokerOrderID, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert copy record %s: %w", rec.ID, err)
	}
	return nil
}

const copySelectCols = `id, kind, master_order_id, client_id, symbol, side,
	master_qty, slave_qty, status, reason, broker_order_id, created_at`

func scanCopyRecord(
	scanner interface{ Scan(dest ...any) error },
) (domain.CopyRecord, error) {
	var rec domain.CopyRecord
	var kind, side, status string

	err := scanner.Scan(
		&rec.ID, &kind, &rec.MasterOrderID, &rec.ClientID,
		&rec.Symbol, &side,
		&rec.MasterQty, &rec.SlaveQty,
		&status, &rec.Reason, &rec.BrokerOrderID, &rec.CreatedAt,
	)
	if err != nil {
		return domain.CopyRecord{}, err
	}

	rec.Kind = domain.CopyKind(kind)
	rec.Side = domain.OrderSide(side)
	rec.Status = domain.CopyStatus(status)
	return rec, nil
}

// ListRecent returns the newest records first, up to limit rows.
func (s *CopyStore) ListRecent(ctx context.Context, limit int) ([]domain.CopyRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+copySelectCols+` FROM copy_records
		 ORDER BY created_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent copy records: %w", err)
	}
	defer rows.Close()

	var records []domain.CopyRecord
	for rows.Next() {
		rec, err := scanCopyRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan copy record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list recent copy records: %w", err)
	}
	return records, nil
}

// CountByStatus returns record counts grouped by outcome status.
func (s *CopyStore) CountByStatus(ctx context.Context) (map[domain.CopyStatus]int64, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM copy_records GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("postgres: count copy records: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.CopyStatus]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("postgres: scan status count: %w", err)
		}
		counts[domain.CopyStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: count copy records: %w", err)
	}
	return counts, nil
}
