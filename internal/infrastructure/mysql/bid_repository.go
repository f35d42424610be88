package mysql

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"auction-hub/internal/domain"
)

type MySQLBidRepository struct {
	db *sql.DB
}

func NewMySQLBidRepository(db *sql.DB) *MySQLBidRepository {
	return &MySQLBidRepository{db: db}
}

func (r *MySQLBidRepository) AddBid(ctx context.Context, bid *domain.Bid) error {
	if bid.ID == "" {
		bid.ID = uuid.NewString()
	}

	query := `
        INSERT INTO bids (id, lot_id, amount, rejected, placed_at)
        VALUES (?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		bid.ID, bid.LotID, bid.Amount, bid.Rejected, bid.PlacedAt)
	return err
}

// GetLatestBid returns the lot's highest non-rejected bid, or nil when none
// stand.
func (r *MySQLBidRepository) GetLatestBid(ctx context.Context, lotID string) (*domain.Bid, error) {
	query := `
        SELECT id, lot_id, amount, rejected, placed_at
        FROM bids
        WHERE lot_id = ? AND rejected = FALSE
        ORDER BY amount DESC, placed_at DESC
        LIMIT 1
    `

	var bid domain.Bid
	err := r.db.QueryRowContext(ctx, query, lotID).Scan(
		&bid.ID, &bid.LotID, &bid.Amount, &bid.Rejected, &bid.PlacedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &bid, nil
}

func (r *MySQLBidRepository) UpdateBid(ctx context.Context, bid *domain.Bid) error {
	query := `UPDATE bids SET amount = ?, rejected = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, bid.Amount, bid.Rejected, bid.ID)
	return err
}
