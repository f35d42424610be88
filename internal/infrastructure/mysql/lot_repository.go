package mysql

import (
	"context"
	"database/sql"
	"time"

	"auction-hub/internal/domain"
)

type MySQLLotRepository struct {
	db *sql.DB
}

func NewMySQLLotRepository(db *sql.DB) *MySQLLotRepository {
	return &MySQLLotRepository{db: db}
}

const lotColumns = `id, auction_session_id, number, address, status, reserve_price,
        reserve_met, sold_date, sold_price, image_id, bidding_paused, created_at, updated_at`

func (r *MySQLLotRepository) GetLot(ctx context.Context, lotID string) (*domain.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE id = ?`

	lot, err := scanLot(r.db.QueryRowContext(ctx, query, lotID))
	if err != nil {
		return nil, err
	}
	return lot, nil
}

func (r *MySQLLotRepository) GetLotsBySession(ctx context.Context, sessionID string) ([]*domain.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE auction_session_id = ? ORDER BY number`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lots []*domain.Lot
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		lots = append(lots, lot)
	}
	return lots, rows.Err()
}

func (r *MySQLLotRepository) UpdateLot(ctx context.Context, lot *domain.Lot) error {
	query := `
        UPDATE lots
        SET status = ?, reserve_price = ?, reserve_met = ?, sold_date = ?,
            sold_price = ?, image_id = ?, bidding_paused = ?, updated_at = ?
        WHERE id = ?
    `
	var soldDate, soldPrice interface{}
	if lot.SoldDate != nil {
		soldDate = *lot.SoldDate
	}
	if lot.SoldPrice != nil {
		soldPrice = *lot.SoldPrice
	}

	_, err := r.db.ExecContext(ctx, query,
		int(lot.Status), lot.ReservePrice, lot.ReserveMet, soldDate,
		soldPrice, nullable(lot.ImageID), lot.BiddingPaused, time.Now().UTC(), lot.ID)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLot(row rowScanner) (*domain.Lot, error) {
	var lot domain.Lot
	var status int
	var soldDate sql.NullTime
	var soldPrice sql.NullFloat64
	var imageID sql.NullString

	err := row.Scan(&lot.ID, &lot.AuctionSessionID, &lot.Number, &lot.Address,
		&status, &lot.ReservePrice, &lot.ReserveMet, &soldDate, &soldPrice,
		&imageID, &lot.BiddingPaused, &lot.CreatedAt, &lot.UpdatedAt)
	if err != nil {
		return nil, err
	}

	lot.Status = domain.LotStatus(status)
	lot.ImageID = imageID.String
	if soldDate.Valid {
		lot.SoldDate = &soldDate.Time
	}
	if soldPrice.Valid {
		lot.SoldPrice = &soldPrice.Float64
	}
	return &lot, nil
}
