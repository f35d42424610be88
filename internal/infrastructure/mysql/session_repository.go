package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"auction-hub/internal/domain"
)

type MySQLAuctionSessionRepository struct {
	db *sql.DB
}

func NewMySQLAuctionSessionRepository(db *sql.DB) *MySQLAuctionSessionRepository {
	return &MySQLAuctionSessionRepository{db: db}
}

func (r *MySQLAuctionSessionRepository) GetAuctionSession(ctx context.Context, sessionID string) (*domain.AuctionSession, error) {
	query := `
        SELECT id, venue_id, display_group_id, name, start_date, finish_date,
               in_session, administrator_id, created_at, updated_at
        FROM auction_sessions WHERE id = ?
    `

	var session domain.AuctionSession
	var venueID, displayGroupID, administratorID sql.NullString
	var finishDate sql.NullTime

	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(
		&session.ID, &venueID, &displayGroupID, &session.Name,
		&session.StartDate, &finishDate, &session.InSession,
		&administratorID, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		return nil, err
	}

	session.VenueID = venueID.String
	session.DisplayGroupID = displayGroupID.String
	session.AdministratorID = administratorID.String
	if finishDate.Valid {
		session.FinishDate = &finishDate.Time
	}
	return &session, nil
}

func (r *MySQLAuctionSessionRepository) UpdateAuctionSession(ctx context.Context, session *domain.AuctionSession) error {
	query := `
        UPDATE auction_sessions
        SET venue_id = ?, display_group_id = ?, name = ?, start_date = ?,
            finish_date = ?, in_session = ?, administrator_id = ?, updated_at = ?
        WHERE id = ?
    `
	var finishDate interface{}
	if session.FinishDate != nil {
		finishDate = *session.FinishDate
	}

	_, err := r.db.ExecContext(ctx, query,
		nullable(session.VenueID), nullable(session.DisplayGroupID), session.Name,
		session.StartDate, finishDate, session.InSession,
		nullable(session.AdministratorID), time.Now().UTC(), session.ID)
	return err
}

// GetSessionsInProgress returns sessions whose schedule window covers the
// given instant, with "now" first converted into the supplied IANA time
// zone. Session schedules are stored in venue-local time.
func (r *MySQLAuctionSessionRepository) GetSessionsInProgress(ctx context.Context, at time.Time, timeZone string) ([]*domain.AuctionSession, error) {
	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", timeZone, err)
	}
	local := at.In(loc).Format("2006-01-02 15:04:05")

	query := `
        SELECT id, venue_id, display_group_id, name, start_date, finish_date,
               in_session, administrator_id, created_at, updated_at
        FROM auction_sessions
        WHERE start_date <= ? AND (finish_date IS NULL OR finish_date >= ?)
    `

	rows, err := r.db.QueryContext(ctx, query, local, local)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*domain.AuctionSession
	for rows.Next() {
		var session domain.AuctionSession
		var venueID, displayGroupID, administratorID sql.NullString
		var finishDate sql.NullTime

		err := rows.Scan(&session.ID, &venueID, &displayGroupID, &session.Name,
			&session.StartDate, &finishDate, &session.InSession,
			&administratorID, &session.CreatedAt, &session.UpdatedAt)
		if err != nil {
			return nil, err
		}

		session.VenueID = venueID.String
		session.DisplayGroupID = displayGroupID.String
		session.AdministratorID = administratorID.String
		if finishDate.Valid {
			session.FinishDate = &finishDate.Time
		}
		sessions = append(sessions, &session)
	}
	return sessions, rows.Err()
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
