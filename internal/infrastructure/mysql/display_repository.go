package mysql

import (
	"context"
	"database/sql"

	"auction-hub/internal/domain"
)

type MySQLDisplayRepository struct {
	db *sql.DB
}

func NewMySQLDisplayRepository(db *sql.DB) *MySQLDisplayRepository {
	return &MySQLDisplayRepository{db: db}
}

func (r *MySQLDisplayRepository) GetDisplay(ctx context.Context, displayID string) (*domain.Display, error) {
	query := `SELECT id, venue_id, name FROM displays WHERE id = ?`

	var display domain.Display
	err := r.db.QueryRowContext(ctx, query, displayID).Scan(
		&display.ID, &display.VenueID, &display.Name)
	if err != nil {
		return nil, err
	}
	return &display, nil
}

func (r *MySQLDisplayRepository) GetGroupConfigurations(ctx context.Context, displayGroupID string) ([]*domain.DisplayConfiguration, error) {
	query := `
        SELECT id, display_group_id, display_id, active, video_enabled, audio_enabled, mode
        FROM display_configurations
        WHERE display_group_id = ?
    `

	rows, err := r.db.QueryContext(ctx, query, displayGroupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []*domain.DisplayConfiguration
	for rows.Next() {
		var cfg domain.DisplayConfiguration
		var mode sql.NullString

		err := rows.Scan(&cfg.ID, &cfg.DisplayGroupID, &cfg.DisplayID,
			&cfg.Active, &cfg.VideoEnabled, &cfg.AudioEnabled, &mode)
		if err != nil {
			return nil, err
		}
		cfg.Mode = mode.String
		configs = append(configs, &cfg)
	}
	return configs, rows.Err()
}
