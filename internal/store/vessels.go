package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"seatime-backend/internal/models"
)

const vesselColumns = `id, user_id, name, imo_number, flag_state, gross_tonnage,
	length_metres::float8, vessel_type, created_at::text`

func scanVessel(row pgx.Row) (models.Vessel, error) {
	var v models.Vessel
	err := row.Scan(&v.ID, &v.UserID, &v.Name, &v.IMONumber, &v.FlagState,
		&v.GrossTonnage, &v.LengthMetres, &v.VesselType, &v.CreatedAt)
	return v, err
}

// CreateVessel inserts a vessel owned by userID.
func CreateVessel(ctx context.Context, db DB, userID string, req models.CreateVesselRequest) (models.Vessel, error) {
	v, err := scanVessel(db.QueryRow(ctx, `
		INSERT INTO vessels (user_id, name, imo_number, flag_state, gross_tonnage, length_metres, vessel_type)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7)
		RETURNING `+vesselColumns,
		userID, req.Name, req.IMONumber, req.FlagState, req.GrossTonnage, req.LengthMetres, req.VesselType,
	))
	if err != nil {
		return models.Vessel{}, fmt.Errorf("insert vessel: %w", err)
	}
	return v, nil
}

// ListVessels returns userID's vessels, or every vessel when userID is "".
func ListVessels(ctx context.Context, db DB, userID string) ([]models.Vessel, error) {
	rows, err := db.Query(ctx, `
		SELECT `+vesselColumns+`
		FROM vessels
		WHERE ($1 = '' OR user_id::text = $1)
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list vessels: %w", err)
	}
	defer rows.Close()

	vessels := []models.Vessel{}
	for rows.Next() {
		v, err := scanVessel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vessel: %w", err)
		}
		vessels = append(vessels, v)
	}
	return vessels, rows.Err()
}

// GetVessel returns one vessel. ErrNotFound when it doesn't exist.
func GetVessel(ctx context.Context, db DB, id string) (models.Vessel, error) {
	v, err := scanVessel(db.QueryRow(ctx, `SELECT `+vesselColumns+` FROM vessels WHERE id = $1`, id))
	if err != nil {
		return models.Vessel{}, notFound(err)
	}
	return v, nil
}
