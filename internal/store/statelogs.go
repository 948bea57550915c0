package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"seatime-backend/internal/compliance"
	"seatime-backend/internal/models"
)

// ListStateLogs returns a vessel's logs for display, oldest first.
func ListStateLogs(ctx context.Context, db DB, userID, vesselID string) ([]models.StateLog, error) {
	rows, err := db.Query(ctx, `
		SELECT id, vessel_id, log_date::text, state, auto_filled, updated_at::text
		FROM state_logs
		WHERE user_id = $1 AND vessel_id = $2
		ORDER BY log_date
	`, userID, vesselID)
	if err != nil {
		return nil, fmt.Errorf("list state logs: %w", err)
	}
	defer rows.Close()

	logs := []models.StateLog{}
	for rows.Next() {
		var l models.StateLog
		if err := rows.Scan(&l.ID, &l.VesselID, &l.Date, &l.State, &l.AutoFilled, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan state log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// LoadStateSeries returns a vessel's logs as engine input.
func LoadStateSeries(ctx context.Context, db DB, userID, vesselID string) ([]compliance.StateLog, error) {
	rows, err := db.Query(ctx, `
		SELECT log_date, state
		FROM state_logs
		WHERE user_id = $1 AND vessel_id = $2
		ORDER BY log_date
	`, userID, vesselID)
	if err != nil {
		return nil, fmt.Errorf("load state series: %w", err)
	}
	defer rows.Close()

	logs := []compliance.StateLog{}
	for rows.Next() {
		var (
			day   time.Time
			state string
		)
		if err := rows.Scan(&day, &state); err != nil {
			return nil, fmt.Errorf("scan state series: %w", err)
		}
		s, err := compliance.ParseState(state)
		if err != nil {
			return nil, err
		}
		logs = append(logs, compliance.StateLog{Date: day, State: s})
	}
	return logs, rows.Err()
}

// UpsertStateLog sets the state for one day. A manual edit clears auto_filled.
func UpsertStateLog(ctx context.Context, db DB, userID, vesselID string, day time.Time, state compliance.VesselState) (models.StateLog, error) {
	var l models.StateLog
	err := db.QueryRow(ctx, `
		INSERT INTO state_logs (user_id, vessel_id, log_date, state)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, vessel_id, log_date)
		DO UPDATE SET state = EXCLUDED.state, auto_filled = FALSE, updated_at = NOW()
		RETURNING id, vessel_id, log_date::text, state, auto_filled, updated_at::text
	`, userID, vesselID, day, string(state),
	).Scan(&l.ID, &l.VesselID, &l.Date, &l.State, &l.AutoFilled, &l.UpdatedAt)
	if err != nil {
		return models.StateLog{}, fmt.Errorf("upsert state log: %w", err)
	}
	return l, nil
}

// DeleteStateLog removes one day. ErrNotFound when nothing was logged.
func DeleteStateLog(ctx context.Context, db DB, userID, vesselID string, day time.Time) error {
	tag, err := db.Exec(ctx, `
		DELETE FROM state_logs WHERE user_id = $1 AND vessel_id = $2 AND log_date = $3
	`, userID, vesselID, day)
	if err != nil {
		return fmt.Errorf("delete state log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertStateLogs writes auto-filled logs in one transaction. Days that were
// logged in the meantime are left untouched; the count of new rows is returned.
func InsertStateLogs(ctx context.Context, db TxStarter, userID, vesselID string, logs []compliance.StateLog) (int, error) {
	inserted := 0
	err := pgx.BeginFunc(ctx, db, func(tx pgx.Tx) error {
		for _, l := range logs {
			tag, err := tx.Exec(ctx, `
				INSERT INTO state_logs (user_id, vessel_id, log_date, state, auto_filled)
				VALUES ($1, $2, $3, $4, TRUE)
				ON CONFLICT (user_id, vessel_id, log_date) DO NOTHING
			`, userID, vesselID, l.Date, string(l.State))
			if err != nil {
				return fmt.Errorf("insert %s: %w", compliance.FormatDay(l.Date), err)
			}
			inserted += int(tag.RowsAffected())
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("fill state logs: %w", err)
	}
	return inserted, nil
}

// LoggedSeries identifies one crew member's log series on one vessel.
type LoggedSeries struct {
	UserID     string
	VesselID   string
	VesselName string
}

// ListLoggedSeries returns every (user, vessel) pair that has at least one log.
func ListLoggedSeries(ctx context.Context, db DB) ([]LoggedSeries, error) {
	rows, err := db.Query(ctx, `
		SELECT DISTINCT l.user_id, l.vessel_id, v.name
		FROM state_logs l
		JOIN vessels v ON v.id = l.vessel_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list logged series: %w", err)
	}
	defer rows.Close()

	var out []LoggedSeries
	for rows.Next() {
		var s LoggedSeries
		if err := rows.Scan(&s.UserID, &s.VesselID, &s.VesselName); err != nil {
			return nil, fmt.Errorf("scan logged series: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
