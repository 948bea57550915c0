package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"seatime-backend/internal/compliance"
	"seatime-backend/internal/models"
)

const visaAreaColumns = `id, user_id, area_name, rule_type, days_allowed, period_days, created_at::text`

func scanVisaArea(row pgx.Row) (models.VisaArea, error) {
	var a models.VisaArea
	err := row.Scan(&a.ID, &a.UserID, &a.AreaName, &a.RuleType, &a.DaysAllowed, &a.PeriodDays, &a.CreatedAt)
	return a, err
}

// CreateVisaArea stores a tracked area with its rule. Fixed rules store no period.
func CreateVisaArea(ctx context.Context, db DB, userID, name string, rule compliance.VisaRule) (models.VisaArea, error) {
	var period *int
	if rule.RuleType == compliance.RuleRolling {
		p := rule.PeriodDays
		period = &p
	}
	a, err := scanVisaArea(db.QueryRow(ctx, `
		INSERT INTO visa_areas (user_id, area_name, rule_type, days_allowed, period_days)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+visaAreaColumns,
		userID, name, string(rule.RuleType), rule.DaysAllowed, period,
	))
	if err != nil {
		return models.VisaArea{}, fmt.Errorf("insert visa area: %w", err)
	}
	return a, nil
}

// ListVisaAreas returns userID's areas, or every area when userID is "".
func ListVisaAreas(ctx context.Context, db DB, userID string) ([]models.VisaArea, error) {
	rows, err := db.Query(ctx, `
		SELECT `+visaAreaColumns+`
		FROM visa_areas
		WHERE ($1 = '' OR user_id::text = $1)
		ORDER BY area_name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list visa areas: %w", err)
	}
	defer rows.Close()

	areas := []models.VisaArea{}
	for rows.Next() {
		a, err := scanVisaArea(rows)
		if err != nil {
			return nil, fmt.Errorf("scan visa area: %w", err)
		}
		areas = append(areas, a)
	}
	return areas, rows.Err()
}

// GetVisaArea returns one area. ErrNotFound when it doesn't exist.
func GetVisaArea(ctx context.Context, db DB, id string) (models.VisaArea, error) {
	a, err := scanVisaArea(db.QueryRow(ctx, `SELECT `+visaAreaColumns+` FROM visa_areas WHERE id = $1`, id))
	if err != nil {
		return models.VisaArea{}, notFound(err)
	}
	return a, nil
}

// DeleteVisaArea removes an area and, by cascade, its entries.
func DeleteVisaArea(ctx context.Context, db DB, id string) error {
	tag, err := db.Exec(ctx, `DELETE FROM visa_areas WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete visa area: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListVisaEntries returns an area's entries for display, oldest first.
func ListVisaEntries(ctx context.Context, db DB, areaID string) ([]models.VisaEntry, error) {
	rows, err := db.Query(ctx, `
		SELECT id, area_id, entry_date::text, created_at::text
		FROM visa_entries WHERE area_id = $1
		ORDER BY entry_date
	`, areaID)
	if err != nil {
		return nil, fmt.Errorf("list visa entries: %w", err)
	}
	defer rows.Close()

	entries := []models.VisaEntry{}
	for rows.Next() {
		var e models.VisaEntry
		if err := rows.Scan(&e.ID, &e.AreaID, &e.EntryDate, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan visa entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LoadVisaEntries returns an area's entries as engine input.
func LoadVisaEntries(ctx context.Context, db DB, areaID string) ([]compliance.VisaEntry, error) {
	rows, err := db.Query(ctx, `SELECT entry_date FROM visa_entries WHERE area_id = $1 ORDER BY entry_date`, areaID)
	if err != nil {
		return nil, fmt.Errorf("load visa entries: %w", err)
	}
	defer rows.Close()

	entries := []compliance.VisaEntry{}
	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("scan visa entry: %w", err)
		}
		entries = append(entries, compliance.VisaEntry{EntryDate: day})
	}
	return entries, rows.Err()
}

// InsertVisaEntry records one day. A day already recorded is a unique violation.
func InsertVisaEntry(ctx context.Context, db DB, areaID string, day time.Time) (models.VisaEntry, error) {
	var e models.VisaEntry
	err := db.QueryRow(ctx, `
		INSERT INTO visa_entries (area_id, entry_date)
		VALUES ($1, $2)
		RETURNING id, area_id, entry_date::text, created_at::text
	`, areaID, day,
	).Scan(&e.ID, &e.AreaID, &e.EntryDate, &e.CreatedAt)
	if err != nil {
		return models.VisaEntry{}, fmt.Errorf("insert visa entry: %w", err)
	}
	return e, nil
}

// DeleteVisaEntry removes one day from an area.
func DeleteVisaEntry(ctx context.Context, db DB, areaID string, day time.Time) error {
	tag, err := db.Exec(ctx, `DELETE FROM visa_entries WHERE area_id = $1 AND entry_date = $2`, areaID, day)
	if err != nil {
		return fmt.Errorf("delete visa entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
