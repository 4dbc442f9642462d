// internal/db/slots.go
package db

import (
	"context"
	"database/sql"
	"fmt"
)

type CreateSlotTemplateParams struct {
	DayOfWeek    int64
	SlotKey      string
	StartMinutes int64
	EndMinutes   int64
	Peak         bool
}

func (q *Queries) CreateSlotTemplate(ctx context.Context, arg CreateSlotTemplateParams) (SlotTemplate, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO slot_templates (day_of_week, slot_key, start_minutes, end_minutes, peak)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id, day_of_week, slot_key, start_minutes, end_minutes, peak, created_at`,
		arg.DayOfWeek, arg.SlotKey, arg.StartMinutes, arg.EndMinutes, arg.Peak,
	)
	return scanSlotTemplate(row)
}

func (q *Queries) GetSlotTemplate(ctx context.Context, id int64) (SlotTemplate, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, day_of_week, slot_key, start_minutes, end_minutes, peak, created_at
		FROM slot_templates
		WHERE id = ?`, id,
	)
	return scanSlotTemplate(row)
}

// ListSlotTemplatesForDay returns the recurring slots for a weekday
// (0 = Sunday), in start order.
func (q *Queries) ListSlotTemplatesForDay(ctx context.Context, dayOfWeek int64) ([]SlotTemplate, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, day_of_week, slot_key, start_minutes, end_minutes, peak, created_at
		FROM slot_templates
		WHERE day_of_week = ?
		ORDER BY start_minutes, id`,
		dayOfWeek,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSlotTemplates(rows)
}

type UpdateSlotTemplateTimesParams struct {
	ID           int64
	StartMinutes int64
	EndMinutes   int64
	Peak         bool
}

// UpdateSlotTemplateTimes changes a template's times and peak classification.
// Existing reservations carry their own copies of date and slot key, so they
// are unaffected.
func (q *Queries) UpdateSlotTemplateTimes(ctx context.Context, arg UpdateSlotTemplateTimesParams) (SlotTemplate, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE slot_templates
		SET start_minutes = ?, end_minutes = ?, peak = ?
		WHERE id = ?
		RETURNING id, day_of_week, slot_key, start_minutes, end_minutes, peak, created_at`,
		arg.StartMinutes, arg.EndMinutes, arg.Peak, arg.ID,
	)
	return scanSlotTemplate(row)
}

func scanSlotTemplate(row rowScanner) (SlotTemplate, error) {
	var t SlotTemplate
	err := row.Scan(&t.ID, &t.DayOfWeek, &t.SlotKey, &t.StartMinutes, &t.EndMinutes, &t.Peak, &t.CreatedAt)
	return t, err
}

func collectSlotTemplates(rows *sql.Rows) ([]SlotTemplate, error) {
	var templates []SlotTemplate
	for rows.Next() {
		template, err := scanSlotTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot template: %w", err)
		}
		templates = append(templates, template)
	}
	return templates, rows.Err()
}
