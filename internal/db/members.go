// internal/db/members.go
package db

import (
	"context"
)

type CreateMemberParams struct {
	Name           string
	Email          string
	MembershipTier string
	Active         bool
}

func (q *Queries) CreateMember(ctx context.Context, arg CreateMemberParams) (Member, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO members (name, email, membership_tier, active)
		VALUES (?, ?, ?, ?)
		RETURNING id, name, email, membership_tier, active, created_at`,
		arg.Name, arg.Email, arg.MembershipTier, arg.Active,
	)
	return scanMember(row)
}

func (q *Queries) GetMember(ctx context.Context, id int64) (Member, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, name, email, membership_tier, active, created_at
		FROM members
		WHERE id = ?`, id,
	)
	return scanMember(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (Member, error) {
	var m Member
	err := row.Scan(&m.ID, &m.Name, &m.Email, &m.MembershipTier, &m.Active, &m.CreatedAt)
	return m, err
}
