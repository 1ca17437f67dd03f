package roster

// store.go provides the pgx-backed persistence layer for athletes.
//
// BulkCreate is the commit target of the CSV import wizard: it inserts all
// rows inside a single transaction using the PostgreSQL COPY protocol, so a
// commit either imports every valid row or none of them.

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// athleteColumns lists database columns in the order BulkCreate writes them.
var athleteColumns = []string{
	"first_name", "last_name", "email", "side",
	"can_scull", "can_cox", "height_cm", "weight_kg",
	"is_managed", "user_id", "concept2_user_id",
}

// Store persists athletes in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// BulkCreate inserts athletes in a single transaction via COPY.
// All-or-nothing: any failure rolls back the whole batch.
// Returns the number of rows imported.
func (s *Store) BulkCreate(ctx context.Context, athletes []AthleteParams) (int, error) {
	if len(athletes) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	copied, err := tx.CopyFrom(ctx,
		pgx.Identifier{"athletes"},
		athleteColumns,
		pgx.CopyFromSlice(len(athletes), func(i int) ([]any, error) {
			a := athletes[i]
			return []any{
				a.FirstName,
				a.LastName,
				toPgText(a.Email),
				toPgSide(a.Side),
				a.CanScull,
				a.CanCox,
				toPgFloat8(a.HeightCm),
				toPgFloat8(a.WeightKg),
				a.IsManaged,
				toPgText(a.UserID),
				toPgText(a.Concept2UserID),
			}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("copy athletes: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	return int(copied), nil
}

// List returns athletes ordered by last name, then first name.
func (s *Store) List(ctx context.Context, limit, offset int) ([]Athlete, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, created_at, first_name, last_name, email, side,
		       can_scull, can_cox, height_cm, weight_kg,
		       is_managed, user_id, concept2_user_id
		FROM athletes
		ORDER BY last_name, first_name, id
		LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list athletes: %w", err)
	}
	defer rows.Close()

	var athletes []Athlete
	for rows.Next() {
		var (
			a         Athlete
			id        pgtype.UUID
			createdAt pgtype.Timestamptz
			email     pgtype.Text
			side      pgtype.Text
			heightCm  pgtype.Float8
			weightKg  pgtype.Float8
			userID    pgtype.Text
			c2UserID  pgtype.Text
		)
		err := rows.Scan(&id, &createdAt, &a.FirstName, &a.LastName, &email, &side,
			&a.CanScull, &a.CanCox, &heightCm, &weightKg,
			&a.IsManaged, &userID, &c2UserID)
		if err != nil {
			return nil, fmt.Errorf("scan athlete: %w", err)
		}

		a.ID = uuidString(id)
		if createdAt.Valid {
			a.CreatedAt = createdAt.Time
		}
		if email.Valid {
			a.Email = &email.String
		}
		if side.Valid {
			if v, ok := ParseSide(side.String); ok {
				a.Side = &v
			}
		}
		if heightCm.Valid {
			a.HeightCm = &heightCm.Float64
		}
		if weightKg.Valid {
			a.WeightKg = &weightKg.Float64
		}
		if userID.Valid {
			a.UserID = &userID.String
		}
		if c2UserID.Valid {
			a.Concept2UserID = &c2UserID.String
		}

		athletes = append(athletes, a)
	}

	return athletes, rows.Err()
}

// Count returns the total number of athletes on the roster.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM athletes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count athletes: %w", err)
	}
	return n, nil
}

// Conversion helpers between optional Go values and pgtype NULLs.

func toPgText(s *string) pgtype.Text {
	if s == nil || *s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func toPgSide(s *Side) pgtype.Text {
	if s == nil {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: string(*s), Valid: true}
}

func toPgFloat8(f *float64) pgtype.Float8 {
	if f == nil {
		return pgtype.Float8{Valid: false}
	}
	return pgtype.Float8{Float64: *f, Valid: true}
}

func uuidString(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	return uuid.UUID(u.Bytes).String()
}
