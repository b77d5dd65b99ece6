package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Inova117/mamapanic/internal/model"
)

// CreateProfile inserts a new user profile. Returns ErrDuplicate when
// the email is already registered.
func (db *DB) CreateProfile(ctx context.Context, email, displayName, passwordHash string, role model.Role) (model.Profile, error) {
	now := time.Now().UTC()
	p := model.Profile{
		ID:           uuid.New(),
		Email:        email,
		DisplayName:  displayName,
		Role:         role,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO profiles (id, email, display_name, role, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.Email, p.DisplayName, string(p.Role), p.PasswordHash, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return model.Profile{}, ErrDuplicate
		}
		return model.Profile{}, fmt.Errorf("storage: create profile: %w", err)
	}
	return p, nil
}

// GetProfile retrieves a profile by ID.
func (db *DB) GetProfile(ctx context.Context, id uuid.UUID) (model.Profile, error) {
	return db.scanProfile(ctx,
		`SELECT id, email, display_name, role, avatar_url, password_hash, created_at, updated_at
		 FROM profiles WHERE id = $1`, id)
}

// GetProfileByEmail retrieves a profile by email.
func (db *DB) GetProfileByEmail(ctx context.Context, email string) (model.Profile, error) {
	return db.scanProfile(ctx,
		`SELECT id, email, display_name, role, avatar_url, password_hash, created_at, updated_at
		 FROM profiles WHERE email = $1`, email)
}

func (db *DB) scanProfile(ctx context.Context, query string, args ...any) (model.Profile, error) {
	var p model.Profile
	var role string
	err := db.pool.QueryRow(ctx, query, args...).Scan(
		&p.ID, &p.Email, &p.DisplayName, &role, &p.AvatarURL, &p.PasswordHash,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, ErrNotFound
		}
		return model.Profile{}, fmt.Errorf("storage: get profile: %w", err)
	}
	p.Role = model.Role(role)
	return p, nil
}

// UpdateProfile applies partial updates to a profile and returns the
// updated row.
func (db *DB) UpdateProfile(ctx context.Context, id uuid.UUID, req model.UpdateProfileRequest) (model.Profile, error) {
	tag, err := db.pool.Exec(ctx,
		`UPDATE profiles
		 SET display_name = COALESCE($2, display_name),
		     avatar_url = COALESCE($3, avatar_url),
		     updated_at = now()
		 WHERE id = $1`,
		id, req.DisplayName, req.AvatarURL,
	)
	if err != nil {
		return model.Profile{}, fmt.Errorf("storage: update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.Profile{}, ErrNotFound
	}
	return db.GetProfile(ctx, id)
}

// ListCoaches returns all profiles with the coach role, for the mother
// to pick a recipient.
func (db *DB) ListCoaches(ctx context.Context) ([]model.Profile, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, email, display_name, role, avatar_url, password_hash, created_at, updated_at
		 FROM profiles WHERE role = $1 ORDER BY display_name`, string(model.RoleCoach))
	if err != nil {
		return nil, fmt.Errorf("storage: list coaches: %w", err)
	}
	defer rows.Close()

	var coaches []model.Profile
	for rows.Next() {
		var p model.Profile
		var role string
		if err := rows.Scan(&p.ID, &p.Email, &p.DisplayName, &role, &p.AvatarURL,
			&p.PasswordHash, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan coach: %w", err)
		}
		p.Role = model.Role(role)
		coaches = append(coaches, p)
	}
	return coaches, rows.Err()
}
