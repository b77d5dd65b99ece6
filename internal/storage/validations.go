package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Inova117/mamapanic/internal/model"
)

// CreateValidationCard inserts one affirmation card.
func (db *DB) CreateValidationCard(ctx context.Context, req model.CreateValidationCardRequest) (model.ValidationCard, error) {
	if req.Category == "" {
		req.Category = model.CategoryGeneral
	}
	card := model.ValidationCard{
		ID:        uuid.New(),
		MessageES: req.MessageES,
		MessageEN: req.MessageEN,
		Category:  req.Category,
		CreatedAt: time.Now().UTC(),
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO validation_cards (id, message_es, message_en, category, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		card.ID, card.MessageES, card.MessageEN, string(card.Category), card.CreatedAt,
	)
	if err != nil {
		return model.ValidationCard{}, fmt.Errorf("storage: create validation card: %w", err)
	}
	return card, nil
}

// SeedValidationCards inserts the default card set when the table is
// empty. Safe to call on every startup.
func (db *DB) SeedValidationCards(ctx context.Context) error {
	var count int
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM validation_cards`).Scan(&count); err != nil {
		return fmt.Errorf("storage: count validation cards: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, req := range model.DefaultValidationCards() {
		if _, err := db.CreateValidationCard(ctx, req); err != nil {
			return err
		}
	}
	db.logger.Info("seeded default validation cards", "count", len(model.DefaultValidationCards()))
	return nil
}

// ListValidationCards returns all cards, optionally filtered by
// category.
func (db *DB) ListValidationCards(ctx context.Context, category *model.ValidationCategory) ([]model.ValidationCard, error) {
	query := `SELECT id, message_es, message_en, category, created_at FROM validation_cards`
	args := []any{}
	if category != nil {
		query += ` WHERE category = $1`
		args = append(args, string(*category))
	}
	query += ` ORDER BY created_at`

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: list validation cards: %w", err)
	}
	defer rows.Close()

	var cards []model.ValidationCard
	for rows.Next() {
		var c model.ValidationCard
		var cat string
		if err := rows.Scan(&c.ID, &c.MessageES, &c.MessageEN, &cat, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan validation card: %w", err)
		}
		c.Category = model.ValidationCategory(cat)
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// RandomValidationCard returns one random card, optionally within a
// category. Returns ErrNotFound when no cards match.
func (db *DB) RandomValidationCard(ctx context.Context, category *model.ValidationCategory) (model.ValidationCard, error) {
	query := `SELECT id, message_es, message_en, category, created_at FROM validation_cards`
	args := []any{}
	if category != nil {
		query += ` WHERE category = $1`
		args = append(args, string(*category))
	}
	query += ` ORDER BY random() LIMIT 1`

	var c model.ValidationCard
	var cat string
	err := db.pool.QueryRow(ctx, query, args...).Scan(&c.ID, &c.MessageES, &c.MessageEN, &cat, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ValidationCard{}, ErrNotFound
		}
		return model.ValidationCard{}, fmt.Errorf("storage: random validation card: %w", err)
	}
	c.Category = model.ValidationCategory(cat)
	return c, nil
}
