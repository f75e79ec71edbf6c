package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore persists carts in Postgres. Tables:
//
//	carts(user_id text primary key, total_cents int, updated_at timestamptz)
//	cart_items(id uuid primary key, user_id text, product_id text,
//	           qty int, price_cents int, added_at timestamptz,
//	           unique(user_id, product_id))
//
// Every mutation recomputes carts.total_cents from cart_items inside the
// same transaction.
type PGStore struct{ DB *pgxpool.Pool }

func (s *PGStore) Get(ctx context.Context, userID string) (Cart, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, product_id, qty, price_cents, added_at
		FROM cart_items WHERE user_id=$1 ORDER BY added_at, id`, userID)
	if err != nil {
		return Cart{}, err
	}
	defer rows.Close()

	var items []LineItem
	for rows.Next() {
		var it LineItem
		if err := rows.Scan(&it.ID, &it.ProductID, &it.Qty, &it.PriceCents, &it.AddedAt); err != nil {
			return Cart{}, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return Cart{}, err
	}
	return Cart{UserID: userID, Items: items, TotalCents: Total(items)}, nil
}

func (s *PGStore) Upsert(ctx context.Context, userID, productID string, qtyDelta, unitPriceCents int) (Cart, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Cart{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id string
	var qty int
	err = tx.QueryRow(ctx, `
		SELECT id, qty FROM cart_items
		WHERE user_id=$1 AND product_id=$2 FOR UPDATE`, userID, productID).Scan(&id, &qty)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		id = uuid.NewString()
		if _, err := tx.Exec(ctx, `
			INSERT INTO cart_items(id, user_id, product_id, qty, price_cents, added_at)
			VALUES ($1,$2,$3,GREATEST(1,$4),$5,$6)`,
			id, userID, productID, qtyDelta, unitPriceCents, time.Now().UTC()); err != nil {
			return Cart{}, err
		}
	case err != nil:
		return Cart{}, err
	default:
		if _, err := tx.Exec(ctx, `
			UPDATE cart_items SET qty=GREATEST(1, qty+$2), price_cents=$3
			WHERE id=$1`, id, qtyDelta, unitPriceCents); err != nil {
			return Cart{}, err
		}
	}

	if err := recomputeTotalTx(ctx, tx, userID); err != nil {
		return Cart{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Cart{}, err
	}
	return s.Get(ctx, userID)
}

func (s *PGStore) SetQuantity(ctx context.Context, userID, itemID string, qty, unitPriceCents int) (Cart, error) {
	if qty < 1 {
		return Cart{}, ErrInvalidQuantity
	}
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Cart{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx, `
		UPDATE cart_items SET qty=$3, price_cents=$4
		WHERE user_id=$1 AND id=$2`, userID, itemID, qty, unitPriceCents)
	if err != nil {
		return Cart{}, err
	}
	if ct.RowsAffected() == 0 {
		return Cart{}, ErrItemNotFound
	}

	if err := recomputeTotalTx(ctx, tx, userID); err != nil {
		return Cart{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Cart{}, err
	}
	return s.Get(ctx, userID)
}

func (s *PGStore) Remove(ctx context.Context, userID, itemID string) (Cart, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Cart{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// absent rows are fine: removal is idempotent
	if _, err := tx.Exec(ctx, `
		DELETE FROM cart_items WHERE user_id=$1 AND id=$2`, userID, itemID); err != nil {
		return Cart{}, err
	}
	if err := recomputeTotalTx(ctx, tx, userID); err != nil {
		return Cart{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Cart{}, err
	}
	return s.Get(ctx, userID)
}

func (s *PGStore) Clear(ctx context.Context, userID string) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id=$1`, userID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM carts WHERE user_id=$1`, userID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func recomputeTotalTx(ctx context.Context, tx pgx.Tx, userID string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO carts(user_id, total_cents, updated_at)
		VALUES ($1, (SELECT COALESCE(SUM(qty*price_cents),0) FROM cart_items WHERE user_id=$1), $2)
		ON CONFLICT (user_id) DO UPDATE
		SET total_cents=excluded.total_cents, updated_at=excluded.updated_at`,
		userID, time.Now().UTC())
	return err
}
