package orders

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore persists orders in Postgres. Tables:
//
//	orders(id uuid primary key, user_id text, total_cents int,
//	       ship_name text, ship_address text, ship_city text, ship_zip text,
//	       payment_ref text, status text, created_at timestamptz)
//	order_items(order_id uuid, product_id text, name text, image text,
//	            qty int, price_cents int)
type PGStore struct{ DB *pgxpool.Pool }

func (s *PGStore) Create(ctx context.Context, o Order) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO orders(id, user_id, total_cents, ship_name, ship_address, ship_city, ship_zip, payment_ref, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		o.ID, o.UserID, o.TotalCents,
		o.Shipping.Name, o.Shipping.Address, o.Shipping.City, o.Shipping.Zip,
		o.PaymentRef, string(o.Status), o.CreatedAt)
	if err != nil {
		return err
	}

	for _, it := range o.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(order_id, product_id, name, image, qty, price_cents)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			o.ID, it.ProductID, it.Name, it.Image, it.Qty, it.PriceCents); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *PGStore) Get(ctx context.Context, userID, orderID string) (Order, error) {
	var o Order
	var status string
	err := s.DB.QueryRow(ctx, `
		SELECT id, user_id, total_cents, ship_name, ship_address, ship_city, ship_zip, payment_ref, status, created_at
		FROM orders WHERE id=$1 AND user_id=$2`, orderID, userID).
		Scan(&o.ID, &o.UserID, &o.TotalCents,
			&o.Shipping.Name, &o.Shipping.Address, &o.Shipping.City, &o.Shipping.Zip,
			&o.PaymentRef, &status, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	o.Status = Status(status)

	o.Items, err = s.items(ctx, o.ID)
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

func (s *PGStore) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, user_id, total_cents, ship_name, ship_address, ship_city, ship_zip, payment_ref, status, created_at
		FROM orders WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		var status string
		if err := rows.Scan(&o.ID, &o.UserID, &o.TotalCents,
			&o.Shipping.Name, &o.Shipping.Address, &o.Shipping.City, &o.Shipping.Zip,
			&o.PaymentRef, &status, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.Status = Status(status)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		items, err := s.items(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}

func (s *PGStore) GetStatus(ctx context.Context, orderID string) (Status, error) {
	var status string
	err := s.DB.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1`, orderID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return Status(status), nil
}

func (s *PGStore) SetStatus(ctx context.Context, orderID string, next Status) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current string
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 FOR UPDATE`, orderID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if !CanTransition(Status(current), next) {
		return ErrInvalidTransition
	}
	if _, err := tx.Exec(ctx, `UPDATE orders SET status=$2 WHERE id=$1`, orderID, string(next)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PGStore) items(ctx context.Context, orderID string) ([]OrderItem, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT product_id, name, image, qty, price_cents
		FROM order_items WHERE order_id=$1`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Image, &it.Qty, &it.PriceCents); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
