package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the persistence side of the order engine. InTx runs fn inside one
// database transaction: commit if fn returns nil, roll back otherwise.
type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	GetForUser(ctx context.Context, id, userID string) (*Order, error)
}

// Tx is the set of writes available inside a checkout transaction.
type Tx interface {
	// LockProduct reads a product and holds it until the transaction ends.
	// Returns ErrNotFound for an unknown id.
	LockProduct(ctx context.Context, id string) (*LockedProduct, error)
	InsertOrder(ctx context.Context, o *Order) error
	InsertItem(ctx context.Context, it *Item) error
	// DecrementStock takes qty units only if that many are left. It reports
	// false, and changes nothing, when they are not.
	DecrementStock(ctx context.Context, productID string, qty int) (bool, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, &pgTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type pgTx struct{ tx pgx.Tx }

func (t *pgTx) LockProduct(ctx context.Context, id string) (*LockedProduct, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	var p LockedProduct
	err := t.tx.QueryRow(ctx, `
    SELECT id::text, name, price::text, stock
    FROM products WHERE id=$1
    FOR UPDATE
  `, id).Scan(&p.ID, &p.Name, &p.Price, &p.Stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (t *pgTx) InsertOrder(ctx context.Context, o *Order) error {
	_, err := t.tx.Exec(ctx, `
    INSERT INTO orders (id, user_id, total, shipping_address, shipping_city, shipping_state, shipping_zip, status, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
  `, o.ID, o.UserID, o.Total, o.Address, o.City, o.State, o.Zip, o.Status, o.CreatedAt)
	return err
}

func (t *pgTx) InsertItem(ctx context.Context, it *Item) error {
	_, err := t.tx.Exec(ctx, `
    INSERT INTO order_items (id, order_id, product_id, line, quantity, price)
    VALUES ($1,$2,$3,$4,$5,$6)
  `, it.ID, it.OrderID, it.ProductID, it.Line, it.Quantity, it.Price)
	return err
}

func (t *pgTx) DecrementStock(ctx context.Context, productID string, qty int) (bool, error) {
	tag, err := t.tx.Exec(ctx, `
    UPDATE products SET stock = stock - $2
    WHERE id = $1 AND stock >= $2
  `, productID, qty)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

const pgOrderColumns = `id::text, user_id::text, total::text, shipping_address, shipping_city, shipping_state, shipping_zip, status, created_at`

func scanOrder(sc interface{ Scan(...any) error }, o *Order) error {
	return sc.Scan(&o.ID, &o.UserID, &o.Total, &o.Address, &o.City, &o.State, &o.Zip, &o.Status, &o.CreatedAt)
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return []Order{}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
    SELECT `+pgOrderColumns+`
    FROM orders WHERE user_id=$1
    ORDER BY created_at DESC, id DESC
  `, userID)
	if err != nil {
		return nil, err
	}
	out := []Order{}
	for rows.Next() {
		var o Order
		if err := scanOrder(rows, &o); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		items, err := r.items(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}

func (r *PGRepo) GetForUser(ctx context.Context, id, userID string) (*Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	if _, err := uuid.Parse(userID); err != nil {
		return nil, ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var o Order
	err := scanOrder(r.db.QueryRow(ctx, `
    SELECT `+pgOrderColumns+`
    FROM orders WHERE id=$1 AND user_id=$2
  `, id, userID), &o)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if o.Items, err = r.items(ctx, o.ID); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *PGRepo) items(ctx context.Context, orderID string) ([]Item, error) {
	rows, err := r.db.Query(ctx, `
    SELECT oi.id::text, oi.order_id::text, oi.product_id::text, p.name, p.image, oi.line, oi.quantity, oi.price::text
    FROM order_items oi
    JOIN products p ON p.id = oi.product_id
    WHERE oi.order_id = $1
    ORDER BY oi.line
  `, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.ProductImage, &it.Line, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
