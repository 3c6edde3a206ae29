package order

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SQLiteRepo relies on the connection being opened with _txlock=immediate:
// every InTx holds the database write lock from its first statement, so
// checkouts are serialised and LockProduct is a plain read.
type SQLiteRepo struct{ db *sql.DB }

func NewSQLiteRepo(db *sql.DB) *SQLiteRepo { return &SQLiteRepo{db: db} }

func (r *SQLiteRepo) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(ctx, &sqliteTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

type sqliteTx struct{ tx *sql.Tx }

func (t *sqliteTx) LockProduct(ctx context.Context, id string) (*LockedProduct, error) {
	var p LockedProduct
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, name, price, stock FROM products WHERE id = ?
	`, id).Scan(&p.ID, &p.Name, &p.Price, &p.Stock)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (t *sqliteTx) InsertOrder(ctx context.Context, o *Order) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, total, shipping_address, shipping_city, shipping_state, shipping_zip, status, created_at)
		VALUES (?,?,?,?,?,?,?,?,?)
	`, o.ID, o.UserID, o.Total, o.Address, o.City, o.State, o.Zip, o.Status, o.CreatedAt)
	return err
}

func (t *sqliteTx) InsertItem(ctx context.Context, it *Item) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO order_items (id, order_id, product_id, line, quantity, price)
		VALUES (?,?,?,?,?,?)
	`, it.ID, it.OrderID, it.ProductID, it.Line, it.Quantity, it.Price)
	return err
}

func (t *sqliteTx) DecrementStock(ctx context.Context, productID string, qty int) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE products SET stock = stock - ?2
		WHERE id = ?1 AND stock >= ?2
	`, productID, qty)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

const sqliteOrderColumns = `id, user_id, total, shipping_address, shipping_city, shipping_state, shipping_zip, status, created_at`

// ListByUser drains the order rows before loading items; the pool has a
// single connection.
func (r *SQLiteRepo) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+sqliteOrderColumns+`
		FROM orders WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
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

func (r *SQLiteRepo) GetForUser(ctx context.Context, id, userID string) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var o Order
	err := scanOrder(r.db.QueryRowContext(ctx, `
		SELECT `+sqliteOrderColumns+`
		FROM orders WHERE id = ? AND user_id = ?
	`, id, userID), &o)
	if errors.Is(err, sql.ErrNoRows) {
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

func (r *SQLiteRepo) items(ctx context.Context, orderID string) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT oi.id, oi.order_id, oi.product_id, p.name, p.image, oi.line, oi.quantity, oi.price
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ?
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
