package product

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// SQLiteRepo stores prices as TEXT with two decimals; range filters and
// price sorting cast to REAL, which is exact enough for comparisons at
// catalog magnitudes.
type SQLiteRepo struct{ db *sql.DB }

func NewSQLiteRepo(db *sql.DB) *SQLiteRepo { return &SQLiteRepo{db: db} }

var sqliteSort = map[string]string{
	SortPriceAsc:  "CAST(price AS REAL) ASC, name ASC",
	SortPriceDesc: "CAST(price AS REAL) DESC, name ASC",
	SortNameAsc:   "name ASC",
	SortNameDesc:  "name DESC",
	SortNewest:    "created_at DESC, name ASC",
	"":            "created_at ASC, name ASC",
}

// LIKE is case-insensitive for ASCII in SQLite.
const sqliteFilter = `
	WHERE (?1 = '' OR category = ?1)
	  AND (?2 = '' OR name LIKE ?2 ESCAPE '\')
	  AND (?3 = '' OR CAST(price AS REAL) >= CAST(?3 AS REAL))
	  AND (?4 = '' OR CAST(price AS REAL) <= CAST(?4 AS REAL))`

const sqliteColumns = `id, name, description, price, stock, category, image, specifications, created_at`

func scanProduct(sc interface{ Scan(...any) error }, p *Product) error {
	return sc.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.Category, &p.Image, &p.Specifications, &p.CreatedAt)
}

func (r *SQLiteRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var p Product
	err := scanProduct(r.db.QueryRowContext(ctx, `SELECT `+sqliteColumns+` FROM products WHERE id = ?`, id), &p)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *SQLiteRepo) List(ctx context.Context, q Query) ([]Product, int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	q = q.Normalize()
	args := []any{q.Category, likePattern(q.Search), q.MinPrice, q.MaxPrice}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`+sqliteFilter, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT `+sqliteColumns+` FROM products`+sqliteFilter+`
		ORDER BY `+sqliteSort[q.Sort]+`
		LIMIT ?5 OFFSET ?6`, append(args, q.Limit, q.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *SQLiteRepo) Categories(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT category FROM products ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) Create(ctx context.Context, p *Product) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (`+sqliteColumns+`)
		VALUES (?,?,?,?,?,?,?,?,?)
	`, p.ID, p.Name, p.Description, p.Price, p.Stock, p.Category, p.Image, p.Specifications, p.CreatedAt)
	return err
}

func (r *SQLiteRepo) Count(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&n)
	return n, err
}
