package order

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/MikeMC777/storefront/internal/store"
)

func init() { log.SetOutput(io.Discard) }

type fixture struct {
	db   *sql.DB
	repo *SQLiteRepo
	svc  *Service
	user string
}

var ship = Shipping{Address: "1 Main St", City: "Springfield", State: "IL", Zip: "62701"}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, err := store.OpenSQLite(filepath.Join(t.TempDir(), "orders.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	f := &fixture{db: s.DB(), repo: NewSQLiteRepo(s.DB())}
	f.svc = NewService(f.repo)

	// strictly increasing clock so newest-first ordering is deterministic
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	var tick int64
	f.svc.now = func() time.Time {
		return base.Add(time.Duration(atomic.AddInt64(&tick, 1)) * time.Second)
	}
	f.user = f.addUser(t, "buyer@example.com")
	return f
}

func (f *fixture) addUser(t *testing.T, email string) string {
	t.Helper()
	id := uuid.NewString()
	_, err := f.db.Exec(`INSERT INTO users (id, name, email, password_hash, created_at) VALUES (?,?,?,?,?)`,
		id, "Buyer", email, "x", time.Now().UTC())
	require.NoError(t, err)
	return id
}

func (f *fixture) addProduct(t *testing.T, name, price string, stock int) string {
	t.Helper()
	id := uuid.NewString()
	_, err := f.db.Exec(`INSERT INTO products (id, name, price, category, stock, created_at) VALUES (?,?,?,?,?,?)`,
		id, name, price, "Test", stock, time.Now().UTC())
	require.NoError(t, err)
	return id
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.QueryRow(`SELECT stock FROM products WHERE id = ?`, id).Scan(&n))
	return n
}

func (f *fixture) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

func TestCreate_ReservesStockAndPricesOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p1 := f.addProduct(t, "Widget", "10.00", 5)

	o, err := f.svc.Create(ctx, f.user, []Line{{ProductID: p1, Quantity: 3}}, ship)
	require.NoError(t, err)
	assert.Equal(t, "30.00", o.Total)
	assert.Equal(t, StatusPending, o.Status)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "10.00", o.Items[0].Price)
	assert.Equal(t, 2, f.stock(t, p1))

	_, err = f.svc.Create(ctx, f.user, []Line{{ProductID: p1, Quantity: 3}}, ship)
	var ise *InsufficientStockError
	require.True(t, errors.As(err, &ise), "got %v", err)
	assert.Equal(t, p1, ise.ProductID)
	assert.Equal(t, "Widget", ise.Name)
	assert.Equal(t, 3, ise.Requested)
	assert.Equal(t, 2, ise.Available)
	assert.Equal(t, 1, ise.Shortfall())

	assert.Equal(t, 2, f.stock(t, p1))
	assert.Equal(t, 1, f.count(t, "orders"))
}

func TestCreate_TotalUsesDecimalArithmetic(t *testing.T) {
	f := newFixture(t)
	a := f.addProduct(t, "A", "0.10", 10)
	b := f.addProduct(t, "B", "19.99", 10)

	o, err := f.svc.Create(context.Background(), f.user,
		[]Line{{ProductID: a, Quantity: 3}, {ProductID: b, Quantity: 2}}, ship)
	require.NoError(t, err)
	assert.Equal(t, "40.28", o.Total)
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	p := f.addProduct(t, "Widget", "1.00", 1)

	cases := []struct {
		name  string
		lines []Line
		ship  Shipping
	}{
		{"no items", nil, ship},
		{"missing zip", []Line{{ProductID: p, Quantity: 1}}, Shipping{Address: "a", City: "b", State: "c"}},
		{"zero quantity", []Line{{ProductID: p, Quantity: 0}}, ship},
		{"blank product", []Line{{Quantity: 1}}, ship},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), f.user, tc.lines, tc.ship)
			var ve *ValidationError
			assert.True(t, errors.As(err, &ve), "got %v", err)
		})
	}
	assert.Equal(t, 0, f.count(t, "orders"))
	assert.Equal(t, 1, f.stock(t, p))
}

func TestCreate_UnknownProductWritesNothing(t *testing.T) {
	f := newFixture(t)
	p := f.addProduct(t, "Widget", "5.00", 4)
	missing := uuid.NewString()

	_, err := f.svc.Create(context.Background(), f.user,
		[]Line{{ProductID: p, Quantity: 1}, {ProductID: missing, Quantity: 1}}, ship)
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf), "got %v", err)
	assert.Equal(t, missing, nf.ID)
	assert.Equal(t, "product", nf.Resource)

	assert.Equal(t, 4, f.stock(t, p))
	assert.Equal(t, 0, f.count(t, "orders"))
	assert.Equal(t, 0, f.count(t, "order_items"))
}

func TestCreate_ShortLineLeavesOtherLinesUntouched(t *testing.T) {
	f := newFixture(t)
	a := f.addProduct(t, "A", "1.00", 10)
	b := f.addProduct(t, "B", "1.00", 1)

	_, err := f.svc.Create(context.Background(), f.user,
		[]Line{{ProductID: a, Quantity: 2}, {ProductID: b, Quantity: 2}}, ship)
	var ise *InsufficientStockError
	require.True(t, errors.As(err, &ise))
	assert.Equal(t, b, ise.ProductID)

	assert.Equal(t, 10, f.stock(t, a))
	assert.Equal(t, 1, f.stock(t, b))
	assert.Equal(t, 0, f.count(t, "orders"))
}

func TestCreate_RepeatedProductCannotOversell(t *testing.T) {
	f := newFixture(t)
	p := f.addProduct(t, "Widget", "2.50", 3)

	_, err := f.svc.Create(context.Background(), f.user,
		[]Line{{ProductID: p, Quantity: 2}, {ProductID: p, Quantity: 2}}, ship)
	var ise *InsufficientStockError
	require.True(t, errors.As(err, &ise), "got %v", err)
	assert.Equal(t, 1, ise.Available)
	assert.Equal(t, 1, ise.Shortfall())

	assert.Equal(t, 3, f.stock(t, p))
	assert.Equal(t, 0, f.count(t, "orders"))
	assert.Equal(t, 0, f.count(t, "order_items"))
}

// faultyStore fails the Nth InsertItem to check the transaction unwinds.
type faultyStore struct {
	*SQLiteRepo
	failAt int
}

type faultyTx struct {
	Tx
	calls  int
	failAt int
}

var errDiskFull = errors.New("disk full")

func (t *faultyTx) InsertItem(ctx context.Context, it *Item) error {
	t.calls++
	if t.calls == t.failAt {
		return errDiskFull
	}
	return t.Tx.InsertItem(ctx, it)
}

func (s *faultyStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return s.SQLiteRepo.InTx(ctx, func(ctx context.Context, tx Tx) error {
		return fn(ctx, &faultyTx{Tx: tx, failAt: s.failAt})
	})
}

func TestCreate_StorageFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	a := f.addProduct(t, "A", "1.00", 5)
	b := f.addProduct(t, "B", "1.00", 5)
	svc := NewService(&faultyStore{SQLiteRepo: f.repo, failAt: 2})

	_, err := svc.Create(context.Background(), f.user,
		[]Line{{ProductID: a, Quantity: 1}, {ProductID: b, Quantity: 1}}, ship)
	var pe *PersistenceError
	require.True(t, errors.As(err, &pe), "got %v", err)
	assert.ErrorIs(t, err, errDiskFull)

	assert.Equal(t, 5, f.stock(t, a), "first decrement must be rolled back")
	assert.Equal(t, 5, f.stock(t, b))
	assert.Equal(t, 0, f.count(t, "orders"))
	assert.Equal(t, 0, f.count(t, "order_items"))
}

func TestCreate_ConcurrentOrdersNeverOversell(t *testing.T) {
	f := newFixture(t)
	p := f.addProduct(t, "Hot Item", "9.99", 10)

	var placed, short int64
	var g errgroup.Group
	for i := 0; i < 25; i++ {
		g.Go(func() error {
			_, err := f.svc.Create(context.Background(), f.user, []Line{{ProductID: p, Quantity: 1}}, ship)
			var ise *InsufficientStockError
			switch {
			case err == nil:
				atomic.AddInt64(&placed, 1)
			case errors.As(err, &ise):
				atomic.AddInt64(&short, 1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.EqualValues(t, 10, placed)
	assert.EqualValues(t, 15, short)
	assert.Equal(t, 0, f.stock(t, p))
	assert.Equal(t, 10, f.count(t, "orders"))
}

func TestGet_RoundTripKeepsPriceSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.addProduct(t, "A", "12.50", 5)
	b := f.addProduct(t, "B", "3.00", 5)

	created, err := f.svc.Create(ctx, f.user,
		[]Line{{ProductID: b, Quantity: 2}, {ProductID: a, Quantity: 1}}, ship)
	require.NoError(t, err)

	_, err = f.db.Exec(`UPDATE products SET price = '99.00' WHERE id = ?`, a)
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, created.ID, f.user)
	require.NoError(t, err)
	assert.Equal(t, "18.50", got.Total)
	assert.Equal(t, ship, got.Shipping)
	require.Len(t, got.Items, 2)
	assert.Equal(t, b, got.Items[0].ProductID)
	assert.Equal(t, "B", got.Items[0].ProductName)
	assert.Equal(t, a, got.Items[1].ProductID)
	assert.Equal(t, "12.50", got.Items[1].Price)
}

func TestGet_ForeignOrderLooksMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "A", "1.00", 5)
	other := f.addUser(t, "other@example.com")

	o, err := f.svc.Create(ctx, f.user, []Line{{ProductID: p, Quantity: 1}}, ship)
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, o.ID, other)
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))

	_, err = f.svc.Get(ctx, uuid.NewString(), f.user)
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "order", nf.Resource)
}

func TestList_NewestFirstWithItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "A", "2.00", 10)

	var ids []string
	for q := 1; q <= 3; q++ {
		o, err := f.svc.Create(ctx, f.user, []Line{{ProductID: p, Quantity: q}}, ship)
		require.NoError(t, err)
		ids = append(ids, o.ID)
	}

	orders, err := f.svc.List(ctx, f.user)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{orders[0].ID, orders[1].ID, orders[2].ID})
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, 3, orders[0].Items[0].Quantity)
	assert.Equal(t, "6.00", orders[0].Total)

	none, err := f.svc.List(ctx, f.addUser(t, "new@example.com"))
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NotNil(t, none)
}

func TestCreate_NotifiesListenersAfterCommit(t *testing.T) {
	f := newFixture(t)
	p := f.addProduct(t, "A", "1.00", 5)

	var seen []string
	f.svc.Subscribe(ListenerFunc(func(_ context.Context, o *Order) error {
		// the order is already visible when listeners run
		var n int
		require.NoError(t, f.db.QueryRow(`SELECT COUNT(*) FROM orders WHERE id = ?`, o.ID).Scan(&n))
		assert.Equal(t, 1, n)
		seen = append(seen, o.ID)
		return nil
	}))
	f.svc.Subscribe(ListenerFunc(func(context.Context, *Order) error {
		return errors.New("broker down")
	}))

	o, err := f.svc.Create(context.Background(), f.user, []Line{{ProductID: p, Quantity: 1}}, ship)
	require.NoError(t, err, "listener errors must not fail the order")
	assert.Equal(t, []string{o.ID}, seen)

	_, err = f.svc.Create(context.Background(), f.user, []Line{{ProductID: p, Quantity: 99}}, ship)
	require.Error(t, err)
	assert.Len(t, seen, 1, "failed orders are not announced")
}
