package order

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/storefront/internal/money"
)

// Listener is told about every committed order. Errors are logged and
// otherwise ignored; the order already exists.
type Listener interface {
	OrderPlaced(ctx context.Context, o *Order) error
}

type ListenerFunc func(ctx context.Context, o *Order) error

func (f ListenerFunc) OrderPlaced(ctx context.Context, o *Order) error { return f(ctx, o) }

// Service is the checkout engine. It is the only writer of orders, order
// items and product stock.
type Service struct {
	store     Store
	listeners []Listener
	now       func() time.Time
	newID     func() string
}

func NewService(store Store, listeners ...Listener) *Service {
	return &Service{
		store:     store,
		listeners: listeners,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Subscribe adds a listener. Not safe to call once orders are flowing.
func (s *Service) Subscribe(l Listener) { s.listeners = append(s.listeners, l) }

func validate(userID string, lines []Line, ship Shipping) error {
	if userID == "" {
		return &ValidationError{Msg: "user is required"}
	}
	if len(lines) == 0 {
		return &ValidationError{Msg: "order must contain at least one item"}
	}
	if ship.Address == "" || ship.City == "" || ship.State == "" || ship.Zip == "" {
		return &ValidationError{Msg: "shipping address, city, state and zip are required"}
	}
	for i, ln := range lines {
		if ln.ProductID == "" {
			return &ValidationError{Msg: fmt.Sprintf("item %d: product_id is required", i+1)}
		}
		if ln.Quantity < 1 {
			return &ValidationError{Msg: fmt.Sprintf("item %d: quantity must be at least 1", i+1)}
		}
	}
	return nil
}

// Create places an order for userID. All products are checked and locked,
// the total is priced from current catalog prices, and the order, its items
// and the stock decrements are committed together or not at all.
func (s *Service) Create(ctx context.Context, userID string, lines []Line, ship Shipping) (*Order, error) {
	if err := validate(userID, lines, ship); err != nil {
		return nil, err
	}

	o := &Order{
		ID:        s.newID(),
		UserID:    userID,
		Shipping:  ship,
		Status:    StatusPending,
		CreatedAt: s.now().UTC(),
	}

	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		locked := make([]*LockedProduct, 0, len(lines))
		for _, ln := range lines {
			p, err := tx.LockProduct(ctx, ln.ProductID)
			if errors.Is(err, ErrNotFound) {
				return &NotFoundError{Resource: "product", ID: ln.ProductID}
			}
			if err != nil {
				return fmt.Errorf("lock product %s: %w", ln.ProductID, err)
			}
			if p.Stock < ln.Quantity {
				return &InsufficientStockError{ProductID: p.ID, Name: p.Name, Requested: ln.Quantity, Available: p.Stock}
			}
			locked = append(locked, p)
		}

		total := decimal.Zero
		items := make([]Item, 0, len(lines))
		for i, ln := range lines {
			p := locked[i]
			price, err := money.Parse(p.Price)
			if err != nil {
				return fmt.Errorf("product %s has price %q: %w", p.ID, p.Price, err)
			}
			total = total.Add(money.LineTotal(price, ln.Quantity))
			items = append(items, Item{
				ID:          s.newID(),
				OrderID:     o.ID,
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    ln.Quantity,
				Price:       money.Format(price),
				Line:        i,
			})
		}
		o.Total = money.Format(total)

		if err := tx.InsertOrder(ctx, o); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		taken := map[string]int{}
		for i := range items {
			it := &items[i]
			if err := tx.InsertItem(ctx, it); err != nil {
				return fmt.Errorf("insert item: %w", err)
			}
			ok, err := tx.DecrementStock(ctx, it.ProductID, it.Quantity)
			if err != nil {
				return fmt.Errorf("decrement stock %s: %w", it.ProductID, err)
			}
			if !ok {
				// the same product appeared on an earlier line
				return &InsufficientStockError{
					ProductID: it.ProductID,
					Name:      it.ProductName,
					Requested: it.Quantity,
					Available: locked[i].Stock - taken[it.ProductID],
				}
			}
			taken[it.ProductID] += it.Quantity
		}
		o.Items = items
		return nil
	})
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		log.Printf("[order] create for user %s failed: %v", userID, err)
		return nil, &PersistenceError{Op: "create order", Err: err}
	}

	log.Printf("[order] created %s user=%s total=%s items=%d", o.ID, o.UserID, o.Total, len(o.Items))
	s.notify(ctx, o)
	return o, nil
}

func (s *Service) notify(ctx context.Context, o *Order) {
	for _, l := range s.listeners {
		if err := l.OrderPlaced(ctx, o); err != nil {
			log.Printf("[order] listener for %s: %v", o.ID, err)
		}
	}
}

// List returns the user's orders, newest first, each with its items.
func (s *Service) List(ctx context.Context, userID string) ([]Order, error) {
	orders, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, &PersistenceError{Op: "list orders", Err: err}
	}
	if orders == nil {
		orders = []Order{}
	}
	return orders, nil
}

// Get returns one order if it belongs to userID. Someone else's order is
// reported exactly like a missing one.
func (s *Service) Get(ctx context.Context, id, userID string) (*Order, error) {
	o, err := s.store.GetForUser(ctx, id, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, &NotFoundError{Resource: "order", ID: id}
	}
	if err != nil {
		return nil, &PersistenceError{Op: "get order", Err: err}
	}
	return o, nil
}
