// Package order implements the order lifecycle: checkout, cancellation,
// vendor confirmation, shipment and status edits, keeping stock and
// notifications consistent with every transition.
package order

import (
	"context"
	"errors"
	"math"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/marketplace-ordenes/internal/apperr"
	"github.com/MikeMC777/marketplace-ordenes/internal/cart"
	"github.com/MikeMC777/marketplace-ordenes/internal/coupon"
	"github.com/MikeMC777/marketplace-ordenes/internal/guard"
	"github.com/MikeMC777/marketplace-ordenes/internal/inventory"
	"github.com/MikeMC777/marketplace-ordenes/internal/logger"
	"github.com/MikeMC777/marketplace-ordenes/internal/notify"
	"github.com/MikeMC777/marketplace-ordenes/internal/user"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

type Inventory interface {
	GetMany(ctx context.Context, ids []string) (map[string]inventory.Item, error)
	Reserve(ctx context.Context, orderID string, lines []inventory.Line) error
	Release(ctx context.Context, orderID string, lines []inventory.Line) error
}

type Carts interface {
	Get(ctx context.Context, userID string) ([]cart.Line, error)
	Clear(ctx context.Context, userID string) error
}

type Coupons interface {
	Resolve(ctx context.Context, code string, subtotal decimal.Decimal) (*coupon.Snapshot, error)
}

type Notifier interface {
	Notify(ctx context.Context, ev notify.Event)
}

type Deps struct {
	Repo      Repository
	Inventory Inventory
	Carts     Carts
	Coupons   Coupons
	Notifier  Notifier
}

type Engine struct {
	repo     Repository
	inv      Inventory
	carts    Carts
	coupons  Coupons
	notifier Notifier
	locks    keyedMutex
	now      func() time.Time

	retries         sync.WaitGroup
	releaseAttempts int
	releaseBackoff  time.Duration
}

func NewEngine(d Deps) *Engine {
	return &Engine{
		repo:     d.Repo,
		inv:      d.Inventory,
		carts:    d.Carts,
		coupons:  d.Coupons,
		notifier: d.Notifier,
		now:      func() time.Time { return time.Now().UTC() },

		releaseAttempts: 5,
		releaseBackoff:  200 * time.Millisecond,
	}
}

// keyedMutex serializes work per order id. Entries are dropped once no
// goroutine holds or waits for them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = map[string]*refLock{}
	}
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func (e *Engine) load(ctx context.Context, id string) (*Order, error) {
	o, err := e.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.Wrap(apperr.NotFound, "order not found", err)
		}
		return nil, apperr.Wrap(apperr.Internal, "load order", err)
	}
	return o, nil
}

func (e *Engine) notify(ctx context.Context, name string, o *Order, audience []string) {
	e.notifier.Notify(ctx, notify.Event{
		Name:     name,
		OrderID:  o.ID,
		Status:   string(o.Status),
		Audience: audience,
		At:       o.UpdatedAt,
	})
}

// GetOrders lists the orders visible to id: a client sees its own, a vendor
// those containing its items and an admin all of them.
func (e *Engine) GetOrders(ctx context.Context, id user.Identity, q ListQuery) (*ListResult, error) {
	var f Filter
	switch id.Role {
	case user.RoleClient:
		f.OwnerID = id.UserID
	case user.RoleVendor:
		f.VendorID = id.UserID
	case user.RoleAdmin:
	default:
		return nil, apperr.E(apperr.Forbidden, "Access denied")
	}

	page, limit := q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)
	if page-1 > math.MaxInt/limit {
		return nil, apperr.E(apperr.ValidationFailed, "page out of range")
	}
	offset := (page - 1) * limit

	orders, total, err := e.repo.List(ctx, f, limit, offset)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list orders", err)
	}
	if orders == nil {
		orders = []Order{}
	}
	p := Pagination{CurrentPage: page, Limit: limit, NumberOfPages: (total + limit - 1) / limit}
	if offset+len(orders) < total {
		next := page + 1
		p.Next = &next
	}
	if page > 1 {
		prev := page - 1
		p.Prev = &prev
	}
	return &ListResult{
		Orders:     orders,
		Total:      total,
		Remaining:  max(total-offset-len(orders), 0),
		Pagination: p,
	}, nil
}

// GetOrder returns the order to its owner, a vendor of one of its items or an
// admin.
func (e *Engine) GetOrder(ctx context.Context, id user.Identity, orderID string) (*Order, error) {
	o, err := e.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := guard.CheckViewer(id, o.OwnerID, o.VendorIDs()); err != nil {
		return nil, err
	}
	return o, nil
}

var phoneRe = regexp.MustCompile(`^\+?[0-9][0-9 ()-]{5,18}[0-9]$`)

func validateCheckout(in CheckoutRequest) error {
	if !in.PaymentMethod.Valid() {
		return apperr.E(apperr.ValidationFailed, "payment method must be card or cash_on_delivery")
	}
	if !phoneRe.MatchString(strings.TrimSpace(in.ContactPhone)) {
		return apperr.E(apperr.ValidationFailed, "invalid contact phone")
	}
	a := in.Address
	if strings.TrimSpace(a.Street) == "" || strings.TrimSpace(a.City) == "" || strings.TrimSpace(a.Country) == "" {
		return apperr.E(apperr.ValidationFailed, "address needs street, city and country")
	}
	return nil
}

// Checkout turns the caller's cart into a pending order. Stock for every
// line is reserved or the order is not created at all.
func (e *Engine) Checkout(ctx context.Context, id user.Identity, in CheckoutRequest) (*Order, error) {
	if err := guard.Authorize(id, guard.ClientOnly); err != nil {
		return nil, err
	}
	if err := validateCheckout(in); err != nil {
		return nil, err
	}

	lines, err := e.carts.Get(ctx, id.UserID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "load cart", err)
	}
	if len(lines) == 0 {
		return nil, apperr.E(apperr.ValidationFailed, "cart is empty")
	}
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ItemID)
	}
	items, err := e.inv.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	o := &Order{
		ID:            uuid.NewString(),
		OwnerID:       id.UserID,
		Address:       in.Address,
		ContactPhone:  strings.TrimSpace(in.ContactPhone),
		PaymentMethod: in.PaymentMethod,
		Status:        StatusPending,
		Subtotal:      decimal.Zero,
		Discount:      decimal.Zero,
	}
	reserve := make([]inventory.Line, 0, len(lines))
	for _, l := range lines {
		it := items[l.ItemID]
		o.Items = append(o.Items, LineItem{
			ItemID:    it.ID,
			VendorID:  it.VendorID,
			Name:      it.Name,
			Quantity:  l.Quantity,
			UnitPrice: it.Price,
		})
		o.Subtotal = o.Subtotal.Add(it.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
		reserve = append(reserve, inventory.Line{ItemID: l.ItemID, Quantity: l.Quantity})
	}
	if code := strings.TrimSpace(in.Coupon); code != "" {
		snap, err := e.coupons.Resolve(ctx, code, o.Subtotal)
		if err != nil {
			return nil, err
		}
		o.Coupon = snap
		o.Discount = snap.Discount
	}
	o.Total = o.Subtotal.Sub(o.Discount)

	if err := e.inv.Reserve(ctx, o.ID, reserve); err != nil {
		return nil, err
	}

	now := e.now()
	o.PlacedAt, o.UpdatedAt = now, now
	log := logger.FromCtx(ctx)
	if err := e.repo.Create(ctx, o); err != nil {
		if rerr := e.inv.Release(ctx, o.ID, reserve); rerr != nil {
			log.Error("release after failed checkout", "order_id", o.ID, "err", rerr)
		}
		return nil, apperr.Wrap(apperr.Internal, "create order", err)
	}
	if err := e.carts.Clear(ctx, id.UserID); err != nil {
		log.Warn("clear cart after checkout", "order_id", o.ID, "err", err)
	}
	log.Info("order placed", "order_id", o.ID, "total", o.Total.StringFixed(2))
	e.notify(ctx, notify.OrderPlaced, o, o.VendorIDs())
	return o, nil
}

// transition persists from -> to with the conditional update and applies it
// to o.
func (e *Engine) transition(ctx context.Context, o *Order, to Status) error {
	at := e.now()
	if err := e.repo.Transition(ctx, o.ID, o.Status, to, at); err != nil {
		switch {
		case errors.Is(err, ErrStatusChanged):
			return apperr.Wrap(apperr.Conflict, "order was modified concurrently", err)
		case errors.Is(err, ErrNotFound):
			return apperr.Wrap(apperr.NotFound, "order not found", err)
		default:
			return apperr.Wrap(apperr.Internal, "update order status", err)
		}
	}
	o.stamp(to, at)
	return nil
}

// cancel moves a pending or confirmed order to cancelled and then releases
// its stock. The status write comes first so stock is released at most once.
// A failed release does not undo the cancellation; it is retried in the
// background.
func (e *Engine) cancel(ctx context.Context, o *Order) error {
	if err := e.transition(ctx, o, StatusCancelled); err != nil {
		return err
	}
	lines := o.Lines()
	if err := e.inv.Release(ctx, o.ID, lines); err != nil {
		logger.FromCtx(ctx).Error("release stock of cancelled order, retrying", "order_id", o.ID, "err", err)
		e.retries.Add(1)
		go e.retryRelease(context.WithoutCancel(ctx), o.ID, lines)
	}
	return nil
}

// retryRelease keeps releasing the stock of a cancelled order with
// exponential backoff until it succeeds or runs out of attempts.
func (e *Engine) retryRelease(ctx context.Context, orderID string, lines []inventory.Line) {
	defer e.retries.Done()
	log := logger.FromCtx(ctx).With("order_id", orderID)
	delay := e.releaseBackoff
	for attempt := 1; attempt <= e.releaseAttempts; attempt++ {
		time.Sleep(delay)
		err := e.inv.Release(ctx, orderID, lines)
		if err == nil {
			log.Info("released stock of cancelled order", "attempt", attempt)
			return
		}
		log.Warn("release stock of cancelled order", "attempt", attempt, "err", err)
		delay *= 2
	}
	log.Error("gave up releasing stock of cancelled order", "lines", lines)
}

// Wait blocks until background stock releases have finished.
func (e *Engine) Wait() { e.retries.Wait() }

func invalidTransition(from, to Status) error {
	return apperr.E(apperr.InvalidTransition, "cannot move order from "+string(from)+" to "+string(to))
}

// CancelOrder is allowed to the owner only, while the order is pending or
// confirmed.
func (e *Engine) CancelOrder(ctx context.Context, id user.Identity, orderID string) (*Order, error) {
	unlock := e.locks.lock(orderID)
	defer unlock()

	o, err := e.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := guard.CheckOwner(id, o.OwnerID); err != nil {
		return nil, err
	}
	if !o.Status.Cancellable() {
		return nil, invalidTransition(o.Status, StatusCancelled)
	}
	if err := e.cancel(ctx, o); err != nil {
		return nil, err
	}
	e.notify(ctx, notify.OrderCancelled, o, o.VendorIDs())
	return o, nil
}

// EditOrderStatus moves the order one step forward, or cancels it, on behalf
// of one of its vendors or an admin.
func (e *Engine) EditOrderStatus(ctx context.Context, id user.Identity, orderID string, target Status) (*Order, error) {
	if err := guard.Authorize(id, guard.VendorOrAdmin); err != nil {
		return nil, err
	}
	if _, ok := ParseStatus(string(target)); !ok {
		return nil, apperr.E(apperr.ValidationFailed, "unknown status "+string(target))
	}

	unlock := e.locks.lock(orderID)
	defer unlock()

	o, err := e.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := guard.CheckVendor(id, o.VendorIDs(), true); err != nil {
		return nil, err
	}
	if !CanTransition(o.Status, target) {
		return nil, invalidTransition(o.Status, target)
	}
	if target == StatusCancelled {
		if err := e.cancel(ctx, o); err != nil {
			return nil, err
		}
		e.notify(ctx, notify.OrderCancelled, o, append([]string{o.OwnerID}, o.VendorIDs()...))
		return o, nil
	}
	if err := e.transition(ctx, o, target); err != nil {
		return nil, err
	}
	e.notify(ctx, notify.OrderStatusChanged, o, []string{o.OwnerID})
	return o, nil
}

// advance performs the single step from -> to used by confirm and ship. An
// order already in to is returned unchanged.
func (e *Engine) advance(ctx context.Context, id user.Identity, orderID string, from, to Status, event string) (*Order, error) {
	if err := guard.Authorize(id, guard.VendorOrAdmin); err != nil {
		return nil, err
	}

	unlock := e.locks.lock(orderID)
	defer unlock()

	o, err := e.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := guard.CheckVendor(id, o.VendorIDs(), true); err != nil {
		return nil, err
	}
	switch o.Status {
	case to:
		return o, nil
	case from:
	default:
		return nil, invalidTransition(o.Status, to)
	}
	if err := e.transition(ctx, o, to); err != nil {
		return nil, err
	}
	e.notify(ctx, event, o, []string{o.OwnerID})
	return o, nil
}

// ConfirmOrder acknowledges a pending order.
func (e *Engine) ConfirmOrder(ctx context.Context, id user.Identity, orderID string) (*Order, error) {
	return e.advance(ctx, id, orderID, StatusPending, StatusConfirmed, notify.OrderConfirmed)
}

// OrderShipped marks a confirmed order as shipped.
func (e *Engine) OrderShipped(ctx context.Context, id user.Identity, orderID string) (*Order, error) {
	return e.advance(ctx, id, orderID, StatusConfirmed, StatusShipped, notify.OrderShipped)
}
