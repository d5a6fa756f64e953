package order

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/marketplace-ordenes/internal/apperr"
	"github.com/MikeMC777/marketplace-ordenes/internal/cart"
	"github.com/MikeMC777/marketplace-ordenes/internal/coupon"
	"github.com/MikeMC777/marketplace-ordenes/internal/inventory"
	"github.com/MikeMC777/marketplace-ordenes/internal/notify"
	"github.com/MikeMC777/marketplace-ordenes/internal/user"
)

var (
	alice   = user.Identity{UserID: "client-a", Role: user.RoleClient}
	bob     = user.Identity{UserID: "client-b", Role: user.RoleClient}
	vendor1 = user.Identity{UserID: "vendor-1", Role: user.RoleVendor}
	vendor2 = user.Identity{UserID: "vendor-2", Role: user.RoleVendor}
	vendor3 = user.Identity{UserID: "vendor-3", Role: user.RoleVendor}
	admin   = user.Identity{UserID: "admin-1", Role: user.RoleAdmin}
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *recordingNotifier) Notify(_ context.Context, ev notify.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) named(name string) []notify.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []notify.Event
	for _, ev := range n.events {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

type fixture struct {
	engine   *Engine
	repo     Repository
	ledger   *inventory.Ledger
	carts    *cart.Memory
	coupons  *coupon.Service
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithRepo(t, NewMemRepo())
}

func newFixtureWithRepo(t *testing.T, repo Repository) *fixture {
	t.Helper()
	f := &fixture{
		repo:     repo,
		ledger:   inventory.NewLedger(inventory.NewMemory()),
		carts:    cart.NewMemory(),
		coupons:  coupon.NewService(coupon.NewMemRepo()),
		notifier: &recordingNotifier{},
	}
	f.engine = NewEngine(Deps{
		Repo:      f.repo,
		Inventory: f.ledger,
		Carts:     f.carts,
		Coupons:   f.coupons,
		Notifier:  f.notifier,
	})
	return f
}

func (f *fixture) item(t *testing.T, vendor user.Identity, price string, stock int) string {
	t.Helper()
	it, err := f.ledger.AddItem(context.Background(), vendor.UserID, inventory.CreateItemRequest{
		Name:  "item of " + vendor.UserID,
		Price: decimal.RequireFromString(price),
		Stock: stock,
	})
	require.NoError(t, err)
	return it.ID
}

func (f *fixture) stock(t *testing.T, itemID string) int {
	t.Helper()
	it, err := f.ledger.Get(context.Background(), itemID)
	require.NoError(t, err)
	return it.Stock
}

func (f *fixture) addToCart(t *testing.T, who user.Identity, itemID string, qty int) {
	t.Helper()
	require.NoError(t, f.carts.Add(context.Background(), who.UserID, itemID, qty))
}

func (f *fixture) status(t *testing.T, orderID string) Status {
	t.Helper()
	o, err := f.repo.GetByID(context.Background(), orderID)
	require.NoError(t, err)
	return o.Status
}

func checkoutReq() CheckoutRequest {
	return CheckoutRequest{
		PaymentMethod: PaymentCard,
		ContactPhone:  "+57 300 123 4567",
		Address:       Address{Street: "Calle 1", City: "Bogota", Country: "CO"},
	}
}

func (f *fixture) placeOrder(t *testing.T, who user.Identity, itemID string, qty int) *Order {
	t.Helper()
	f.addToCart(t, who, itemID, qty)
	o, err := f.engine.Checkout(context.Background(), who, checkoutReq())
	require.NoError(t, err)
	return o
}

func TestOrderLifecycleScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x := f.item(t, vendor1, "10", 5)

	o := f.placeOrder(t, alice, x, 2)
	assert.Equal(t, StatusPending, o.Status)
	assert.True(t, decimal.NewFromInt(20).Equal(o.Total), o.Total.String())
	assert.Equal(t, 3, f.stock(t, x))
	assert.Equal(t, []string{vendor1.UserID}, o.VendorIDs())

	lines, _ := f.carts.Get(ctx, alice.UserID)
	assert.Empty(t, lines, "checkout consumes the cart")
	placed := f.notifier.named(notify.OrderPlaced)
	require.Len(t, placed, 1)
	assert.Equal(t, []string{vendor1.UserID}, placed[0].Audience)

	o, err := f.engine.ConfirmOrder(ctx, vendor1, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, o.Status)
	assert.NotNil(t, o.ConfirmedAt)

	o, err = f.engine.OrderShipped(ctx, vendor1, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, o.Status)
	assert.NotNil(t, o.ShippedAt)

	_, err = f.engine.CancelOrder(ctx, alice, o.ID)
	assert.Equal(t, apperr.InvalidTransition, apperr.KindOf(err))
	assert.Equal(t, StatusShipped, f.status(t, o.ID))
	assert.Equal(t, 3, f.stock(t, x))

	shipped := f.notifier.named(notify.OrderShipped)
	require.Len(t, shipped, 1)
	assert.Equal(t, []string{alice.UserID}, shipped[0].Audience)
}

func TestCheckoutInsufficientStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x := f.item(t, vendor1, "10", 3)
	f.addToCart(t, alice, x, 10)

	_, err := f.engine.Checkout(ctx, alice, checkoutReq())
	require.Error(t, err)
	assert.Equal(t, apperr.InsufficientStock, apperr.KindOf(err))

	var short *inventory.InsufficientStockError
	require.True(t, errors.As(err, &short))
	assert.Equal(t, []inventory.Shortfall{{ItemID: x, Requested: 10, Available: 3}}, short.Items)

	assert.Equal(t, 3, f.stock(t, x))
	res, err := f.engine.GetOrders(ctx, admin, ListQuery{})
	require.NoError(t, err)
	assert.Zero(t, res.Total)
	assert.Empty(t, f.notifier.named(notify.OrderPlaced))

	lines, _ := f.carts.Get(ctx, alice.UserID)
	assert.Len(t, lines, 1, "a rejected checkout keeps the cart")
}

func TestCheckoutIsAtomicAcrossVendors(t *testing.T) {
	f := newFixture(t)
	a := f.item(t, vendor1, "10", 5)
	b := f.item(t, vendor2, "4", 1)
	f.addToCart(t, alice, a, 2)
	f.addToCart(t, alice, b, 2)

	_, err := f.engine.Checkout(context.Background(), alice, checkoutReq())
	assert.Equal(t, apperr.InsufficientStock, apperr.KindOf(err))
	assert.Equal(t, 5, f.stock(t, a))
	assert.Equal(t, 1, f.stock(t, b))
}

func TestCancelRestoresStockOnce(t *testing.T) {
	for _, confirmFirst := range []bool{false, true} {
		t.Run(fmt.Sprintf("confirmed=%v", confirmFirst), func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			x := f.item(t, vendor1, "10", 5)
			o := f.placeOrder(t, alice, x, 2)
			if confirmFirst {
				_, err := f.engine.ConfirmOrder(ctx, vendor1, o.ID)
				require.NoError(t, err)
			}

			o, err := f.engine.CancelOrder(ctx, alice, o.ID)
			require.NoError(t, err)
			assert.Equal(t, StatusCancelled, o.Status)
			assert.NotNil(t, o.CancelledAt)
			assert.Equal(t, 5, f.stock(t, x))

			_, err = f.engine.CancelOrder(ctx, alice, o.ID)
			assert.Equal(t, apperr.InvalidTransition, apperr.KindOf(err))
			assert.Equal(t, 5, f.stock(t, x), "no double restoration")
		})
	}
}

func TestShipPendingOrderIsInvalid(t *testing.T) {
	f := newFixture(t)
	x := f.item(t, vendor1, "10", 5)
	o := f.placeOrder(t, alice, x, 1)

	_, err := f.engine.OrderShipped(context.Background(), vendor1, o.ID)
	assert.Equal(t, apperr.InvalidTransition, apperr.KindOf(err))
	assert.Equal(t, StatusPending, f.status(t, o.ID))
}

func TestOnlyOwnerCancels(t *testing.T) {
	f := newFixture(t)
	x := f.item(t, vendor1, "10", 5)
	o := f.placeOrder(t, alice, x, 2)

	for _, who := range []user.Identity{bob, vendor1, admin} {
		_, err := f.engine.CancelOrder(context.Background(), who, o.ID)
		assert.Equal(t, apperr.Forbidden, apperr.KindOf(err), who.UserID)
	}
	assert.Equal(t, StatusPending, f.status(t, o.ID))
	assert.Equal(t, 3, f.stock(t, x))
}

func TestOnlyLineItemVendorOrAdminConfirmsAndShips(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x := f.item(t, vendor1, "10", 5)
	o := f.placeOrder(t, alice, x, 1)

	for _, who := range []user.Identity{alice, bob, vendor2} {
		_, err := f.engine.ConfirmOrder(ctx, who, o.ID)
		assert.Equal(t, apperr.Forbidden, apperr.KindOf(err), who.UserID)
	}
	assert.Equal(t, StatusPending, f.status(t, o.ID))

	_, err := f.engine.ConfirmOrder(ctx, admin, o.ID)
	require.NoError(t, err)

	_, err = f.engine.OrderShipped(ctx, vendor2, o.ID)
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))
	assert.Equal(t, StatusConfirmed, f.status(t, o.ID))

	_, err = f.engine.OrderShipped(ctx, admin, o.ID)
	require.NoError(t, err)
}

func TestConfirmAndShipAreIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x := f.item(t, vendor1, "10", 5)
	o := f.placeOrder(t, alice, x, 1)

	first, err := f.engine.ConfirmOrder(ctx, vendor1, o.ID)
	require.NoError(t, err)
	again, err := f.engine.ConfirmOrder(ctx, vendor1, o.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ConfirmedAt, again.ConfirmedAt)
	assert.Len(t, f.notifier.named(notify.OrderConfirmed), 1)

	_, err = f.engine.OrderShipped(ctx, vendor1, o.ID)
	require.NoError(t, err)
	_, err = f.engine.OrderShipped(ctx, vendor1, o.ID)
	require.NoError(t, err)
	assert.Len(t, f.notifier.named(notify.OrderShipped), 1)

	// a shipped order can no longer be confirmed
	_, err = f.engine.ConfirmOrder(ctx, vendor1, o.ID)
	assert.Equal(t, apperr.InvalidTransition, apperr.KindOf(err))
}

func TestConcurrentConfirmsFromTwoVendors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.item(t, vendor1, "10", 5)
	b := f.item(t, vendor2, "5", 5)
	f.addToCart(t, alice, a, 1)
	f.addToCart(t, alice, b, 1)
	o, err := f.engine.Checkout(ctx, alice, checkoutReq())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{vendor1.UserID, vendor2.UserID}, o.VendorIDs())

	var wg sync.WaitGroup
	errs := make([]error, 20)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			who := vendor1
			if i%2 == 1 {
				who = vendor2
			}
			_, errs[i] = f.engine.ConfirmOrder(ctx, who, o.ID)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Len(t, f.notifier.named(notify.OrderConfirmed), 1)
	assert.Equal(t, StatusConfirmed, f.status(t, o.ID))

	_, err = f.engine.ConfirmOrder(ctx, vendor3, o.ID)
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))
}

func TestEditOrderStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x := f.item(t, vendor1, "10", 5)
	o := f.placeOrder(t, alice, x, 2)

	_, err := f.engine.EditOrderStatus(ctx, vendor1, o.ID, StatusShipped)
	assert.Equal(t, apperr.InvalidTransition, apperr.KindOf(err), "no jumps")
	_, err = f.engine.EditOrderStatus(ctx, vendor1, o.ID, StatusPending)
	assert.Equal(t, apperr.InvalidTransition, apperr.KindOf(err), "no self transition")
	_, err = f.engine.EditOrderStatus(ctx, vendor1, o.ID, Status("lost"))
	assert.Equal(t, apperr.ValidationFailed, apperr.KindOf(err))
	_, err = f.engine.EditOrderStatus(ctx, alice, o.ID, StatusConfirmed)
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))
	_, err = f.engine.EditOrderStatus(ctx, vendor2, o.ID, StatusConfirmed)
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))
	assert.Equal(t, StatusPending, f.status(t, o.ID))

	for _, next := range []Status{StatusConfirmed, StatusShipped, StatusDelivered} {
		got, err := f.engine.EditOrderStatus(ctx, admin, o.ID, next)
		require.NoError(t, err, next)
		assert.Equal(t, next, got.Status)
	}
	got, err := f.engine.GetOrder(ctx, alice, o.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.DeliveredAt)

	_, err = f.engine.EditOrderStatus(ctx, admin, o.ID, StatusCancelled)
	assert.Equal(t, apperr.InvalidTransition, apperr.KindOf(err), "delivered is terminal")
	assert.Equal(t, 3, f.stock(t, x))
	assert.Len(t, f.notifier.named(notify.OrderStatusChanged), 3)
}

func TestEditOrderStatusCancelReleasesStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x := f.item(t, vendor1, "10", 5)
	o := f.placeOrder(t, alice, x, 2)

	got, err := f.engine.EditOrderStatus(ctx, vendor1, o.ID, StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	assert.Equal(t, 5, f.stock(t, x))

	_, err = f.engine.CancelOrder(ctx, alice, o.ID)
	assert.Equal(t, apperr.InvalidTransition, apperr.KindOf(err))
	assert.Equal(t, 5, f.stock(t, x))
}

func TestCheckoutWithCoupon(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.coupons.Create(ctx, coupon.Coupon{
		Code:   "SAVE10",
		Type:   coupon.Percentage,
		Value:  decimal.NewFromInt(10),
		Active: true,
	})
	require.NoError(t, err)

	x := f.item(t, vendor1, "25.50", 5)
	f.addToCart(t, alice, x, 2)
	req := checkoutReq()
	req.Coupon = "save10"

	o, err := f.engine.Checkout(ctx, alice, req)
	require.NoError(t, err)
	require.NotNil(t, o.Coupon)
	assert.Equal(t, "SAVE10", o.Coupon.Code)
	assert.Equal(t, "51", o.Subtotal.String())
	assert.Equal(t, "5.1", o.Discount.String())
	assert.Equal(t, "45.9", o.Total.String())
}

func TestCheckoutValidationNeverTouchesStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x := f.item(t, vendor1, "10", 5)

	_, err := f.engine.Checkout(ctx, alice, checkoutReq())
	assert.Equal(t, apperr.ValidationFailed, apperr.KindOf(err), "empty cart")

	f.addToCart(t, alice, x, 2)
	bad := []func(*CheckoutRequest){
		func(r *CheckoutRequest) { r.Coupon = "NOPE" },
		func(r *CheckoutRequest) { r.ContactPhone = "call me" },
		func(r *CheckoutRequest) { r.PaymentMethod = "barter" },
		func(r *CheckoutRequest) { r.Address.City = "" },
	}
	for i, mutate := range bad {
		req := checkoutReq()
		mutate(&req)
		_, err := f.engine.Checkout(ctx, alice, req)
		assert.Equal(t, apperr.ValidationFailed, apperr.KindOf(err), i)
	}
	assert.Equal(t, 5, f.stock(t, x))

	_, err = f.engine.Checkout(ctx, vendor1, checkoutReq())
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))
}

func TestPriceSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x := f.item(t, vendor1, "10", 5)
	o := f.placeOrder(t, alice, x, 1)

	// restocking never rewrites what the order recorded
	_, err := f.ledger.Restock(ctx, vendor1.UserID, x, 3)
	require.NoError(t, err)
	got, err := f.engine.GetOrder(ctx, alice, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "10", got.Items[0].UnitPrice.String())
	assert.Equal(t, 1, got.Items[0].Quantity)
}

func TestGetOrdersScopedByRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.item(t, vendor1, "10", 50)
	b := f.item(t, vendor2, "10", 50)
	for i := 0; i < 3; i++ {
		f.placeOrder(t, alice, a, 1)
	}
	f.placeOrder(t, bob, b, 1)

	res, err := f.engine.GetOrders(ctx, alice, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)

	res, err = f.engine.GetOrders(ctx, vendor2, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, bob.UserID, res.Orders[0].OwnerID)

	res, err = f.engine.GetOrders(ctx, admin, ListQuery{Page: 1, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Total)
	assert.Len(t, res.Orders, 3)
	assert.Equal(t, 1, res.Remaining)
	assert.Equal(t, 2, res.Pagination.NumberOfPages)
	require.NotNil(t, res.Pagination.Next)
	assert.Equal(t, 2, *res.Pagination.Next)
	assert.Nil(t, res.Pagination.Prev)

	res, err = f.engine.GetOrders(ctx, admin, ListQuery{Page: 2, Limit: 3})
	require.NoError(t, err)
	assert.Len(t, res.Orders, 1)
	assert.Zero(t, res.Remaining)
	assert.Nil(t, res.Pagination.Next)
}

func TestGetOrdersHugePage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.item(t, vendor1, "10", 5)
	f.placeOrder(t, alice, a, 1)

	_, err := f.engine.GetOrders(ctx, alice, ListQuery{Page: 1 << 62, Limit: 100})
	assert.Equal(t, apperr.ValidationFailed, apperr.KindOf(err))

	// the largest page whose offset still fits is simply empty
	res, err := f.engine.GetOrders(ctx, alice, ListQuery{Page: math.MaxInt/100 + 1, Limit: 100})
	require.NoError(t, err)
	assert.Empty(t, res.Orders)
	assert.Equal(t, 1, res.Total)
	assert.Zero(t, res.Remaining)
}

func TestMemRepoListClampsOffset(t *testing.T) {
	f := newFixture(t)
	a := f.item(t, vendor1, "10", 5)
	f.placeOrder(t, alice, a, 1)

	orders, total, err := f.repo.List(context.Background(), Filter{}, 10, -100)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, orders, 1)
}

func TestGetOrderVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x := f.item(t, vendor1, "10", 5)
	o := f.placeOrder(t, alice, x, 1)

	for _, who := range []user.Identity{alice, vendor1, admin} {
		_, err := f.engine.GetOrder(ctx, who, o.ID)
		assert.NoError(t, err, who.UserID)
	}
	for _, who := range []user.Identity{bob, vendor2} {
		_, err := f.engine.GetOrder(ctx, who, o.ID)
		assert.Equal(t, apperr.Forbidden, apperr.KindOf(err), who.UserID)
	}
	_, err := f.engine.GetOrder(ctx, admin, "missing")
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

// racingRepo simulates another process changing the status between the read
// and the conditional write.
type racingRepo struct {
	*MemRepo
}

func (r racingRepo) Transition(context.Context, string, Status, Status, time.Time) error {
	return ErrStatusChanged
}

func TestLostRaceIsConflict(t *testing.T) {
	repo := racingRepo{NewMemRepo()}
	f := newFixtureWithRepo(t, repo)
	x := f.item(t, vendor1, "10", 5)
	o := f.placeOrder(t, alice, x, 2)

	_, err := f.engine.ConfirmOrder(context.Background(), vendor1, o.ID)
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))

	_, err = f.engine.CancelOrder(context.Background(), alice, o.ID)
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
	assert.Equal(t, 3, f.stock(t, x), "a lost cancel race releases nothing")
}

type failingCreateRepo struct {
	*MemRepo
}

func (failingCreateRepo) Create(context.Context, *Order) error {
	return errors.New("disk full")
}

func TestFailedPersistReleasesReservation(t *testing.T) {
	f := newFixtureWithRepo(t, failingCreateRepo{NewMemRepo()})
	x := f.item(t, vendor1, "10", 5)
	f.addToCart(t, alice, x, 2)

	_, err := f.engine.Checkout(context.Background(), alice, checkoutReq())
	assert.Equal(t, apperr.Internal, apperr.KindOf(err))
	assert.Equal(t, 5, f.stock(t, x))
}

// flakyInventory fails the first failures releases, then delegates.
type flakyInventory struct {
	Inventory
	mu       sync.Mutex
	failures int
	calls    int
}

func (f *flakyInventory) Release(ctx context.Context, orderID string, lines []inventory.Line) error {
	f.mu.Lock()
	f.calls++
	fail := f.calls <= f.failures
	f.mu.Unlock()
	if fail {
		return errors.New("connection reset")
	}
	return f.Inventory.Release(ctx, orderID, lines)
}

func TestCancelSurvivesFailedRelease(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x := f.item(t, vendor1, "10", 5)
	o := f.placeOrder(t, alice, x, 2)

	inv := &flakyInventory{Inventory: f.ledger, failures: 2}
	f.engine.inv = inv
	f.engine.releaseBackoff = time.Millisecond

	got, err := f.engine.CancelOrder(ctx, alice, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	assert.Equal(t, StatusCancelled, f.status(t, o.ID))

	f.engine.Wait()
	assert.Equal(t, 5, f.stock(t, x))
	assert.Equal(t, 3, inv.calls)
}

func TestCancelReleaseGivesUp(t *testing.T) {
	f := newFixture(t)
	x := f.item(t, vendor1, "10", 5)
	o := f.placeOrder(t, alice, x, 2)

	inv := &flakyInventory{Inventory: f.ledger, failures: 100}
	f.engine.inv = inv
	f.engine.releaseBackoff = time.Millisecond
	f.engine.releaseAttempts = 2

	_, err := f.engine.CancelOrder(context.Background(), alice, o.ID)
	require.NoError(t, err)
	f.engine.Wait()
	assert.Equal(t, 3, inv.calls)
	assert.Equal(t, 3, f.stock(t, x))
}

func TestCanTransition(t *testing.T) {
	all := []Status{StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled}
	allowed := map[[2]Status]bool{
		{StatusPending, StatusConfirmed}:   true,
		{StatusConfirmed, StatusShipped}:   true,
		{StatusShipped, StatusDelivered}:   true,
		{StatusPending, StatusCancelled}:   true,
		{StatusConfirmed, StatusCancelled}: true,
	}
	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]Status{from, to}], CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}
