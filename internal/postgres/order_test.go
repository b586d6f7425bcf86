package postgres

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dchen/storefront/internal/domain"
)

func TestOrderLineUnitPrice(t *testing.T) {
	discount := 59.99
	zero := 0.0

	tests := []struct {
		name string
		line orderLine
		want float64
	}{
		{
			name: "list price when no discount",
			line: orderLine{price: 79.99},
			want: 79.99,
		},
		{
			name: "discount price wins when set",
			line: orderLine{price: 79.99, discountPrice: &discount},
			want: 59.99,
		},
		{
			name: "zero discount is still a discount",
			line: orderLine{price: 79.99, discountPrice: &zero},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.line.unitPrice(); got != tt.want {
				t.Errorf("unitPrice() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsForeignKeyViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "fk violation",
			err:  &pgconn.PgError{Code: "23503"},
			want: true,
		},
		{
			name: "wrapped fk violation",
			err:  errors.Join(errors.New("exec failed"), &pgconn.PgError{Code: "23503"}),
			want: true,
		},
		{
			name: "other pg error",
			err:  &pgconn.PgError{Code: "23505"},
			want: false,
		},
		{
			name: "plain error",
			err:  errors.New("connection reset"),
			want: false,
		},
		{
			name: "nil",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isForeignKeyViolation(tt.err); got != tt.want {
				t.Errorf("isForeignKeyViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}

// fakeProductRow is one row of the products table as PlaceOrder sees it.
type fakeProductRow struct {
	title    string
	stock    int
	price    float64
	discount *float64
}

type fakeCartLine struct {
	productID int64
	quantity  int
}

type fakeOrderRow struct {
	total  float64
	status string
}

type fakeOrderItemRow struct {
	orderID   int64
	productID int64
	quantity  int
	price     float64
}

// fakeOrderDB plays both the pool and the transaction for PlaceOrder,
// dispatching on the statement text and mutating in-memory tables. The
// embedded interfaces cover the methods the service never calls.
type fakeOrderDB struct {
	pgx.Tx

	products map[int64]*fakeProductRow
	cart     []fakeCartLine

	orders     []fakeOrderRow
	orderItems []fakeOrderItemRow

	nextOrderID int64
	lockedOrder []int64

	// failItemInsertOn makes the Nth order_items insert fail (1-based).
	failItemInsertOn int
	itemInserts      int

	// beforeStockUpdate runs once before the first stock decrement,
	// standing in for a writer that slipped past between read and write.
	beforeStockUpdate func(*fakeOrderDB)

	committed  bool
	rolledBack bool
}

func newFakeOrderDB() *fakeOrderDB {
	return &fakeOrderDB{
		products:    map[int64]*fakeProductRow{},
		nextOrderID: 41,
	}
}

func (f *fakeOrderDB) Begin(ctx context.Context) (pgx.Tx, error) { return f, nil }

func (f *fakeOrderDB) Commit(ctx context.Context) error {
	f.committed = true
	return nil
}

func (f *fakeOrderDB) Rollback(ctx context.Context) error {
	if !f.committed {
		f.rolledBack = true
	}
	return nil
}

func (f *fakeOrderDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if strings.Contains(sql, "FROM cart c") {
		rows := &fakeCartRows{}
		for _, c := range f.cart {
			p := f.products[c.productID]
			rows.lines = append(rows.lines, fakeJoinedLine{
				productID: c.productID,
				quantity:  c.quantity,
				title:     p.title,
				stock:     p.stock,
				price:     p.price,
				discount:  p.discount,
			})
		}
		return rows, nil
	}
	panic("unexpected query: " + sql)
}

func (f *fakeOrderDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	switch {
	case strings.Contains(sql, "INSERT INTO orders"):
		f.orders = append(f.orders, fakeOrderRow{
			total:  args[3].(float64),
			status: args[4].(string),
		})
		id := f.nextOrderID
		f.nextOrderID++
		return fakeRow{scan: func(dest ...any) error {
			*(dest[0].(*int64)) = id
			return nil
		}}

	case strings.Contains(sql, "FROM products"):
		id := args[0].(int64)
		f.lockedOrder = append(f.lockedOrder, id)
		p, ok := f.products[id]
		if !ok {
			return fakeRow{scan: func(dest ...any) error { return pgx.ErrNoRows }}
		}
		return fakeRow{scan: func(dest ...any) error {
			*(dest[0].(*string)) = p.title
			*(dest[1].(*int)) = p.stock
			*(dest[2].(*float64)) = p.price
			*(dest[3].(**float64)) = p.discount
			return nil
		}}
	}
	panic("unexpected query row: " + sql)
}

func (f *fakeOrderDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	switch {
	case strings.Contains(sql, "INSERT INTO order_items"):
		f.itemInserts++
		if f.failItemInsertOn > 0 && f.itemInserts == f.failItemInsertOn {
			return pgconn.CommandTag{}, errors.New("connection reset by peer")
		}
		f.orderItems = append(f.orderItems, fakeOrderItemRow{
			orderID:   args[0].(int64),
			productID: args[1].(int64),
			quantity:  args[2].(int),
			price:     args[3].(float64),
		})
		return pgconn.NewCommandTag("INSERT 0 1"), nil

	case strings.Contains(sql, "UPDATE products"):
		if f.beforeStockUpdate != nil {
			hook := f.beforeStockUpdate
			f.beforeStockUpdate = nil
			hook(f)
		}
		quantity := args[0].(int)
		p := f.products[args[1].(int64)]
		if p.stock < quantity {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		}
		p.stock -= quantity
		return pgconn.NewCommandTag("UPDATE 1"), nil

	case strings.Contains(sql, "DELETE FROM cart"):
		f.cart = nil
		return pgconn.NewCommandTag("DELETE 1"), nil
	}
	panic("unexpected exec: " + sql)
}

type fakeJoinedLine struct {
	productID int64
	quantity  int
	title     string
	stock     int
	price     float64
	discount  *float64
}

type fakeCartRows struct {
	pgx.Rows
	lines []fakeJoinedLine
	i     int
}

func (r *fakeCartRows) Next() bool {
	r.i++
	return r.i <= len(r.lines)
}

func (r *fakeCartRows) Scan(dest ...any) error {
	l := r.lines[r.i-1]
	*(dest[0].(*int64)) = l.productID
	*(dest[1].(*int)) = l.quantity
	*(dest[2].(*string)) = l.title
	*(dest[3].(*int)) = l.stock
	*(dest[4].(*float64)) = l.price
	*(dest[5].(**float64)) = l.discount
	return nil
}

func (r *fakeCartRows) Err() error { return nil }
func (r *fakeCartRows) Close()     {}

type fakeRow struct {
	scan func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error { return r.scan(dest...) }

func placeParams(total float64) domain.PlaceOrderParams {
	return domain.PlaceOrderParams{
		CustomerName:    "Dana Smith",
		CustomerEmail:   "dana@example.com",
		CustomerAddress: "12 Main St",
		TotalAmount:     total,
	}
}

func TestPlaceOrderFromCart(t *testing.T) {
	discount := 59.99
	db := newFakeOrderDB()
	db.products[1] = &fakeProductRow{title: "Wireless Headphones", stock: 10, price: 79.99, discount: &discount}
	db.products[2] = &fakeProductRow{title: "USB-C Cable", stock: 5, price: 12.50}
	db.cart = []fakeCartLine{{productID: 1, quantity: 2}, {productID: 2, quantity: 1}}

	svc := NewOrderService(db, domain.OrderStatusPending, true)

	orderID, err := svc.PlaceOrder(context.Background(), placeParams(132.48))
	if err != nil {
		t.Fatalf("PlaceOrder() error = %v", err)
	}
	if orderID != 41 {
		t.Errorf("expected order id 41, got %d", orderID)
	}
	if !db.committed {
		t.Error("expected the transaction to commit")
	}

	if got := db.products[1].stock; got != 8 {
		t.Errorf("expected stock 8 after decrement, got %d", got)
	}
	if got := db.products[2].stock; got != 4 {
		t.Errorf("expected stock 4 after decrement, got %d", got)
	}
	if len(db.cart) != 0 {
		t.Errorf("expected the cart to be cleared, %d lines remain", len(db.cart))
	}

	if len(db.orderItems) != 2 {
		t.Fatalf("expected 2 order items, got %d", len(db.orderItems))
	}
	if got := db.orderItems[0].price; got != 59.99 {
		t.Errorf("expected discounted price to be snapshotted, got %v", got)
	}
	if got := db.orderItems[1].price; got != 12.50 {
		t.Errorf("expected list price to be snapshotted, got %v", got)
	}

	if len(db.orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(db.orders))
	}
	if math.Abs(db.orders[0].total-132.48) > 0.01 {
		t.Errorf("expected stored total near 132.48, got %v", db.orders[0].total)
	}
	if db.orders[0].status != "pending" {
		t.Errorf("expected pending status, got %q", db.orders[0].status)
	}
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	db := newFakeOrderDB()
	svc := NewOrderService(db, domain.OrderStatusPending, true)

	_, err := svc.PlaceOrder(context.Background(), placeParams(10))
	if !errors.Is(err, domain.ErrCartEmpty) {
		t.Fatalf("expected ErrCartEmpty, got %v", err)
	}
	if len(db.orders) != 0 {
		t.Error("expected no order rows")
	}
	if db.committed || !db.rolledBack {
		t.Error("expected the transaction to roll back")
	}
}

func TestPlaceOrderInsufficientStockAbortsBeforeWrites(t *testing.T) {
	db := newFakeOrderDB()
	db.products[1] = &fakeProductRow{title: "Mechanical Keyboard", stock: 1, price: 120}
	db.cart = []fakeCartLine{{productID: 1, quantity: 3}}

	svc := NewOrderService(db, domain.OrderStatusPending, true)

	_, err := svc.PlaceOrder(context.Background(), placeParams(360))
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := domain.ErrorMessage(err); got != "Insufficient stock for Mechanical Keyboard" {
		t.Errorf("expected the offending product to be named, got %q", got)
	}
	if domain.ErrorCode(err) != domain.EPRECONDITION {
		t.Errorf("expected precondition code, got %q", domain.ErrorCode(err))
	}

	if len(db.orders) != 0 || len(db.orderItems) != 0 {
		t.Error("expected no writes before validation passed")
	}
	if db.products[1].stock != 1 {
		t.Errorf("expected stock untouched, got %d", db.products[1].stock)
	}
	if len(db.cart) != 1 {
		t.Error("expected the cart to survive the failed placement")
	}
	if db.committed {
		t.Error("expected no commit")
	}
}

func TestPlaceOrderItemInsertFailureRollsBack(t *testing.T) {
	db := newFakeOrderDB()
	db.products[1] = &fakeProductRow{title: "Desk Lamp", stock: 4, price: 35}
	db.products[2] = &fakeProductRow{title: "Notebook", stock: 9, price: 6}
	db.cart = []fakeCartLine{{productID: 1, quantity: 1}, {productID: 2, quantity: 2}}
	db.failItemInsertOn = 2

	svc := NewOrderService(db, domain.OrderStatusPending, false)

	_, err := svc.PlaceOrder(context.Background(), placeParams(47))
	if err == nil {
		t.Fatal("expected an error")
	}
	if domain.ErrorCode(err) != domain.EINTERNAL {
		t.Errorf("expected internal code, got %q", domain.ErrorCode(err))
	}
	if db.committed {
		t.Error("expected no commit after a mid-placement failure")
	}
	if !db.rolledBack {
		t.Error("expected the deferred rollback to fire")
	}
}

func TestPlaceOrderGuardedDecrement(t *testing.T) {
	db := newFakeOrderDB()
	db.products[1] = &fakeProductRow{title: "Desk Lamp", stock: 2, price: 35}
	db.cart = []fakeCartLine{{productID: 1, quantity: 2}}

	// Stock vanishes after validation but before the decrement.
	db.beforeStockUpdate = func(f *fakeOrderDB) {
		f.products[1].stock = 1
	}

	svc := NewOrderService(db, domain.OrderStatusPending, false)

	_, err := svc.PlaceOrder(context.Background(), placeParams(70))
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := domain.ErrorMessage(err); !strings.Contains(got, "Insufficient stock") {
		t.Errorf("expected insufficient stock error, got %q", got)
	}
	if db.products[1].stock < 0 {
		t.Errorf("stock went negative: %d", db.products[1].stock)
	}
	if db.committed {
		t.Error("expected no commit")
	}
}

func TestPlaceOrderStrictTotals(t *testing.T) {
	t.Run("mismatch is rejected before any write", func(t *testing.T) {
		db := newFakeOrderDB()
		db.products[1] = &fakeProductRow{title: "Desk Lamp", stock: 4, price: 35}
		db.cart = []fakeCartLine{{productID: 1, quantity: 1}}

		svc := NewOrderService(db, domain.OrderStatusPending, true)

		_, err := svc.PlaceOrder(context.Background(), placeParams(999))
		if !errors.Is(err, domain.ErrTotalMismatch) {
			t.Fatalf("expected ErrTotalMismatch, got %v", err)
		}
		if len(db.orders) != 0 {
			t.Error("expected no order rows")
		}
	})

	t.Run("recomputed total is stored over the submitted one", func(t *testing.T) {
		db := newFakeOrderDB()
		db.products[1] = &fakeProductRow{title: "Desk Lamp", stock: 4, price: 35}
		db.cart = []fakeCartLine{{productID: 1, quantity: 1}}

		svc := NewOrderService(db, domain.OrderStatusPending, true)

		// Within rounding tolerance of the real 35.00.
		if _, err := svc.PlaceOrder(context.Background(), placeParams(35.004)); err != nil {
			t.Fatalf("PlaceOrder() error = %v", err)
		}
		if db.orders[0].total != 35 {
			t.Errorf("expected recomputed total 35, got %v", db.orders[0].total)
		}
	})

	t.Run("lenient mode trusts the submitted total", func(t *testing.T) {
		db := newFakeOrderDB()
		db.products[1] = &fakeProductRow{title: "Desk Lamp", stock: 4, price: 35}
		db.cart = []fakeCartLine{{productID: 1, quantity: 1}}

		svc := NewOrderService(db, domain.OrderStatusPending, false)

		if _, err := svc.PlaceOrder(context.Background(), placeParams(999.99)); err != nil {
			t.Fatalf("PlaceOrder() error = %v", err)
		}
		if db.orders[0].total != 999.99 {
			t.Errorf("expected submitted total 999.99, got %v", db.orders[0].total)
		}
	})
}

func TestPlaceOrderExplicitItems(t *testing.T) {
	t.Run("locks products in id order and leaves the cart alone", func(t *testing.T) {
		db := newFakeOrderDB()
		db.products[1] = &fakeProductRow{title: "Desk Lamp", stock: 4, price: 35}
		db.products[2] = &fakeProductRow{title: "Notebook", stock: 9, price: 6}
		db.cart = []fakeCartLine{{productID: 1, quantity: 1}}

		svc := NewOrderService(db, domain.OrderStatusPending, false)

		params := placeParams(47)
		params.Items = []domain.OrderLineInput{
			{ProductID: 2, Quantity: 2},
			{ProductID: 1, Quantity: 1},
		}

		if _, err := svc.PlaceOrder(context.Background(), params); err != nil {
			t.Fatalf("PlaceOrder() error = %v", err)
		}
		if len(db.lockedOrder) != 2 || db.lockedOrder[0] != 1 || db.lockedOrder[1] != 2 {
			t.Errorf("expected products locked in id order, got %v", db.lockedOrder)
		}
		if len(db.cart) != 1 {
			t.Error("expected the cart to be untouched by an explicit placement")
		}
		if !db.committed {
			t.Error("expected the transaction to commit")
		}
	})

	t.Run("unknown product fails the placement", func(t *testing.T) {
		db := newFakeOrderDB()
		svc := NewOrderService(db, domain.OrderStatusPending, false)

		params := placeParams(10)
		params.Items = []domain.OrderLineInput{{ProductID: 99, Quantity: 1}}

		_, err := svc.PlaceOrder(context.Background(), params)
		if domain.ErrorCode(err) != domain.ENOTFOUND {
			t.Fatalf("expected not found, got %v", err)
		}
		if got := domain.ErrorMessage(err); got != "Product not found" {
			t.Errorf("expected product not found message, got %q", got)
		}
	})

	t.Run("zero quantity is rejected", func(t *testing.T) {
		db := newFakeOrderDB()
		db.products[1] = &fakeProductRow{title: "Desk Lamp", stock: 4, price: 35}
		svc := NewOrderService(db, domain.OrderStatusPending, false)

		params := placeParams(35)
		params.Items = []domain.OrderLineInput{{ProductID: 1, Quantity: 0}}

		_, err := svc.PlaceOrder(context.Background(), params)
		if !errors.Is(err, domain.ErrInvalidQuantity) {
			t.Fatalf("expected ErrInvalidQuantity, got %v", err)
		}
	})
}
