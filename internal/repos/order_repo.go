package repos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"jamde/internal/domain"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

const orderCols = `o.id, COALESCE(o.user_id,'') AS user_id, o.status, o.payment_status, o.subtotal, o.tax,
  o.shipping_cost, o.total, o.shipping_json, o.created_at, o.updated_at`

// ---------- Admin list summary ----------
type OrderSummary struct {
	domain.Order
	CustomerName  string `db:"customer_name" json:"customerName"`
	CustomerEmail string `db:"customer_email" json:"customerEmail"`
	ItemCount     int    `db:"item_count" json:"itemCount"`
}

type OrderFilter struct {
	Q             string
	Status        domain.OrderStatus
	PaymentStatus domain.PaymentStatus
	Page          int
	PerPage       int
}

// ---------- Writes (inside the checkout transaction) ----------

// Insert writes the order header within tx.
func (r *OrderRepo) Insert(ctx context.Context, tx *sqlx.Tx, o domain.Order) error {
	_, err := tx.ExecContext(ctx, tx.Rebind(`
	  INSERT INTO orders
	    (id, user_id, status, payment_status, subtotal, tax, shipping_cost, total, shipping_json, created_at, updated_at)
	  VALUES
	    (?,  ?,       ?,      ?,              ?,        ?,   ?,             ?,     ?,             ?,          ?)`),
		o.ID, nullable(o.UserID), o.Status, o.PaymentStatus, o.Subtotal, o.Tax, o.ShippingCost, o.Total, o.ShippingJSON, o.CreatedAt, o.CreatedAt)
	return err
}

// InsertItem writes one line with its frozen name and unit price.
func (r *OrderRepo) InsertItem(ctx context.Context, tx *sqlx.Tx, it domain.OrderItem) error {
	_, err := tx.ExecContext(ctx, tx.Rebind(`
	  INSERT INTO order_items(order_id, product_id, name, quantity, price)
	  VALUES(?, ?, ?, ?, ?)`), it.OrderID, it.ProductID, it.Name, it.Quantity, it.Price)
	return err
}

// ---------- Reads ----------

func (r *OrderRepo) Get(ctx context.Context, id string) (domain.Order, error) {
	var o domain.Order
	err := r.db.GetContext(ctx, &o, r.db.Rebind(`SELECT `+orderCols+` FROM orders o WHERE o.id = ?`), id)
	return o, notFound(err)
}

func (r *OrderRepo) Items(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	items := []domain.OrderItem{}
	err := r.db.SelectContext(ctx, &items, r.db.Rebind(`
	  SELECT order_id, product_id, name, quantity, price
	  FROM order_items
	  WHERE order_id = ?
	  ORDER BY name`), orderID)
	return items, err
}

// Count reports how many order/order_items rows exist; used to assert no partial writes.
func (r *OrderRepo) Count(ctx context.Context) (orders, items int, err error) {
	if err = r.db.GetContext(ctx, &orders, `SELECT COUNT(*) FROM orders`); err != nil {
		return
	}
	err = r.db.GetContext(ctx, &items, `SELECT COUNT(*) FROM order_items`)
	return
}

func (r *OrderRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	out := []domain.Order{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
	  SELECT `+orderCols+`
	  FROM orders o
	  WHERE o.user_id = ?
	  ORDER BY o.created_at DESC`), userID)
	return out, err
}

func (r *OrderRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM orders WHERE user_id = ?`), userID)
	return n, err
}

// List pages through orders for the back-office, newest first. Q matches the order id
// prefix or the customer's name or email.
func (r *OrderRepo) List(ctx context.Context, f OrderFilter) ([]OrderSummary, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if q := strings.ToLower(strings.TrimSpace(f.Q)); q != "" {
		where = append(where, "(LOWER(o.id) LIKE ? OR LOWER(COALESCE(u.name,'')) LIKE ? OR LOWER(COALESCE(u.email,'')) LIKE ?)")
		args = append(args, q+"%", "%"+q+"%", "%"+q+"%")
	}
	if f.Status != "" {
		where = append(where, "o.status = ?")
		args = append(args, f.Status)
	}
	if f.PaymentStatus != "" {
		where = append(where, "o.payment_status = ?")
		args = append(args, f.PaymentStatus)
	}
	from := ` FROM orders o LEFT JOIN users u ON u.id = o.user_id WHERE ` + strings.Join(where, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(`SELECT COUNT(*)`+from), args...); err != nil {
		return nil, 0, err
	}
	perPage := f.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	out := []OrderSummary{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
	  SELECT `+orderCols+`, COALESCE(u.name,'') AS customer_name, COALESCE(u.email,'') AS customer_email,
	         (SELECT COALESCE(SUM(oi.quantity),0) FROM order_items oi WHERE oi.order_id = o.id) AS item_count`+
		from+`
	  ORDER BY o.created_at DESC
	  LIMIT ? OFFSET ?`), append(args, perPage, (max(f.Page, 1)-1)*perPage)...)
	return out, total, err
}

// ---------- Guarded status writes ----------
// Each update only applies while the row still holds the status the caller checked, so
// two admins racing on one order cannot both win. A lost race reads as ErrInvalidTransition.

// UpdateStatus moves an order from one status to another. Closing an open order
// (CANCELLED or REFUNDED) returns its units to stock in the same transaction.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) error {
	return WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE orders SET status=?, updated_at=? WHERE id=? AND status=?`), to, now(), id, from)
		if err := casResult(res, err); err != nil {
			return err
		}
		if to.Terminal() && !from.Terminal() {
			return restock(ctx, tx, id)
		}
		return nil
	})
}

func (r *OrderRepo) UpdatePaymentStatus(ctx context.Context, id string, from, to domain.PaymentStatus) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE orders SET payment_status=?, updated_at=? WHERE id=? AND payment_status=?`), to, now(), id, from)
	return casResult(res, err)
}

// Refund moves a PAID order to REFUNDED/REFUNDED and restocks its lines.
func (r *OrderRepo) Refund(ctx context.Context, id string, from domain.OrderStatus) error {
	return WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`
		  UPDATE orders SET status=?, payment_status=?, updated_at=?
		  WHERE id=? AND status=? AND payment_status=?`),
			domain.OrderRefunded, domain.PaymentRefunded, now(), id, from, domain.PaymentPaid)
		if err := casResult(res, err); err != nil {
			return err
		}
		if from.Terminal() {
			return nil
		}
		return restock(ctx, tx, id)
	})
}

// restock adds an order's line quantities back to product stock.
func restock(ctx context.Context, tx *sqlx.Tx, orderID string) error {
	_, err := tx.ExecContext(ctx, tx.Rebind(`
	  UPDATE products
	  SET stock = stock + (SELECT oi.quantity FROM order_items oi WHERE oi.order_id = ? AND oi.product_id = products.id),
	      updated_at = ?
	  WHERE id IN (SELECT product_id FROM order_items WHERE order_id = ?)`), orderID, now(), orderID)
	return err
}

func casResult(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrInvalidTransition.With("order changed concurrently; reload and retry")
	}
	return nil
}

// ---------- Aggregates for the dashboard ----------

type DayRevenue struct {
	Day     string          `db:"day" json:"day"`
	Revenue decimal.Decimal `db:"revenue" json:"revenue"`
	Orders  int             `db:"orders" json:"orders"`
}

type StatusCount struct {
	Status domain.OrderStatus `db:"status" json:"status"`
	Count  int                `db:"count" json:"count"`
}

// PaidTotals sums PAID orders.
func (r *OrderRepo) PaidTotals(ctx context.Context) (revenue decimal.Decimal, orders int, err error) {
	var row struct {
		Revenue decimal.Decimal `db:"revenue"`
		Orders  int             `db:"orders"`
	}
	err = r.db.GetContext(ctx, &row, r.db.Rebind(`
	  SELECT COALESCE(SUM(total),0) AS revenue, COUNT(*) AS orders
	  FROM orders WHERE payment_status = ?`), domain.PaymentPaid)
	return row.Revenue, row.Orders, err
}

func (r *OrderRepo) CountAll(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM orders`)
	return n, err
}

func (r *OrderRepo) Recent(ctx context.Context, limit int) ([]OrderSummary, error) {
	out, _, err := r.List(ctx, OrderFilter{PerPage: limit})
	return out, err
}

func (r *OrderRepo) StatusDistribution(ctx context.Context) ([]StatusCount, error) {
	out := []StatusCount{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT status, COUNT(*) AS count
	  FROM orders
	  GROUP BY status
	  ORDER BY status`)
	return out, err
}

// RevenueByDay groups PAID orders created on or after since (a TimeLayout prefix) by date.
func (r *OrderRepo) RevenueByDay(ctx context.Context, since string) ([]DayRevenue, error) {
	out := []DayRevenue{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
	  SELECT SUBSTR(created_at,1,10) AS day, COALESCE(SUM(total),0) AS revenue, COUNT(*) AS orders
	  FROM orders
	  WHERE payment_status = ? AND created_at >= ?
	  GROUP BY SUBSTR(created_at,1,10)
	  ORDER BY day`), domain.PaymentPaid, since)
	return out, err
}
