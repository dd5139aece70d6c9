package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"tableside/internal/domain"
)

// OrderFilter narrows List. Nil fields are not applied. ActiveOnly applies
// the cashier working-queue rule (unsettled, cancelled dining excluded).
type OrderFilter struct {
	Status      *domain.OrderStatus
	OrderType   *domain.OrderType
	IsPaid      *bool
	IsSettled   *bool
	TableNumber *int
	ActiveOnly  bool
}

// Orders persists order records. Every conditional mutation returns whether
// the guard matched; a false return means the caller lost a race and must
// surface a conflict instead of retrying blindly.
type Orders interface {
	Insert(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	GetByCode(ctx context.Context, code string) (*domain.Order, error)
	List(ctx context.Context, f OrderFilter) ([]domain.Order, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int, error)
	UpdateStatus(ctx context.Context, id int64, from []domain.OrderStatus, to domain.OrderStatus, setCompletedAt bool) (bool, error)
	MarkPaid(ctx context.Context, id int64, method domain.PaymentMethod) (bool, error)
	Settle(ctx context.Context, id int64) (bool, error)
	MarkRefunded(ctx context.Context, id int64) (bool, error)
	HasActiveForTable(ctx context.Context, tableNumber int) (bool, error)
	CashTotalsSince(ctx context.Context, since time.Time) (paid, refunded float64, err error)
}

type ordersPG struct {
	db *sql.DB
}

func NewOrders(db *sql.DB) Orders { return &ordersPG{db: db} }

const orderColumns = `id, code, customer_name, items, status, total, order_type, table_number,
	is_paid, is_settled, payment_method, cashier_id, cashier_name, refund_status,
	created_at, completed_at, updated_at`

func (r *ordersPG) Insert(ctx context.Context, o *domain.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO orders
			(code, customer_name, items, status, total, order_type, table_number,
			 is_paid, is_settled, payment_method, cashier_id, cashier_name, refund_status,
			 created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$14)
		RETURNING id`,
		o.Code, o.CustomerName, items, o.Status, o.Total, o.OrderType, o.TableNumber,
		o.IsPaid, o.IsSettled, nullIfEmpty(string(o.PaymentMethod)), nullIfZero(o.CashierID),
		nullIfEmpty(o.CashierName), o.RefundStatus, o.CreatedAt,
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *ordersPG) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	return r.getWhere(ctx, "id=$1", id)
}

func (r *ordersPG) GetByCode(ctx context.Context, code string) (*domain.Order, error) {
	return r.getWhere(ctx, "code=$1", code)
}

func (r *ordersPG) getWhere(ctx context.Context, cond string, arg any) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE `+cond, arg)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return o, err
}

func (r *ordersPG) List(ctx context.Context, f OrderFilter) ([]domain.Order, error) {
	conds := []string{"true"}
	args := []any{}
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != nil {
		add("status=$%d", *f.Status)
	}
	if f.OrderType != nil {
		add("order_type=$%d", *f.OrderType)
	}
	if f.IsPaid != nil {
		add("is_paid=$%d", *f.IsPaid)
	}
	if f.IsSettled != nil {
		add("is_settled=$%d", *f.IsSettled)
	}
	if f.TableNumber != nil {
		add("table_number=$%d", *f.TableNumber)
	}
	if f.ActiveOnly {
		conds = append(conds, "is_settled=false", "NOT (status='cancelled' AND order_type='dining')")
	}

	q := `SELECT ` + orderColumns + ` FROM orders WHERE ` + strings.Join(conds, " AND ") +
		` ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *ordersPG) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE created_at >= $1`, since).Scan(&n)
	return n, err
}

func (r *ordersPG) UpdateStatus(ctx context.Context, id int64, from []domain.OrderStatus, to domain.OrderStatus, setCompletedAt bool) (bool, error) {
	froms := make([]string, len(from))
	for i, s := range from {
		froms[i] = string(s)
	}
	completed := ""
	if setCompletedAt {
		completed = ", completed_at = COALESCE(completed_at, now())"
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status=$2, updated_at=now()`+completed+`
		WHERE id=$1 AND status = ANY($3)`,
		id, to, froms)
	if err != nil {
		return false, err
	}
	return matched(res)
}

func (r *ordersPG) MarkPaid(ctx context.Context, id int64, method domain.PaymentMethod) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET is_paid=true, is_settled=true, payment_method=$2, updated_at=now()
		WHERE id=$1 AND is_paid=false`,
		id, method)
	if err != nil {
		return false, err
	}
	return matched(res)
}

func (r *ordersPG) Settle(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET is_settled=true, updated_at=now()
		WHERE id=$1 AND is_settled=false AND is_paid=true`,
		id)
	if err != nil {
		return false, err
	}
	return matched(res)
}

func (r *ordersPG) MarkRefunded(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET refund_status=true, is_settled=true, updated_at=now()
		WHERE id=$1 AND status='cancelled' AND order_type='takeaway' AND refund_status=false`,
		id)
	if err != nil {
		return false, err
	}
	return matched(res)
}

func (r *ordersPG) HasActiveForTable(ctx context.Context, tableNumber int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM orders
			WHERE table_number=$1 AND is_settled=false AND status <> 'cancelled'
		)`, tableNumber).Scan(&exists)
	return exists, err
}

// CashTotalsSince sums cash-paid order totals and the refunded subset. A
// refunded order stays in the paid sum: the cash entered the drawer at
// creation and left at refund, so it nets to zero in the balance.
func (r *ordersPG) CashTotalsSince(ctx context.Context, since time.Time) (float64, float64, error) {
	var paid, refunded float64
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(total), 0),
			COALESCE(SUM(total) FILTER (WHERE refund_status), 0)
		FROM orders
		WHERE is_paid=true AND payment_method='cash' AND created_at >= $1`,
		since).Scan(&paid, &refunded)
	return paid, refunded, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	var items []byte
	var method, cashierName sql.NullString
	var cashierID sql.NullInt64
	var completedAt sql.NullTime
	err := row.Scan(
		&o.ID, &o.Code, &o.CustomerName, &items, &o.Status, &o.Total, &o.OrderType,
		&o.TableNumber, &o.IsPaid, &o.IsSettled, &method, &cashierID, &cashierName,
		&o.RefundStatus, &o.CreatedAt, &completedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("unmarshal items: %w", err)
	}
	o.PaymentMethod = domain.PaymentMethod(method.String)
	o.CashierID = cashierID.Int64
	o.CashierName = cashierName.String
	if completedAt.Valid {
		t := completedAt.Time
		o.CompletedAt = &t
	}
	return &o, nil
}

func matched(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullIfZero(n int64) any {
	if n == 0 {
		return nil
	}
	return n
}
