package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// PostgresStore persists payment orders in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const orderColumns = `id, order_no, registration_id, user_id, amount, status,
	payment_method, transaction_id, expire_time, pay_time, refund_time,
	created_at, updated_at`

func (p *PostgresStore) Create(ctx context.Context, o *Order) (*Order, error) {
	row := p.db.QueryRowContext(ctx, `
		INSERT INTO payment_orders (order_no, registration_id, user_id, amount,
			status, payment_method, transaction_id, expire_time, pay_time,
			refund_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
		RETURNING `+orderColumns,
		o.OrderNo, o.RegistrationID, o.UserID, o.Amount, o.Status,
		nullString(o.PaymentMethod), nullString(o.TransactionID),
		o.ExpireTime, o.PayTime, o.RefundTime)
	return scanOrder(row)
}

func (p *PostgresStore) FindByOrderNo(ctx context.Context, orderNo string) (*Order, error) {
	return p.findOne(ctx, "order_no = $1", orderNo)
}

// FindByRegistration returns the most recent order for the
// registration. Earlier closed orders stay behind as history.
func (p *PostgresStore) FindByRegistration(ctx context.Context, registrationID int64) (*Order, error) {
	return p.findOne(ctx, "registration_id = $1 ORDER BY id DESC LIMIT 1", registrationID)
}

func (p *PostgresStore) findOne(ctx context.Context, where string, arg any) (*Order, error) {
	row := p.db.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM payment_orders WHERE "+where, arg)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return o, err
}

func (p *PostgresStore) Update(ctx context.Context, o *Order) (*Order, error) {
	row := p.db.QueryRowContext(ctx, `
		UPDATE payment_orders SET status = $2, payment_method = $3,
			transaction_id = $4, pay_time = $5, refund_time = $6,
			updated_at = now()
		WHERE id = $1
		RETURNING `+orderColumns,
		o.ID, o.Status, nullString(o.PaymentMethod),
		nullString(o.TransactionID), o.PayTime, o.RefundTime)
	out, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return out, err
}

func (p *PostgresStore) List(ctx context.Context, f Filter, current, size int) ([]*Order, int64, error) {
	var (
		conds []string
		args  []any
	)
	if f.UserID != 0 {
		args = append(args, f.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if f.Status != 0 {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := p.db.QueryRowContext(ctx,
		"SELECT count(*) FROM payment_orders"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	args = append(args, size, (current-1)*size)
	rows, err := p.db.QueryContext(ctx,
		"SELECT "+orderColumns+" FROM payment_orders"+where+
			fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return out, total, nil
}

func (p *PostgresStore) ListExpired(ctx context.Context, now time.Time) ([]*Order, error) {
	rows, err := p.db.QueryContext(ctx,
		"SELECT "+orderColumns+" FROM payment_orders WHERE status = $1 AND expire_time <= $2 ORDER BY id",
		OrderPending, now)
	if err != nil {
		return nil, fmt.Errorf("list expired orders: %w", err)
	}
	defer rows.Close()

	var out []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list expired orders: %w", err)
	}
	return out, nil
}

func (p *PostgresStore) PaidTrend(ctx context.Context, from time.Time, days int) ([]*TrendPoint, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT to_char(pay_time, 'YYYY-MM-DD') AS day, count(*), coalesce(sum(amount), 0)
		FROM payment_orders
		WHERE status = $1 AND pay_time >= $2
		GROUP BY day`, OrderPaid, from)
	if err != nil {
		return nil, fmt.Errorf("payment trend: %w", err)
	}
	defer rows.Close()

	byDay := make(map[string]*TrendPoint)
	for rows.Next() {
		p := &TrendPoint{}
		if err := rows.Scan(&p.Date, &p.Count, &p.Amount); err != nil {
			return nil, fmt.Errorf("scan trend row: %w", err)
		}
		byDay[p.Date] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("payment trend: %w", err)
	}

	points := make([]*TrendPoint, 0, days)
	for i := range days {
		day := from.AddDate(0, 0, i).Format("2006-01-02")
		if p, ok := byDay[day]; ok {
			points = append(points, p)
		} else {
			points = append(points, &TrendPoint{Date: day})
		}
	}
	return points, nil
}

func (p *PostgresStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{}
	err := p.db.QueryRowContext(ctx, `
		SELECT count(*),
			count(*) FILTER (WHERE status = 1),
			count(*) FILTER (WHERE status = 2),
			count(*) FILTER (WHERE status = 3),
			count(*) FILTER (WHERE status = 4),
			coalesce(sum(amount) FILTER (WHERE status = 2), 0)
		FROM payment_orders`).Scan(&st.TotalCount, &st.PendingCount,
		&st.PaidCount, &st.ClosedCount, &st.RefundedCount, &st.TotalAmount)
	if err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}
	return st, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var (
		o        Order
		method   sql.NullString
		txID     sql.NullString
		payAt    sql.NullTime
		refundAt sql.NullTime
	)
	err := row.Scan(&o.ID, &o.OrderNo, &o.RegistrationID, &o.UserID,
		&o.Amount, &o.Status, &method, &txID, &o.ExpireTime,
		&payAt, &refundAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	o.PaymentMethod = method.String
	o.TransactionID = txID.String
	if payAt.Valid {
		o.PayTime = &payAt.Time
	}
	if refundAt.Valid {
		o.RefundTime = &refundAt.Time
	}
	return &o, nil
}
