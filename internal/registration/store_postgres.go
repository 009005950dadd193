package registration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// PostgresStore persists registrations in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const registrationColumns = `id, user_id, exam_id, site_id, id_card, phone,
	subject, materials, audit_status, audit_remark, audit_by, audit_time,
	payment_status, admission_ticket_no, created_at, updated_at`

func (p *PostgresStore) Create(ctx context.Context, r *Registration) (*Registration, error) {
	row := p.db.QueryRowContext(ctx, `
		INSERT INTO registrations (user_id, exam_id, site_id, id_card, phone,
			subject, materials, audit_status, audit_remark, audit_by,
			audit_time, payment_status, admission_ticket_no, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now(), now())
		RETURNING `+registrationColumns,
		r.UserID, r.ExamID, r.SiteID, r.IDCard, r.Phone,
		nullString(r.Subject), nullString(r.Materials), r.AuditStatus,
		nullString(r.AuditRemark), nullInt(r.AuditBy), r.AuditTime,
		r.PaymentStatus, nullString(r.AdmissionTicketNo))
	return scanRegistration(row)
}

func (p *PostgresStore) FindByID(ctx context.Context, id int64) (*Registration, error) {
	row := p.db.QueryRowContext(ctx,
		"SELECT "+registrationColumns+" FROM registrations WHERE id = $1", id)
	r, err := scanRegistration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

func (p *PostgresStore) FindByUserAndExam(ctx context.Context, userID, examID int64) (*Registration, error) {
	row := p.db.QueryRowContext(ctx,
		"SELECT "+registrationColumns+" FROM registrations WHERE user_id = $1 AND exam_id = $2",
		userID, examID)
	r, err := scanRegistration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

func (p *PostgresStore) Update(ctx context.Context, r *Registration) (*Registration, error) {
	row := p.db.QueryRowContext(ctx, `
		UPDATE registrations SET audit_status = $2, audit_remark = $3,
			audit_by = $4, audit_time = $5, payment_status = $6,
			admission_ticket_no = $7, updated_at = now()
		WHERE id = $1
		RETURNING `+registrationColumns,
		r.ID, r.AuditStatus, nullString(r.AuditRemark), nullInt(r.AuditBy),
		r.AuditTime, r.PaymentStatus, nullString(r.AdmissionTicketNo))
	out, err := scanRegistration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return out, err
}

func (p *PostgresStore) Delete(ctx context.Context, id int64) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM registrations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	return nil
}

func (p *PostgresStore) List(ctx context.Context, f Filter, current, size int) ([]*Registration, int64, error) {
	var (
		conds []string
		args  []any
	)
	if f.UserID != 0 {
		args = append(args, f.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if f.ExamID != 0 {
		args = append(args, f.ExamID)
		conds = append(conds, fmt.Sprintf("exam_id = $%d", len(args)))
	}
	if f.AuditStatus != 0 {
		args = append(args, f.AuditStatus)
		conds = append(conds, fmt.Sprintf("audit_status = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := p.db.QueryRowContext(ctx,
		"SELECT count(*) FROM registrations"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count registrations: %w", err)
	}

	args = append(args, size, (current-1)*size)
	rows, err := p.db.QueryContext(ctx,
		"SELECT "+registrationColumns+" FROM registrations"+where+
			fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var out []*Registration
	for rows.Next() {
		r, err := scanRegistration(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list registrations: %w", err)
	}
	return out, total, nil
}

func (p *PostgresStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{}
	err := p.db.QueryRowContext(ctx, `
		SELECT count(*),
			count(*) FILTER (WHERE audit_status = 1),
			count(*) FILTER (WHERE audit_status = 2),
			count(*) FILTER (WHERE audit_status = 3),
			count(*) FILTER (WHERE payment_status = 2),
			count(*) FILTER (WHERE payment_status = 1)
		FROM registrations`).Scan(&st.TotalCount, &st.PendingCount,
		&st.ApprovedCount, &st.RejectedCount, &st.PaidCount, &st.UnpaidCount)
	if err != nil {
		return nil, fmt.Errorf("registration stats: %w", err)
	}
	return st, nil
}

func (p *PostgresStore) Trend(ctx context.Context, from time.Time, days int) ([]*TrendPoint, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT to_char(created_at, 'YYYY-MM-DD') AS day, count(*)
		FROM registrations
		WHERE created_at >= $1
		GROUP BY day`, from)
	if err != nil {
		return nil, fmt.Errorf("registration trend: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var (
			day string
			n   int64
		)
		if err := rows.Scan(&day, &n); err != nil {
			return nil, fmt.Errorf("scan trend row: %w", err)
		}
		counts[day] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("registration trend: %w", err)
	}

	points := make([]*TrendPoint, 0, days)
	for i := range days {
		day := from.AddDate(0, 0, i).Format("2006-01-02")
		points = append(points, &TrendPoint{Date: day, Count: counts[day]})
	}
	return points, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(n int64) sql.NullInt64 {
	return sql.NullInt64{Int64: n, Valid: n != 0}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegistration(row rowScanner) (*Registration, error) {
	var (
		r         Registration
		subject   sql.NullString
		materials sql.NullString
		remark    sql.NullString
		auditBy   sql.NullInt64
		auditAt   sql.NullTime
		ticketNo  sql.NullString
	)
	err := row.Scan(&r.ID, &r.UserID, &r.ExamID, &r.SiteID, &r.IDCard, &r.Phone,
		&subject, &materials, &r.AuditStatus, &remark, &auditBy, &auditAt,
		&r.PaymentStatus, &ticketNo, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan registration: %w", err)
	}
	r.Subject = subject.String
	r.Materials = materials.String
	r.AuditRemark = remark.String
	r.AuditBy = auditBy.Int64
	if auditAt.Valid {
		r.AuditTime = &auditAt.Time
	}
	r.AdmissionTicketNo = ticketNo.String
	return &r, nil
}
