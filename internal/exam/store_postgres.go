package exam

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// PostgresStore persists exams and sites in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const examColumns = `id, exam_name, exam_type, exam_date, exam_time,
	registration_start, registration_end, fee, description, notice,
	status, total_quota, current_count, create_by, created_at, updated_at`

func (p *PostgresStore) Create(ctx context.Context, e *Exam) (*Exam, error) {
	row := p.db.QueryRowContext(ctx, `
		INSERT INTO exams (exam_name, exam_type, exam_date, exam_time,
			registration_start, registration_end, fee, description, notice,
			status, total_quota, current_count, create_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now(), now())
		RETURNING `+examColumns,
		e.Name, e.Type, e.Date, e.TimeSlot,
		e.RegistrationStart, e.RegistrationEnd, e.Fee, e.Description, e.Notice,
		e.Status, e.TotalQuota, e.CurrentCount, e.CreateBy)
	return scanExam(row)
}

func (p *PostgresStore) FindByID(ctx context.Context, id int64) (*Exam, error) {
	return p.findOne(ctx, "id = $1", id)
}

func (p *PostgresStore) FindByName(ctx context.Context, name string) (*Exam, error) {
	return p.findOne(ctx, "exam_name = $1", name)
}

func (p *PostgresStore) findOne(ctx context.Context, where string, arg any) (*Exam, error) {
	row := p.db.QueryRowContext(ctx,
		"SELECT "+examColumns+" FROM exams WHERE "+where, arg)
	e, err := scanExam(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

func (p *PostgresStore) Update(ctx context.Context, e *Exam) (*Exam, error) {
	row := p.db.QueryRowContext(ctx, `
		UPDATE exams SET exam_name = $2, exam_type = $3, exam_date = $4,
			exam_time = $5, registration_start = $6, registration_end = $7,
			fee = $8, description = $9, notice = $10, status = $11,
			total_quota = $12, current_count = $13, updated_at = now()
		WHERE id = $1
		RETURNING `+examColumns,
		e.ID, e.Name, e.Type, e.Date, e.TimeSlot,
		e.RegistrationStart, e.RegistrationEnd, e.Fee, e.Description, e.Notice,
		e.Status, e.TotalQuota, e.CurrentCount)
	out, err := scanExam(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return out, err
}

func (p *PostgresStore) Delete(ctx context.Context, id int64) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM exam_sites WHERE exam_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete exam sites: %w", err)
	}
	_, err = p.db.ExecContext(ctx, `DELETE FROM exams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}
	return nil
}

func (p *PostgresStore) List(ctx context.Context, f Filter, current, size int) (*Page, error) {
	var (
		conds []string
		args  []any
	)
	if f.Name != "" {
		args = append(args, "%"+f.Name+"%")
		conds = append(conds, fmt.Sprintf("exam_name LIKE $%d", len(args)))
	}
	if f.Type != "" {
		args = append(args, f.Type)
		conds = append(conds, fmt.Sprintf("exam_type = $%d", len(args)))
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
		"SELECT count(*) FROM exams"+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count exams: %w", err)
	}

	args = append(args, size, (current-1)*size)
	rows, err := p.db.QueryContext(ctx,
		"SELECT "+examColumns+" FROM exams"+where+
			fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	defer rows.Close()

	var records []*Exam
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	return &Page{Records: records, Total: total, Current: current, Size: size}, nil
}

func (p *PostgresStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{}
	err := p.db.QueryRowContext(ctx, `
		SELECT count(*),
			count(*) FILTER (WHERE status = 1),
			count(*) FILTER (WHERE status = 2),
			count(*) FILTER (WHERE status = 3),
			count(*) FILTER (WHERE status = 4),
			count(*) FILTER (WHERE status = 5)
		FROM exams`).Scan(&st.TotalCount, &st.DraftCount, &st.PublishedCount,
		&st.OpenCount, &st.ClosedCount, &st.EndedCount)
	if err != nil {
		return nil, fmt.Errorf("exam stats: %w", err)
	}
	return st, nil
}

const siteColumns = `id, exam_id, site_name, province, city, address,
	contact_phone, capacity, current_count, status, created_at`

func (p *PostgresStore) CreateSite(ctx context.Context, s *Site) (*Site, error) {
	row := p.db.QueryRowContext(ctx, `
		INSERT INTO exam_sites (exam_id, site_name, province, city, address,
			contact_phone, capacity, current_count, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		RETURNING `+siteColumns,
		s.ExamID, s.Name, s.Province, s.City, s.Address,
		s.ContactPhone, s.Capacity, s.CurrentCount, s.Status)
	return scanSite(row)
}

func (p *PostgresStore) FindSite(ctx context.Context, id int64) (*Site, error) {
	row := p.db.QueryRowContext(ctx,
		"SELECT "+siteColumns+" FROM exam_sites WHERE id = $1", id)
	s, err := scanSite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

func (p *PostgresStore) SitesByExam(ctx context.Context, examID int64) ([]*Site, error) {
	rows, err := p.db.QueryContext(ctx,
		"SELECT "+siteColumns+" FROM exam_sites WHERE exam_id = $1 ORDER BY id", examID)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	defer rows.Close()

	var out []*Site
	for rows.Next() {
		s, err := scanSite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	return out, nil
}

func (p *PostgresStore) UpdateSite(ctx context.Context, s *Site) (*Site, error) {
	row := p.db.QueryRowContext(ctx, `
		UPDATE exam_sites SET site_name = $2, province = $3, city = $4,
			address = $5, contact_phone = $6, capacity = $7,
			current_count = $8, status = $9
		WHERE id = $1
		RETURNING `+siteColumns,
		s.ID, s.Name, s.Province, s.City, s.Address,
		s.ContactPhone, s.Capacity, s.CurrentCount, s.Status)
	out, err := scanSite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return out, err
}

func (p *PostgresStore) DeleteSite(ctx context.Context, id int64) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM exam_sites WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete site: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExam(row rowScanner) (*Exam, error) {
	var (
		e           Exam
		description sql.NullString
		notice      sql.NullString
		createBy    sql.NullInt64
	)
	err := row.Scan(&e.ID, &e.Name, &e.Type, &e.Date, &e.TimeSlot,
		&e.RegistrationStart, &e.RegistrationEnd, &e.Fee, &description, &notice,
		&e.Status, &e.TotalQuota, &e.CurrentCount, &createBy,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan exam: %w", err)
	}
	e.Description = description.String
	e.Notice = notice.String
	e.CreateBy = createBy.Int64
	return &e, nil
}

func scanSite(row rowScanner) (*Site, error) {
	var (
		s            Site
		province     sql.NullString
		city         sql.NullString
		contactPhone sql.NullString
	)
	err := row.Scan(&s.ID, &s.ExamID, &s.Name, &province, &city, &s.Address,
		&contactPhone, &s.Capacity, &s.CurrentCount, &s.Status, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan site: %w", err)
	}
	s.Province = province.String
	s.City = city.String
	s.ContactPhone = contactPhone.String
	return &s, nil
}
