package notice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// PostgresStore persists notices in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const noticeColumns = `id, title, content, type, status, is_top, view_count,
	publish_by, publish_time, created_at, updated_at`

func (p *PostgresStore) Create(ctx context.Context, n *Notice) (*Notice, error) {
	row := p.db.QueryRowContext(ctx, `
		INSERT INTO notices (title, content, type, status, is_top, view_count,
			publish_by, publish_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING `+noticeColumns,
		n.Title, n.Content, n.Type, n.Status, n.Top, n.ViewCount,
		nullInt(n.PublishBy), n.PublishTime)
	return scanNotice(row)
}

func (p *PostgresStore) FindByID(ctx context.Context, id int64) (*Notice, error) {
	row := p.db.QueryRowContext(ctx,
		"SELECT "+noticeColumns+" FROM notices WHERE id = $1", id)
	n, err := scanNotice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return n, err
}

func (p *PostgresStore) Update(ctx context.Context, n *Notice) (*Notice, error) {
	row := p.db.QueryRowContext(ctx, `
		UPDATE notices SET title = $2, content = $3, type = $4, status = $5,
			is_top = $6, publish_by = $7, publish_time = $8, updated_at = now()
		WHERE id = $1
		RETURNING `+noticeColumns,
		n.ID, n.Title, n.Content, n.Type, n.Status, n.Top,
		nullInt(n.PublishBy), n.PublishTime)
	out, err := scanNotice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return out, err
}

func (p *PostgresStore) Delete(ctx context.Context, id int64) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM notices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete notice: %w", err)
	}
	return nil
}

func (p *PostgresStore) List(ctx context.Context, f Filter, current, size int) (*Page, error) {
	var (
		conds []string
		args  []any
	)
	if f.Title != "" {
		args = append(args, "%"+f.Title+"%")
		conds = append(conds, fmt.Sprintf("title LIKE $%d", len(args)))
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
		"SELECT count(*) FROM notices"+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count notices: %w", err)
	}

	args = append(args, size, (current-1)*size)
	rows, err := p.db.QueryContext(ctx,
		"SELECT "+noticeColumns+" FROM notices"+where+
			fmt.Sprintf(" ORDER BY is_top DESC, id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, fmt.Errorf("list notices: %w", err)
	}
	defer rows.Close()

	var records []*Notice
	for rows.Next() {
		n, err := scanNotice(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notices: %w", err)
	}
	return &Page{Records: records, Total: total, Current: current, Size: size}, nil
}

func (p *PostgresStore) IncrementViews(ctx context.Context, id int64) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE notices SET view_count = view_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment notice views: %w", err)
	}
	return nil
}

func nullInt(n int64) sql.NullInt64 {
	return sql.NullInt64{Int64: n, Valid: n != 0}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotice(row rowScanner) (*Notice, error) {
	var (
		n         Notice
		typ       sql.NullString
		publishBy sql.NullInt64
		publishAt sql.NullTime
	)
	err := row.Scan(&n.ID, &n.Title, &n.Content, &typ, &n.Status, &n.Top,
		&n.ViewCount, &publishBy, &publishAt, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan notice: %w", err)
	}
	n.Type = typ.String
	n.PublishBy = publishBy.Int64
	if publishAt.Valid {
		n.PublishTime = &publishAt.Time
	}
	return &n, nil
}
