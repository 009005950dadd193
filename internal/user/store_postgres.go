package user

import (
	"context"
	"database/sql"
	"fmt"

	"examreg/internal/guard"
)

// PostgresStore persists accounts in PostgreSQL. Pure I/O; business rules
// live in the service.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const userColumns = `id, username, password, real_name, id_card, phone, email, gender,
	education, address, role, status, login_failures, lock_until,
	last_login_at, last_login_ip, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (username, password, real_name, id_card, phone, email, gender,
			education, address, role, status, login_failures, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err := s.db.QueryRowContext(ctx, query,
		u.Username, u.Password, u.RealName, u.IDCard, u.Phone, u.Email, u.Gender,
		u.Education, u.Address, string(u.Role), int(u.Status), u.LoginFailures,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*User, error) {
	return s.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	return s.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (s *PostgresStore) FindByPhone(ctx context.Context, phone string) (*User, error) {
	return s.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1 AND phone <> ''`, phone)
}

func (s *PostgresStore) FindByIDCard(ctx context.Context, idCard string) (*User, error) {
	return s.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id_card = $1 AND id_card <> ''`, idCard)
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (*User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) Update(ctx context.Context, u *User) error {
	query := `
		UPDATE users SET
			password = $2, real_name = $3, id_card = $4, phone = $5, email = $6,
			gender = $7, education = $8, address = $9, role = $10, status = $11,
			login_failures = $12, lock_until = $13, last_login_at = $14,
			last_login_ip = $15, updated_at = NOW()
		WHERE id = $1
	`
	_, err := s.db.ExecContext(ctx, query,
		u.ID, u.Password, u.RealName, u.IDCard, u.Phone, u.Email,
		u.Gender, u.Education, u.Address, string(u.Role), int(u.Status),
		u.LoginFailures, u.LockUntil, u.LastLoginAt, u.LastLoginIP,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (s *PostgresStore) Stats(ctx context.Context) (Stats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE role = 'user'),
			COUNT(*) FILTER (WHERE role = 'admin'),
			COUNT(*) FILTER (WHERE status = 1),
			COUNT(*) FILTER (WHERE status = 2)
		FROM users
	`
	var stats Stats
	err := s.db.QueryRowContext(ctx, query).Scan(
		&stats.TotalCount, &stats.UserCount, &stats.AdminCount,
		&stats.ActiveCount, &stats.DisabledCount,
	)
	if err != nil {
		return Stats{}, fmt.Errorf("user stats: %w", err)
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var u User
	var role string
	var status int
	var idCard, phone, email, education, address, lastLoginIP sql.NullString
	var lockUntil, lastLoginAt sql.NullTime
	var gender sql.NullInt64

	err := row.Scan(
		&u.ID, &u.Username, &u.Password, &u.RealName, &idCard, &phone, &email, &gender,
		&education, &address, &role, &status, &u.LoginFailures, &lockUntil,
		&lastLoginAt, &lastLoginIP, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	u.Role = guard.Role(role)
	u.Status = Status(status)
	u.IDCard = idCard.String
	u.Phone = phone.String
	u.Email = email.String
	u.Education = education.String
	u.Address = address.String
	u.LastLoginIP = lastLoginIP.String
	u.Gender = int(gender.Int64)
	if lockUntil.Valid {
		t := lockUntil.Time
		u.LockUntil = &t
	}
	if lastLoginAt.Valid {
		t := lastLoginAt.Time
		u.LastLoginAt = &t
	}
	return &u, nil
}
