//go:build integration

package registration

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"examreg/internal/platform/postgres"
)

// Run with: go test -tags=integration -timeout 300s ./internal/registration/...
type PostgresStoreSuite struct {
	suite.Suite

	ctx   context.Context
	db    *sql.DB
	store *PostgresStore

	userID int64
	examID int64
	siteID int64
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := tcpostgres.Run(s.ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("examreg_test"),
		tcpostgres.WithUsername("examreg"),
		tcpostgres.WithPassword("examreg"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	s.Require().NoError(err, "failed to start postgres container")
	s.T().Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.db, err = postgres.Open(dsn)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = s.db.Close() })

	schema, err := os.ReadFile("../../db/schema.sql")
	s.Require().NoError(err)
	_, err = s.db.ExecContext(s.ctx, string(schema))
	s.Require().NoError(err)

	s.store = NewPostgresStore(s.db)
}

func (s *PostgresStoreSuite) SetupTest() {
	for _, table := range []string{"payment_orders", "registrations", "exam_sites", "exams", "users"} {
		_, err := s.db.ExecContext(s.ctx, "DELETE FROM "+table)
		s.Require().NoError(err)
	}

	err := s.db.QueryRowContext(s.ctx, `
		INSERT INTO users (username, password) VALUES ('candidate', 'x')
		RETURNING id`).Scan(&s.userID)
	s.Require().NoError(err)

	err = s.db.QueryRowContext(s.ctx, `
		INSERT INTO exams (exam_name, exam_date, registration_start, registration_end, fee, status)
		VALUES ('Spring Certification', now() + interval '60 days',
			now() - interval '7 days', now() + interval '30 days', 150, 2)
		RETURNING id`).Scan(&s.examID)
	s.Require().NoError(err)

	err = s.db.QueryRowContext(s.ctx, `
		INSERT INTO exam_sites (exam_id, site_name, address, capacity)
		VALUES ($1, 'Downtown Center', '1 Main St', 30)
		RETURNING id`, s.examID).Scan(&s.siteID)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) create() *Registration {
	r, err := s.store.Create(s.ctx, &Registration{
		UserID:        s.userID,
		ExamID:        s.examID,
		SiteID:        s.siteID,
		IDCard:        "110101199001011234",
		Phone:         "13812345678",
		AuditStatus:   AuditPending,
		PaymentStatus: PaymentUnpaid,
	})
	s.Require().NoError(err)
	return r
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	created := s.create()
	s.NotZero(created.ID)
	s.False(created.CreatedAt.IsZero())
	s.Empty(created.AuditRemark, "null columns come back as zero values")
	s.Nil(created.AuditTime)

	found, err := s.store.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Require().NotNil(found)
	s.Equal(created.ID, found.ID)
	s.Equal(AuditPending, found.AuditStatus)
	s.Equal("110101199001011234", found.IDCard)
	s.Empty(found.Subject)

	byPair, err := s.store.FindByUserAndExam(s.ctx, s.userID, s.examID)
	s.Require().NoError(err)
	s.Require().NotNil(byPair)
	s.Equal(created.ID, byPair.ID)

	missing, err := s.store.FindByID(s.ctx, created.ID+1000)
	s.Require().NoError(err)
	s.Nil(missing)
}

func (s *PostgresStoreSuite) TestUpdateRoundTripsNullableColumns() {
	created := s.create()

	auditTime := time.Now().UTC().Truncate(time.Second)
	created.AuditStatus = AuditApproved
	created.AuditRemark = "documents verified"
	created.AuditBy = 999
	created.AuditTime = &auditTime

	updated, err := s.store.Update(s.ctx, created)
	s.Require().NoError(err)
	s.Require().NotNil(updated)
	s.Equal(AuditApproved, updated.AuditStatus)
	s.Equal("documents verified", updated.AuditRemark)
	s.Equal(int64(999), updated.AuditBy)
	s.Require().NotNil(updated.AuditTime)
	s.True(updated.AuditTime.Equal(auditTime))

	updated.PaymentStatus = PaymentPaid
	updated.AdmissionTicketNo = "00012026040100001"
	paid, err := s.store.Update(s.ctx, updated)
	s.Require().NoError(err)
	s.Equal("00012026040100001", paid.AdmissionTicketNo)

	ghost := *created
	ghost.ID = created.ID + 1000
	gone, err := s.store.Update(s.ctx, &ghost)
	s.Require().NoError(err)
	s.Nil(gone, "updating a missing row reports not found, not an error")
}

func (s *PostgresStoreSuite) TestDelete() {
	created := s.create()
	s.Require().NoError(s.store.Delete(s.ctx, created.ID))

	found, err := s.store.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Nil(found)

	s.Require().NoError(s.store.Delete(s.ctx, created.ID), "delete is idempotent")
}

func (s *PostgresStoreSuite) TestListAndStats() {
	created := s.create()

	rows, total, err := s.store.List(s.ctx, Filter{}, 1, 10)
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Require().Len(rows, 1)

	rows, total, err = s.store.List(s.ctx, Filter{AuditStatus: AuditApproved}, 1, 10)
	s.Require().NoError(err)
	s.Zero(total)
	s.Empty(rows)

	auditTime := time.Now()
	created.AuditStatus = AuditApproved
	created.AuditTime = &auditTime
	_, err = s.store.Update(s.ctx, created)
	s.Require().NoError(err)

	st, err := s.store.Stats(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), st.TotalCount)
	s.Equal(int64(1), st.ApprovedCount)
	s.Zero(st.PendingCount)
	s.Equal(int64(1), st.UnpaidCount)
}

func (s *PostgresStoreSuite) TestTrend() {
	s.create()

	from := time.Now().UTC().AddDate(0, 0, -6).Truncate(24 * time.Hour)
	points, err := s.store.Trend(s.ctx, from, 7)
	s.Require().NoError(err)
	s.Require().Len(points, 7)

	var total int64
	for _, p := range points {
		total += p.Count
	}
	s.Equal(int64(1), total)
}
