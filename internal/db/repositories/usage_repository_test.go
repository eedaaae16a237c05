package repositories

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/service-marketplace/service-marketplace/internal/db/models"
	"github.com/service-marketplace/service-marketplace/internal/store"
)

var usageCols = []string{
	"id", "consumer_id", "api_key_id", "service_id", "ts", "status_code", "response_time_ms",
}

func newUsageRepo(t *testing.T) (*UsageRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewUsageRepository(sqlx.NewDb(db, "postgres")), mock
}

// ---------------------------------------------------------------------------
// AppendUsage
// ---------------------------------------------------------------------------

func TestAppendUsage_Success(t *testing.T) {
	repo, mock := newUsageRepo(t)
	mock.ExpectExec("INSERT INTO usage_records").
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec := &models.UsageRecord{
		ID:             "usage-1",
		ConsumerID:     "consumer-1",
		APIKeyID:       "key-1",
		ServiceID:      "svc-1",
		Timestamp:      time.Now(),
		StatusCode:     200,
		ResponseTimeMs: 120,
	}
	if err := repo.AppendUsage(context.Background(), rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAppendUsage_DBError(t *testing.T) {
	repo, mock := newUsageRepo(t)
	mock.ExpectExec("INSERT INTO usage_records").
		WillReturnError(errDB)

	if err := repo.AppendUsage(context.Background(), &models.UsageRecord{ID: "usage-1"}); err == nil {
		t.Error("expected error, got nil")
	}
}

// ---------------------------------------------------------------------------
// ListUsage
// ---------------------------------------------------------------------------

func TestListUsage_ByConsumer(t *testing.T) {
	repo, mock := newUsageRepo(t)
	rows := sqlmock.NewRows(usageCols).
		AddRow("usage-1", "consumer-1", "key-1", "svc-1", time.Now(), 200, 95)
	mock.ExpectQuery("SELECT.*FROM usage_records.*consumer_id").
		WithArgs("consumer-1").
		WillReturnRows(rows)

	consumerID := "consumer-1"
	recs, err := repo.ListUsage(context.Background(), store.UsageFilter{ConsumerID: &consumerID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("len(recs) = %d, want 1", len(recs))
	}
	if recs[0].ResponseTimeMs != 95 {
		t.Errorf("ResponseTimeMs = %d, want 95", recs[0].ResponseTimeMs)
	}
}

func TestListUsage_NoFilters(t *testing.T) {
	repo, mock := newUsageRepo(t)
	mock.ExpectQuery("SELECT.*FROM usage_records").
		WillReturnRows(sqlmock.NewRows(usageCols))

	recs, err := repo.ListUsage(context.Background(), store.UsageFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("len(recs) = %d, want 0", len(recs))
	}
}

// ---------------------------------------------------------------------------
// CountUsageSince
// ---------------------------------------------------------------------------

func TestCountUsageSince(t *testing.T) {
	repo, mock := newUsageRepo(t)
	since := time.Now().Add(-time.Minute)
	mock.ExpectQuery("SELECT COUNT.*FROM usage_records").
		WithArgs("key-1", "svc-1", since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	count, err := repo.CountUsageSince(context.Background(), "key-1", "svc-1", since)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 42 {
		t.Errorf("count = %d, want 42", count)
	}
}

func TestCountUsageSince_DBError(t *testing.T) {
	repo, mock := newUsageRepo(t)
	mock.ExpectQuery("SELECT COUNT.*FROM usage_records").
		WillReturnError(errDB)

	if _, err := repo.CountUsageSince(context.Background(), "key-1", "svc-1", time.Now()); err == nil {
		t.Error("expected error, got nil")
	}
}
