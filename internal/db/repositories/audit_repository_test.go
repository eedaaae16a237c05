package repositories

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/service-marketplace/service-marketplace/internal/db/models"
	"github.com/service-marketplace/service-marketplace/internal/store"
)

var auditCols = []string{
	"id", "action", "actor_id", "actor_name", "actor_role",
	"target_id", "target_type", "description", "ts",
}

func sampleAuditRow() *sqlmock.Rows {
	return sqlmock.NewRows(auditCols).
		AddRow("log-1", "merchant.suspended", "admin-1", "Platform Admin", "admin",
			"user-2", "user", "Suspended merchant Acme Corp", time.Now())
}

func newAuditRepo(t *testing.T) (*AuditRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewAuditRepository(db), mock
}

// ---------------------------------------------------------------------------
// AppendAuditLog
// ---------------------------------------------------------------------------

func TestAppendAuditLog_Success(t *testing.T) {
	repo, mock := newAuditRepo(t)
	mock.ExpectExec("INSERT INTO audit_logs").
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.AuditLog{
		ID:         "log-new",
		Action:     models.ActionMerchantSuspended,
		ActorID:    "admin-1",
		ActorName:  "Platform Admin",
		ActorRole:  models.RoleAdmin,
		TargetID:   "user-2",
		TargetType: models.TargetUser,
		Timestamp:  time.Now(),
	}
	if err := repo.AppendAuditLog(context.Background(), entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAppendAuditLog_DBError(t *testing.T) {
	repo, mock := newAuditRepo(t)
	mock.ExpectExec("INSERT INTO audit_logs").
		WillReturnError(errDB)

	if err := repo.AppendAuditLog(context.Background(), &models.AuditLog{ID: "log-new"}); err == nil {
		t.Error("expected error, got nil")
	}
}

// ---------------------------------------------------------------------------
// ListAuditLogs
// ---------------------------------------------------------------------------

func TestListAuditLogs_NoFilters(t *testing.T) {
	repo, mock := newAuditRepo(t)
	mock.ExpectQuery("SELECT COUNT.*FROM audit_logs").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT.*FROM audit_logs.*ORDER BY ts DESC").
		WithArgs(50, 0).
		WillReturnRows(sampleAuditRow())

	entries, total, err := repo.ListAuditLogs(context.Background(), store.AuditFilter{}, 50, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 {
		t.Errorf("total = %d, want 1", total)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if entries[0].Action != models.ActionMerchantSuspended {
		t.Errorf("Action = %s, want merchant.suspended", entries[0].Action)
	}
}

func TestListAuditLogs_WithFilters(t *testing.T) {
	repo, mock := newAuditRepo(t)
	actorID := "admin-1"
	action := models.ActionMerchantSuspended

	mock.ExpectQuery("SELECT COUNT.*FROM audit_logs.*actor_id.*action").
		WithArgs(actorID, string(action)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT.*FROM audit_logs.*actor_id.*action.*ORDER BY ts DESC").
		WithArgs(actorID, string(action), 10, 0).
		WillReturnRows(sampleAuditRow())

	f := store.AuditFilter{ActorID: &actorID, Action: &action}
	entries, total, err := repo.ListAuditLogs(context.Background(), f, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(entries) != 1 {
		t.Errorf("total = %d, len = %d, want 1, 1", total, len(entries))
	}
}

func TestListAuditLogs_CountError(t *testing.T) {
	repo, mock := newAuditRepo(t)
	mock.ExpectQuery("SELECT COUNT.*FROM audit_logs").
		WillReturnError(errDB)

	if _, _, err := repo.ListAuditLogs(context.Background(), store.AuditFilter{}, 50, 0); err == nil {
		t.Error("expected error, got nil")
	}
}

func TestListAuditLogs_UncappedLimit(t *testing.T) {
	repo, mock := newAuditRepo(t)
	mock.ExpectQuery("SELECT COUNT.*FROM audit_logs").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	// limit <= 0 omits the LIMIT clause entirely.
	mock.ExpectQuery("SELECT.*FROM audit_logs.*ORDER BY ts DESC OFFSET").
		WithArgs(0).
		WillReturnRows(sampleAuditRow())

	entries, _, err := repo.ListAuditLogs(context.Background(), store.AuditFilter{}, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("len(entries) = %d, want 1", len(entries))
	}
}
