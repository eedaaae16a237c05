package repositories

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/service-marketplace/service-marketplace/internal/db/models"
)

var serviceCols = []string{
	"id", "merchant_id", "name", "description", "category", "status", "visibility",
	"pricing", "rate_limit_per_minute", "endpoint", "tags", "created_at", "updated_at",
}

var samplePricing = []byte(`{"model":"per_request","price_per_call":0.002}`)
var sampleEndpoint = []byte(`{"base_url":"https://geo.acme.example/v1"}`)

func sampleServiceRow() *sqlmock.Rows {
	return sqlmock.NewRows(serviceCols).
		AddRow("svc-1", "merchant-1", "Geocoding API", "Forward geocoding.", "location",
			"active", "public", samplePricing, 60, sampleEndpoint, "{geo,maps}",
			time.Now(), time.Now())
}

func newServiceRepo(t *testing.T) (*ServiceRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewServiceRepository(db), mock
}

func TestGetService_Found(t *testing.T) {
	repo, mock := newServiceRepo(t)
	mock.ExpectQuery("SELECT.*FROM services.*WHERE id").
		WithArgs("svc-1").
		WillReturnRows(sampleServiceRow())

	svc, err := repo.GetService(context.Background(), "svc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc == nil {
		t.Fatal("expected service, got nil")
	}
	if svc.Pricing.Model != models.PricingPerRequest {
		t.Errorf("Pricing.Model = %s, want per_request", svc.Pricing.Model)
	}
	if svc.Endpoint == nil || svc.Endpoint.BaseURL != "https://geo.acme.example/v1" {
		t.Errorf("Endpoint = %+v, want base_url set", svc.Endpoint)
	}
	if len(svc.Tags) != 2 {
		t.Errorf("len(Tags) = %d, want 2", len(svc.Tags))
	}
}

func TestGetService_NotFound(t *testing.T) {
	repo, mock := newServiceRepo(t)
	mock.ExpectQuery("SELECT.*FROM services.*WHERE id").
		WillReturnRows(sqlmock.NewRows(serviceCols))

	svc, err := repo.GetService(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc != nil {
		t.Error("expected nil, got non-nil")
	}
}

func TestGetService_NullEndpoint(t *testing.T) {
	repo, mock := newServiceRepo(t)
	rows := sqlmock.NewRows(serviceCols).
		AddRow("svc-2", "merchant-1", "Weather API", "", "weather",
			"active", "public", samplePricing, 0, nil, "{}",
			time.Now(), time.Now())
	mock.ExpectQuery("SELECT.*FROM services.*WHERE id").
		WillReturnRows(rows)

	svc, err := repo.GetService(context.Background(), "svc-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.Endpoint != nil {
		t.Errorf("Endpoint = %+v, want nil", svc.Endpoint)
	}
}

func TestPutService_Success(t *testing.T) {
	repo, mock := newServiceRepo(t)
	mock.ExpectExec("INSERT INTO services").
		WillReturnResult(sqlmock.NewResult(1, 1))

	svc := &models.Service{
		ID:         "svc-new",
		MerchantID: "merchant-1",
		Name:       "New API",
		Status:     models.ServicePendingApproval,
		Visibility: models.VisibilityPublic,
		Pricing:    models.Pricing{Model: models.PricingFree},
	}
	if err := repo.PutService(context.Background(), svc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestListServicesByMerchant(t *testing.T) {
	repo, mock := newServiceRepo(t)
	mock.ExpectQuery("SELECT.*FROM services.*WHERE merchant_id").
		WithArgs("merchant-1").
		WillReturnRows(sampleServiceRow())

	services, err := repo.ListServicesByMerchant(context.Background(), "merchant-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(services) != 1 {
		t.Fatalf("len(services) = %d, want 1", len(services))
	}
}

func TestListServices_DBError(t *testing.T) {
	repo, mock := newServiceRepo(t)
	mock.ExpectQuery("SELECT.*FROM services").
		WillReturnError(errDB)

	if _, err := repo.ListServices(context.Background()); err == nil {
		t.Error("expected error, got nil")
	}
}
