package store

import (
	"context"
	"fmt"
	"time"

	"github.com/service-marketplace/service-marketplace/internal/auth"
	"github.com/service-marketplace/service-marketplace/internal/db/models"
)

// Well-known fixture secrets for the mocked-backend deployment mode. These are
// demo credentials only; real secrets are generated randomly and never stored.
const (
	SeedActiveKeySecret  = "smk_demo_active_key_secret_0001"
	SeedExpiredKeySecret = "smk_demo_expired_key_secret_0002"
)

// Seed loads the demo dataset: an admin, two merchants, two consumers, three
// services in different lifecycle states, API keys with well-known secrets,
// one per-service block, and a trickle of usage history. Idempotent in effect
// for keyed entities (repeat runs overwrite), additive for usage rows.
func Seed(ctx context.Context, st Store, now time.Time) error {
	users := []*models.User{
		{ID: "user-admin", Email: "admin@marketplace.local", Name: "Platform Admin",
			Roles: []models.Role{models.RoleAdmin}, ActiveRole: models.RoleAdmin, CreatedAt: now.AddDate(0, -6, 0)},
		{ID: "user-acme", Email: "ops@acme.example", Name: "Acme Ops",
			Roles: []models.Role{models.RoleMerchant}, ActiveRole: models.RoleMerchant, CreatedAt: now.AddDate(0, -4, 0)},
		{ID: "user-globex", Email: "api@globex.example", Name: "Globex API Team",
			Roles: []models.Role{models.RoleMerchant}, ActiveRole: models.RoleMerchant, CreatedAt: now.AddDate(0, -1, 0)},
		{ID: "user-initech", Email: "dev@initech.example", Name: "Initech Dev",
			Roles: []models.Role{models.RoleConsumer}, ActiveRole: models.RoleConsumer, CreatedAt: now.AddDate(0, -3, 0)},
		{ID: "user-hooli", Email: "platform@hooli.example", Name: "Hooli Platform",
			Roles: []models.Role{models.RoleConsumer, models.RoleMerchant}, ActiveRole: models.RoleConsumer, CreatedAt: now.AddDate(0, -2, 0)},
	}
	for _, u := range users {
		if err := st.PutUser(ctx, u); err != nil {
			return fmt.Errorf("seed user %s: %w", u.ID, err)
		}
	}

	merchants := []*models.MerchantProfile{
		{UserID: "user-acme", CompanyName: "Acme Corp", Status: models.MerchantActive, InvitedAt: now.AddDate(0, -4, 0)},
		{UserID: "user-globex", CompanyName: "Globex", Status: models.MerchantPending, InvitedAt: now.AddDate(0, -1, 0)},
		{UserID: "user-hooli", CompanyName: "Hooli", Status: models.MerchantActive, InvitedAt: now.AddDate(0, -2, 0)},
	}
	for _, p := range merchants {
		if err := st.PutMerchantProfile(ctx, p); err != nil {
			return fmt.Errorf("seed merchant %s: %w", p.UserID, err)
		}
	}

	consumers := []*models.ConsumerProfile{
		{UserID: "user-initech", Organization: "Initech", Status: models.ConsumerActive},
		{UserID: "user-hooli", Organization: "Hooli", Status: models.ConsumerActive},
	}
	for _, p := range consumers {
		if err := st.PutConsumerProfile(ctx, p); err != nil {
			return fmt.Errorf("seed consumer %s: %w", p.UserID, err)
		}
	}

	services := []*models.Service{
		{
			ID: "svc-geocode", MerchantID: "user-acme", Name: "Geocoding API",
			Description: "Forward and reverse geocoding.", Category: "location",
			Status: models.ServiceActive, Visibility: models.VisibilityPublic,
			Pricing:            models.Pricing{Model: models.PricingPerRequest, PricePerCall: 0.002},
			RateLimitPerMinute: 60,
			Endpoint:           &models.Endpoint{BaseURL: "https://geo.acme.example/v1", HealthPath: "/healthz"},
			Tags:               []string{"geo", "maps"},
			CreatedAt:          now.AddDate(0, -3, 0), UpdatedAt: now.AddDate(0, 0, -7),
		},
		{
			ID: "svc-weather", MerchantID: "user-acme", Name: "Weather API",
			Description: "Current conditions and forecasts.", Category: "weather",
			Status: models.ServiceActive, Visibility: models.VisibilityPublic,
			Pricing: models.Pricing{Model: models.PricingTiered, Tiers: []models.PricingTier{
				{UpToRequests: 10000, PricePerCall: 0.001},
				{UpToRequests: 100000, PricePerCall: 0.0005},
			}},
			RateLimitPerMinute: 120,
			// No endpoint yet: consumption against this service reports 502.
			CreatedAt: now.AddDate(0, -2, 0), UpdatedAt: now.AddDate(0, -2, 0),
		},
		{
			ID: "svc-ocr", MerchantID: "user-globex", Name: "OCR API",
			Description: "Document text extraction.", Category: "vision",
			Status: models.ServicePendingApproval, Visibility: models.VisibilityPrivate,
			Pricing:   models.Pricing{Model: models.PricingFlat, MonthlyFee: 99},
			Endpoint:  &models.Endpoint{BaseURL: "https://ocr.globex.example"},
			CreatedAt: now.AddDate(0, 0, -10), UpdatedAt: now.AddDate(0, 0, -10),
		},
	}
	for _, s := range services {
		if err := st.PutService(ctx, s); err != nil {
			return fmt.Errorf("seed service %s: %w", s.ID, err)
		}
	}

	activeHash, err := auth.HashAPIKey(SeedActiveKeySecret)
	if err != nil {
		return err
	}
	expiredHash, err := auth.HashAPIKey(SeedExpiredKeySecret)
	if err != nil {
		return err
	}
	keys := []*models.APIKey{
		{
			ID: "key-initech-prod", ConsumerID: "user-initech", Name: "prod",
			KeyHash: activeHash, KeyPrefix: auth.DisplayPrefix(SeedActiveKeySecret),
			ServiceIDs: []string{"svc-geocode", "svc-weather"},
			Status:     models.APIKeyActive, TTLDays: 90,
			ExpiresAt: now.AddDate(0, 0, 60), CreatedAt: now.AddDate(0, 0, -30),
		},
		{
			// Stored as active but past its expiry. The effective status is
			// expired; the sweeper converges the stored field.
			ID: "key-initech-legacy", ConsumerID: "user-initech", Name: "legacy",
			KeyHash: expiredHash, KeyPrefix: auth.DisplayPrefix(SeedExpiredKeySecret),
			ServiceIDs: []string{"svc-geocode"},
			Status:     models.APIKeyActive, TTLDays: 30,
			ExpiresAt: now.AddDate(0, 0, -5), CreatedAt: now.AddDate(0, 0, -35),
		},
	}
	for _, k := range keys {
		if err := st.PutAPIKey(ctx, k); err != nil {
			return fmt.Errorf("seed key %s: %w", k.ID, err)
		}
	}

	block := &models.ServiceBlock{
		ID: "block-hooli-geocode", ConsumerID: "user-hooli", ServiceID: "svc-geocode",
		BlockedAt: now.AddDate(0, 0, -3), BlockedBy: "user-acme",
	}
	if err := st.PutServiceBlock(ctx, block); err != nil {
		return fmt.Errorf("seed block: %w", err)
	}

	images := []*models.DockerImage{
		{ID: "img-geocode-v2", ServiceID: "svc-geocode", Name: "acme/geocode", Tag: "v2.4.1",
			Status: models.ImageActive, LicensingModel: models.LicensingSubscription, LicenseStatus: "current",
			CreatedAt: now.AddDate(0, -1, 0)},
		{ID: "img-geocode-v1", ServiceID: "svc-geocode", Name: "acme/geocode", Tag: "v1.9.0",
			Status: models.ImageDeprecated, LicensingModel: models.LicensingSubscription, LicenseStatus: "current",
			CreatedAt: now.AddDate(0, -3, 0)},
	}
	for _, img := range images {
		if err := st.PutDockerImage(ctx, img); err != nil {
			return fmt.Errorf("seed image %s: %w", img.ID, err)
		}
	}

	pending := &models.AccessRequest{
		ID: "req-hooli-ocr", ConsumerID: "user-hooli", ServiceID: "svc-ocr",
		Status: models.AccessPending, RequestedAt: now.AddDate(0, 0, -1),
	}
	if err := st.PutAccessRequest(ctx, pending); err != nil {
		return fmt.Errorf("seed access request: %w", err)
	}

	for i := 0; i < 12; i++ {
		rec := &models.UsageRecord{
			ID:             fmt.Sprintf("usage-seed-%02d", i),
			ConsumerID:     "user-initech",
			APIKeyID:       "key-initech-prod",
			ServiceID:      "svc-geocode",
			Timestamp:      now.Add(-time.Duration(i+2) * time.Hour),
			StatusCode:     200,
			ResponseTimeMs: 80 + i*10,
		}
		if err := st.AppendUsage(ctx, rec); err != nil {
			return fmt.Errorf("seed usage: %w", err)
		}
	}

	return nil
}
