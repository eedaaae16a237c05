// service.go defines the Service model: a merchant-owned API offering whose
// status is governed by the lifecycle manager while its descriptive fields are
// editable by the owning merchant at any status.
package models

import "time"

// ServiceStatus is the lifecycle state of a listed service.
type ServiceStatus string

const (
	ServiceDraft           ServiceStatus = "draft"
	ServicePendingApproval ServiceStatus = "pending_approval"
	ServiceActive          ServiceStatus = "active"
	ServiceSuspended       ServiceStatus = "suspended"
	ServiceRejected        ServiceStatus = "rejected"
)

// ServiceVisibility controls whether a service is listed publicly.
type ServiceVisibility string

const (
	VisibilityPublic  ServiceVisibility = "public"
	VisibilityPrivate ServiceVisibility = "private"
)

// PricingModel is the billing variant attached to a service.
type PricingModel string

const (
	PricingFree       PricingModel = "free"
	PricingPerRequest PricingModel = "per_request"
	PricingTiered     PricingModel = "tiered"
	PricingFlat       PricingModel = "flat"
)

// PricingTier is one step of a tiered pricing scheme.
type PricingTier struct {
	UpToRequests int     `json:"up_to_requests"`
	PricePerCall float64 `json:"price_per_call"`
}

// Pricing describes how calls to a service are billed. Only the fields
// relevant to the chosen model are populated.
type Pricing struct {
	Model        PricingModel  `json:"model"`
	PricePerCall float64       `json:"price_per_call,omitempty"`
	MonthlyFee   float64       `json:"monthly_fee,omitempty"`
	Tiers        []PricingTier `json:"tiers,omitempty"`
}

// Endpoint is the upstream configuration a service proxies to. A service
// without an endpoint cannot serve consumption calls (502 at validation).
type Endpoint struct {
	BaseURL    string `json:"base_url"`
	HealthPath string `json:"health_path,omitempty"`
}

// Service represents an API offering owned by a merchant.
type Service struct {
	ID                 string
	MerchantID         string
	Name               string
	Description        string
	Category           string
	Status             ServiceStatus
	Visibility         ServiceVisibility
	Pricing            Pricing
	RateLimitPerMinute int
	Endpoint           *Endpoint
	Tags               []string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
