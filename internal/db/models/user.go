// Package models defines the entity types for the service marketplace.
// Each type corresponds to a store collection (and a database table in the
// Postgres deployment) and carries no behavior — business logic belongs to the
// lifecycle, credentials, and consumption packages; query logic belongs to the
// store implementations.
package models

import "time"

// Role identifies a platform role a user can hold.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleMerchant Role = "merchant"
	RoleConsumer Role = "consumer"
)

// MerchantStatus is the lifecycle state of a merchant account.
// It is deliberately a distinct type from ConsumerStatus: the two vocabularies
// overlap ("active") but mean different things and transition differently.
type MerchantStatus string

const (
	MerchantPending   MerchantStatus = "pending"
	MerchantActive    MerchantStatus = "active"
	MerchantSuspended MerchantStatus = "suspended"
	MerchantDisabled  MerchantStatus = "disabled"
)

// ConsumerStatus is the lifecycle state of a consumer account.
type ConsumerStatus string

const (
	ConsumerActive  ConsumerStatus = "active"
	ConsumerBlocked ConsumerStatus = "blocked"
)

// User represents a platform account. Role-specific state lives on the
// merchant/consumer profiles, not here.
type User struct {
	ID         string
	Email      string
	Name       string
	Roles      []Role
	ActiveRole Role
	CreatedAt  time.Time
}

// HasRole reports whether the user holds the given role.
func (u *User) HasRole(r Role) bool {
	for _, have := range u.Roles {
		if have == r {
			return true
		}
	}
	return false
}

// MerchantProfile is the 1:1 merchant-side extension of a User.
type MerchantProfile struct {
	UserID               string
	CompanyName          string
	Status               MerchantStatus
	InvitedAt            time.Time
	FlaggedForReview     bool
	SubscriptionsBlocked bool
}

// ConsumerProfile is the 1:1 consumer-side extension of a User.
type ConsumerProfile struct {
	UserID       string
	Organization string
	Status       ConsumerStatus
}
