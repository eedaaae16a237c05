// audit_log.go defines the AuditLog model and the closed action taxonomy.
// Audit entries are immutable records of who changed what; they are appended
// by the audit recorder after a state mutation succeeds and are never mutated
// or deleted.
package models

import "time"

// AuditAction is a string tag from the closed audit taxonomy. Only the
// constants below are valid; free-form actions are not recorded.
type AuditAction string

const (
	ActionMerchantSuspended       AuditAction = "merchant.suspended"
	ActionMerchantUnsuspended     AuditAction = "merchant.unsuspended"
	ActionMerchantApproved        AuditAction = "merchant.approved"
	ActionMerchantRejected        AuditAction = "merchant.rejected"
	ActionMerchantDisabled        AuditAction = "merchant.disabled"
	ActionMerchantInvited         AuditAction = "merchant.invited"
	ActionMerchantFlagged         AuditAction = "merchant.flagged"
	ActionMerchantUnflagged       AuditAction = "merchant.unflagged"
	ActionMerchantSubsBlocked     AuditAction = "merchant.subscriptions_blocked"
	ActionMerchantSubsUnblocked   AuditAction = "merchant.subscriptions_unblocked"
	ActionConsumerBlocked         AuditAction = "consumer.blocked"
	ActionConsumerUnblocked       AuditAction = "consumer.unblocked"
	ActionConsumerServiceBlocked  AuditAction = "consumer.service_blocked"
	ActionConsumerServiceUnblock  AuditAction = "consumer.service_unblocked"
	ActionServiceApproved         AuditAction = "service.approved"
	ActionServiceRejected         AuditAction = "service.rejected"
	ActionServiceUpdated          AuditAction = "service.updated"
	ActionAccessApproved          AuditAction = "access.approved"
	ActionAccessDenied            AuditAction = "access.denied"
	ActionAPIKeyRevoked           AuditAction = "apikey.revoked"
	ActionImageDeprecated         AuditAction = "image.deprecated"
	ActionImageDisabled           AuditAction = "image.disabled"
)

// TargetType identifies what kind of entity an audit entry refers to.
type TargetType string

const (
	TargetUser          TargetType = "user"
	TargetService       TargetType = "service"
	TargetAccessRequest TargetType = "access_request"
	TargetAPIKey        TargetType = "api_key"
	TargetServiceBlock  TargetType = "service_block"
	TargetDockerImage   TargetType = "docker_image"
)

// AuditLog is one immutable audit trail entry.
type AuditLog struct {
	ID          string
	Action      AuditAction
	ActorID     string
	ActorName   string
	ActorRole   Role
	TargetID    string
	TargetType  TargetType
	Description string
	Timestamp   time.Time
}
