// usage_record.go defines the UsageRecord model: one row per successful
// simulated service call, appended by the consumption validator (and by seed
// data). Append-only; nothing updates or deletes usage rows.
package models

import "time"

// UsageRecord is one authorized service call made through an API key.
type UsageRecord struct {
	ID             string
	ConsumerID     string
	APIKeyID       string
	ServiceID      string
	Timestamp      time.Time
	StatusCode     int
	ResponseTimeMs int
}
