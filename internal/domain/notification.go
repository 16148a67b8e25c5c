package domain

import "time"

// PushFailureLimit deactivates a subscription once reached.
const PushFailureLimit = 3

// PushSubscription is a durable Web Push endpoint for one user device.
type PushSubscription struct {
	ID            string
	UserID        string
	Endpoint      string
	P256dhKey     string
	AuthKey       string
	UserAgent     string
	DeviceType    string
	Active        bool
	FailureCount  int
	LastSuccessAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// RecordSuccess resets the failure streak.
func (p *PushSubscription) RecordSuccess(now time.Time) {
	t := now
	p.LastSuccessAt = &t
	p.FailureCount = 0
}

// RecordFailure bumps the failure streak and deactivates at the limit.
// Returns true when this failure deactivated the subscription.
func (p *PushSubscription) RecordFailure() bool {
	p.FailureCount++
	if p.FailureCount >= PushFailureLimit && p.Active {
		p.Active = false
		return true
	}
	return false
}
