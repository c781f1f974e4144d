package domain

import "time"

// RequestStatus is the lifecycle state of a rollback request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "PENDING"
	RequestApproved RequestStatus = "APPROVED"
	RequestRejected RequestStatus = "REJECTED"
)

// RollbackRequest is a user-initiated petition to reverse a transaction.
// Approval by an admin triggers the engine's rollback; rejection only
// changes the status.
type RollbackRequest struct {
	ID               int64
	TransactionID    int64
	RequestingUserID int64
	Reason           string
	Status           RequestStatus
	CreatedAt        time.Time
}

// IsPending reports whether the request still awaits a decision.
func (r *RollbackRequest) IsPending() bool {
	return r.Status == RequestPending
}
