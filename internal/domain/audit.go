package domain

import (
	"encoding/json"
	"time"
)

// AuditLog represents an audit trail entry for compliance and debugging
type AuditLog struct {
	ID           int64
	UserID       int64  // Who performed the action
	Action       string // What action (transaction.rollback, account.deactivate, etc.)
	ResourceType string // Type of resource (transaction, account, rollback_request)
	ResourceID   int64  // ID of the resource
	BeforeState  JSON   // State before the action
	AfterState   JSON   // State after the action
	Status       string // success, failure
	ErrorMessage string // If status=failure, the error message
	CreatedAt    time.Time
}

// JSON is a type alias for JSON data
type JSON map[string]any

// AuditAction represents different types of auditable actions
type AuditAction string

const (
	// Account actions
	AuditActionAccountCreate     AuditAction = "account.create"
	AuditActionAccountActivate   AuditAction = "account.activate"
	AuditActionAccountDeactivate AuditAction = "account.deactivate"

	// Transaction actions
	AuditActionTransactionRollback AuditAction = "transaction.rollback"

	// Rollback request actions
	AuditActionRequestApprove AuditAction = "request.approve"
	AuditActionRequestReject  AuditAction = "request.reject"

	// Auth actions
	AuditActionUserLogin AuditAction = "user.login"
)

// AuditStatus represents the status of an audited action
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
)

// MarshalState converts a domain object to JSON for audit logging
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": "failed to marshal state"}
	}

	var result JSON
	if err := json.Unmarshal(data, &result); err != nil {
		return JSON{"error": "failed to unmarshal state"}
	}

	return result
}

// AuditFilter defines filters for querying audit logs
type AuditFilter struct {
	UserID       int64
	Action       string
	ResourceType string
	StartDate    *time.Time
	EndDate      *time.Time
	Limit        int
	Offset       int
}
