package dto

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRegisterRequest_Validate(t *testing.T) {
	tests := []struct {
		name        string
		request     RegisterRequest
		expectError bool
	}{
		{
			name:    "valid request",
			request: RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "s3cret-password"},
		},
		{
			name:        "missing username",
			request:     RegisterRequest{Email: "alice@example.com", Password: "s3cret-password"},
			expectError: true,
		},
		{
			name:        "short username",
			request:     RegisterRequest{Username: "al", Email: "alice@example.com", Password: "s3cret-password"},
			expectError: true,
		},
		{
			name:        "bad email",
			request:     RegisterRequest{Username: "alice", Email: "not-an-email", Password: "s3cret-password"},
			expectError: true,
		},
		{
			name:        "short password",
			request:     RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "short"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.expectError && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestOpenAccountRequest_Validate(t *testing.T) {
	for _, accountType := range []string{"CHECKING", "SAVINGS"} {
		req := OpenAccountRequest{Type: accountType}
		if err := req.Validate(); err != nil {
			t.Fatalf("expected %s to validate, got %v", accountType, err)
		}
	}

	for _, accountType := range []string{"", "CREDIT", "checking"} {
		req := OpenAccountRequest{Type: accountType}
		if err := req.Validate(); err == nil {
			t.Fatalf("expected %q to fail validation", accountType)
		}
	}
}

func TestDepositRequest_Validate(t *testing.T) {
	valid := DepositRequest{AccountID: 1, Amount: decimal.NewFromInt(100)}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	missing := DepositRequest{Amount: decimal.NewFromInt(100)}
	if err := missing.Validate(); err == nil {
		t.Fatal("expected error for missing account id")
	}
}

func TestTransferRequest_Validate(t *testing.T) {
	valid := TransferRequest{
		SourceAccountID:     1,
		TargetAccountNumber: "ACC1748779200000ABCD",
		Amount:              decimal.NewFromInt(100),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	noTarget := TransferRequest{SourceAccountID: 1, Amount: decimal.NewFromInt(100)}
	if err := noTarget.Validate(); err == nil {
		t.Fatal("expected error for missing target account number")
	}
}

func TestSubmitRollbackRequest_Validate(t *testing.T) {
	valid := SubmitRollbackRequest{TransactionID: 1, Reason: "duplicate charge"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	noReason := SubmitRollbackRequest{TransactionID: 1}
	if err := noReason.Validate(); err == nil {
		t.Fatal("expected error for missing reason")
	}
}

func TestSetAccountActiveRequest_Validate(t *testing.T) {
	// A pointer distinguishes an explicit false from a missing field.
	inactive := false
	valid := SetAccountActiveRequest{Active: &inactive}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	missing := SetAccountActiveRequest{}
	if err := missing.Validate(); err == nil {
		t.Fatal("expected error for missing active flag")
	}
}
