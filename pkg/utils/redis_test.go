package utils

import "testing"

func TestIdempotencyScriptCompiles(t *testing.T) {
	// Compile-time smoke test: the script should be initialized.
	if idempotencyClaimScript == nil {
		t.Fatalf("expected script to be initialized")
	}
}

func TestClaimIdempotencyKeyValidatesArgs(t *testing.T) {
	if _, _, err := ClaimIdempotencyKey(nil, nil, "k", 1); err == nil {
		t.Fatalf("expected error for nil client")
	}
}
