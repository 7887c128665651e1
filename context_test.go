package tenantkit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestContextUserID tests user ID storage and retrieval
func TestContextUserID(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", GetUserID(ctx))

	ctx = WithUserID(ctx, "user-1")
	assert.Equal(t, "user-1", GetUserID(ctx))
}

// TestContextActorFallback tests that actor ID falls back to user ID
func TestContextActorFallback(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", GetActorID(ctx))

	ctx = WithUserID(ctx, "user-1")
	assert.Equal(t, "user-1", GetActorID(ctx))

	// Explicit actor wins (admin acting on someone's behalf)
	ctx = WithActorID(ctx, "admin-1")
	assert.Equal(t, "admin-1", GetActorID(ctx))
	assert.Equal(t, "user-1", GetUserID(ctx))
}

// TestContextRequestMetadata tests audit metadata storage
func TestContextRequestMetadata(t *testing.T) {
	ctx := context.Background()
	ctx = WithIPAddress(ctx, "10.0.0.1")
	ctx = WithUserAgent(ctx, "test-agent")
	ctx = WithRequestID(ctx, "req-123")

	assert.Equal(t, "10.0.0.1", GetIPAddress(ctx))
	assert.Equal(t, "test-agent", GetUserAgent(ctx))
	assert.Equal(t, "req-123", GetRequestID(ctx))
}

// TestContextChecker tests checker storage and retrieval
func TestContextChecker(t *testing.T) {
	assert.Nil(t, GetChecker(context.Background()))

	checker := NewChecker("user-1", "org-1", nil, nil)
	ctx := WithChecker(context.Background(), checker)
	assert.Equal(t, checker, GetChecker(ctx))
}

// TestAuditContextRoundtrip tests bulk audit context handling
func TestAuditContextRoundtrip(t *testing.T) {
	ac := AuditContext{
		ActorID:   "actor-1",
		IPAddress: "10.0.0.1",
		UserAgent: "test-agent",
		RequestID: "req-123",
	}

	ctx := WithAuditContext(context.Background(), ac)
	got := GetAuditContext(ctx)
	assert.Equal(t, ac, got)
}

// TestAuditContextPartial tests that empty fields are not set
func TestAuditContextPartial(t *testing.T) {
	ctx := WithUserID(context.Background(), "user-1")
	ctx = WithAuditContext(ctx, AuditContext{RequestID: "req-9"})

	got := GetAuditContext(ctx)
	assert.Equal(t, "req-9", got.RequestID)
	// Actor falls back to the user already in context
	assert.Equal(t, "user-1", got.ActorID)
	assert.Equal(t, "", got.IPAddress)
}
