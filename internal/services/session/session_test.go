package session

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/quick-stock/internal/lib/apperr"
	"github.com/magabrotheeeer/quick-stock/internal/lib/jwt"
)

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestGate_IssueAndVerify(t *testing.T) {
	gate := NewGate(jwt.NewJWTMaker("secret", time.Hour), newNoopLogger())
	ctx := context.Background()

	token, err := gate.Issue(ctx, Claims{Email: "owner@shop.com", Role: "manager"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := gate.Verify(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, Claims{Email: "owner@shop.com", Role: "manager"}, claims)
}

func TestGate_IssueRequiresEmail(t *testing.T) {
	gate := NewGate(jwt.NewJWTMaker("secret", time.Hour), newNoopLogger())

	_, err := gate.Issue(context.Background(), Claims{Email: "  "})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestGate_VerifyRejects(t *testing.T) {
	gate := NewGate(jwt.NewJWTMaker("secret", time.Hour), newNoopLogger())
	other := NewGate(jwt.NewJWTMaker("other-secret", time.Hour), newNoopLogger())
	expired := NewGate(jwt.NewJWTMaker("secret", -time.Minute), newNoopLogger())

	foreign, err := other.Issue(context.Background(), Claims{Email: "owner@shop.com"})
	require.NoError(t, err)
	stale, err := expired.Issue(context.Background(), Claims{Email: "owner@shop.com"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty token", token: ""},
		{name: "garbage", token: "not.a.token"},
		{name: "wrong signature", token: foreign},
		{name: "expired", token: stale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := gate.Verify(context.Background(), tt.token)
			assert.ErrorIs(t, err, apperr.ErrUnauthorized)
			assert.Empty(t, claims.Email)
		})
	}
}

func TestGate_CanceledContext(t *testing.T) {
	gate := NewGate(jwt.NewJWTMaker("secret", time.Hour), newNoopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gate.Verify(ctx, "whatever")
	assert.ErrorIs(t, err, apperr.ErrCanceled)
}
