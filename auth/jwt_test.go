package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	issuer := NewIssuer("s3cret", time.Hour)
	token, err := issuer.Issue("u-1", "manager")
	require.NoError(t, err)

	role, err := NewJWTVerifier("s3cret").Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "MANAGER", role)
}

func TestVerify_Rejects(t *testing.T) {
	ctx := context.Background()
	issuer := NewIssuer("s3cret", time.Hour)

	t.Run("wrong secret", func(t *testing.T) {
		token, err := issuer.Issue("u-1", "ADMIN")
		require.NoError(t, err)
		_, err = NewJWTVerifier("other").Verify(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		old := NewIssuer("s3cret", time.Minute)
		old.Now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, err := old.Issue("u-1", "ADMIN")
		require.NoError(t, err)
		_, err = NewJWTVerifier("s3cret").Verify(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("no role", func(t *testing.T) {
		token, err := issuer.Issue("u-1", "  ")
		require.NoError(t, err)
		_, err = NewJWTVerifier("s3cret").Verify(ctx, token)
		assert.ErrorIs(t, err, ErrMissingRole)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := NewJWTVerifier("s3cret").Verify(ctx, "not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc.def", BearerToken("Bearer abc.def"))
	assert.Equal(t, "abc", BearerToken("bearer   abc "))
	assert.Empty(t, BearerToken("Basic dXNlcg=="))
	assert.Empty(t, BearerToken(""))
}
