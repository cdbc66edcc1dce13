package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/pushbridge/internal/config"
)

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{name: "bearer", header: "Bearer abc", want: "abc"},
		{name: "padded", header: "Bearer   abc  ", want: "abc"},
		{name: "missing", header: "", wantErr: true},
		{name: "basic", header: "Basic abc", wantErr: true},
		{name: "blank token", header: "Bearer   ", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/feeds", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			got, err := ExtractBearerToken(req)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	tokens := TokensFromConfig([]config.APIToken{
		{Token: "reader", Scopes: []string{ScopeFeedsRead}},
		{Token: "admin"},
	})

	p, ok := Authenticate("reader", tokens)
	require.True(t, ok)
	assert.True(t, HasAnyScope(p, ScopeFeedsRead))
	assert.False(t, HasAnyScope(p, ScopeEventsRead))

	p, ok = Authenticate("admin", tokens)
	require.True(t, ok)
	assert.True(t, HasAnyScope(p, ScopeEventsRead, ScopeDeliveriesRead))

	_, ok = Authenticate("nope", tokens)
	assert.False(t, ok)
	_, ok = Authenticate("", []TokenConfig{{Token: ""}})
	assert.False(t, ok, "empty tokens never match")
}

func TestPrincipalContextRoundTrip(t *testing.T) {
	_, ok := PrincipalFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithPrincipal(context.Background(), Principal{Token: "x"})
	p, ok := PrincipalFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "x", p.Token)
	assert.True(t, HasAnyScope(p), "no required scopes always passes")
}
