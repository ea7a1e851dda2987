package authspec

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		spec     string
		errorMsg string
	}{
		{name: "empty spec defaults to NoAuth", spec: ""},
		{name: "whitespace spec defaults to NoAuth", spec: "   "},
		{name: "NoAuth", spec: "NoAuth()"},
		{name: "NoAuth with padding", spec: "  NoAuth()  "},
		{name: "StaticToken", spec: "StaticToken(abc123)"},
		{name: "ServiceAccount", spec: "ServiceAccount(https://idp.example/token, client, secret)"},
		{name: "ServiceAccount with scope", spec: "ServiceAccount(https://idp.example/token, client, secret, read write)"},
		{
			name:     "NoAuth rejects arguments",
			spec:     "NoAuth(extra)",
			errorMsg: "NoAuth takes no arguments",
		},
		{
			name:     "StaticToken requires a token",
			spec:     "StaticToken()",
			errorMsg: "StaticToken requires exactly one token argument",
		},
		{
			name:     "StaticToken rejects extra arguments",
			spec:     "StaticToken(a, b)",
			errorMsg: "StaticToken requires exactly one token argument",
		},
		{
			name:     "ServiceAccount requires three arguments",
			spec:     "ServiceAccount(https://idp.example/token, client)",
			errorMsg: "ServiceAccount requires token_endpoint, client_id, client_secret",
		},
		{
			name:     "ServiceAccount rejects five arguments",
			spec:     "ServiceAccount(a, b, c, d, e)",
			errorMsg: "ServiceAccount requires token_endpoint, client_id, client_secret",
		},
		{
			name:     "ServiceAccount rejects empty endpoint",
			spec:     "ServiceAccount(, client, secret)",
			errorMsg: "must be non-empty",
		},
		{
			name:     "unknown adapter",
			spec:     "KerberosTicket(a)",
			errorMsg: `unknown auth adapter "KerberosTicket"`,
		},
		{
			name:     "missing parentheses",
			spec:     "NoAuth",
			errorMsg: "malformed auth spec",
		},
		{
			name:     "nested parentheses",
			spec:     "StaticToken(a(b))",
			errorMsg: "nested parentheses",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := Parse(tt.spec)
			if tt.errorMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, provider)
			assert.Equal(t, tt.spec, provider.Spec())
			assert.NotNil(t, provider.HTTPClient(context.Background()))
		})
	}
}

func TestStaticTokenProviderAttachesBearer(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	provider, err := Parse("StaticToken(s3cr3t)")
	require.NoError(t, err)

	client := provider.HTTPClient(context.Background())
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "Bearer s3cr3t", gotAuth)
}

func TestNoAuthProviderSendsNoCredentials(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	provider, err := Parse("NoAuth()")
	require.NoError(t, err)

	resp, err := provider.HTTPClient(context.Background()).Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Empty(t, gotAuth)
}

func TestSplitAdapterSpec(t *testing.T) {
	name, args, err := splitAdapterSpec("ServiceAccount(https://idp/token, id, secret, read)")
	require.NoError(t, err)
	assert.Equal(t, "ServiceAccount", name)
	assert.Equal(t, []string{"https://idp/token", "id", "secret", "read"}, args)

	name, args, err = splitAdapterSpec("NoAuth()")
	require.NoError(t, err)
	assert.Equal(t, "NoAuth", name)
	assert.Empty(t, args)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "NoAuth", Describe(""))
	assert.Equal(t, "StaticToken", Describe("StaticToken(topsecret)"))
	assert.Equal(t, "ServiceAccount", Describe("ServiceAccount(a, b, c)"))
	assert.Equal(t, "unknown", Describe("garbage"))
	assert.NotContains(t, Describe("StaticToken(topsecret)"), "topsecret")
}
