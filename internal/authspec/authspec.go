// Package authspec parses authorization adapter specifications of the form
// Name(arg1, arg2, ...) into providers able to build authenticated HTTP
// clients. The spec string itself stays opaque to the task adapter, which
// forwards it verbatim; only the HTTP executor resolves it.
package authspec

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	apperrors "github.com/openutm/qualifier-host/internal/errors"
)

// Provider yields HTTP clients authenticated per an adapter spec.
type Provider interface {
	// HTTPClient returns a client that attaches credentials to every request.
	HTTPClient(ctx context.Context) *http.Client

	// Spec returns the original spec string.
	Spec() string
}

// Parse resolves an adapter spec string into a Provider. An empty spec is
// treated as NoAuth(). Supported adapters:
//
//	NoAuth()
//	StaticToken(token)
//	ServiceAccount(token_endpoint, client_id, client_secret[, scope])
func Parse(spec string) (Provider, error) {
	trimmed := strings.TrimSpace(spec)
	if trimmed == "" {
		return noAuthProvider{spec: spec}, nil
	}

	name, args, err := splitAdapterSpec(trimmed)
	if err != nil {
		return nil, err
	}

	switch name {
	case "NoAuth":
		if len(args) != 0 {
			return nil, apperrors.Validation("NoAuth takes no arguments")
		}
		return noAuthProvider{spec: spec}, nil
	case "StaticToken":
		if len(args) != 1 || args[0] == "" {
			return nil, apperrors.Validation("StaticToken requires exactly one token argument")
		}
		return staticTokenProvider{spec: spec, token: args[0]}, nil
	case "ServiceAccount":
		return parseServiceAccount(spec, args)
	default:
		return nil, apperrors.Validationf("unknown auth adapter %q", name)
	}
}

func parseServiceAccount(spec string, args []string) (Provider, error) {
	if len(args) < 3 || len(args) > 4 {
		return nil, apperrors.Validation(
			"ServiceAccount requires token_endpoint, client_id, client_secret and an optional scope")
	}
	for i, label := range []string{"token_endpoint", "client_id", "client_secret"} {
		if args[i] == "" {
			return nil, apperrors.ValidationField(label, "must be non-empty")
		}
	}

	cfg := clientcredentials.Config{
		TokenURL:     args[0],
		ClientID:     args[1],
		ClientSecret: args[2],
	}
	if len(args) == 4 && args[3] != "" {
		cfg.Scopes = strings.Fields(args[3])
	}
	return serviceAccountProvider{spec: spec, cfg: cfg}, nil
}

// splitAdapterSpec separates "Name(a, b)" into the adapter name and its
// arguments. Arguments may not themselves contain commas or parentheses.
func splitAdapterSpec(spec string) (string, []string, error) {
	open := strings.Index(spec, "(")
	if open <= 0 || !strings.HasSuffix(spec, ")") {
		return "", nil, apperrors.Validationf("malformed auth spec %q; expected Name(args)", spec)
	}
	name := strings.TrimSpace(spec[:open])
	inner := spec[open+1 : len(spec)-1]
	if strings.ContainsAny(inner, "()") {
		return "", nil, apperrors.Validationf("malformed auth spec %q; nested parentheses", spec)
	}

	if strings.TrimSpace(inner) == "" {
		return name, nil, nil
	}
	parts := strings.Split(inner, ",")
	args := make([]string, 0, len(parts))
	for _, p := range parts {
		args = append(args, strings.TrimSpace(p))
	}
	return name, args, nil
}

type noAuthProvider struct {
	spec string
}

func (p noAuthProvider) HTTPClient(_ context.Context) *http.Client {
	return &http.Client{}
}

func (p noAuthProvider) Spec() string { return p.spec }

type staticTokenProvider struct {
	spec  string
	token string
}

func (p staticTokenProvider) HTTPClient(ctx context.Context) *http.Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: p.token, TokenType: "Bearer"})
	return oauth2.NewClient(ctx, src)
}

func (p staticTokenProvider) Spec() string { return p.spec }

type serviceAccountProvider struct {
	spec string
	cfg  clientcredentials.Config
}

func (p serviceAccountProvider) HTTPClient(ctx context.Context) *http.Client {
	return p.cfg.Client(ctx)
}

func (p serviceAccountProvider) Spec() string { return p.spec }

// Describe returns a redacted, loggable description of the spec (adapter name
// only) so credentials never reach logs.
func Describe(spec string) string {
	trimmed := strings.TrimSpace(spec)
	if trimmed == "" {
		return "NoAuth"
	}
	if open := strings.Index(trimmed, "("); open > 0 {
		return strings.TrimSpace(trimmed[:open])
	}
	return "unknown"
}
