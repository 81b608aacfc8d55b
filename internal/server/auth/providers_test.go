package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/dmitrijs2005/notesnap/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestNewRegistry_EnablesConfiguredProviders(t *testing.T) {
	r := NewRegistry(config.OAuthConfig{
		GoogleClientID:      "g-id",
		GoogleClientSecret:  "g-secret",
		GitHubClientID:      "dummy",
		GitHubClientSecret:  "dummy",
		DiscordClientID:     "d-id",
		DiscordClientSecret: "",
	}, "https://api.notesnap.app/")

	assert.Equal(t, []string{ProviderGoogle}, r.Names())

	p, ok := r.Get(ProviderGoogle)
	require.True(t, ok)
	assert.Equal(t, "https://api.notesnap.app/api/auth/oauth/google/callback", p.Config.RedirectURL)
	assert.Contains(t, p.Config.Scopes, "email")

	_, ok = r.Get(ProviderGitHub)
	assert.False(t, ok)
	_, ok = r.Get(ProviderDiscord)
	assert.False(t, ok)
}

func TestNewRegistry_Order(t *testing.T) {
	r := NewRegistry(config.OAuthConfig{
		GoogleClientID: "g", GoogleClientSecret: "g",
		GitHubClientID: "h", GitHubClientSecret: "h",
		DiscordClientID: "d", DiscordClientSecret: "d",
	}, "http://localhost:8080")

	assert.Equal(t, []string{ProviderGoogle, ProviderGitHub, ProviderDiscord}, r.Names())
}

func TestProvider_AuthCodeURL(t *testing.T) {
	p := &Provider{Name: "test", Config: &oauth2.Config{
		ClientID:    "cid",
		Endpoint:    oauth2.Endpoint{AuthURL: "https://idp.example/authorize", TokenURL: "https://idp.example/token"},
		RedirectURL: "http://localhost/cb",
	}}

	verifier := oauth2.GenerateVerifier()
	u, err := url.Parse(p.AuthCodeURL("nonce-1", verifier))
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "nonce-1", q.Get("state"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.Equal(t, oauth2.S256ChallengeFromVerifier(verifier), q.Get("code_challenge"))
	assert.Equal(t, "cid", q.Get("client_id"))
}

// idp fakes the token endpoint and the profile APIs of a provider.
func idp(t *testing.T, routes map[string]any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("code_verifier") == "" {
			http.Error(w, "missing verifier", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-1","token_type":"bearer"}`))
	})
	for path, body := range routes {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer at-1" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if body == nil {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(body)
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testProvider(srv *httptest.Server, name string, parse func(context.Context, *Provider, *http.Client) (*ProviderProfile, error)) *Provider {
	return &Provider{
		Name: name,
		Config: &oauth2.Config{
			ClientID:     "cid",
			ClientSecret: "secret",
			Endpoint:     oauth2.Endpoint{AuthURL: srv.URL + "/authorize", TokenURL: srv.URL + "/token"},
		},
		profileURL: srv.URL + "/user",
		emailsURL:  srv.URL + "/user/emails",
		parse:      parse,
	}
}

func exchangeAndProfile(t *testing.T, p *Provider) (*ProviderProfile, error) {
	t.Helper()
	ctx := context.Background()
	tok, err := p.Exchange(ctx, "code-1", oauth2.GenerateVerifier())
	require.NoError(t, err)
	assert.Equal(t, "at-1", tok.AccessToken)
	return p.Profile(ctx, tok)
}

func TestGitHubProfile_UsesPrimaryVerifiedEmail(t *testing.T) {
	srv := idp(t, map[string]any{
		"/user": map[string]any{"id": 42, "login": "octo", "name": "", "email": nil, "avatar_url": "https://avatars/42"},
		"/user/emails": []map[string]any{
			{"email": "old@example.com", "primary": false, "verified": true},
			{"email": "Octo@Example.com", "primary": true, "verified": true},
		},
	})

	profile, err := exchangeAndProfile(t, testProvider(srv, ProviderGitHub, parseGitHub))
	require.NoError(t, err)
	assert.Equal(t, &ProviderProfile{ID: "42", Email: "octo@example.com", EmailVerified: true, Name: "octo", Image: "https://avatars/42"}, profile)
}

func TestGitHubProfile_PublicEmailWhenListForbidden(t *testing.T) {
	srv := idp(t, map[string]any{
		"/user":        map[string]any{"id": 7, "login": "l", "name": "Lin", "email": "lin@example.com"},
		"/user/emails": nil,
	})

	profile, err := exchangeAndProfile(t, testProvider(srv, ProviderGitHub, parseGitHub))
	require.NoError(t, err)
	assert.Equal(t, "lin@example.com", profile.Email)
	assert.False(t, profile.EmailVerified)
}

func TestGoogleProfile(t *testing.T) {
	srv := idp(t, map[string]any{
		"/user": map[string]any{"sub": "g-1", "email": "ann@gmail.com", "email_verified": true, "name": "Ann", "picture": "https://pic"},
	})

	profile, err := exchangeAndProfile(t, testProvider(srv, ProviderGoogle, parseGoogle))
	require.NoError(t, err)
	assert.Equal(t, &ProviderProfile{ID: "g-1", Email: "ann@gmail.com", EmailVerified: true, Name: "Ann", Image: "https://pic"}, profile)
}

func TestDiscordProfile(t *testing.T) {
	srv := idp(t, map[string]any{
		"/user": map[string]any{"id": "d-9", "username": "dee", "global_name": nil, "email": "dee@example.com", "verified": false, "avatar": "abc"},
	})

	profile, err := exchangeAndProfile(t, testProvider(srv, ProviderDiscord, parseDiscord))
	require.NoError(t, err)
	assert.Equal(t, "dee", profile.Name)
	assert.False(t, profile.EmailVerified)
	assert.Equal(t, "https://cdn.discordapp.com/avatars/d-9/abc.png", profile.Image)
}

func TestProfile_NoEmail(t *testing.T) {
	srv := idp(t, map[string]any{
		"/user": map[string]any{"id": "d-9", "username": "dee"},
	})

	_, err := exchangeAndProfile(t, testProvider(srv, ProviderDiscord, parseDiscord))
	assert.ErrorIs(t, err, ErrProviderNoEmail)
}

func TestNewProvider_CustomFetch(t *testing.T) {
	srv := idp(t, map[string]any{})

	p := NewProvider("custom", &oauth2.Config{
		ClientID: "cid",
		Endpoint: oauth2.Endpoint{AuthURL: srv.URL + "/authorize", TokenURL: srv.URL + "/token"},
	}, func(ctx context.Context, client *http.Client) (*ProviderProfile, error) {
		return &ProviderProfile{ID: "c-1", Email: " Mixed@Case.IO "}, nil
	})

	r := &Registry{providers: map[string]*Provider{}}
	r.Register(p)
	got, ok := r.Get("custom")
	require.True(t, ok)

	profile, err := exchangeAndProfile(t, got)
	require.NoError(t, err)
	assert.Equal(t, "mixed@case.io", profile.Email)
}
