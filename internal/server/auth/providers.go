package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/notesnap/internal/server/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const (
	ProviderGoogle  = "google"
	ProviderGitHub  = "github"
	ProviderDiscord = "discord"
)

// disabledClientID is the placeholder shipped in sample env files.
const disabledClientID = "dummy"

// ErrProviderNoEmail is returned when a provider does not disclose a usable email.
var ErrProviderNoEmail = errors.New("oauth provider returned no email")

// ProviderProfile is the identity reported by an OAuth provider.
type ProviderProfile struct {
	ID            string
	Email         string
	EmailVerified bool
	Name          string
	Image         string
}

// Provider is one configured OAuth identity provider.
type Provider struct {
	Name   string
	Config *oauth2.Config

	profileURL string
	emailsURL  string
	parse      func(ctx context.Context, p *Provider, client *http.Client) (*ProviderProfile, error)
}

// AuthCodeURL is the consent page URL with state and a PKCE S256 challenge.
func (p *Provider) AuthCodeURL(state, verifier string) string {
	return p.Config.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

// Exchange trades an authorization code for a token, proving the verifier.
func (p *Provider) Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	return p.Config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
}

// Profile fetches the user's identity with tok.
func (p *Provider) Profile(ctx context.Context, tok *oauth2.Token) (*ProviderProfile, error) {
	profile, err := p.parse(ctx, p, p.Config.Client(ctx, tok))
	if err != nil {
		return nil, fmt.Errorf("%s profile: %w", p.Name, err)
	}
	profile.Email = strings.ToLower(strings.TrimSpace(profile.Email))
	if profile.Email == "" {
		return nil, ErrProviderNoEmail
	}
	return profile, nil
}

// Registry holds the enabled providers in a stable order.
type Registry struct {
	providers map[string]*Provider
	order     []string
}

// NewRegistry enables every provider whose client id and secret are set.
// Callbacks go to {apiBaseURL}/api/auth/oauth/{name}/callback.
func NewRegistry(cfg config.OAuthConfig, apiBaseURL string) *Registry {
	r := &Registry{providers: map[string]*Provider{}}
	base := strings.TrimRight(apiBaseURL, "/")

	add := func(name, id, secret string, endpoint oauth2.Endpoint, scopes []string, p *Provider) {
		if id == "" || secret == "" || id == disabledClientID {
			return
		}
		p.Name = name
		p.Config = &oauth2.Config{
			ClientID:     id,
			ClientSecret: secret,
			Endpoint:     endpoint,
			Scopes:       scopes,
			RedirectURL:  base + "/api/auth/oauth/" + name + "/callback",
		}
		r.Register(p)
	}

	add(ProviderGoogle, cfg.GoogleClientID, cfg.GoogleClientSecret, endpoints.Google,
		[]string{"openid", "email", "profile"},
		&Provider{profileURL: "https://openidconnect.googleapis.com/v1/userinfo", parse: parseGoogle})
	add(ProviderGitHub, cfg.GitHubClientID, cfg.GitHubClientSecret, endpoints.GitHub,
		[]string{"read:user", "user:email"},
		&Provider{profileURL: "https://api.github.com/user", emailsURL: "https://api.github.com/user/emails", parse: parseGitHub})
	add(ProviderDiscord, cfg.DiscordClientID, cfg.DiscordClientSecret, endpoints.Discord,
		[]string{"identify", "email"},
		&Provider{profileURL: "https://discord.com/api/users/@me", parse: parseDiscord})

	return r
}

// NewProvider builds a provider from an oauth2 config and a profile fetcher
// that receives an authenticated client. Used for providers not built into
// NewRegistry.
func NewProvider(name string, cfg *oauth2.Config, fetch func(ctx context.Context, client *http.Client) (*ProviderProfile, error)) *Provider {
	return &Provider{
		Name:   name,
		Config: cfg,
		parse: func(ctx context.Context, _ *Provider, client *http.Client) (*ProviderProfile, error) {
			return fetch(ctx, client)
		},
	}
}

// Register adds or replaces a provider.
func (r *Registry) Register(p *Provider) {
	if _, ok := r.providers[p.Name]; !ok {
		r.order = append(r.order, p.Name)
	}
	r.providers[p.Name] = p
}

// Get returns an enabled provider by name.
func (r *Registry) Get(name string) (*Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// Names lists enabled providers in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func getJSON(ctx context.Context, client *http.Client, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

func parseGoogle(ctx context.Context, p *Provider, client *http.Client) (*ProviderProfile, error) {
	var body struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := getJSON(ctx, client, p.profileURL, &body); err != nil {
		return nil, err
	}
	return &ProviderProfile{ID: body.Sub, Email: body.Email, EmailVerified: body.EmailVerified, Name: body.Name, Image: body.Picture}, nil
}

// parseGitHub falls back to the /user/emails list when the public email is
// hidden; only the primary verified address is accepted from there.
func parseGitHub(ctx context.Context, p *Provider, client *http.Client) (*ProviderProfile, error) {
	var body struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := getJSON(ctx, client, p.profileURL, &body); err != nil {
		return nil, err
	}

	profile := &ProviderProfile{
		ID:    strconv.FormatInt(body.ID, 10),
		Email: body.Email,
		Name:  body.Name,
		Image: body.AvatarURL,
	}
	if profile.Name == "" {
		profile.Name = body.Login
	}

	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := getJSON(ctx, client, p.emailsURL, &emails); err != nil {
		if profile.Email != "" {
			return profile, nil
		}
		return nil, err
	}
	for _, e := range emails {
		if e.Primary && e.Verified {
			profile.Email = e.Email
			profile.EmailVerified = true
			break
		}
	}
	return profile, nil
}

func parseDiscord(ctx context.Context, p *Provider, client *http.Client) (*ProviderProfile, error) {
	var body struct {
		ID         string `json:"id"`
		Username   string `json:"username"`
		GlobalName string `json:"global_name"`
		Email      string `json:"email"`
		Verified   bool   `json:"verified"`
		Avatar     string `json:"avatar"`
	}
	if err := getJSON(ctx, client, p.profileURL, &body); err != nil {
		return nil, err
	}

	profile := &ProviderProfile{ID: body.ID, Email: body.Email, EmailVerified: body.Verified, Name: body.GlobalName}
	if profile.Name == "" {
		profile.Name = body.Username
	}
	if body.Avatar != "" {
		profile.Image = "https://cdn.discordapp.com/avatars/" + body.ID + "/" + body.Avatar + ".png"
	}
	return profile, nil
}
