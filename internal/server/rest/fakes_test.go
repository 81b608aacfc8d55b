package rest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/notesnap/internal/logging"
	"github.com/dmitrijs2005/notesnap/internal/server/auth"
	"github.com/dmitrijs2005/notesnap/internal/server/config"
	"github.com/dmitrijs2005/notesnap/internal/server/models"
	"github.com/dmitrijs2005/notesnap/internal/server/services"
	"github.com/stretchr/testify/require"
)

const testSecret = "rest-secret"

type fakeUsers struct {
	registerFn func(name, email, password string) (*models.User, error)
	loginFn    func(email, password string) (*services.TokenPair, *models.User, error)
	refreshFn  func(token string) (*services.TokenPair, error)
	loggedOut  []string
}

func (f *fakeUsers) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	return f.registerFn(name, email, password)
}
func (f *fakeUsers) Login(ctx context.Context, email, password string) (*services.TokenPair, *models.User, error) {
	return f.loginFn(email, password)
}
func (f *fakeUsers) RefreshToken(ctx context.Context, token string) (*services.TokenPair, error) {
	return f.refreshFn(token)
}
func (f *fakeUsers) Logout(ctx context.Context, token string) error {
	f.loggedOut = append(f.loggedOut, token)
	return nil
}

type fakeVerification struct {
	verifyErr error
	resendErr error
	sendErr   error
	sentTo    []string
}

func (f *fakeVerification) VerifyEmail(ctx context.Context, token string) error { return f.verifyErr }
func (f *fakeVerification) ResendVerification(ctx context.Context, email string) (string, error) {
	return "tok", f.resendErr
}
func (f *fakeVerification) SendVerificationEmail(ctx context.Context, email, token string) error {
	f.sentTo = append(f.sentTo, email)
	return f.sendErr
}

type fakeResets struct {
	requestErr error
	verifyErr  error
	resetErr   error
	requested  []string
}

func (f *fakeResets) RequestReset(ctx context.Context, email string) error {
	f.requested = append(f.requested, email)
	return f.requestErr
}
func (f *fakeResets) VerifyResetToken(ctx context.Context, token string) error { return f.verifyErr }
func (f *fakeResets) ResetPassword(ctx context.Context, token, password string) error {
	return f.resetErr
}

type fakeProfile struct {
	profile     *models.Profile
	err         error
	changes     *services.ProfileChanges
	preferences *services.Preferences
	deleted     string
	avatarKey   string
}

func (f *fakeProfile) Get(ctx context.Context, userID string) (*models.Profile, error) {
	return f.profile, f.err
}
func (f *fakeProfile) UpdateProfile(ctx context.Context, userID string, ch services.ProfileChanges) (*models.Profile, error) {
	f.changes = &ch
	return f.profile, f.err
}
func (f *fakeProfile) UpdatePassword(ctx context.Context, userID, current, next string) error {
	return f.err
}
func (f *fakeProfile) UpdatePreferences(ctx context.Context, userID string, p services.Preferences) (*models.Profile, error) {
	f.preferences = &p
	return f.profile, f.err
}
func (f *fakeProfile) Delete(ctx context.Context, userID string) error {
	f.deleted = userID
	return f.err
}
func (f *fakeProfile) AvatarUploadURL(ctx context.Context, userID, contentType string) (*models.AvatarUpload, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.AvatarUpload{Key: "avatars/" + userID + "/a.png", UploadURL: "http://s3/put", ImageURL: "http://cdn/a.png"}, nil
}
func (f *fakeProfile) ConfirmAvatar(ctx context.Context, userID, key string) (*models.Profile, error) {
	f.avatarKey = key
	return f.profile, f.err
}

type fakeOAuth struct {
	completeErr error
	gotState    string
	gotCookie   string
}

func (f *fakeOAuth) Providers() []string { return []string{"google", "github"} }
func (f *fakeOAuth) Begin(provider string) (string, string, error) {
	if provider != "google" {
		return "", "", services.ErrUnknownProvider
	}
	return "https://accounts.example/authorize?state=n1", "signed-state", nil
}
func (f *fakeOAuth) Complete(ctx context.Context, provider, code, state, cookie string) (*services.TokenPair, *models.User, error) {
	f.gotState, f.gotCookie = state, cookie
	if f.completeErr != nil {
		return nil, nil, f.completeErr
	}
	return &services.TokenPair{AccessToken: "at", RefreshToken: "rt"}, &models.User{ID: "u1"}, nil
}

type fakeHealth struct{ err error }

func (f *fakeHealth) Check(ctx context.Context) (*services.HealthReport, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &services.HealthReport{UserCount: 3, Timestamp: time.Now()}, nil
}

type testAPI struct {
	users        *fakeUsers
	verification *fakeVerification
	resets       *fakeResets
	profile      *fakeProfile
	oauth        *fakeOAuth
	health       *fakeHealth
	handler      http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	api := &testAPI{
		users:        &fakeUsers{},
		verification: &fakeVerification{},
		resets:       &fakeResets{},
		profile:      &fakeProfile{},
		oauth:        &fakeOAuth{},
		health:       &fakeHealth{},
	}
	cfg := &config.Config{
		SecretKey:                    testSecret,
		BaseURL:                      "http://app.test",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 24 * time.Hour,
		CORSOrigins:                  []string{"http://app.test/"},
	}
	h := NewHandler(Services{
		Users:         api.users,
		Verification:  api.verification,
		PasswordReset: api.resets,
		Profile:       api.profile,
		OAuth:         api.oauth,
		Health:        api.health,
	}, cfg, logging.Nop{})
	api.handler = NewRouter(h, logging.Nop{})
	return api
}

func (a *testAPI) do(t *testing.T, method, path, body string, mods ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, m := range mods {
		m(req)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func strPtr(s string) *string { return &s }

func bearer(t *testing.T, userID string) func(*http.Request) {
	t.Helper()
	token, err := auth.GenerateToken(auth.SessionClaims{UserID: userID, Email: "ann@example.com", Name: "Ann"}, []byte(testSecret), time.Hour)
	require.NoError(t, err)
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
