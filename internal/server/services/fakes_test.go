package services

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/notesnap/internal/common"
	"github.com/dmitrijs2005/notesnap/internal/dbx"
	"github.com/dmitrijs2005/notesnap/internal/server/config"
	"github.com/dmitrijs2005/notesnap/internal/server/mailer"
	"github.com/dmitrijs2005/notesnap/internal/server/models"
	"github.com/dmitrijs2005/notesnap/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/notesnap/internal/server/repositories/passwordresets"
	"github.com/dmitrijs2005/notesnap/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/notesnap/internal/server/repositories/users"
	"github.com/dmitrijs2005/notesnap/internal/server/repositories/verificationtokens"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var errBoom = errors.New("boom")

func strPtr(s string) *string { return &s }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                          "test-secret",
		BaseURL:                            "http://app.test",
		AccessTokenValidityDuration:        time.Hour,
		RefreshTokenValidityDuration:       24 * time.Hour,
		VerificationTokenValidityDuration:  24 * time.Hour,
		PasswordResetTokenValidityDuration: time.Hour,
		BcryptCost:                         bcrypt.MinCost,
	}
}

type recordingMailer struct {
	sent []mailer.Message
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, msg mailer.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

// memStore is an in-memory stand-in for every repository. Set fail[op]
// to make the named operation (e.g. "users.Create") return an error.
type memStore struct {
	mu       sync.Mutex
	users    map[string]*models.User
	accounts []models.Account
	vtokens  map[string]models.VerificationToken
	resets   map[string]models.PasswordResetToken
	refresh  map[string]models.RefreshToken
	fail     map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		users:   map[string]*models.User{},
		vtokens: map[string]models.VerificationToken{},
		resets:  map[string]models.PasswordResetToken{},
		refresh: map[string]models.RefreshToken{},
		fail:    map[string]error{},
	}
}

func (s *memStore) failure(op string) error { return s.fail[op] }

func (s *memStore) addUser(u models.User) *models.User {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	s.users[u.ID] = &u
	return &u
}

func (s *memStore) userByEmail(email string) *models.User {
	for _, u := range s.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

type memManager struct{ s *memStore }

func (m memManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m memManager) Users(dbx.DBTX) users.Repository            { return memUsers{m.s} }
func (m memManager) Accounts(dbx.DBTX) accounts.Repository      { return memAccounts{m.s} }
func (m memManager) VerificationTokens(dbx.DBTX) verificationtokens.Repository {
	return memVerificationTokens{m.s}
}
func (m memManager) PasswordResets(dbx.DBTX) passwordresets.Repository { return memResets{m.s} }
func (m memManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository   { return memRefresh{m.s} }

type memUsers struct{ s *memStore }

func (r memUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("users.Create"); err != nil {
		return nil, err
	}
	if r.s.userByEmail(u.Email) != nil {
		return nil, common.ErrorAlreadyExists
	}
	c := *u
	c.EmailNotifications = true
	out := *r.s.addUser(c)
	return &out, nil
}

func (r memUsers) get(pred func(*models.User) bool) (*models.User, error) {
	for _, u := range r.s.users {
		if pred(u) {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("users.GetByID"); err != nil {
		return nil, err
	}
	return r.get(func(u *models.User) bool { return u.ID == id })
}

func (r memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("users.GetByEmail"); err != nil {
		return nil, err
	}
	return r.get(func(u *models.User) bool { return u.Email == email })
}

func (r memUsers) update(op, id string, fn func(*models.User)) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure(op); err != nil {
		return nil, err
	}
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	fn(u)
	u.UpdatedAt = time.Now()
	c := *u
	return &c, nil
}

func (r memUsers) UpdateProfile(ctx context.Context, id string, name, bio, website, github *string) (*models.User, error) {
	return r.update("users.UpdateProfile", id, func(u *models.User) {
		for _, f := range []struct {
			dst **string
			src *string
		}{{&u.Name, name}, {&u.Bio, bio}, {&u.Website, website}, {&u.GitHub, github}} {
			if f.src != nil {
				v := *f.src
				*f.dst = &v
			}
		}
	})
}

func (r memUsers) UpdatePreferences(ctx context.Context, id string, en, pp, sa bool) (*models.User, error) {
	return r.update("users.UpdatePreferences", id, func(u *models.User) {
		u.EmailNotifications, u.PublicProfile, u.ShareAnalytics = en, pp, sa
	})
}

func (r memUsers) UpdatePassword(ctx context.Context, id string, hash string) error {
	_, err := r.update("users.UpdatePassword", id, func(u *models.User) { u.Password = &hash })
	return err
}

func (r memUsers) UpdatePasswordByEmail(ctx context.Context, email string, hash string) (string, error) {
	r.s.mu.Lock()
	u := r.s.userByEmail(email)
	r.s.mu.Unlock()
	if u == nil {
		return "", common.ErrorNotFound
	}
	_, err := r.update("users.UpdatePasswordByEmail", u.ID, func(u *models.User) { u.Password = &hash })
	return u.ID, err
}

func (r memUsers) UpdateImage(ctx context.Context, id string, image string) error {
	_, err := r.update("users.UpdateImage", id, func(u *models.User) { u.Image = &image })
	return err
}

func (r memUsers) MarkEmailVerified(ctx context.Context, email string, at time.Time) error {
	r.s.mu.Lock()
	u := r.s.userByEmail(email)
	r.s.mu.Unlock()
	if u == nil {
		return common.ErrorNotFound
	}
	_, err := r.update("users.MarkEmailVerified", u.ID, func(u *models.User) { u.EmailVerified = &at })
	return err
}

func (r memUsers) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("users.Delete"); err != nil {
		return err
	}
	if _, ok := r.s.users[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.users, id)

	kept := r.s.accounts[:0]
	for _, a := range r.s.accounts {
		if a.UserID != id {
			kept = append(kept, a)
		}
	}
	r.s.accounts = kept
	for k, t := range r.s.refresh {
		if t.UserID == id {
			delete(r.s.refresh, k)
		}
	}
	return nil
}

func (r memUsers) Count(ctx context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("users.Count"); err != nil {
		return 0, err
	}
	return int64(len(r.s.users)), nil
}

type memAccounts struct{ s *memStore }

func (r memAccounts) Create(ctx context.Context, a *models.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("accounts.Create"); err != nil {
		return err
	}
	for _, x := range r.s.accounts {
		if x.Provider == a.Provider && x.ProviderAccountID == a.ProviderAccountID {
			return common.ErrorAlreadyExists
		}
	}
	c := *a
	c.ID = uuid.NewString()
	r.s.accounts = append(r.s.accounts, c)
	return nil
}

func (r memAccounts) FindByProvider(ctx context.Context, provider, id string) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("accounts.FindByProvider"); err != nil {
		return nil, err
	}
	for _, a := range r.s.accounts {
		if a.Provider == provider && a.ProviderAccountID == id {
			c := a
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memAccounts) ListByUser(ctx context.Context, userID string) ([]models.AccountSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("accounts.ListByUser"); err != nil {
		return nil, err
	}
	out := []models.AccountSummary{}
	for _, a := range r.s.accounts {
		if a.UserID == userID {
			out = append(out, models.AccountSummary{Provider: a.Provider, Type: a.Type})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Provider < out[j].Provider })
	return out, nil
}

type memVerificationTokens struct{ s *memStore }

func (r memVerificationTokens) Create(ctx context.Context, identifier, token string, expires time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("vtokens.Create"); err != nil {
		return err
	}
	r.s.vtokens[token] = models.VerificationToken{Identifier: identifier, Token: token, Expires: expires}
	return nil
}

func (r memVerificationTokens) Find(ctx context.Context, token string) (*models.VerificationToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("vtokens.Find"); err != nil {
		return nil, err
	}
	t, ok := r.s.vtokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (r memVerificationTokens) Delete(ctx context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("vtokens.Delete"); err != nil {
		return err
	}
	delete(r.s.vtokens, token)
	return nil
}

func (r memVerificationTokens) Consume(ctx context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("vtokens.Consume"); err != nil {
		return err
	}
	if _, ok := r.s.vtokens[token]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.vtokens, token)
	return nil
}

func (r memVerificationTokens) DeleteByIdentifier(ctx context.Context, identifier string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("vtokens.DeleteByIdentifier"); err != nil {
		return err
	}
	for k, t := range r.s.vtokens {
		if t.Identifier == identifier {
			delete(r.s.vtokens, k)
		}
	}
	return nil
}

type memResets struct{ s *memStore }

func (r memResets) Upsert(ctx context.Context, email, token string, expires time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("resets.Upsert"); err != nil {
		return err
	}
	for k, t := range r.s.resets {
		if t.Email == email {
			delete(r.s.resets, k)
		}
	}
	r.s.resets[token] = models.PasswordResetToken{ID: uuid.NewString(), Email: email, Token: token, Expires: expires, CreatedAt: time.Now()}
	return nil
}

func (r memResets) Find(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("resets.Find"); err != nil {
		return nil, err
	}
	t, ok := r.s.resets[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (r memResets) Delete(ctx context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("resets.Delete"); err != nil {
		return err
	}
	delete(r.s.resets, token)
	return nil
}

func (r memResets) Consume(ctx context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("resets.Consume"); err != nil {
		return err
	}
	if _, ok := r.s.resets[token]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.resets, token)
	return nil
}

func (r memResets) DeleteByEmail(ctx context.Context, email string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("resets.DeleteByEmail"); err != nil {
		return err
	}
	for k, t := range r.s.resets {
		if t.Email == email {
			delete(r.s.resets, k)
		}
	}
	return nil
}

type memRefresh struct{ s *memStore }

func (r memRefresh) Create(ctx context.Context, userID, token string, validity time.Duration) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("refresh.Create"); err != nil {
		return err
	}
	r.s.refresh[token] = models.RefreshToken{ID: uuid.NewString(), UserID: userID, Token: token, Expires: time.Now().Add(validity)}
	return nil
}

func (r memRefresh) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("refresh.Find"); err != nil {
		return nil, err
	}
	t, ok := r.s.refresh[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (r memRefresh) Delete(ctx context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("refresh.Delete"); err != nil {
		return err
	}
	delete(r.s.refresh, token)
	return nil
}

func (r memRefresh) Consume(ctx context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("refresh.Consume"); err != nil {
		return err
	}
	if _, ok := r.s.refresh[token]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.refresh, token)
	return nil
}

func (r memRefresh) DeleteByUser(ctx context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("refresh.DeleteByUser"); err != nil {
		return err
	}
	for k, t := range r.s.refresh {
		if t.UserID == userID {
			delete(r.s.refresh, k)
		}
	}
	return nil
}
