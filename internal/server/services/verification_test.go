package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/notesnap/internal/common"
	"github.com/dmitrijs2005/notesnap/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateVerificationToken_ReplacesPrevious(t *testing.T) {
	f := newFixture(t)
	f.store.vtokens["stale"] = models.VerificationToken{Identifier: "ann@example.com", Token: "stale", Expires: time.Now().Add(time.Hour)}
	f.store.vtokens["other"] = models.VerificationToken{Identifier: "bob@example.com", Token: "other", Expires: time.Now().Add(time.Hour)}
	f.expectTx(true)

	token, err := f.verification.GenerateVerificationToken(context.Background(), "ANN@example.com")
	require.NoError(t, err)

	assert.NotContains(t, f.store.vtokens, "stale")
	assert.Contains(t, f.store.vtokens, "other")
	assert.Equal(t, "ann@example.com", f.store.vtokens[token].Identifier)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestVerifyEmail(t *testing.T) {
	f := newFixture(t)
	f.addPasswordUser(t, "ann@example.com", "password123")
	f.store.vtokens["good"] = models.VerificationToken{Identifier: "ann@example.com", Token: "good", Expires: time.Now().Add(time.Hour)}
	f.expectTx(true)

	require.NoError(t, f.verification.VerifyEmail(context.Background(), "good"))

	assert.NotContains(t, f.store.vtokens, "good")
	ok, err := f.verification.IsEmailVerified(context.Background(), "ann@example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	err = f.verification.VerifyEmail(context.Background(), "good")
	assert.ErrorIs(t, err, ErrInvalidVerificationToken)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestVerifyEmail_Expired(t *testing.T) {
	f := newFixture(t)
	f.addPasswordUser(t, "ann@example.com", "password123")
	f.store.vtokens["old"] = models.VerificationToken{Identifier: "ann@example.com", Token: "old", Expires: time.Now().Add(-time.Second)}

	err := f.verification.VerifyEmail(context.Background(), "old")
	assert.ErrorIs(t, err, ErrVerificationTokenExpired)
	assert.NotContains(t, f.store.vtokens, "old")

	ok, err := f.verification.IsEmailVerified(context.Background(), "ann@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyEmail_FindError(t *testing.T) {
	f := newFixture(t)
	f.store.fail["vtokens.Find"] = errBoom

	err := f.verification.VerifyEmail(context.Background(), "x")
	assert.ErrorIs(t, err, errBoom)
}

func TestIsEmailVerified_UnknownUser(t *testing.T) {
	f := newFixture(t)

	ok, err := f.verification.IsEmailVerified(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResendVerification(t *testing.T) {
	f := newFixture(t)
	f.addPasswordUser(t, "ann@example.com", "password123")
	verified := time.Now()
	f.store.addUser(models.User{Email: "done@example.com", EmailVerified: &verified})

	_, err := f.verification.ResendVerification(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.verification.ResendVerification(context.Background(), "done@example.com")
	assert.ErrorIs(t, err, ErrEmailAlreadyVerified)

	f.expectTx(true)
	token, err := f.verification.ResendVerification(context.Background(), "Ann@example.com")
	require.NoError(t, err)
	assert.Contains(t, f.store.vtokens, token)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSendVerificationEmail(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.verification.SendVerificationEmail(context.Background(), "ann@example.com", "abc"))
	require.Len(t, f.mail.sent, 1)
	msg := f.mail.sent[0]
	assert.Equal(t, "ann@example.com", msg.To)
	assert.Equal(t, "http://app.test/verify-email?token=abc", msg.Link)
	assert.Contains(t, msg.Text, "24 hours")

	f.mail.err = errBoom
	err := f.verification.SendVerificationEmail(context.Background(), "ann@example.com", "abc")
	assert.ErrorIs(t, err, ErrMailDelivery)
	assert.ErrorIs(t, err, errBoom)
}

func TestVerifyEmail_TokenConsumedConcurrently(t *testing.T) {
	f := newFixture(t)
	f.addPasswordUser(t, "ann@example.com", "password123")
	f.store.vtokens["good"] = models.VerificationToken{Identifier: "ann@example.com", Token: "good", Expires: time.Now().Add(time.Hour)}
	f.store.fail["vtokens.Consume"] = common.ErrorNotFound
	f.expectTx(false)

	err := f.verification.VerifyEmail(context.Background(), "good")
	assert.ErrorIs(t, err, ErrInvalidVerificationToken)

	ok, err := f.verification.IsEmailVerified(context.Background(), "ann@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, f.mock.ExpectationsWereMet())
}
