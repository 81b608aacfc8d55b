package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/notesnap/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// OAuthState is carried between the provider redirect and its callback in
// a signed cookie. Nonce is also sent to the provider as the state parameter.
type OAuthState struct {
	Provider string
	Verifier string
	Nonce    string
}

type stateClaims struct {
	jwt.RegisteredClaims
	Provider string `json:"p"`
	Verifier string `json:"v"`
	Nonce    string `json:"n"`
}

// NewOAuthState creates a state with a fresh PKCE verifier and nonce and
// returns it with its signed cookie form.
func NewOAuthState(provider string, secretKey []byte, validity time.Duration) (*OAuthState, string, error) {
	nonce, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, "", err
	}

	st := &OAuthState{
		Provider: provider,
		Verifier: oauth2.GenerateVerifier(),
		Nonce:    nonce,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, stateClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validity)),
		},
		Provider: st.Provider,
		Verifier: st.Verifier,
		Nonce:    st.Nonce,
	})

	signed, err := token.SignedString(secretKey)
	if err != nil {
		return nil, "", err
	}
	return st, signed, nil
}

// ParseOAuthState verifies a state cookie. Expired cookies yield
// common.ErrTokenExpired, anything else common.ErrInvalidToken.
func ParseOAuthState(cookie string, secretKey []byte) (*OAuthState, error) {
	claims := &stateClaims{}

	_, err := jwt.ParseWithClaims(cookie, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if claims.Provider == "" || claims.Verifier == "" || claims.Nonce == "" {
		return nil, common.ErrInvalidToken
	}

	return &OAuthState{Provider: claims.Provider, Verifier: claims.Verifier, Nonce: claims.Nonce}, nil
}
