package fakebackend

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// accessClaims mirrors the claims of the backend's access tokens.
type accessClaims struct {
	TokenType string `json:"token_type"`
	UserID    int    `json:"user_id"`
	jwt.RegisteredClaims
}

// accessTokenIssuer signs HS256 access tokens and tracks which ones were
// revoked.
type accessTokenIssuer struct {
	secret  []byte
	ttl     time.Duration
	now     func() time.Time
	issued  map[string]struct{}
	revoked map[string]struct{}
	lock    sync.Mutex
}

func newAccessTokenIssuer(secret string, ttl time.Duration, now func() time.Time) *accessTokenIssuer {
	return &accessTokenIssuer{
		secret:  []byte(secret),
		ttl:     ttl,
		now:     now,
		issued:  make(map[string]struct{}),
		revoked: make(map[string]struct{}),
	}
}

func (a *accessTokenIssuer) Issue(userID int) (string, error) {
	now := a.now()
	claims := accessClaims{
		TokenType: "access",
		UserID:    userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			ID:        uuid.New().String(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token with HMAC")
	}

	a.lock.Lock()
	a.issued[claims.ID] = struct{}{}
	a.lock.Unlock()
	return signed, nil
}

// Verify returns the user id carried by a valid, unrevoked access token.
func (a *accessTokenIssuer) Verify(token string) (int, error) {
	claims := &accessClaims{}
	_, err := jwt.ParseWithClaims(token, claims, a.verificationKey,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return 0, errors.Wrap(err, "invalid access token")
	}
	if claims.TokenType != "access" {
		return 0, errors.New("token is not an access token")
	}

	a.lock.Lock()
	_, revoked := a.revoked[claims.ID]
	a.lock.Unlock()
	if revoked {
		return 0, errors.New("token has been revoked")
	}
	return claims.UserID, nil
}

// RevokeAll invalidates every access token issued so far.
func (a *accessTokenIssuer) RevokeAll() {
	a.lock.Lock()
	defer a.lock.Unlock()

	for jti := range a.issued {
		a.revoked[jti] = struct{}{}
	}
	a.issued = make(map[string]struct{})
}

func (a *accessTokenIssuer) verificationKey(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return a.secret, nil
}
