package tokens

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// Expiry reads the exp claim of a JWT access token without verifying its
// signature. It is for diagnostics only; the backend remains the authority.
func Expiry(access string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(access, claims); err != nil {
		return time.Time{}, errors.Wrap(err, "[tokens.Expiry] ParseUnverified")
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, errors.Wrap(err, "[tokens.Expiry] exp claim")
	}
	if exp == nil {
		return time.Time{}, errors.New("[tokens.Expiry] token has no exp claim")
	}
	return exp.Time, nil
}

// OAuth2 wraps an access token as a bearer oauth2.Token. Expiry is filled in
// when the token is a readable JWT.
func OAuth2(access string) *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken: access,
		TokenType:   "Bearer",
	}
	if exp, err := Expiry(access); err == nil {
		tok.Expiry = exp
	}
	return tok
}
