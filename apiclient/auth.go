package apiclient

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-partner-portal/tokens"
	"github.com/jrsteele09/go-partner-portal/users"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a token pair and stores it.
func (c *Client) Login(ctx context.Context, email, password string) (tokens.Pair, error) {
	raw, err := c.Do(ctx, Request{
		Method:    http.MethodPost,
		Endpoint:  EndpointLogin,
		Body:      loginRequest{Email: email, Password: password},
		Anonymous: true,
	})
	if err != nil {
		return tokens.Pair{}, err
	}
	pair, err := Decode[tokens.Pair](raw)
	if err != nil {
		return tokens.Pair{}, err
	}
	if !pair.Valid() {
		return tokens.Pair{}, &RequestFailedError{Status: http.StatusOK, Message: "login response did not include a token pair"}
	}

	c.tokens.Set(ctx, pair.Access, pair.Refresh)
	return pair, nil
}

// Register creates a new partner account. It does not sign in.
func (c *Client) Register(ctx context.Context, registration users.Registration) error {
	_, err := c.Do(ctx, Request{
		Method:    http.MethodPost,
		Endpoint:  EndpointRegister,
		Body:      registration,
		Anonymous: true,
	})
	return err
}

// Me fetches the signed in user.
func (c *Client) Me(ctx context.Context) (users.User, error) {
	var u users.User
	if err := c.Get(ctx, EndpointMe, &u); err != nil {
		return users.User{}, err
	}
	return u, nil
}
