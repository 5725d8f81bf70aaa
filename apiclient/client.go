// Package apiclient is the single outbound path to the partner portal backend.
//
// Every call goes through Client.Do which attaches the stored access token,
// performs at most one silent token refresh and retry when the backend answers
// 401, and normalizes failures into ErrSessionExpired, *RequestFailedError and
// *NetworkError. Callers never handle tokens directly.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-partner-portal/internal/utils"
	"github.com/jrsteele09/go-partner-portal/tokens"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const (
	headerRequestID      = "X-Request-ID"
	headerAcceptLanguage = "Accept-Language"
	contentTypeJSON      = "application/json"
	defaultTimeout       = 30 * time.Second
)

// TokenStore is the subset of tokens.Store the client needs.
type TokenStore interface {
	Access(ctx context.Context) (string, bool)
	Refresh(ctx context.Context) (string, bool)
	Set(ctx context.Context, access, refresh string)
	ReplaceAccess(ctx context.Context, refresh, access string) bool
	Clear(ctx context.Context)
}

var _ TokenStore = (*tokens.Store)(nil)

// Request describes one outbound call.
type Request struct {
	Method   string
	Endpoint string // path relative to the base URL, or an absolute URL
	Query    url.Values
	Body     any // JSON encoded when non-nil
	Header   http.Header

	// Anonymous requests never carry the bearer token (login, register, refresh).
	// Absolute URLs on another origin than the base URL are always anonymous.
	Anonymous bool
}

// Client talks to the backend on behalf of the current session.
type Client struct {
	baseURL    string
	origin     *url.URL
	httpClient *http.Client
	tokens     TokenStore
	logger     zerolog.Logger
	userAgent  string
	locale     func(context.Context) string
	registerer prometheus.Registerer
	metrics    *metrics

	refreshGroup singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics registers the client's counters with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Client) {
		c.registerer = reg
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithLocale sets the source of the Accept-Language header.
func WithLocale(locale func(context.Context) string) Option {
	return func(c *Client) {
		c.locale = locale
	}
}

// New creates a client for the backend rooted at baseURL.
func New(baseURL string, store TokenStore, options ...Option) (*Client, error) {
	if store == nil {
		return nil, errors.New("[apiclient.New] token store is required")
	}
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, errors.Wrap(err, "[apiclient.New] base url")
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.Errorf("[apiclient.New] base url must be absolute http(s), got %q", baseURL)
	}

	c := &Client{
		baseURL:    strings.TrimRight(u.String(), "/"),
		origin:     &url.URL{Scheme: u.Scheme, Host: u.Host},
		httpClient: &http.Client{Timeout: defaultTimeout},
		tokens:     store,
		logger:     log.Logger,
	}
	for _, opt := range options {
		opt(c)
	}
	c.logger = c.logger.With().Str("component", "apiclient").Logger()

	if c.registerer != nil {
		if c.metrics, err = newMetrics(c.registerer); err != nil {
			return nil, errors.Wrap(err, "[apiclient.New] metrics")
		}
	}
	return c, nil
}

// BaseURL returns the backend root the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do performs req and returns the raw JSON body. A 204 response yields a nil
// body and a nil error.
func (c *Client) Do(ctx context.Context, req Request) (json.RawMessage, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}

	var payload []byte
	if req.Body != nil {
		var err error
		if payload, err = json.Marshal(req.Body); err != nil {
			return nil, errors.Wrap(err, "[Client.Do] encode body")
		}
	}

	build := func(ctx context.Context) (*http.Request, error) {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		r, err := http.NewRequestWithContext(ctx, req.Method, c.url(req.Endpoint, req.Query), body)
		if err != nil {
			return nil, err
		}
		copyHeader(r.Header, req.Header)
		if payload != nil {
			r.Header.Set("Content-Type", contentTypeJSON)
		}
		return r, nil
	}

	res, err := c.execute(ctx, build, !req.Anonymous, true)
	if err != nil {
		return nil, err
	}
	return res.result()
}

// Get decodes the JSON response of a GET into out (which may be nil).
func (c *Client) Get(ctx context.Context, endpoint string, out any) error {
	return c.call(ctx, Request{Method: http.MethodGet, Endpoint: endpoint}, out)
}

func (c *Client) Post(ctx context.Context, endpoint string, body, out any) error {
	return c.call(ctx, Request{Method: http.MethodPost, Endpoint: endpoint, Body: body}, out)
}

func (c *Client) Put(ctx context.Context, endpoint string, body, out any) error {
	return c.call(ctx, Request{Method: http.MethodPut, Endpoint: endpoint, Body: body}, out)
}

func (c *Client) Patch(ctx context.Context, endpoint string, body, out any) error {
	return c.call(ctx, Request{Method: http.MethodPatch, Endpoint: endpoint, Body: body}, out)
}

func (c *Client) Delete(ctx context.Context, endpoint string) error {
	return c.call(ctx, Request{Method: http.MethodDelete, Endpoint: endpoint}, nil)
}

func (c *Client) call(ctx context.Context, req Request, out any) error {
	raw, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return decodeInto(raw, out)
}

// Decode unmarshals a raw response into T.
func Decode[T any](raw json.RawMessage) (T, error) {
	var v T
	err := decodeInto(raw, &v)
	return v, err
}

func decodeInto(raw json.RawMessage, out any) error {
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrap(err, "[apiclient] decode response")
	}
	return nil
}

type requestBuilder func(ctx context.Context) (*http.Request, error)

// response is a fully read HTTP response.
type response struct {
	status int
	header http.Header
	body   []byte

	authenticated bool // the request carried a bearer token
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

// result applies the status rules shared by every call.
func (r *response) result() (json.RawMessage, error) {
	if r.status == http.StatusNoContent {
		return nil, nil
	}
	if !r.ok() {
		return nil, &RequestFailedError{Status: r.status, Message: failureMessage(r.status, r.body)}
	}
	if len(bytes.TrimSpace(r.body)) == 0 {
		return nil, nil
	}
	return json.RawMessage(r.body), nil
}

// execute sends a request and, when allowed, runs the refresh-and-retry-once
// sequence on a 401 that was answered to an authenticated request.
func (c *Client) execute(ctx context.Context, build requestBuilder, authenticate, retryUnauthorized bool) (*response, error) {
	var access string
	if authenticate {
		access, _ = c.tokens.Access(ctx)
	}

	res, err := c.send(ctx, build, access)
	if err != nil {
		return nil, err
	}
	if res.status != http.StatusUnauthorized || !res.authenticated || !retryUnauthorized {
		return res, nil
	}

	c.logger.Debug().Msg("access token rejected, refreshing")
	fresh, err := c.refresh(ctx)
	if err != nil {
		return nil, err
	}

	res, err = c.send(ctx, build, fresh)
	if err != nil {
		return nil, err
	}
	if res.status == http.StatusUnauthorized {
		c.logger.Info().Msg("refreshed token rejected, ending session")
		c.tokens.Clear(ctx)
		return nil, ErrSessionExpired
	}
	return res, nil
}

func (c *Client) send(ctx context.Context, build requestBuilder, access string) (*response, error) {
	req, err := build(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.send] build request")
	}

	requestID := uuid.NewString()
	req.Header.Set(headerRequestID, requestID)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", contentTypeJSON)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.locale != nil {
		if lang := c.locale(ctx); lang != "" {
			req.Header.Set(headerAcceptLanguage, lang)
		}
	}
	authenticated := false
	if access != "" {
		if c.sameOrigin(req.URL) {
			tokens.OAuth2(access).SetAuthHeader(req)
			authenticated = true
		} else {
			c.logger.Warn().Str("request_id", requestID).Str("host", req.URL.Host).
				Msg("not sending credentials to a foreign origin")
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.request(req.Method, 0)
		c.logger.Warn().Err(err).Str("request_id", requestID).Str("method", req.Method).
			Str("path", req.URL.Path).Msg("request failed before a response")
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.request(req.Method, 0)
		return nil, &NetworkError{Err: errors.Wrap(err, "read body")}
	}

	c.metrics.request(req.Method, resp.StatusCode)
	c.logger.Debug().Str("request_id", requestID).Str("method", req.Method).Str("path", req.URL.Path).
		Int("status", resp.StatusCode).Dur("took", time.Since(start)).Msg("api request")

	return &response{status: resp.StatusCode, header: resp.Header, body: body, authenticated: authenticated}, nil
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access string `json:"access"`
}

// refresh exchanges the stored refresh token for a new access token. Callers
// racing on the same refresh token share a single backend call. Any failure
// clears the token store and yields ErrSessionExpired.
func (c *Client) refresh(ctx context.Context) (string, error) {
	refreshToken, ok := c.tokens.Refresh(ctx)
	if !ok {
		c.metrics.refresh("missing")
		c.tokens.Clear(ctx)
		return "", ErrSessionExpired
	}

	v, err, shared := c.refreshGroup.Do(refreshToken, func() (any, error) {
		return c.exchangeRefreshToken(context.WithoutCancel(ctx), refreshToken)
	})
	if shared {
		c.logger.Debug().Msg("joined in-flight token refresh")
	}
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) exchangeRefreshToken(ctx context.Context, refreshToken string) (string, error) {
	payload, err := json.Marshal(refreshRequest{Refresh: refreshToken})
	if err != nil {
		return "", errors.Wrap(err, "[Client.refresh] encode body")
	}
	build := func(ctx context.Context) (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(EndpointTokenRefresh, nil), bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		r.Header.Set("Content-Type", contentTypeJSON)
		return r, nil
	}

	fail := func(outcome string, cause error) (string, error) {
		c.metrics.refresh(outcome)
		c.logger.Info().Err(cause).Str("outcome", outcome).Msg("token refresh failed, ending session")
		c.tokens.Clear(ctx)
		return "", fmt.Errorf("%w: %v", ErrSessionExpired, cause)
	}

	res, err := c.send(ctx, build, "")
	if err != nil {
		return fail("network", err)
	}
	raw, err := res.result()
	if err != nil {
		return fail("rejected", err)
	}
	out, err := Decode[refreshResponse](raw)
	if err != nil {
		return fail("malformed", err)
	}
	if out.Access == "" {
		return fail("malformed", errors.New("refresh response has no access token"))
	}

	if !c.tokens.ReplaceAccess(ctx, refreshToken, out.Access) {
		// Signed out, or signed in again, while the refresh was in flight.
		c.metrics.refresh("superseded")
		c.logger.Info().Msg("session changed during token refresh, dropping new access token")
		return "", ErrSessionExpired
	}
	c.metrics.refresh("success")
	if exp, err := tokens.Expiry(out.Access); err == nil {
		c.logger.Debug().Time("expires", exp).Msg("access token refreshed")
	}
	return out.Access, nil
}

func (c *Client) url(endpoint string, query url.Values) string {
	var u string
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		u = endpoint
	} else {
		u = c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	}
	if len(query) == 0 {
		return u
	}
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + query.Encode()
}

// sameOrigin reports whether u points at the backend the client was created
// for. Only those requests may carry the bearer token.
func (c *Client) sameOrigin(u *url.URL) bool {
	return strings.EqualFold(u.Scheme, c.origin.Scheme) && strings.EqualFold(u.Host, c.origin.Host)
}

func copyHeader(dst, src http.Header) {
	for k, values := range src {
		for _, v := range values {
			dst.Add(k, v)
		}
	}
}

// failureMessage extracts the backend's reason for rejecting a request,
// falling back to the status text.
func failureMessage(status int, body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"detail", "message", "error", "non_field_errors"} {
			if msg := utils.FirstString(payload[key]); msg != "" {
				return msg
			}
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("request failed with status %d", status)
}
