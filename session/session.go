// Package session holds the signed in user for the lifetime of the process.
//
// A Provider starts in StateLoading, settles into StateAuthenticated or
// StateUnauthenticated once Init has looked at the token store, and moves
// between the two on SignIn, SignUp, SignOut and session expiry.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/jrsteele09/go-partner-portal/apiclient"
	"github.com/jrsteele09/go-partner-portal/tokens"
	"github.com/jrsteele09/go-partner-portal/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrSuperseded is returned by SignIn when SignOut or another sign in ran
// before it finished. Its result has been discarded.
var ErrSuperseded = errors.New("sign in superseded")

type State int

const (
	StateLoading State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// API is the part of the API client the session needs.
type API interface {
	Login(ctx context.Context, email, password string) (tokens.Pair, error)
	Register(ctx context.Context, registration users.Registration) error
	Me(ctx context.Context) (users.User, error)
}

var _ API = (*apiclient.Client)(nil)

// TokenStore is the part of the token store the session needs.
type TokenStore interface {
	Access(ctx context.Context) (string, bool)
	Clear(ctx context.Context)
	ClearIf(ctx context.Context, pair tokens.Pair) bool
}

var _ TokenStore = (*tokens.Store)(nil)

// Snapshot is a copy of the session state.
type Snapshot struct {
	State   State
	User    *users.User
	Profile *users.Profile
	Loading bool
}

type subscriber struct {
	id int
	fn func(Snapshot)
}

type Provider struct {
	api    API
	tokens TokenStore
	logger zerolog.Logger

	mu         sync.Mutex
	state      State
	profile    *users.Profile
	generation uint64

	subscribers []subscriber
	nextSubID   int
}

type Option func(*Provider)

func WithLogger(logger zerolog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

func New(api API, store TokenStore, options ...Option) *Provider {
	p := &Provider{
		api:    api,
		tokens: store,
		logger: log.Logger,
		state:  StateLoading,
	}
	for _, opt := range options {
		opt(p)
	}
	p.logger = p.logger.With().Str("component", "session").Logger()
	return p
}

// Init resolves the initial state from the token store. Without a stored
// access token no request is made. Any failure to load the profile ends the
// session.
func (p *Provider) Init(ctx context.Context) {
	gen := p.begin(true)

	if _, ok := p.tokens.Access(ctx); !ok {
		p.settle(gen, nil)
		return
	}

	res := p.fetchProfile(ctx)
	switch res.kind {
	case fetchOK:
		p.settle(gen, &res.profile)
	default:
		p.logger.Info().Err(res.failure).Msg("stored session could not be restored")
		if p.settle(gen, nil) {
			p.tokens.Clear(ctx)
		}
	}
}

// SignIn logs in and loads the profile. Failures are returned and leave the
// provider unauthenticated.
func (p *Provider) SignIn(ctx context.Context, email, password string) error {
	gen := p.begin(false)

	pair, err := p.api.Login(ctx, email, password)
	if err != nil {
		if p.Snapshot().State != StateAuthenticated {
			p.settle(gen, nil)
		}
		return err
	}
	if !p.current(gen) {
		return p.discardLogin(ctx, pair)
	}

	res := p.fetchProfile(ctx)
	if res.kind != fetchOK {
		if !p.settle(gen, nil) {
			return p.discardLogin(ctx, pair)
		}
		p.tokens.Clear(ctx)
		return res.failure
	}
	if !p.settle(gen, &res.profile) {
		return p.discardLogin(ctx, pair)
	}
	return nil
}

// discardLogin drops the pair a superseded sign in stored, unless a later
// sign in has already replaced it.
func (p *Provider) discardLogin(ctx context.Context, pair tokens.Pair) error {
	if p.tokens.ClearIf(ctx, pair) {
		p.logger.Info().Msg("discarded tokens of superseded sign in")
	}
	return ErrSuperseded
}

// SignUp validates the registration, creates the account and signs in with
// the same credentials. Registration failures leave the state untouched.
func (p *Provider) SignUp(ctx context.Context, registration users.Registration) error {
	if err := registration.Validate(); err != nil {
		return err
	}
	if err := p.api.Register(ctx, registration); err != nil {
		return err
	}
	return p.SignIn(ctx, registration.Email, registration.Password)
}

// SignOut clears the session synchronously. Profile loads still in flight are
// discarded when they complete.
func (p *Provider) SignOut(ctx context.Context) {
	p.mu.Lock()
	p.generation++
	p.state = StateUnauthenticated
	p.profile = nil
	snap := p.snapshotLocked()
	p.mu.Unlock()

	p.tokens.Clear(ctx)
	p.logger.Info().Msg("signed out")
	p.publish(snap)
}

// RefreshProfile reloads the profile without passing through StateLoading.
// An expired session signs the user out; other failures keep the current
// state.
func (p *Provider) RefreshProfile(ctx context.Context) error {
	p.mu.Lock()
	gen := p.generation
	p.mu.Unlock()

	res := p.fetchProfile(ctx)
	switch res.kind {
	case fetchOK:
		p.settle(gen, &res.profile)
		return nil
	case fetchUnauthorized:
		if p.settle(gen, nil) {
			p.tokens.Clear(ctx)
		}
		return res.failure
	default:
		p.logger.Warn().Err(res.failure).Msg("profile refresh failed")
		return res.failure
	}
}

// Snapshot returns the current state.
func (p *Provider) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// Subscribe registers fn to receive every state change. fn is called outside
// the provider's lock. The returned function removes the subscription.
func (p *Provider) Subscribe(fn func(Snapshot)) (cancel func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextSubID
	p.nextSubID++
	p.subscribers = append(p.subscribers, subscriber{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			for i, s := range p.subscribers {
				if s.id == id {
					p.subscribers = append(p.subscribers[:i:i], p.subscribers[i+1:]...)
					return
				}
			}
		})
	}
}

// begin starts a new operation and returns its generation.
func (p *Provider) begin(loading bool) uint64 {
	p.mu.Lock()
	p.generation++
	gen := p.generation
	changed := loading && p.state != StateLoading
	if loading {
		p.state = StateLoading
		p.profile = nil
	}
	snap := p.snapshotLocked()
	p.mu.Unlock()

	if changed {
		p.publish(snap)
	}
	return gen
}

// current reports whether gen is still the latest operation.
func (p *Provider) current(gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return gen == p.generation
}

// settle applies the outcome of the operation started at gen. A nil profile
// means unauthenticated. It reports false when a newer operation has started,
// in which case nothing changes.
func (p *Provider) settle(gen uint64, profile *users.Profile) bool {
	p.mu.Lock()
	if gen != p.generation {
		p.mu.Unlock()
		p.logger.Debug().Uint64("generation", gen).Msg("discarding stale session result")
		return false
	}
	if profile != nil {
		p.state = StateAuthenticated
		p.profile = profile
	} else {
		p.state = StateUnauthenticated
		p.profile = nil
	}
	snap := p.snapshotLocked()
	p.mu.Unlock()

	p.publish(snap)
	return true
}

func (p *Provider) snapshotLocked() Snapshot {
	snap := Snapshot{State: p.state, Loading: p.state == StateLoading}
	if p.profile != nil {
		profile := *p.profile
		user := profile.User
		snap.Profile = &profile
		snap.User = &user
	}
	return snap
}

func (p *Provider) publish(snap Snapshot) {
	p.mu.Lock()
	subs := make([]subscriber, len(p.subscribers))
	copy(subs, p.subscribers)
	p.mu.Unlock()

	for _, s := range subs {
		s.fn(snap)
	}
}
