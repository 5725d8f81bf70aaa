// Package preferences stores user preferences next to the session tokens.
package preferences

import (
	"context"
	"strings"

	portalerrors "github.com/jrsteele09/go-partner-portal/internal/errors"
	"github.com/jrsteele09/go-partner-portal/storage"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

// DefaultLocale is used until the user picks one.
const DefaultLocale = "en"

// Supported lists the locales the portal is translated into. SetLocale
// accepts any well-formed tag and stores the closest supported match.
var Supported = []language.Tag{
	language.English,
	language.German,
	language.French,
	language.Spanish,
	language.Italian,
	language.Portuguese,
}

var matcher = language.NewMatcher(Supported)

type Preferences struct {
	store  storage.Store
	logger zerolog.Logger
}

type Option func(*Preferences)

func WithLogger(logger zerolog.Logger) Option {
	return func(p *Preferences) {
		p.logger = logger
	}
}

func New(store storage.Store, options ...Option) *Preferences {
	p := &Preferences{
		store:  store,
		logger: log.Logger,
	}
	for _, opt := range options {
		opt(p)
	}
	p.logger = p.logger.With().Str("component", "preferences").Logger()
	return p
}

// Locale returns the stored locale, or DefaultLocale when none is stored or
// the stored value is unreadable.
func (p *Preferences) Locale(ctx context.Context) string {
	v, ok, err := p.store.Get(ctx, storage.KeyLocale)
	if err != nil {
		p.logger.Err(err).Msg("locale read failed, using default")
		return DefaultLocale
	}
	if !ok || v == "" {
		return DefaultLocale
	}
	if _, err := language.Parse(v); err != nil {
		p.logger.Warn().Str("locale", v).Msg("stored locale is malformed, using default")
		return DefaultLocale
	}
	return v
}

// SetLocale validates tag, maps it onto a supported locale and stores it.
// It returns the stored value.
func (p *Preferences) SetLocale(ctx context.Context, tag string) (string, error) {
	locale, err := Normalize(tag)
	if err != nil {
		return "", err
	}
	if err := p.store.Set(ctx, map[string]string{storage.KeyLocale: locale}); err != nil {
		return "", errors.Wrap(err, "[Preferences.SetLocale]")
	}
	return locale, nil
}

// ResetLocale removes the stored locale.
func (p *Preferences) ResetLocale(ctx context.Context) error {
	if err := p.store.Delete(ctx, storage.KeyLocale); err != nil {
		return errors.Wrap(err, "[Preferences.ResetLocale]")
	}
	return nil
}

// Normalize parses tag and returns the base language of the closest
// supported locale.
func Normalize(tag string) (string, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return "", portalerrors.ErrInvalidLocale
	}
	parsed, err := language.Parse(tag)
	if err != nil {
		return "", portalerrors.Wrapf(portalerrors.ErrInvalidLocale, "%q", tag)
	}
	_, index, confidence := matcher.Match(parsed)
	if confidence == language.No {
		return "", portalerrors.Wrapf(portalerrors.ErrInvalidLocale, "%q is not supported", tag)
	}
	base, _ := Supported[index].Base()
	return base.String(), nil
}
