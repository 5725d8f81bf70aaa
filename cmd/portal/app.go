package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/jrsteele09/go-partner-portal/apiclient"
	"github.com/jrsteele09/go-partner-portal/internal/config"
	"github.com/jrsteele09/go-partner-portal/preferences"
	"github.com/jrsteele09/go-partner-portal/resources"
	"github.com/jrsteele09/go-partner-portal/session"
	"github.com/jrsteele09/go-partner-portal/storage"
	"github.com/jrsteele09/go-partner-portal/storage/filestore"
	"github.com/jrsteele09/go-partner-portal/storage/memory"
	"github.com/jrsteele09/go-partner-portal/storage/redisstore"
	"github.com/jrsteele09/go-partner-portal/tokens"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// app is everything a command needs, wired from configuration.
type app struct {
	in       io.Reader
	out      io.Writer
	store    storage.Store
	closers  []func() error
	tokens   *tokens.Store
	prefs    *preferences.Preferences
	client   *apiclient.Client
	session  *session.Provider
	portal   *resources.Portal
	registry *prometheus.Registry
}

func newApp(ctx context.Context, cfg config.Config, out io.Writer) (*app, error) {
	a := &app{in: os.Stdin, out: out, registry: prometheus.NewRegistry()}

	store, closer, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.store = store
	if closer != nil {
		a.closers = append(a.closers, closer)
	}

	a.tokens = tokens.NewStore(store)
	a.prefs = preferences.New(store)
	a.client, err = apiclient.New(cfg.GetBaseURL(), a.tokens,
		apiclient.WithHTTPClient(&http.Client{Timeout: cfg.GetRequestTimeout()}),
		apiclient.WithUserAgent(cfg.GetUserAgent()),
		apiclient.WithLocale(a.prefs.Locale),
		apiclient.WithMetrics(a.registry),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.session = session.New(a.client, a.tokens)
	a.portal = resources.New(a.client)
	return a, nil
}

func openStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, func() error, error) {
	switch cfg.GetStoreDriver() {
	case config.StoreDriverRedis:
		s, err := redisstore.Open(ctx, cfg.GetRedisURL(), cfg.GetStoreNamespace())
		if err != nil {
			return nil, nil, fmt.Errorf("open redis store: %w", err)
		}
		return s, s.Close, nil
	case config.StoreDriverMemory:
		return memory.New(), nil, nil
	default:
		return filestore.New(cfg.GetStorePath()), nil, nil
	}
}

// Close logs the request counters and releases the store.
func (a *app) Close() {
	a.logMetrics()
	for _, closer := range a.closers {
		if err := closer(); err != nil {
			log.Err(err).Msg("failed to close store")
		}
	}
}

func (a *app) logMetrics() {
	families, err := a.registry.Gather()
	if err != nil {
		log.Err(err).Msg("failed to gather metrics")
		return
	}
	for _, family := range families {
		for _, m := range family.GetMetric() {
			event := log.Debug().Str("metric", family.GetName()).Float64("value", m.GetCounter().GetValue())
			for _, label := range m.GetLabel() {
				event = event.Str(label.GetName(), label.GetValue())
			}
			event.Msg("api metrics")
		}
	}
}
