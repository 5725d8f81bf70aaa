package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jrsteele09/go-partner-portal/fakebackend"
	"github.com/jrsteele09/go-partner-portal/internal/config"
	"github.com/jrsteele09/go-partner-portal/users"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// runDevServer serves the in-process backend until ctx is cancelled.
func runDevServer(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("devserver", flag.ContinueOnError)
	addr := fs.String("addr", cfg.GetDevPort(), "listen address")
	email := fs.String("seed-email", "partner@example.com", "email of the seeded partner account")
	password := fs.String("seed-password", "partner-password", "password of the seeded partner account")
	accessTTL := fs.Duration("access-ttl", 5*time.Minute, "access token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}

	backend := fakebackend.New(fakebackend.WithAccessTokenTTL(*accessTTL))
	seeded, err := backend.SeedUser(users.User{
		Email:     *email,
		FirstName: "Demo",
		LastName:  "Partner",
		Partner:   &users.Partner{CompanyName: "Demo Partner Ltd", ContactName: "Demo Partner", Status: users.PartnerStatusActive},
	}, *password)
	if err != nil {
		return err
	}
	if _, err := backend.SeedUser(users.User{Email: "admin@example.com", IsStaff: true, IsSuperuser: true}, *password); err != nil {
		return err
	}
	log.Info().Str("email", seeded.Email).Msg("seeded partner account")

	if cfg.GetEnv() == "DEV" {
		if err := backend.LogRoutes(os.Stdout); err != nil {
			return err
		}
	}

	registry := prometheus.NewRegistry()
	if err := backend.RegisterMetrics(registry); err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.Handle("/", backend)

	server := &http.Server{Addr: *addr, Handler: mux}
	errs := make(chan error, 1)
	go func() {
		errs <- listenAndServe(server)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}
	return shutdown(server)
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("dev backend listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	log.Info().Msg("dev backend stopped")
	return nil
}
