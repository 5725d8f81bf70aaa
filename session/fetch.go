package session

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-partner-portal/apiclient"
	"github.com/jrsteele09/go-partner-portal/users"
)

type fetchKind int

const (
	fetchOK fetchKind = iota
	fetchUnauthorized
	fetchFailed
)

// fetchResult is the outcome of a profile load. profile is set for fetchOK,
// failure for everything else.
type fetchResult struct {
	kind    fetchKind
	profile users.Profile
	failure error
}

func (p *Provider) fetchProfile(ctx context.Context) fetchResult {
	u, err := p.api.Me(ctx)
	if err != nil {
		kind := fetchFailed
		if apiclient.Classify(err) == apiclient.FailureSessionExpired || apiclient.Status(err) == http.StatusUnauthorized {
			kind = fetchUnauthorized
		}
		return fetchResult{kind: kind, failure: err}
	}

	profile := users.NewProfile(u)
	p.logger.Debug().Int("user_id", u.ID).Str("role", string(profile.Role)).Bool("active", profile.IsActive).
		Msg("profile loaded")
	return fetchResult{kind: fetchOK, profile: profile}
}
