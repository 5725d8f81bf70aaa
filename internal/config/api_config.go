package config

import (
	"strings"
	"time"
)

const (
	baseURLVar   = "API_BASE_URL"
	timeoutVar   = "API_TIMEOUT"
	userAgentVar = "API_USER_AGENT"
)

type API struct{}

var _ APIConfig = API{}

// GetBaseURL returns the backend root without a trailing slash (e.g. "https://api.example.com")
func (API) GetBaseURL() string {
	return strings.TrimRight(GetEnv(baseURLVar, "http://localhost:8000"), "/")
}

func (API) GetRequestTimeout() time.Duration {
	d, err := time.ParseDuration(GetEnv(timeoutVar, "30s"))
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

func (API) GetUserAgent() string {
	return GetEnv(userAgentVar, "go-partner-portal/1.0")
}
