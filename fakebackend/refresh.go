package fakebackend

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	portalerrors "github.com/jrsteele09/go-partner-portal/internal/errors"
)

// storedRefreshToken is the server side record behind an opaque refresh token.
type storedRefreshToken struct {
	Token  string
	UserID int
	Iat    time.Time
}

type refreshRepo struct {
	tokens  map[string]*storedRefreshToken
	userIDs map[int]string // user ID to token
	lock    sync.RWMutex
}

func newRefreshRepo() *refreshRepo {
	return &refreshRepo{
		tokens:  make(map[string]*storedRefreshToken),
		userIDs: make(map[int]string),
	}
}

func (rr *refreshRepo) Upsert(rt *storedRefreshToken) {
	rr.lock.Lock()
	defer rr.lock.Unlock()

	rr.tokens[rt.Token] = rt
	rr.userIDs[rt.UserID] = rt.Token
}

func (rr *refreshRepo) Delete(token string) {
	rr.lock.Lock()
	defer rr.lock.Unlock()

	rt, ok := rr.tokens[token]
	if !ok {
		return
	}
	if rr.userIDs[rt.UserID] == token {
		delete(rr.userIDs, rt.UserID)
	}
	delete(rr.tokens, token)
}

func (rr *refreshRepo) Get(token string) (*storedRefreshToken, error) {
	rr.lock.RLock()
	defer rr.lock.RUnlock()

	rt, ok := rr.tokens[token]
	if !ok {
		return nil, portalerrors.ErrNotFound
	}
	return rt, nil
}

func (rr *refreshRepo) GetByUserID(userID int) (*storedRefreshToken, error) {
	rr.lock.RLock()
	defer rr.lock.RUnlock()

	token, ok := rr.userIDs[userID]
	if !ok {
		return nil, portalerrors.ErrNotFound
	}
	return rr.tokens[token], nil
}

// refreshManager issues and validates refresh tokens. Each user holds a
// single refresh token; a new login replaces the previous one.
type refreshManager struct {
	repo   *refreshRepo
	length int
	ttl    time.Duration
	now    func() time.Time
}

func (m *refreshManager) Create(userID int) (*string, error) {
	if existing, err := m.repo.GetByUserID(userID); err == nil {
		m.repo.Delete(existing.Token)
	}

	tokenBytes := make([]byte, m.length)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}

	tokenStr := hex.EncodeToString(tokenBytes)
	m.repo.Upsert(&storedRefreshToken{
		Token:  tokenStr,
		UserID: userID,
		Iat:    m.now(),
	})
	return &tokenStr, nil
}

// Validate returns the record for token unless it is unknown or expired.
func (m *refreshManager) Validate(token string) (*storedRefreshToken, error) {
	rt, err := m.repo.Get(token)
	if err != nil {
		return nil, err
	}
	if m.now().Sub(rt.Iat) > m.ttl {
		m.repo.Delete(token)
		return nil, fmt.Errorf("refresh token expired: %w", portalerrors.ErrNotFound)
	}
	return rt, nil
}
