package fakebackend

import (
	"strings"
	"sync"

	portalerrors "github.com/jrsteele09/go-partner-portal/internal/errors"
	"github.com/jrsteele09/go-partner-portal/users"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

var errInvalidCredentials = errors.New("No active account found with the given credentials")

type account struct {
	user         users.User
	passwordHash []byte
}

// accountRepo holds registered users keyed by id, with an email index.
type accountRepo struct {
	byID    map[int]*account
	byEmail map[string]int
	nextID  int
	cost    int
	lock    sync.RWMutex
}

func newAccountRepo(cost int) *accountRepo {
	return &accountRepo{
		byID:    make(map[int]*account),
		byEmail: make(map[string]int),
		nextID:  1,
		cost:    cost,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create stores u with a hashed password and returns it with its assigned id.
func (ar *accountRepo) Create(u users.User, password string) (users.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), ar.cost)
	if err != nil {
		return users.User{}, errors.Wrap(err, "[accountRepo.Create] hash password")
	}

	ar.lock.Lock()
	defer ar.lock.Unlock()

	email := normalizeEmail(u.Email)
	if _, exists := ar.byEmail[email]; exists {
		return users.User{}, errors.New("A user with that email already exists.")
	}

	u.ID = ar.nextID
	u.Email = email
	if u.Partner != nil {
		p := *u.Partner
		if p.ID == 0 {
			p.ID = u.ID
		}
		u.Partner = &p
	}
	ar.nextID++
	ar.byID[u.ID] = &account{user: u, passwordHash: hash}
	ar.byEmail[email] = u.ID
	return u, nil
}

// Authenticate returns the user owning email when password matches.
func (ar *accountRepo) Authenticate(email, password string) (users.User, error) {
	ar.lock.RLock()
	defer ar.lock.RUnlock()

	id, ok := ar.byEmail[normalizeEmail(email)]
	if !ok {
		return users.User{}, errInvalidCredentials
	}
	acc := ar.byID[id]
	if err := bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(password)); err != nil {
		return users.User{}, errInvalidCredentials
	}
	return acc.user, nil
}

func (ar *accountRepo) Get(id int) (users.User, error) {
	ar.lock.RLock()
	defer ar.lock.RUnlock()

	acc, ok := ar.byID[id]
	if !ok {
		return users.User{}, portalerrors.ErrNotFound
	}
	return acc.user, nil
}

// Update applies fn to the stored user.
func (ar *accountRepo) Update(id int, fn func(*users.User)) (users.User, error) {
	ar.lock.Lock()
	defer ar.lock.Unlock()

	acc, ok := ar.byID[id]
	if !ok {
		return users.User{}, portalerrors.ErrNotFound
	}
	fn(&acc.user)
	return acc.user, nil
}
