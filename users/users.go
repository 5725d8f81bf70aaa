package users

import (
	"net/mail"
	"strings"
	"unicode"

	portalerrors "github.com/jrsteele09/go-partner-portal/internal/errors"
	"github.com/pkg/errors"
)

// RoleType is the portal a signed in user is routed to
type RoleType string

const (
	RoleAdmin      RoleType = "admin"       // Superusers, full back office
	RoleTeamMember RoleType = "team_member" // Staff accounts working partner queues
	RolePartner    RoleType = "partner"     // Everyone else
)

// PartnerStatusActive is the partner status that unlocks the partner portal.
const PartnerStatusActive = "active"

// Partner is the partner organisation attached to a user account
type Partner struct {
	ID          int    `json:"id"`
	CompanyName string `json:"company_name"`
	ContactName string `json:"contact_name"`
	Status      string `json:"status"`
}

// User is the record served by GET /api/auth/me/
type User struct {
	ID          int      `json:"id"`
	Email       string   `json:"email"`
	FirstName   string   `json:"first_name,omitempty"`
	LastName    string   `json:"last_name,omitempty"`
	IsStaff     bool     `json:"is_staff"`
	IsSuperuser bool     `json:"is_superuser"`
	Partner     *Partner `json:"partner,omitempty"`
}

// Profile is the user plus everything the UI derives from it
type Profile struct {
	User
	Role     RoleType `json:"role"`
	IsActive bool     `json:"is_active"`
}

// DeriveRole maps the account flags to a role. The superuser flag is checked first.
func DeriveRole(isSuperuser, isStaff bool) RoleType {
	switch {
	case isSuperuser:
		return RoleAdmin
	case isStaff:
		return RoleTeamMember
	default:
		return RolePartner
	}
}

// Role returns the user's derived role
func (u User) Role() RoleType {
	return DeriveRole(u.IsSuperuser, u.IsStaff)
}

// FullName joins first and last name, falling back to the email address.
func (u User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// NewProfile builds a fresh profile from a user record.
func NewProfile(u User) Profile {
	return Profile{
		User:     u,
		Role:     u.Role(),
		IsActive: u.Partner != nil && strings.EqualFold(u.Partner.Status, PartnerStatusActive),
	}
}

// Registration is the body of POST /api/auth/register/
type Registration struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	FirstName       string `json:"first_name,omitempty"`
	LastName        string `json:"last_name,omitempty"`
	CompanyName     string `json:"company_name,omitempty"`
	ContactName     string `json:"contact_name,omitempty"`
	Phone           string `json:"phone,omitempty"`
}

// Validate runs the checks the backend would otherwise reject the form for.
func (r Registration) Validate() error {
	if _, err := mail.ParseAddress(strings.TrimSpace(r.Email)); err != nil {
		return portalerrors.ErrInvalidEmail
	}
	if r.Password == "" {
		return portalerrors.ErrPasswordMissing
	}
	if err := ValidatePasswordStrength(r.Password); err != nil {
		return err
	}
	if r.PasswordConfirm != "" && r.PasswordConfirm != r.Password {
		return portalerrors.ErrPasswordsDiffer
	}
	return nil
}

// ValidatePasswordStrength checks if password meets the backend's rules:
// - At least 8 characters long
// - Not entirely numeric
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters long")
	}

	for _, char := range password {
		if !unicode.IsDigit(char) {
			return nil
		}
	}
	return errors.New("password must not be entirely numeric")
}
