package users_test

import (
	"encoding/json"
	"testing"

	portalerrors "github.com/jrsteele09/go-partner-portal/internal/errors"
	"github.com/jrsteele09/go-partner-portal/users"
	"github.com/stretchr/testify/require"
)

func TestDeriveRole(t *testing.T) {
	tests := []struct {
		name        string
		isSuperuser bool
		isStaff     bool
		want        users.RoleType
	}{
		{"superuser and staff", true, true, users.RoleAdmin},
		{"superuser only", true, false, users.RoleAdmin},
		{"staff only", false, true, users.RoleTeamMember},
		{"neither", false, false, users.RolePartner},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, users.DeriveRole(tt.isSuperuser, tt.isStaff))
		})
	}
}

func TestNewProfile_FromBackendJSON(t *testing.T) {
	var u users.User
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"email":"a@x.com","is_staff":false,"is_superuser":false}`), &u))

	p := users.NewProfile(u)
	require.Equal(t, users.RolePartner, p.Role)
	require.False(t, p.IsActive)
	require.Equal(t, "a@x.com", p.FullName())

	out, err := json.Marshal(p)
	require.NoError(t, err)
	require.JSONEq(t, `{"id":1,"email":"a@x.com","is_staff":false,"is_superuser":false,"role":"partner","is_active":false}`, string(out))
}

func TestNewProfile_PartnerStatus(t *testing.T) {
	u := users.User{ID: 2, Email: "p@x.com", FirstName: "Pat", LastName: "Lee", Partner: &users.Partner{ID: 9, CompanyName: "Acme", Status: "Active"}}
	p := users.NewProfile(u)
	require.True(t, p.IsActive)
	require.Equal(t, "Pat Lee", p.FullName())

	u.Partner.Status = "pending"
	require.False(t, users.NewProfile(u).IsActive)
}

func TestRegistration_Validate(t *testing.T) {
	valid := users.Registration{Email: "a@x.com", Password: "secret123456", PasswordConfirm: "secret123456"}
	require.NoError(t, valid.Validate())

	bad := valid
	bad.Email = "not-an-email"
	require.ErrorIs(t, bad.Validate(), portalerrors.ErrInvalidEmail)

	bad = valid
	bad.Password, bad.PasswordConfirm = "", ""
	require.ErrorIs(t, bad.Validate(), portalerrors.ErrPasswordMissing)

	bad = valid
	bad.PasswordConfirm = "different123"
	require.ErrorIs(t, bad.Validate(), portalerrors.ErrPasswordsDiffer)

	bad = valid
	bad.Password, bad.PasswordConfirm = "short", ""
	require.ErrorContains(t, bad.Validate(), "at least 8 characters")

	bad.Password = "1234567890"
	require.ErrorContains(t, bad.Validate(), "entirely numeric")
}
