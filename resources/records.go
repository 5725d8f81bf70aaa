package resources

import (
	"github.com/jrsteele09/go-partner-portal/users"
)

type Applicant struct {
	ID        int    `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Status    string `json:"status,omitempty"`
	Partner   int    `json:"partner,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

type Document struct {
	ID          int    `json:"id"`
	Applicant   int    `json:"applicant"`
	Name        string `json:"name"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size,omitempty"`
	UploadedBy  int    `json:"uploaded_by,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

type Payment struct {
	ID        int     `json:"id"`
	Partner   int     `json:"partner,omitempty"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency,omitempty"`
	Status    string  `json:"status,omitempty"`
	Reference string  `json:"reference,omitempty"`
	PaidAt    *string `json:"paid_at,omitempty"`
	CreatedAt string  `json:"created_at,omitempty"`
}

type Commission struct {
	ID        int     `json:"id"`
	Partner   int     `json:"partner,omitempty"`
	Applicant int     `json:"applicant,omitempty"`
	Amount    float64 `json:"amount"`
	Rate      float64 `json:"rate,omitempty"`
	Status    string  `json:"status,omitempty"`
	CreatedAt string  `json:"created_at,omitempty"`
}

type Ticket struct {
	ID          int    `json:"id"`
	Subject     string `json:"subject"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	Priority    string `json:"priority,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

type Report struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Kind      string `json:"kind,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

type Referral struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Status    string `json:"status,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

type Workflow struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Stage     string `json:"stage,omitempty"`
	Applicant int    `json:"applicant,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Partner is the partner organisation record.
type Partner = users.Partner
