package core

// SessionRecord is the identity asserted by a signed session token.
//
// A record is only ever built by a successful login and is never mutated
// after issuance; a new login produces a new record.
type SessionRecord struct {
	UserID      string  `json:"userId"`
	Email       string  `json:"email"`
	DisplayName string  `json:"name"`
	ClientID    *string `json:"clientId"` // nil until the user is linked to a client
	Role        string  `json:"role,omitempty"`
}

// HasClient reports whether the session is linked to a client profile.
func (r *SessionRecord) HasClient() bool {
	return r != nil && r.ClientID != nil && *r.ClientID != ""
}

// FailureKind classifies a failed login for transport mapping.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureValidation
	FailureLookup
	FailureTransport
	FailureThrottled
)

// LoginResult is the outcome of a login attempt. It is never persisted.
type LoginResult struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	RedirectTo string      `json:"redirectTo,omitempty"`
	Failure    FailureKind `json:"-"`
}

// User is an application user as seen by the login flows.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	Role         string `json:"role,omitempty"`
	PasswordHash string `json:"-"` // Never expose in JSON
}

// Client is the customer profile a user is linked to by email.
type Client struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// NewClient carries the fields needed to provision a client profile.
type NewClient struct {
	FullName string
	Email    string
}

// Project is a client project, joined to its owning client on lookup.
type Project struct {
	ID       string  `json:"id"`
	Slug     string  `json:"slug"`
	Code     string  `json:"-"` // login secret, never returned to clients
	Name     string  `json:"name"`
	ClientID string  `json:"clientId"`
	Client   *Client `json:"client,omitempty"`
}

// CredentialsInput contains the email/password login form
type CredentialsInput struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// ProjectCodeInput contains the project-code login form
type ProjectCodeInput struct {
	ProjectCode string `json:"projectCode" form:"projectCode"`
}
