package domain

import "time"

const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
)

// Address stores address fields returned to clients.
type Address struct {
	FirstName  string `json:"firstName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
	Company    string `json:"company,omitempty"`
	StreetName string `json:"streetName,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	City       string `json:"city,omitempty"`
	Country    string `json:"country,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// Customer represents a registered account.
type Customer struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"firstName,omitempty"`
	LastName     string    `json:"lastName,omitempty"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (c Customer) IsStaff() bool {
	return c.Role == RoleStaff
}

// Guest is a walk-in or anonymous buyer referenced by orders without an account.
type Guest struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Actor is the authenticated caller of a request.
type Actor struct {
	Owner CartOwner
	Role  string
}

func (a Actor) IsStaff() bool {
	return a.Role == RoleStaff
}

// Name identifies the actor in audit records. Session tokens are never written out.
func (a Actor) Name() string {
	if id, ok := a.Owner.UserID(); ok {
		return id
	}
	return "anonymous"
}
