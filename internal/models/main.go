// Package models defines the core data structures for accounts and the
// items they own, together with the partial-update payloads.
package models

import "time"

// Account represents a registered principal.
type Account struct {
	// ID is the unique identifier, assigned on creation and never reused.
	ID int64 `json:"id"`
	// Username is the unique, case-sensitive login name.
	Username string `json:"username"`
	// Email is the unique contact address.
	Email string `json:"email"`
	// FullName is the optional display name.
	FullName string `json:"full_name,omitempty"`
	// PasswordHash is the credential representation. It never leaves the server.
	PasswordHash string `json:"-"`
	// CreatedAt is the registration time in UTC.
	CreatedAt time.Time `json:"created_at"`
	// IsActive reports whether the account may authenticate.
	IsActive bool `json:"is_active"`
}

// AccountPatch holds the profile fields a caller may change. Nil fields are
// left untouched.
type AccountPatch struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	FullName *string `json:"full_name,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// Record is an item owned by exactly one account.
type Record struct {
	// ID is assigned from a monotonic counter.
	ID int64 `json:"id"`
	// Name is the item name.
	Name string `json:"name"`
	// Description is optional free text.
	Description string `json:"description,omitempty"`
	// Price is strictly positive.
	Price float64 `json:"price"`
	// Category is a free-form grouping label.
	Category string `json:"category"`
	// OwnerID references the creating account and never changes.
	OwnerID   int64     `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RecordInput is the payload for creating a record.
type RecordInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
}

// RecordPatch carries only the fields supplied by the caller. The owner is
// deliberately absent.
type RecordPatch struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Category    *string  `json:"category,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p RecordPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil && p.Category == nil
}

// Apply copies the supplied fields onto r.
func (p RecordPatch) Apply(r *Record) {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Price != nil {
		r.Price = *p.Price
	}
	if p.Category != nil {
		r.Category = *p.Category
	}
}

// Apply copies the supplied fields onto a.
func (p AccountPatch) Apply(a *Account) {
	if p.Username != nil {
		a.Username = *p.Username
	}
	if p.Email != nil {
		a.Email = *p.Email
	}
	if p.FullName != nil {
		a.FullName = *p.FullName
	}
	if p.IsActive != nil {
		a.IsActive = *p.IsActive
	}
}
