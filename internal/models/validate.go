package models

import (
	"math"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/atinyakov/ItemKeeper/internal/common"
)

// Field limits.
const (
	UsernameMinLen    = 3
	UsernameMaxLen    = 50
	FullNameMaxLen    = 100
	PasswordMinLen    = 8
	NameMaxLen        = 100
	DescriptionMaxLen = 500
)

// Registration is the payload accepted when an account is created.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

// Validate checks every field and reports all violations at once.
func (r Registration) Validate() error {
	v := common.NewValidationError()
	checkUsername(v, r.Username)
	checkEmail(v, r.Email)
	checkFullName(v, r.FullName)
	if utf8.RuneCountInString(r.Password) < PasswordMinLen {
		v.Add("password", "must be at least 8 characters")
	}
	return v.OrNil()
}

// Validate checks the profile fields that are present.
func (p AccountPatch) Validate() error {
	v := common.NewValidationError()
	if p.Username != nil {
		checkUsername(v, *p.Username)
	}
	if p.Email != nil {
		checkEmail(v, *p.Email)
	}
	if p.FullName != nil {
		checkFullName(v, *p.FullName)
	}
	return v.OrNil()
}

// Validate checks a create payload.
func (in RecordInput) Validate() error {
	v := common.NewValidationError()
	checkName(v, in.Name)
	checkDescription(v, in.Description)
	checkPrice(v, in.Price)
	checkCategory(v, in.Category)
	return v.OrNil()
}

// Validate checks only the fields that are present.
func (p RecordPatch) Validate() error {
	v := common.NewValidationError()
	if p.Name != nil {
		checkName(v, *p.Name)
	}
	if p.Description != nil {
		checkDescription(v, *p.Description)
	}
	if p.Price != nil {
		checkPrice(v, *p.Price)
	}
	if p.Category != nil {
		checkCategory(v, *p.Category)
	}
	return v.OrNil()
}

func checkUsername(v *common.ValidationError, username string) {
	if n := utf8.RuneCountInString(username); n < UsernameMinLen || n > UsernameMaxLen {
		v.Add("username", "must be 3-50 characters")
	}
}

func checkEmail(v *common.ValidationError, email string) {
	if !ValidEmail(email) {
		v.Add("email", "must be a valid email address")
	}
}

func checkFullName(v *common.ValidationError, fullName string) {
	if utf8.RuneCountInString(fullName) > FullNameMaxLen {
		v.Add("full_name", "must be at most 100 characters")
	}
}

func checkName(v *common.ValidationError, name string) {
	if n := utf8.RuneCountInString(name); n < 1 || n > NameMaxLen {
		v.Add("name", "must be 1-100 characters")
	}
}

func checkDescription(v *common.ValidationError, description string) {
	if utf8.RuneCountInString(description) > DescriptionMaxLen {
		v.Add("description", "must be at most 500 characters")
	}
}

func checkPrice(v *common.ValidationError, price float64) {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		v.Add("price", "must be greater than 0")
	}
}

func checkCategory(v *common.ValidationError, category string) {
	if strings.TrimSpace(category) == "" {
		v.Add("category", "must not be empty")
	}
}

// ValidEmail reports whether email is a bare addr-spec with a dotted domain.
func ValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndexByte(email, '@')
	if at <= 0 {
		return false
	}
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}
