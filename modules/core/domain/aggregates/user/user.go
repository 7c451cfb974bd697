package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	id        int64
	tenantID  uuid.UUID
	typ       Type
	email     string
	firstName string
	lastName  string
	password  string
	createdAt time.Time
	updatedAt time.Time
}

type Option func(*User)

func WithID(id int64) Option {
	return func(u *User) {
		u.id = id
	}
}

func WithTenantID(id uuid.UUID) Option {
	return func(u *User) {
		u.tenantID = id
	}
}

func WithType(t Type) Option {
	return func(u *User) {
		u.typ = t
	}
}

// WithPasswordHash sets an already hashed password, as loaded from storage.
func WithPasswordHash(hash string) Option {
	return func(u *User) {
		u.password = hash
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(u *User) {
		u.createdAt = createdAt
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(u *User) {
		u.updatedAt = updatedAt
	}
}

func New(firstName, lastName, email string, opts ...Option) *User {
	u := &User{
		typ:       TypeUser,
		email:     NormalizeEmail(email),
		firstName: firstName,
		lastName:  lastName,
		createdAt: time.Now(),
		updatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *User) ID() int64 {
	return u.id
}

func (u *User) TenantID() uuid.UUID {
	return u.tenantID
}

func (u *User) Type() Type {
	return u.typ
}

func (u *User) Email() string {
	return u.email
}

func (u *User) FirstName() string {
	return u.firstName
}

func (u *User) LastName() string {
	return u.lastName
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.firstName + " " + u.lastName)
}

func (u *User) Password() string {
	return u.password
}

func (u *User) CreatedAt() time.Time {
	return u.createdAt
}

func (u *User) UpdatedAt() time.Time {
	return u.updatedAt
}

func (u *User) IsSuperAdmin() bool {
	return u.typ == TypeSuperAdmin
}

// IsPlatform reports whether the user is a platform principal (not bound to any tenant).
func (u *User) IsPlatform() bool {
	return u.IsSuperAdmin()
}

func (u *User) HomeTenant() (uuid.UUID, bool) {
	if u.IsSuperAdmin() || u.tenantID == uuid.Nil {
		return uuid.Nil, false
	}
	return u.tenantID, true
}

// SetPassword returns a copy of the user with a bcrypt hash of password.
func (u *User) SetPassword(password string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	c := *u
	c.password = string(hash)
	c.updatedAt = time.Now()
	return &c, nil
}

func (u *User) CheckPassword(password string) bool {
	if u.password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.password), []byte(password)) == nil
}
