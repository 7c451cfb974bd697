package models

import (
	"database/sql"
	"time"
)

type Tenant struct {
	ID        string         `db:"id"`
	Name      string         `db:"name"`
	Domain    sql.NullString `db:"domain"`
	Status    string         `db:"status"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

type User struct {
	ID        int64          `db:"id"`
	TenantID  sql.NullString `db:"tenant_id"`
	Type      string         `db:"type"`
	Email     string         `db:"email"`
	FirstName string         `db:"first_name"`
	LastName  string         `db:"last_name"`
	Password  sql.NullString `db:"password"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

type Session struct {
	Token     string    `db:"token"`
	UserID    int64     `db:"user_id"`
	IP        string    `db:"ip"`
	UserAgent string    `db:"user_agent"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

// Record is one row of a tenant-owned table as listed by the records API.
type Record struct {
	ID       string         `db:"id"`
	TenantID sql.NullString `db:"tenant_id"`
	Label    sql.NullString `db:"label"`
}
