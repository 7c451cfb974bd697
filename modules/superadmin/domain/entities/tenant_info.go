package entities

import (
	"time"

	"github.com/google/uuid"
)

// TenantInfo is a tenant as listed in the platform tenant directory.
type TenantInfo struct {
	ID        uuid.UUID
	Name      string
	Domain    string
	Status    string
	UserCount int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type DashboardMetrics struct {
	TenantCount        int
	ActiveTenantCount  int
	UserCount          int
	PlatformUserCount  int
	ActiveSessionCount int
}
