package services

import (
	"context"

	"github.com/iota-uz/tenantguard/modules/core/infrastructure/persistence"
)

type RecordRepository interface {
	List(ctx context.Context, table string) ([]persistence.Record, error)
}

// RecordService lists rows of tenant-owned tables in the request's tenant context.
type RecordService struct {
	repo RecordRepository
}

func NewRecordService(repo RecordRepository) *RecordService {
	return &RecordService{repo: repo}
}

func (s *RecordService) List(ctx context.Context, table string) ([]persistence.Record, error) {
	return s.repo.List(ctx, table)
}
