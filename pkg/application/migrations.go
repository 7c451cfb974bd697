package application

import (
	"context"
	"database/sql"
	"io/fs"

	"github.com/go-faster/errors"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
)

var errNoSchema = errors.New("no migration schema registered")

type MigrationState struct {
	Version int64  `json:"version"`
	Path    string `json:"path"`
	State   string `json:"state"`
}

func NewMigrationManager(db *sql.DB, logger *logrus.Logger) MigrationManager {
	return &migrationManager{db: db, logger: logger}
}

type migrationManager struct {
	db     *sql.DB
	logger *logrus.Logger
	schema fs.FS
}

// RegisterSchema sets the directory of goose SQL files; a later call replaces an earlier one.
func (m *migrationManager) RegisterSchema(fsys fs.FS) {
	m.schema = fsys
}

func (m *migrationManager) provider() (*goose.Provider, error) {
	if m.schema == nil {
		return nil, errNoSchema
	}
	if m.db == nil {
		return nil, errors.New("no database configured for migrations")
	}
	return goose.NewProvider(goose.DialectPostgres, m.db, m.schema)
}

func (m *migrationManager) Up(ctx context.Context) error {
	p, err := m.provider()
	if err != nil {
		return err
	}
	results, err := p.Up(ctx)
	for _, res := range results {
		m.logger.WithFields(logrus.Fields{
			"version":  res.Source.Version,
			"path":     res.Source.Path,
			"duration": res.Duration,
		}).Info("migration applied")
	}
	if err != nil {
		return errors.Wrap(err, "failed to apply migrations")
	}
	return nil
}

func (m *migrationManager) Status(ctx context.Context) ([]MigrationState, error) {
	p, err := m.provider()
	if err != nil {
		return nil, err
	}
	statuses, err := p.Status(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read migration status")
	}
	out := make([]MigrationState, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, MigrationState{
			Version: s.Source.Version,
			Path:    s.Source.Path,
			State:   string(s.State),
		})
	}
	return out, nil
}
