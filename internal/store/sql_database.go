package store

import (
	"database/sql"

	"github.com/ametov/bookline/internal/logger"
	"github.com/ametov/bookline/migrations"
)

type DB struct {
	*sql.DB
	logger *logger.Logger
}

func (db *DB) Migrate() error {
	return migrations.Migrate(db.DB)
}
