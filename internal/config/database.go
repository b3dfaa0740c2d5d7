package config

import (
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func NewPostgresDB(cfg *Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

// NewDirectoryDB opens the external user-directory database, if one is
// configured.
func NewDirectoryDB(cfg *Config) (*sqlx.DB, error) {
	if cfg.DirectoryDatabaseURL == "" {
		return nil, nil
	}
	db, err := sqlx.Connect("postgres", cfg.DirectoryDatabaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	return db, nil
}
