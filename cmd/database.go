package cmd

import (
	"database/sql"

	"github.com/vibast-solutions/ms-go-jobtracker/config"

	_ "github.com/go-sql-driver/mysql"
)

func openDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func loadCommandConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := configureLogging(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
