package main

import (
	"fmt"
	"os"
	"sync"

	"gorm.io/gorm"

	"github.com/pageza/larder/backend/config"
	"github.com/pageza/larder/backend/internal/backup"
	"github.com/pageza/larder/backend/internal/database"
	"github.com/pageza/larder/backend/internal/service"
)

type commandContext struct {
	configFile string

	dbOnce sync.Once
	db     *gorm.DB
	dbErr  error
}

func newCommandContext() *commandContext {
	return &commandContext{}
}

// withDB returns a context bound to an already open database.
func withDB(db *gorm.DB) *commandContext {
	c := &commandContext{db: db}
	c.dbOnce.Do(func() {})
	return c
}

// database opens and migrates the configured database on first use.
func (c *commandContext) database() (*gorm.DB, error) {
	c.dbOnce.Do(func() {
		if c.configFile != "" {
			if err := os.Setenv("CONFIG_FILE", c.configFile); err != nil {
				c.dbErr = err
				return
			}
		}
		cfg, err := config.LoadConfig()
		if err != nil {
			c.dbErr = err
			return
		}
		db, err := database.Open(cfg)
		if err != nil {
			c.dbErr = err
			return
		}
		if err := database.RunMigrations(db, cfg.MigrationsDir); err != nil {
			c.dbErr = fmt.Errorf("failed to migrate: %w", err)
			return
		}
		c.db = db
	})
	return c.db, c.dbErr
}

func (c *commandContext) catalog() (*service.CatalogStore, error) {
	db, err := c.database()
	if err != nil {
		return nil, err
	}
	return service.NewCatalogStore(db), nil
}

func (c *commandContext) importer() (*backup.Importer, error) {
	catalog, err := c.catalog()
	if err != nil {
		return nil, err
	}
	return backup.NewImporter(catalog), nil
}
