package schema

import (
	"gorm.io/gorm"
)

// AllModels returns all schema models for GORM AutoMigrate.
func AllModels() []any {
	return []any{
		&Specimen{},
		&SchemaVersion{},
	}
}

// Migrate runs GORM AutoMigrate to create or update schema and records
// the schema version.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(AllModels()...)
	if err != nil {
		return err
	}
	sv := SchemaVersion{Version: Version, Description: "specimens"}
	return db.Where(SchemaVersion{Version: Version}).FirstOrCreate(&sv).Error
}
