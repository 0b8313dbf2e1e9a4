package db

import (
	"gorm.io/gorm"
)

// RunMigrations runs all database migrations
func RunMigrations(db *DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return err
	}

	return createIndexes(db.DB)
}

func createIndexes(db *gorm.DB) error {
	// Expression indexes backing case-insensitive search; valid on both SQLite and PostgreSQL
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_books_name_lower ON books (LOWER(name))`,
		`CREATE INDEX IF NOT EXISTS idx_books_author_lower ON books (LOWER(author))`,
	}

	for _, indexSQL := range indexes {
		if err := db.Exec(indexSQL).Error; err != nil {
			return err
		}
	}

	return nil
}
