package config

import (
	"log"
	"os"

	"clinic-ai-service/internal/domain"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// InitDatabase opens the postgres connection and keeps the schema in
// sync for the service's tables.
func InitDatabase() *gorm.DB {
	dsn := os.Getenv("DATABASE_URL")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to the database: %v", err)
	}

	err = db.AutoMigrate(
		&domain.Appointment{},
		&domain.MedicalRecord{},
		&domain.UserQuota{},
		&domain.AIModel{},
	)
	if err != nil {
		log.Fatalf("Failed to migrate database schema: %v", err)
	}
	return db
}
