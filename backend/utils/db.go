package utils

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"quizhub/backend/config"
	"quizhub/backend/models"
)

// InitDB opens the postgres connection described by cfg.
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return db, nil
}

// Migrate creates or updates all tables. Shared by main and the test setup.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.UserProgress{},
		&models.LoginHistory{},
		&models.Quiz{},
		&models.QuizQuestion{},
		&models.QuizAccessSettings{},
		&models.QuizComment{},
		&models.QuizCommentReply{},
		&models.UserQuizProgress{},
		&models.QuizAttempt{},
	)
}
