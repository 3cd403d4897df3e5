package database

import (
	"fmt"
	"log"
	"time"

	config "github.com/xavicoins/progression/configs"
	"github.com/xavicoins/progression/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func ConnectDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DatabaseURL,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   NewGormLogger(cfg.SlowQueryThreshold),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	log.Println("✅ Database connected successfully")
	return db, nil
}

// Models lists every table owned by this service, in migration order.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Activity{},
		&models.Evidence{},
		&models.Mission{},
		&models.UserMission{},
		&models.Achievement{},
		&models.UserAchievement{},
		&models.Notification{},
		&models.Deck{},
		&models.Flashcard{},
		&models.StudySession{},
		&models.CardReview{},
	}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	log.Println("✅ Database migration successful")
	return nil
}
