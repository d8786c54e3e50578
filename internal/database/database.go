package database

import (
	"errors"
	"log"

	"jobmarket/config"
	"jobmarket/internal/domain"
	"jobmarket/internal/models"
	"jobmarket/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.UserRef{},
		&models.Post{},
		&models.Offer{},
		&models.Order{},
		&models.DeliveryRequest{},
		&models.Notification{},
		&models.Payment{},
		&models.SystemSetting{},
		&models.Category{},
		&models.SubCategory{},
		&models.Announcement{},
		&models.VerificationRequest{},
		&models.Rating{},
		&models.SupportTicket{},
	)
}

// SeedAdmin creates the platform admin account if it does not exist yet.
func SeedAdmin(db *gorm.DB, cfg *config.PlatformConfig) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return
	}
	var existing models.User
	err := db.Where("email = ?", cfg.AdminEmail).First(&existing).Error
	if err == nil {
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("[seed] admin lookup: %v", err)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[seed] admin password: %v", err)
		return
	}
	admin := &models.User{
		FullName:      "Administrator",
		Email:         cfg.AdminEmail,
		PasswordHash:  string(hash),
		Role:          domain.RoleSuperAdmin,
		AccountStatus: domain.AccountActive,
	}
	if err := db.Create(admin).Error; err != nil {
		log.Printf("[seed] create admin: %v", err)
		return
	}
	log.Printf("[seed] admin account %s created", cfg.AdminEmail)
}

// SeedSettings inserts the default commission percentage if it is not set.
func SeedSettings(db *gorm.DB, cfg *config.PlatformConfig) error {
	seeded, err := repository.NewSettingRepository(db).SeedCommission(cfg.DefaultCommissionPercentage)
	if err != nil {
		return err
	}
	if seeded {
		log.Printf("[seed] commission set to %v%%", cfg.DefaultCommissionPercentage)
	}
	return nil
}
