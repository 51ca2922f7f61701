package database

import (
	"github.com/riffhouse/riffhouse/pkg/internal/models"
	"gorm.io/gorm"
)

var AutoMaintainRange = []any{
	&models.Session{},
	&models.Participant{},
	&models.Recording{},
	&models.ChatMessage{},
}

func RunMigration(source *gorm.DB) error {
	if err := source.AutoMigrate(AutoMaintainRange...); err != nil {
		return err
	}

	return nil
}
