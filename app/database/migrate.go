package database

import (
	"donghua-tracker/app/model"

	"gorm.io/gorm"
)

// AutoMigrate 自动迁移所有表结构
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Series{},
		&model.SeriesAlias{},
		&model.Episode{},
		&model.VideoSource{},
		&model.SourceRule{},
		&model.TrustedChannel{},
		&model.SyncLog{},
	)
}
