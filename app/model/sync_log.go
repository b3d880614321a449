package model

import "time"

// SyncLog 一次整部同步的结果记录
type SyncLog struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	SeriesID       uint      `gorm:"not null;index;comment:所属系列ID" json:"series_id"`
	SyncType       string    `gorm:"size:20;comment:触发方式(manual,api)" json:"sync_type"`
	EpisodesSynced int       `gorm:"default:0;comment:找到视频源的集数" json:"episodes_synced"`
	SourcesFound   int       `gorm:"default:0;comment:找到的视频源总数" json:"sources_found"`
	Status         string    `gorm:"size:20;comment:状态(success,failed)" json:"status"`
	Message        string    `gorm:"size:500;comment:结果说明" json:"message"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName 指定表名
func (SyncLog) TableName() string {
	return "sync_logs"
}
