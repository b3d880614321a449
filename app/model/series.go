package model

import (
	"time"

	"gorm.io/gorm"
)

// Series 追踪中的系列（动漫）模型
type Series struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	Title         string         `gorm:"size:200;not null;index;comment:中文标题" json:"title"`
	OriginalTitle string         `gorm:"size:200;comment:原始标题" json:"original_title"`
	TmdbID        *int64         `gorm:"index;comment:TMDB 剧集ID，空表示手动追踪" json:"tmdb_id"`
	TotalEpisodes int            `gorm:"default:0;comment:总集数" json:"total_episodes"`
	PosterURL     string         `gorm:"size:500;comment:封面图地址" json:"poster_url"`
	Overview      string         `gorm:"type:text;comment:简介" json:"overview"`
	Status        string         `gorm:"size:20;default:watching;comment:追踪状态(watching,finished,paused)" json:"status"`
	LastSyncAt    *time.Time     `gorm:"comment:最后同步时间" json:"last_sync_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at"`

	// 关联关系
	Episodes []Episode     `gorm:"foreignKey:SeriesID" json:"episodes,omitempty"`
	Aliases  []SeriesAlias `gorm:"foreignKey:SeriesID" json:"aliases,omitempty"`
}

// TableName 指定表名
func (Series) TableName() string {
	return "series"
}

// 追踪状态常量
const (
	SeriesWatching = "watching" // 追踪中
	SeriesFinished = "finished" // 已完结
	SeriesPaused   = "paused"   // 暂停
)

// IsManual 是否为手动追踪（未关联 TMDB），匹配阈值更宽松
func (s *Series) IsManual() bool {
	return s.TmdbID == nil
}

// SeriesAlias 用户自定义的系列别名
type SeriesAlias struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	SeriesID  uint      `gorm:"not null;uniqueIndex:idx_series_alias;comment:所属系列ID" json:"series_id"`
	Alias     string    `gorm:"size:200;not null;uniqueIndex:idx_series_alias;comment:别名" json:"alias"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName 指定表名
func (SeriesAlias) TableName() string {
	return "series_aliases"
}
