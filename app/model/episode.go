package model

import "time"

// Episode 系列的一集，AbsoluteNum 为全系列递增的绝对集数
type Episode struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	SeriesID    uint      `gorm:"not null;uniqueIndex:idx_series_episode;comment:所属系列ID" json:"series_id"`
	AbsoluteNum int       `gorm:"not null;uniqueIndex:idx_series_episode;comment:绝对集数" json:"absolute_num"`
	SeasonNum   int       `gorm:"default:1;comment:季数" json:"season_num"`
	EpisodeNum  int       `gorm:"comment:季内集数" json:"episode_num"`
	Title       string    `gorm:"size:200;comment:单集标题" json:"title"`
	AirDate     string    `gorm:"size:20;comment:播出日期" json:"air_date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Episode) TableName() string {
	return "episodes"
}
