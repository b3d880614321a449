package model

import "time"

// VideoSource 已接受的视频源。
// 每集与外部视频ID唯一，重复同步只追加不覆盖，分数不原地更新。
type VideoSource struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	EpisodeID   uint      `gorm:"not null;uniqueIndex:idx_episode_video;comment:所属集ID" json:"episode_id"`
	VideoID     string    `gorm:"size:50;not null;uniqueIndex:idx_episode_video;comment:上游视频ID" json:"video_id"`
	Title       string    `gorm:"size:500;comment:视频标题" json:"title"`
	ChannelID   string    `gorm:"size:100;index;comment:频道ID" json:"channel_id"`
	ChannelName string    `gorm:"size:200;comment:频道名称" json:"channel_name"`
	Duration    int       `gorm:"default:0;comment:时长（秒）" json:"duration"`
	ViewCount   int64     `gorm:"default:0;comment:观看量" json:"view_count"`
	PublishedAt string    `gorm:"size:50;comment:发布时间展示文本" json:"published_at"`
	MatchScore  float64   `gorm:"comment:匹配总分" json:"match_score"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName 指定表名
func (VideoSource) TableName() string {
	return "video_sources"
}

// WatchURL 返回视频播放地址
func (v *VideoSource) WatchURL() string {
	return "https://www.youtube.com/watch?v=" + v.VideoID
}

// ThumbnailURL 返回视频缩略图地址
func (v *VideoSource) ThumbnailURL() string {
	return "https://img.youtube.com/vi/" + v.VideoID + "/0.jpg"
}
