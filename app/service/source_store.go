package service

import (
	"errors"
	"fmt"
	"time"

	"donghua-tracker/app/invidious"
	"donghua-tracker/app/logger"
	"donghua-tracker/app/model"

	"gorm.io/gorm"
)

// SourceStore 视频源持久化层。
// 写入以 (集ID, 视频ID) 为幂等键，重复同步只追加不覆盖。
type SourceStore struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewSourceStore 创建视频源存储
func NewSourceStore(db *gorm.DB, log *logger.Logger) *SourceStore {
	return &SourceStore{db: db, log: log}
}

// GetSeries 获取系列
func (s *SourceStore) GetSeries(seriesID uint) (*model.Series, error) {
	var series model.Series
	if err := s.db.First(&series, seriesID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("系列不存在: id=%d", seriesID)
		}
		return nil, err
	}
	return &series, nil
}

// GetEpisode 按绝对集数获取集
func (s *SourceStore) GetEpisode(seriesID uint, absoluteNum int) (*model.Episode, error) {
	var episode model.Episode
	err := s.db.Where("series_id = ? AND absolute_num = ?", seriesID, absoluteNum).
		First(&episode).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("集数不存在: series_id=%d, ep=%d", seriesID, absoluteNum)
		}
		return nil, err
	}
	return &episode, nil
}

// GetEpisodes 获取系列全部集，按绝对集数排序
func (s *SourceStore) GetEpisodes(seriesID uint) ([]model.Episode, error) {
	var episodes []model.Episode
	err := s.db.Where("series_id = ?", seriesID).
		Order("absolute_num ASC").
		Find(&episodes).Error
	return episodes, err
}

// AddEpisodes 批量补齐集数记录，按绝对集数不存在才插入，返回新增数量。
// 只增不删，已有记录不受影响。
func (s *SourceStore) AddEpisodes(seriesID uint, absoluteNums []int) (int, error) {
	if len(absoluteNums) == 0 {
		return 0, nil
	}

	existing, err := s.GetEpisodes(seriesID)
	if err != nil {
		return 0, err
	}
	have := make(map[int]bool, len(existing))
	for _, ep := range existing {
		have[ep.AbsoluteNum] = true
	}

	added := 0
	for _, num := range absoluteNums {
		if num < 1 || have[num] {
			continue
		}
		episode := model.Episode{
			SeriesID:    seriesID,
			AbsoluteNum: num,
			SeasonNum:   1,
			EpisodeNum:  num,
		}
		if err := s.db.Create(&episode).Error; err != nil {
			// 并发写入撞唯一索引时忽略
			s.log.Debugf("创建集数记录失败: series_id=%d ep=%d - %v", seriesID, num, err)
			continue
		}
		have[num] = true
		added++
	}
	return added, nil
}

// UpdateTotalEpisodes 更新系列总集数
func (s *SourceStore) UpdateTotalEpisodes(seriesID uint, total int) error {
	return s.db.Model(&model.Series{}).Where("id = ?", seriesID).
		Update("total_episodes", total).Error
}

// GetCachedSources 获取某集已保存的视频源，按分数降序
func (s *SourceStore) GetCachedSources(episodeID uint) ([]model.VideoSource, error) {
	var sources []model.VideoSource
	err := s.db.Where("episode_id = ?", episodeID).
		Order("match_score DESC").
		Find(&sources).Error
	return sources, err
}

// UpsertSource 保存视频源。(episode_id, video_id) 已存在时不做任何修改，
// 返回已有记录ID；并发写同一键也不会破坏状态。
func (s *SourceStore) UpsertSource(episodeID uint, video invidious.Video, score float64) (uint, error) {
	var existing model.VideoSource
	err := s.db.Where("episode_id = ? AND video_id = ?", episodeID, video.VideoID).
		First(&existing).Error
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	source := model.VideoSource{
		EpisodeID:   episodeID,
		VideoID:     video.VideoID,
		Title:       video.Title,
		ChannelID:   video.ChannelID,
		ChannelName: video.ChannelName,
		Duration:    video.Duration,
		ViewCount:   video.ViewCount,
		PublishedAt: video.PublishedAt,
		MatchScore:  score,
	}
	if err := s.db.Create(&source).Error; err != nil {
		// 与其他写入方撞唯一索引，读回已有记录
		if readErr := s.db.Where("episode_id = ? AND video_id = ?", episodeID, video.VideoID).
			First(&existing).Error; readErr == nil {
			return existing.ID, nil
		}
		return 0, err
	}
	return source.ID, nil
}

// GetAliases 获取系列的自定义别名
func (s *SourceStore) GetAliases(seriesID uint) ([]string, error) {
	var rows []model.SeriesAlias
	if err := s.db.Where("series_id = ?", seriesID).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Alias)
	}
	return out, nil
}

// GetRules 获取系列的搜索规则。无规则或规则不可读时返回空规则集，
// 即不做任何过滤。
func (s *SourceStore) GetRules(seriesID uint) model.RuleSet {
	var rule model.SourceRule
	err := s.db.Where("series_id = ?", seriesID).First(&rule).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warnf("读取搜索规则失败，按无规则处理: series_id=%d - %v", seriesID, err)
		}
		return model.RuleSet{}
	}
	return rule.Parse()
}

// IsTrustedChannel 频道是否在信任列表中
func (s *SourceStore) IsTrustedChannel(channelID string) bool {
	if channelID == "" {
		return false
	}
	var count int64
	if err := s.db.Model(&model.TrustedChannel{}).
		Where("channel_id = ?", channelID).Count(&count).Error; err != nil {
		return false
	}
	return count > 0
}

// TouchLastSync 更新最后同步时间
func (s *SourceStore) TouchLastSync(seriesID uint) error {
	now := time.Now()
	return s.db.Model(&model.Series{}).Where("id = ?", seriesID).
		Update("last_sync_at", &now).Error
}

// SetPosterIfEmpty 系列无封面时设置封面
func (s *SourceStore) SetPosterIfEmpty(seriesID uint, posterURL string) error {
	return s.db.Model(&model.Series{}).
		Where("id = ? AND (poster_url IS NULL OR poster_url = '')", seriesID).
		Update("poster_url", posterURL).Error
}

// AddSyncLog 记录一次同步结果
func (s *SourceStore) AddSyncLog(entry model.SyncLog) {
	if err := s.db.Create(&entry).Error; err != nil {
		s.log.Warnf("记录同步日志失败: %v", err)
	}
}
