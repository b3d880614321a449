package matcher

import (
	"math"
	"strings"
	"time"
)

// 评分权重，加画质分前合计 1.0
const (
	WeightTitle   = 0.40
	WeightEpisode = 0.30
	WeightChannel = 0.15
	WeightRecency = 0.15
)

// 画质关键词 → 加分值，多个命中只取最高，不叠加
var qualityBonusKeywords = []struct {
	keyword string
	bonus   float64
}{
	{"4k", 10}, {"2160p", 10},
	{"蓝光", 8}, {"blu-ray", 8},
	{"1080p", 6},
	{"超清", 5},
	{"高清", 4},
	{"720p", 2},
}

// Candidate 上游搜索返回的候选视频，评分所需的字段子集
type Candidate struct {
	VideoID     string
	Title       string
	ChannelID   string
	ChannelName string
	Duration    int
	ViewCount   int64
	Published   int64 // unix 时间戳，0 表示未知
}

// ScoreBreakdown 综合评分结果。
// Total 因画质加分可能略超 100，保留不截断，用作同分候选的排序依据。
type ScoreBreakdown struct {
	Total           float64 `json:"total_score"`
	Title           float64 `json:"title_score"`
	Episode         float64 `json:"episode_score"`
	Channel         float64 `json:"channel_score"`
	Recency         float64 `json:"recency_score"`
	QualityBonus    float64 `json:"quality_bonus"`
	DetectedEpisode *int    `json:"detected_episode"`
	Filtered        bool    `json:"filtered"`
	FilterReason    string  `json:"filter_reason"`
}

// TrustedFunc 频道信任查询，由存储层注入
type TrustedFunc func(channelID string) bool

// ScoreCandidate 为候选视频进行综合评分
//
// 评分维度:
//   - 标题匹配 (40%): 系列名称与视频标题的匹配度
//   - 集数匹配 (30%): 目标集数与标题中检测到的集数
//   - 频道信任 (15%): 信任频道满分，否则按观看量分档
//   - 时效性   (15%): 发布时间越近分数越高
//
// 合集/非正片候选直接零分返回，不再计算。
func ScoreCandidate(c Candidate, seriesTitle string, targetEpisode int, aliases []string, trusted TrustedFunc, now time.Time) ScoreBreakdown {
	if filtered, reason := ShouldFilter(c.Title, c.Duration); filtered {
		return ScoreBreakdown{Filtered: true, FilterReason: reason}
	}

	normalizedTitle := Normalize(c.Title)
	normalizedSeries := Normalize(seriesTitle)
	normalizedAliases := make([]string, 0, len(aliases))
	for _, a := range aliases {
		if n := Normalize(a); n != "" {
			normalizedAliases = append(normalizedAliases, n)
		}
	}

	titleScore := FuzzyScore(normalizedTitle, normalizedSeries, normalizedAliases)

	// 集数从原始标题提取，无法检测给中等分：缺信息不等于错信息
	episodeScore := 20.0
	var detected *int
	if ep, ok := ExtractEpisode(c.Title); ok {
		detected = &ep
		switch {
		case ep == targetEpisode:
			episodeScore = 100.0
		case abs(ep-targetEpisode) == 1:
			episodeScore = 30.0
		default:
			episodeScore = 0.0
		}
	}

	channelScore := 0.0
	if c.ChannelID != "" && trusted != nil && trusted(c.ChannelID) {
		channelScore = 100.0
	} else {
		switch {
		case c.ViewCount > 100000:
			channelScore = 60.0
		case c.ViewCount > 10000:
			channelScore = 40.0
		case c.ViewCount > 1000:
			channelScore = 20.0
		}
	}

	recencyScore := 50.0
	if c.Published > 0 {
		ageDays := now.Sub(time.Unix(c.Published, 0)).Hours() / 24
		switch {
		case ageDays <= 7:
			recencyScore = 100.0
		case ageDays <= 30:
			recencyScore = 80.0
		case ageDays <= 90:
			recencyScore = 60.0
		case ageDays <= 365:
			recencyScore = 40.0
		default:
			recencyScore = 20.0
		}
	}

	qualityBonus := 0.0
	titleLower := strings.ToLower(c.Title)
	for _, q := range qualityBonusKeywords {
		if strings.Contains(titleLower, q.keyword) && q.bonus > qualityBonus {
			qualityBonus = q.bonus
		}
	}

	total := titleScore*WeightTitle +
		episodeScore*WeightEpisode +
		channelScore*WeightChannel +
		recencyScore*WeightRecency +
		qualityBonus

	return ScoreBreakdown{
		Total:           round2(total),
		Title:           round2(titleScore),
		Episode:         round2(episodeScore),
		Channel:         round2(channelScore),
		Recency:         round2(recencyScore),
		QualityBonus:    qualityBonus,
		DetectedEpisode: detected,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
