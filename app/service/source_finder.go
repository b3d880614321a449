package service

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"donghua-tracker/app/aliases"
	"donghua-tracker/app/config"
	"donghua-tracker/app/invidious"
	"donghua-tracker/app/logger"
	"donghua-tracker/app/matcher"
	"donghua-tracker/app/model"

	"golang.org/x/sync/errgroup"
)

// Searcher 上游视频搜索能力。实现方内部处理实例切换，
// 调用方只会看到结果列表或该关键词失败。
type Searcher interface {
	Search(query string, maxResults int) ([]invidious.Video, error)
}

// SourceFinder 视频源查找编排器：
// 生成关键词、并发搜索聚合、去重、规则过滤、评分排序、持久化。
type SourceFinder struct {
	cfg    *config.Config
	log    *logger.Logger
	store  *SourceStore
	search Searcher
	dict   *aliases.Dictionary
}

// NewSourceFinder 创建视频源查找器
func NewSourceFinder(cfg *config.Config, log *logger.Logger, store *SourceStore, search Searcher, dict *aliases.Dictionary) *SourceFinder {
	return &SourceFinder{
		cfg:    cfg,
		log:    log,
		store:  store,
		search: search,
		dict:   dict,
	}
}

// SyncResult 整部同步的聚合结果
type SyncResult struct {
	SyncedEpisodes int `json:"synced_episodes"`
	TotalSources   int `json:"total_sources"`
}

// keywordResult 单关键词搜索结果。
// 失败只影响该关键词的贡献，聚合时显式跳过而非中断。
type keywordResult struct {
	keyword string
	videos  []invidious.Video
	err     error
}

// FindSources 查找指定集数的视频源。
// 非强制模式下已有缓存直接返回；否则搜索、评分、保存，
// 返回读回的持久化结果，保证调用方看到的与库中一致。
func (f *SourceFinder) FindSources(seriesID uint, episodeNum int, force bool) ([]model.VideoSource, error) {
	series, err := f.store.GetSeries(seriesID)
	if err != nil {
		return nil, err
	}
	episode, err := f.store.GetEpisode(seriesID, episodeNum)
	if err != nil {
		return nil, err
	}

	// 检查缓存（非强制模式下）
	if !force {
		cached, err := f.store.GetCachedSources(episode.ID)
		if err == nil && len(cached) > 0 {
			f.log.Infof("使用缓存视频源: %s 第%d集 (%d个)", series.Title, episodeNum, len(cached))
			return cached, nil
		}
	}

	names := f.candidateNames(series)
	keywords := buildKeywords(names, episodeNum, f.cfg.Matcher.KeywordsLimit)
	f.log.Infof("搜索关键词: %v", keywords)

	candidates := f.searchAndMerge(keywords)
	f.log.Infof("去重后找到 %d 个候选视频", len(candidates))

	rules := f.store.GetRules(seriesID)
	candidates = applyRules(candidates, rules)
	if !rules.IsEmpty() {
		f.log.Infof("规则过滤后: %d 个视频", len(candidates))
	}

	// 手动追踪的系列用更宽松的阈值
	threshold := float64(f.cfg.Matcher.MatchThreshold)
	if series.IsManual() {
		threshold = float64(f.cfg.Matcher.ManualThreshold)
		f.log.Infof("手动追踪系列，使用宽松阈值: %.0f", threshold)
	}

	scored := f.scoreCandidates(candidates, series, episodeNum, threshold)

	// 按分数降序，同分保留发现顺序
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	maxSources := f.cfg.Sync.MaxSources
	if maxSources <= 0 {
		maxSources = 10
	}
	saved := 0
	for i, sc := range scored {
		if i >= maxSources {
			break
		}
		if _, err := f.store.UpsertSource(episode.ID, sc.video, sc.score); err != nil {
			f.log.Warnf("保存视频源失败: %s - %v", sc.video.VideoID, err)
			continue
		}
		saved++
	}
	f.log.Infof("保存 %d 个视频源: %s 第%d集", saved, series.Title, episodeNum)

	return f.store.GetCachedSources(episode.ID)
}

// SyncSeries 同步整部系列的视频源。
// 各集互不依赖，由固定大小的工作池并发处理；
// 两个聚合计数用原子量累加，完成顺序不影响最终结果。
func (f *SourceFinder) SyncSeries(seriesID uint) (*SyncResult, error) {
	series, err := f.store.GetSeries(seriesID)
	if err != nil {
		return nil, err
	}

	// 手动追踪的系列先探测最新集数
	if series.IsManual() {
		if discovered, err := f.DiscoverLatestEpisode(series); err != nil {
			f.log.Warnf("探测最新集数失败: %s - %v", series.Title, err)
		} else if discovered > 0 {
			f.log.Infof("探测到最新集数: %s → 第%d集", series.Title, discovered)
		}
	}

	episodes, err := f.store.GetEpisodes(seriesID)
	if err != nil {
		return nil, err
	}

	var synced, totalSources atomic.Int64

	var g errgroup.Group
	g.SetLimit(f.cfg.Sync.Workers)
	for _, ep := range episodes {
		ep := ep
		g.Go(func() error {
			sources, err := f.FindSources(seriesID, ep.AbsoluteNum, true)
			if err != nil {
				// 单集失败只跳过该集，整部同步继续
				f.log.Errorf("同步失败: %s 第%d集 - %v", series.Title, ep.AbsoluteNum, err)
				return nil
			}
			if len(sources) > 0 {
				synced.Add(1)
				totalSources.Add(int64(len(sources)))
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := f.store.TouchLastSync(seriesID); err != nil {
		f.log.Warnf("更新同步时间失败: %v", err)
	}

	// 手动系列无封面时，用最高分视频源的缩略图兜底
	if series.IsManual() && series.PosterURL == "" {
		f.fillPosterFromSources(seriesID, episodes)
	}

	result := &SyncResult{
		SyncedEpisodes: int(synced.Load()),
		TotalSources:   int(totalSources.Load()),
	}
	f.store.AddSyncLog(model.SyncLog{
		SeriesID:       seriesID,
		SyncType:       "manual",
		EpisodesSynced: result.SyncedEpisodes,
		SourcesFound:   result.TotalSources,
		Status:         "success",
		Message:        fmt.Sprintf("同步完成: %d/%d 集找到视频源", result.SyncedEpisodes, len(episodes)),
	})

	return result, nil
}

// DiscoverLatestEpisode 搜索系列名称（不带集数标记），从结果标题中提取
// 最大集数并补齐缺少的集数记录。只增不删。
func (f *SourceFinder) DiscoverLatestEpisode(series *model.Series) (int, error) {
	names := f.candidateNames(series)
	if len(names) > 4 {
		names = names[:4]
	}

	maxEp := 0
	for _, term := range names {
		videos, err := f.search.Search(term, 50)
		if err != nil {
			f.log.Warnf("探测集数搜索失败: %s - %v", term, err)
			continue
		}
		for _, v := range videos {
			if ep, ok := matcher.ExtractEpisode(v.Title); ok && ep > maxEp {
				maxEp = ep
			}
		}
	}

	if maxEp == 0 {
		return 0, nil
	}

	nums := make([]int, 0, maxEp)
	for i := 1; i <= maxEp; i++ {
		nums = append(nums, i)
	}
	added, err := f.store.AddEpisodes(series.ID, nums)
	if err != nil {
		return maxEp, err
	}
	if added > 0 {
		f.log.Infof("自动创建 %d 个集数记录", added)
	}
	if err := f.store.UpdateTotalEpisodes(series.ID, maxEp); err != nil {
		f.log.Warnf("更新总集数失败: %v", err)
	}
	return maxEp, nil
}

// candidateNames 系列标题 + 自定义别名 + 全局别名库，大小写不敏感去重
func (f *SourceFinder) candidateNames(series *model.Series) []string {
	all := []string{series.Title}
	if custom, err := f.store.GetAliases(series.ID); err == nil {
		all = append(all, custom...)
	}
	if f.dict != nil {
		all = append(all, f.dict.Lookup(series.Title)...)
	}

	seen := make(map[string]bool, len(all))
	unique := make([]string, 0, len(all))
	for _, name := range all {
		name = strings.TrimSpace(name)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, name)
	}
	return unique
}

// buildKeywords 每个名称生成两种集数标记变体
func buildKeywords(names []string, episodeNum, limit int) []string {
	if len(names) > limit {
		names = names[:limit]
	}
	keywords := make([]string, 0, len(names)*2)
	for _, name := range names {
		keywords = append(keywords, fmt.Sprintf("%s 第%d集", name, episodeNum))
		keywords = append(keywords, fmt.Sprintf("%s EP%d", name, episodeNum))
	}
	return keywords
}

// searchAndMerge 逐关键词搜索并按视频ID去重合并，首次出现者保留。
// 单个关键词失败记录后跳过，不中断其余关键词。
func (f *SourceFinder) searchAndMerge(keywords []string) []invidious.Video {
	results := make([]keywordResult, 0, len(keywords))
	for _, kw := range keywords {
		videos, err := f.search.Search(kw, f.cfg.Matcher.MaxSearchResults)
		results = append(results, keywordResult{keyword: kw, videos: videos, err: err})
	}

	merged := make([]invidious.Video, 0)
	seen := make(map[string]bool)
	for _, r := range results {
		if r.err != nil {
			f.log.Warnf("搜索关键词 '%s' 出错: %v", r.keyword, r.err)
			continue
		}
		f.log.Debugf("关键词 '%s' 搜索到 %d 个视频", r.keyword, len(r.videos))
		for _, v := range r.videos {
			if v.VideoID == "" || seen[v.VideoID] {
				continue
			}
			seen[v.VideoID] = true
			merged = append(merged, v)
		}
	}
	return merged
}

// applyRules 应用系列搜索规则。黑名单优先；
// 白名单非空时为排他过滤，频道与关键词白名单需各自通过。
func applyRules(videos []invidious.Video, rules model.RuleSet) []invidious.Video {
	if rules.IsEmpty() {
		return videos
	}

	filtered := make([]invidious.Video, 0, len(videos))
	for _, v := range videos {
		titleLower := strings.ToLower(v.Title)

		if containsString(rules.DenyChannels, v.ChannelID) {
			continue
		}
		if matchesAnyKeyword(titleLower, rules.DenyKeywords) {
			continue
		}
		if len(rules.AllowChannels) > 0 && !containsString(rules.AllowChannels, v.ChannelID) {
			continue
		}
		if len(rules.AllowKeywords) > 0 && !matchesAnyKeyword(titleLower, rules.AllowKeywords) {
			continue
		}
		filtered = append(filtered, v)
	}
	return filtered
}

type scoredVideo struct {
	video invidious.Video
	score float64
}

// scoreCandidates 逐候选评分，过滤命中与低于阈值的候选剔除，
// 阈值为包含关系（达到即接受）。
func (f *SourceFinder) scoreCandidates(videos []invidious.Video, series *model.Series, episodeNum int, threshold float64) []scoredVideo {
	seriesAliases := f.scoringAliases(series)
	now := time.Now()

	scored := make([]scoredVideo, 0, len(videos))
	filteredCount := 0
	belowCount := 0
	for _, v := range videos {
		breakdown := matcher.ScoreCandidate(matcher.Candidate{
			VideoID:     v.VideoID,
			Title:       v.Title,
			ChannelID:   v.ChannelID,
			ChannelName: v.ChannelName,
			Duration:    v.Duration,
			ViewCount:   v.ViewCount,
			Published:   v.Published,
		}, series.Title, episodeNum, seriesAliases, f.store.IsTrustedChannel, now)

		if breakdown.Filtered {
			filteredCount++
			f.log.Debugf("过滤: '%s' - %s", v.Title, breakdown.FilterReason)
			continue
		}
		if breakdown.Total < threshold {
			belowCount++
			f.log.Debugf("低分: '%s' = %.1f (阈值: %.0f)", v.Title, breakdown.Total, threshold)
			continue
		}
		scored = append(scored, scoredVideo{video: v, score: breakdown.Total})
	}

	f.log.Infof("评分结果: %d 通过, %d 被过滤, %d 低于阈值(%.0f)",
		len(scored), filteredCount, belowCount, threshold)
	return scored
}

// scoringAliases 评分用的别名集合：自定义别名 + 全局别名库
func (f *SourceFinder) scoringAliases(series *model.Series) []string {
	out := []string{}
	if custom, err := f.store.GetAliases(series.ID); err == nil {
		out = append(out, custom...)
	}
	if f.dict != nil {
		out = append(out, f.dict.Lookup(series.Title)...)
	}
	return out
}

// fillPosterFromSources 从已保存的最高分视频源取缩略图作为封面
func (f *SourceFinder) fillPosterFromSources(seriesID uint, episodes []model.Episode) {
	for _, ep := range episodes {
		sources, err := f.store.GetCachedSources(ep.ID)
		if err != nil || len(sources) == 0 {
			continue
		}
		thumb := sources[0].ThumbnailURL()
		if err := f.store.SetPosterIfEmpty(seriesID, thumb); err != nil {
			f.log.Warnf("自动设置封面失败: %v", err)
			return
		}
		f.log.Infof("自动设置封面(视频缩略图): %s", thumb)
		return
	}
}

func containsString(list []string, target string) bool {
	for _, item := range list {
		if item == target {
			return true
		}
	}
	return false
}

func matchesAnyKeyword(titleLower string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(titleLower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
