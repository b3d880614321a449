package service

import (
	"fmt"
	"testing"

	"donghua-tracker/app/invidious"
	"donghua-tracker/app/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncSeries_DiscoversAndSyncsManualSeries(t *testing.T) {
	search := newFakeSearcher()
	finder, store, db := newTestFinder(t, search)
	series := createSeries(t, db, "测试系列", nil, 0)

	// 裸名称搜索用于探测最新集数
	search.results["测试系列"] = []invidious.Video{
		{VideoID: "d1", Title: "测试系列 第1集"},
		{VideoID: "d3", Title: "测试系列 第3集"},
		{VideoID: "d2", Title: "测试系列 第2集"},
	}
	for i, id := range []string{"v1", "v2", "v3"} {
		ep := i + 1
		search.results[fmt.Sprintf("测试系列 第%d集", ep)] = []invidious.Video{{
			VideoID:  id,
			Title:    fmt.Sprintf("测试系列 第%d集 1080P", ep),
			Duration: 1400,
		}}
	}

	result, err := finder.SyncSeries(series.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, result.SyncedEpisodes)
	assert.Equal(t, 3, result.TotalSources)

	// 探测补齐了集数记录并更新总集数
	episodes, err := store.GetEpisodes(series.ID)
	require.NoError(t, err)
	assert.Len(t, episodes, 3)

	var reloaded model.Series
	require.NoError(t, db.First(&reloaded, series.ID).Error)
	assert.Equal(t, 3, reloaded.TotalEpisodes)
	assert.NotNil(t, reloaded.LastSyncAt)

	// 无封面的手动系列用最高分视频源缩略图兜底
	assert.NotEmpty(t, reloaded.PosterURL)

	// 同步日志已记录
	var logCount int64
	require.NoError(t, db.Model(&model.SyncLog{}).
		Where("series_id = ?", series.ID).Count(&logCount).Error)
	assert.EqualValues(t, 1, logCount)
}

func TestSyncSeries_EpisodeFailureDoesNotAbortOthers(t *testing.T) {
	search := newFakeSearcher()
	finder, _, db := newTestFinder(t, search)
	tmdbID := int64(12345)
	series := createSeries(t, db, "测试系列", &tmdbID, 2)

	// 目录关联系列不做集数探测，直接同步已有两集。
	// 第1集两个关键词都失败，第2集正常。
	search.results["测试系列 第2集"] = []invidious.Video{{
		VideoID:   "ok",
		Title:     "测试系列 第2集 1080P",
		Duration:  1400,
		ViewCount: 200000,
	}}

	result, err := finder.SyncSeries(series.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SyncedEpisodes)
	assert.Equal(t, 1, result.TotalSources)
}

func TestDiscoverLatestEpisode_NeverDeletesExisting(t *testing.T) {
	search := newFakeSearcher()
	finder, store, db := newTestFinder(t, search)
	series := createSeries(t, db, "测试系列", nil, 5)

	// 搜索只看到第 3 集，已有的 5 集记录必须原样保留
	search.results["测试系列"] = []invidious.Video{
		{VideoID: "d3", Title: "测试系列 第3集"},
	}

	maxEp, err := finder.DiscoverLatestEpisode(series)
	require.NoError(t, err)
	assert.Equal(t, 3, maxEp)

	episodes, err := store.GetEpisodes(series.ID)
	require.NoError(t, err)
	assert.Len(t, episodes, 5)
}

func TestApplyRules_DenyOverridesAllow(t *testing.T) {
	videos := []invidious.Video{
		{VideoID: "a", Title: "测试系列 第1集", ChannelID: "ch-1"},
		{VideoID: "b", Title: "测试系列 第1集 剧场版", ChannelID: "ch-1"},
		{VideoID: "c", Title: "测试系列 第1集", ChannelID: "ch-2"},
	}

	rules := model.RuleSet{
		AllowChannels: []string{"ch-1"},
		DenyKeywords:  []string{"剧场版"},
	}
	filtered := applyRules(videos, rules)
	require.Len(t, filtered, 1)
	// b 命中黑名单关键词，c 不在频道白名单
	assert.Equal(t, "a", filtered[0].VideoID)
}

func TestApplyRules_AllowListsMustBothPass(t *testing.T) {
	videos := []invidious.Video{
		{VideoID: "a", Title: "测试系列 第1集 国语", ChannelID: "ch-1"},
		{VideoID: "b", Title: "测试系列 第1集", ChannelID: "ch-1"},
		{VideoID: "c", Title: "测试系列 第1集 国语", ChannelID: "ch-2"},
	}

	rules := model.RuleSet{
		AllowChannels: []string{"ch-1"},
		AllowKeywords: []string{"国语"},
	}
	filtered := applyRules(videos, rules)
	require.Len(t, filtered, 1)
	assert.Equal(t, "a", filtered[0].VideoID)
}

func TestApplyRules_EmptyRuleSetPassesEverything(t *testing.T) {
	videos := []invidious.Video{
		{VideoID: "a", Title: "任意标题"},
		{VideoID: "b", Title: "另一个标题"},
	}
	filtered := applyRules(videos, model.RuleSet{})
	assert.Len(t, filtered, 2)
}

func TestFindSources_RulesFromStore(t *testing.T) {
	search := newFakeSearcher()
	finder, _, db := newTestFinder(t, search)
	series := createSeries(t, db, "测试系列", nil, 1)

	require.NoError(t, db.Create(&model.SourceRule{
		SeriesID:     series.ID,
		DenyKeywords: `["解说版"]`,
	}).Error)

	search.results["测试系列 第1集"] = []invidious.Video{
		{VideoID: "keep", Title: "测试系列 第1集 1080P", Duration: 1400},
		{VideoID: "drop", Title: "测试系列 第1集 解说版", Duration: 1400},
	}

	sources, err := finder.FindSources(series.ID, 1, true)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "keep", sources[0].VideoID)
}

func TestUpsertSource_ExistingRowUntouched(t *testing.T) {
	search := newFakeSearcher()
	_, store, db := newTestFinder(t, search)
	series := createSeries(t, db, "测试系列", nil, 1)
	epID := episodeID(t, db, series.ID, 1)

	first, err := store.UpsertSource(epID, invidious.Video{
		VideoID: "v1", Title: "原始标题",
	}, 80)
	require.NoError(t, err)

	second, err := store.UpsertSource(epID, invidious.Video{
		VideoID: "v1", Title: "新标题",
	}, 95)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var row model.VideoSource
	require.NoError(t, db.First(&row, first).Error)
	assert.Equal(t, "原始标题", row.Title)
	assert.Equal(t, 80.0, row.MatchScore)
}
