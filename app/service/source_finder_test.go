package service

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"donghua-tracker/app/config"
	"donghua-tracker/app/database"
	"donghua-tracker/app/invidious"
	"donghua-tracker/app/logger"
	"donghua-tracker/app/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// fakeSearcher 可编排的上游搜索实现
type fakeSearcher struct {
	mu      sync.Mutex
	calls   []string
	results map[string][]invidious.Video
	errs    map[string]error
}

func newFakeSearcher() *fakeSearcher {
	return &fakeSearcher{
		results: make(map[string][]invidious.Video),
		errs:    make(map[string]error),
	}
}

func (f *fakeSearcher) Search(query string, maxResults int) ([]invidious.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, query)
	if err, ok := f.errs[query]; ok {
		return nil, err
	}
	return f.results[query], nil
}

func (f *fakeSearcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func testConfig() *config.Config {
	return &config.Config{
		Matcher: config.MatcherConfig{
			MatchThreshold:        50,
			ManualThreshold:       30,
			MaxSearchResults:      50,
			KeywordsLimit:         5,
			NgramSize:             2,
			CollectionMaxDuration: 3600,
		},
		Sync: config.SyncConfig{Workers: 4, MaxSources: 10},
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))
	return db
}

func newTestFinder(t *testing.T, search Searcher) (*SourceFinder, *SourceStore, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	store := NewSourceStore(db, logger.Nop())
	finder := NewSourceFinder(testConfig(), logger.Nop(), store, search, nil)
	return finder, store, db
}

func createSeries(t *testing.T, db *gorm.DB, title string, tmdbID *int64, episodes int) *model.Series {
	t.Helper()
	series := &model.Series{Title: title, TmdbID: tmdbID}
	require.NoError(t, db.Create(series).Error)
	for i := 1; i <= episodes; i++ {
		require.NoError(t, db.Create(&model.Episode{
			SeriesID:    series.ID,
			AbsoluteNum: i,
			SeasonNum:   1,
			EpisodeNum:  i,
		}).Error)
	}
	return series
}

func TestFindSources_EndToEnd(t *testing.T) {
	// 手动追踪系列（宽松阈值）：正片候选被接受，合集候选被过滤
	search := newFakeSearcher()
	finder, store, db := newTestFinder(t, search)
	series := createSeries(t, db, "Example Series", nil, 3)

	require.NoError(t, db.Create(&model.TrustedChannel{ChannelID: "trusted-ch"}).Error)

	candidates := []invidious.Video{
		{
			VideoID:   "good-video",
			Title:     "Example Series 第3集 1080P",
			ChannelID: "trusted-ch",
			Duration:  1400,
		},
		{
			VideoID:  "collection-video",
			Title:    "Example Series 合集 1-20集",
			Duration: 18000,
		},
	}
	search.results["Example Series 第3集"] = candidates

	sources, err := finder.FindSources(series.ID, 3, false)
	require.NoError(t, err)
	require.Len(t, sources, 1)

	assert.Equal(t, "good-video", sources[0].VideoID)
	assert.GreaterOrEqual(t, sources[0].MatchScore, 90.0)

	// 合集候选没有落库
	cached, err := store.GetCachedSources(episodeID(t, db, series.ID, 3))
	require.NoError(t, err)
	require.Len(t, cached, 1)
}

func TestFindSources_CacheHit(t *testing.T) {
	search := newFakeSearcher()
	finder, _, db := newTestFinder(t, search)
	series := createSeries(t, db, "测试系列", nil, 1)

	require.NoError(t, db.Create(&model.VideoSource{
		EpisodeID:  episodeID(t, db, series.ID, 1),
		VideoID:    "cached-video",
		Title:      "测试系列 第1集",
		MatchScore: 88,
	}).Error)

	sources, err := finder.FindSources(series.ID, 1, false)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "cached-video", sources[0].VideoID)

	// 缓存命中不发起任何搜索
	assert.Zero(t, search.callCount())
}

func TestFindSources_ForceBypassesCache(t *testing.T) {
	search := newFakeSearcher()
	finder, _, db := newTestFinder(t, search)
	series := createSeries(t, db, "测试系列", nil, 1)

	require.NoError(t, db.Create(&model.VideoSource{
		EpisodeID:  episodeID(t, db, series.ID, 1),
		VideoID:    "cached-video",
		Title:      "测试系列 第1集",
		MatchScore: 88,
	}).Error)

	_, err := finder.FindSources(series.ID, 1, true)
	require.NoError(t, err)
	assert.Positive(t, search.callCount())
}

func TestFindSources_DedupAcrossResyncs(t *testing.T) {
	search := newFakeSearcher()
	finder, _, db := newTestFinder(t, search)
	series := createSeries(t, db, "测试系列", nil, 1)

	video := invidious.Video{
		VideoID:  "same-video",
		Title:    "测试系列 第1集 1080P",
		Duration: 1400,
	}
	search.results["测试系列 第1集"] = []invidious.Video{video}
	search.results["测试系列 EP1"] = []invidious.Video{video}

	first, err := finder.FindSources(series.ID, 1, true)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := finder.FindSources(series.ID, 1, true)
	require.NoError(t, err)
	require.Len(t, second, 1, "重复同步不得产生重复行")

	var count int64
	require.NoError(t, db.Model(&model.VideoSource{}).
		Where("video_id = ?", "same-video").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestFindSources_KeywordFailureDoesNotAbort(t *testing.T) {
	search := newFakeSearcher()
	finder, _, db := newTestFinder(t, search)
	series := createSeries(t, db, "测试系列", nil, 1)

	search.errs["测试系列 第1集"] = errors.New("连接超时")
	search.results["测试系列 EP1"] = []invidious.Video{{
		VideoID:  "survivor",
		Title:    "测试系列 第1集 1080P",
		Duration: 1400,
	}}

	sources, err := finder.FindSources(series.ID, 1, true)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "survivor", sources[0].VideoID)
}

func TestFindSources_AllKeywordsFailReturnsEmpty(t *testing.T) {
	// 全部关键词失败等同于无结果，不是错误
	search := newFakeSearcher()
	finder, _, db := newTestFinder(t, search)
	series := createSeries(t, db, "测试系列", nil, 1)

	search.errs["测试系列 第1集"] = errors.New("连接超时")
	search.errs["测试系列 EP1"] = errors.New("连接超时")

	sources, err := finder.FindSources(series.ID, 1, true)
	require.NoError(t, err)
	assert.Empty(t, sources)
}

func TestFindSources_MissingSeriesOrEpisode(t *testing.T) {
	search := newFakeSearcher()
	finder, _, db := newTestFinder(t, search)

	_, err := finder.FindSources(999, 1, false)
	assert.Error(t, err)

	series := createSeries(t, db, "测试系列", nil, 1)
	_, err = finder.FindSources(series.ID, 42, false)
	assert.Error(t, err)
}

func TestFindSources_ThresholdInclusive(t *testing.T) {
	// 标题精确匹配(100×0.40) + 无集数标记(20×0.30) + 发布1天内(100×0.15)
	// 且无频道分、无画质加分 → 总分恰好 61
	search := newFakeSearcher()
	finder, _, db := newTestFinder(t, search)
	finder.cfg.Matcher.ManualThreshold = 61
	series := createSeries(t, db, "测试系列 年番", nil, 1)

	search.results["测试系列 年番 第1集"] = []invidious.Video{{
		VideoID:   "borderline",
		Title:     "测试系列 年番",
		Duration:  1400,
		Published: time.Now().Add(-24 * time.Hour).Unix(),
	}}

	sources, err := finder.FindSources(series.ID, 1, true)
	require.NoError(t, err)
	require.Len(t, sources, 1, "达到阈值即接受（包含关系）")
	assert.Equal(t, 61.0, sources[0].MatchScore)

	// 阈值再高一分则拒绝
	finder2, _, db2 := newTestFinder(t, search)
	finder2.cfg.Matcher.ManualThreshold = 62
	series2 := createSeries(t, db2, "测试系列 年番", nil, 1)

	sources2, err := finder2.FindSources(series2.ID, 1, true)
	require.NoError(t, err)
	assert.Empty(t, sources2)
}

func TestFindSources_TopTenLimit(t *testing.T) {
	search := newFakeSearcher()
	finder, _, db := newTestFinder(t, search)
	series := createSeries(t, db, "测试系列", nil, 1)

	videos := make([]invidious.Video, 0, 15)
	for i := 0; i < 15; i++ {
		videos = append(videos, invidious.Video{
			VideoID:   fmt.Sprintf("video-%02d", i),
			Title:     "测试系列 第1集 1080P",
			Duration:  1400,
			ViewCount: int64(200000 - i*1000),
		})
	}
	search.results["测试系列 第1集"] = videos

	sources, err := finder.FindSources(series.ID, 1, true)
	require.NoError(t, err)
	assert.Len(t, sources, 10, "每集最多保存 10 个视频源")
}

func TestFindSources_SortedByScoreDescending(t *testing.T) {
	search := newFakeSearcher()
	finder, _, db := newTestFinder(t, search)
	series := createSeries(t, db, "测试系列", nil, 1)

	search.results["测试系列 第1集"] = []invidious.Video{
		{VideoID: "low", Title: "测试系列 第1集", Duration: 1400},
		{VideoID: "high", Title: "测试系列 第1集 4K", Duration: 1400, ViewCount: 500000},
	}

	sources, err := finder.FindSources(series.ID, 1, true)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "high", sources[0].VideoID)
	assert.GreaterOrEqual(t, sources[0].MatchScore, sources[1].MatchScore)
}

func episodeID(t *testing.T, db *gorm.DB, seriesID uint, absoluteNum int) uint {
	t.Helper()
	var ep model.Episode
	require.NoError(t, db.Where("series_id = ? AND absolute_num = ?", seriesID, absoluteNum).
		First(&ep).Error)
	return ep.ID
}
