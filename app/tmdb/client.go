package tmdb

import (
	"errors"
	"fmt"
	"time"

	"donghua-tracker/app/config"
	"donghua-tracker/app/logger"

	"github.com/patrickmn/go-cache"
	"resty.dev/v3"
)

// ErrNotConfigured 未配置 API Key
var ErrNotConfigured = errors.New("TMDB API Key 未配置")

// TVResult 剧集搜索结果条目
type TVResult struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	OriginalName string `json:"original_name"`
	Overview     string `json:"overview"`
	PosterPath   string `json:"poster_path"`
	FirstAirDate string `json:"first_air_date"`
}

// TVDetail 剧集详情
type TVDetail struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	OriginalName     string `json:"original_name"`
	Overview         string `json:"overview"`
	PosterPath       string `json:"poster_path"`
	NumberOfEpisodes int    `json:"number_of_episodes"`
	NumberOfSeasons  int    `json:"number_of_seasons"`
	Status           string `json:"status"`
}

const posterImageBase = "https://image.tmdb.org/t/p/w500"

// Client TMDB 目录元数据客户端，响应按 URL 缓存半小时
type Client struct {
	log      *logger.Logger
	client   *resty.Client
	apiKey   string
	language string
	cache    *cache.Cache
}

// New 创建 TMDB 客户端
func New(cfg config.TMDBConfig, log *logger.Logger) *Client {
	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	client.SetTimeout(15 * time.Second)

	return &Client{
		log:      log,
		client:   client,
		apiKey:   cfg.APIKey,
		language: cfg.Language,
		cache:    cache.New(30*time.Minute, 10*time.Minute),
	}
}

// IsConfigured 是否已配置 API Key
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// SearchTV 按名称搜索剧集
func (c *Client) SearchTV(query string) ([]TVResult, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	cacheKey := "search:" + query
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.([]TVResult), nil
	}

	var result struct {
		Results []TVResult `json:"results"`
	}
	resp, err := c.client.R().
		SetQueryParams(map[string]string{
			"api_key":  c.apiKey,
			"language": c.language,
			"query":    query,
		}).
		SetResult(&result).
		Get("/search/tv")
	if err != nil {
		return nil, fmt.Errorf("TMDB 搜索请求失败: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("TMDB 搜索失败，状态码: %d", resp.StatusCode())
	}

	c.cache.Set(cacheKey, result.Results, cache.DefaultExpiration)
	return result.Results, nil
}

// GetTVDetail 获取剧集详情（含总集数）
func (c *Client) GetTVDetail(tmdbID int64) (*TVDetail, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	cacheKey := fmt.Sprintf("tv:%d", tmdbID)
	if cached, ok := c.cache.Get(cacheKey); ok {
		detail := cached.(TVDetail)
		return &detail, nil
	}

	var detail TVDetail
	resp, err := c.client.R().
		SetQueryParams(map[string]string{
			"api_key":  c.apiKey,
			"language": c.language,
		}).
		SetResult(&detail).
		Get(fmt.Sprintf("/tv/%d", tmdbID))
	if err != nil {
		return nil, fmt.Errorf("TMDB 详情请求失败: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("TMDB 详情获取失败，状态码: %d", resp.StatusCode())
	}

	c.cache.Set(cacheKey, detail, cache.DefaultExpiration)
	return &detail, nil
}

// PosterURL 拼接完整封面图地址
func PosterURL(posterPath string) string {
	if posterPath == "" {
		return ""
	}
	return posterImageBase + posterPath
}
