package invidious

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"donghua-tracker/app/config"
	"donghua-tracker/app/logger"

	"resty.dev/v3"
)

// Video 上游搜索返回的候选视频
type Video struct {
	VideoID     string `json:"video_id"`
	Title       string `json:"title"`
	ChannelID   string `json:"channel_id"`
	ChannelName string `json:"channel_name"`
	Duration    int    `json:"duration"`
	ViewCount   int64  `json:"view_count"`
	PublishedAt string `json:"published_at"`
	Published   int64  `json:"published"`
}

// searchItem Invidious /api/v1/search 的响应条目
type searchItem struct {
	Type          string `json:"type"`
	VideoID       string `json:"videoId"`
	Title         string `json:"title"`
	AuthorID      string `json:"authorId"`
	Author        string `json:"author"`
	LengthSeconds int    `json:"lengthSeconds"`
	ViewCount     int64  `json:"viewCount"`
	PublishedText string `json:"publishedText"`
	Published     int64  `json:"published"`
}

// Client Invidious API 客户端，支持多实例故障切换。
// 调用方只会看到结果列表或单次请求失败，切换过程对外不可见。
type Client struct {
	log          *logger.Logger
	client       *resty.Client
	primaryURL   string
	fallbackURLs []string

	mu         sync.RWMutex
	currentURL string
}

// New 创建 Invidious 客户端
func New(cfg config.InvidiousConfig, log *logger.Logger) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("Accept", "application/json")

	primary := strings.TrimRight(cfg.URL, "/")
	fallbacks := make([]string, 0, len(cfg.FallbackURLs))
	for _, u := range cfg.FallbackURLs {
		fallbacks = append(fallbacks, strings.TrimRight(u, "/"))
	}

	c := &Client{
		log:          log,
		client:       client,
		primaryURL:   primary,
		fallbackURLs: fallbacks,
		currentURL:   primary,
	}
	log.Infof("Invidious 客户端初始化，当前实例: %s", primary)
	return c
}

// Probe 探测当前实例是否可用
func (c *Client) Probe() bool {
	url := c.activeURL() + "/api/v1/stats"
	resp, err := c.client.R().Get(url)
	if err != nil {
		c.log.Warnf("Invidious 连接测试失败: %s - %v", url, err)
		return false
	}
	return resp.StatusCode() == 200
}

// Search 搜索视频。
// 请求失败时切换实例重试一次；响应非列表或无法解析时返回空列表而非错误。
func (c *Client) Search(query string, maxResults int) ([]Video, error) {
	body, err := c.request("/api/v1/search", map[string]string{
		"q":       query,
		"type":    "video",
		"sort_by": "relevance",
	})
	if err != nil {
		return nil, err
	}

	var items []searchItem
	if err := json.Unmarshal(body, &items); err != nil {
		c.log.Warnf("Invidious 返回非列表结果: %.200s", string(body))
		return []Video{}, nil
	}

	videos := make([]Video, 0, maxResults)
	for _, item := range items {
		if len(videos) >= maxResults {
			break
		}
		if item.Type != "video" || item.VideoID == "" {
			continue
		}
		videos = append(videos, itemToVideo(item))
	}
	return videos, nil
}

// GetVideo 获取视频详情
func (c *Client) GetVideo(videoID string) (*Video, error) {
	body, err := c.request("/api/v1/videos/"+videoID, nil)
	if err != nil {
		return nil, err
	}

	var item searchItem
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, fmt.Errorf("解析视频详情失败: %w", err)
	}
	if item.VideoID == "" {
		item.VideoID = videoID
	}
	video := itemToVideo(item)
	return &video, nil
}

// request 发送 API 请求，失败时切换实例后重试一次
func (c *Client) request(endpoint string, params map[string]string) ([]byte, error) {
	body, err := c.doRequest(c.activeURL()+endpoint, params)
	if err == nil {
		return body, nil
	}

	c.log.Warnf("Invidious 请求失败: %s - %v，尝试切换实例", endpoint, err)
	c.switchInstance()

	body, err2 := c.doRequest(c.activeURL()+endpoint, params)
	if err2 != nil {
		return nil, fmt.Errorf("Invidious 重试失败: %w", err2)
	}
	return body, nil
}

func (c *Client) doRequest(url string, params map[string]string) ([]byte, error) {
	resp, err := c.client.R().SetQueryParams(params).Get(url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode())
	}
	return resp.Bytes(), nil
}

func (c *Client) activeURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentURL
}

// switchInstance 轮询切换到下一个可探活的实例
func (c *Client) switchInstance() {
	all := append([]string{c.primaryURL}, c.fallbackURLs...)

	current := c.activeURL()
	currentIndex := 0
	for i, u := range all {
		if u == current {
			currentIndex = i
			break
		}
	}

	for i := 1; i < len(all); i++ {
		next := all[(currentIndex+i)%len(all)]
		resp, err := c.client.R().Get(next + "/api/v1/stats")
		if err == nil && resp.StatusCode() == 200 {
			c.mu.Lock()
			c.currentURL = next
			c.mu.Unlock()
			c.log.Infof("Invidious 实例切换至: %s", next)
			return
		}
	}

	c.log.Warnf("所有 Invidious 实例均不可用")
}

func itemToVideo(item searchItem) Video {
	return Video{
		VideoID:     item.VideoID,
		Title:       item.Title,
		ChannelID:   item.AuthorID,
		ChannelName: item.Author,
		Duration:    item.LengthSeconds,
		ViewCount:   item.ViewCount,
		PublishedAt: item.PublishedText,
		Published:   item.Published,
	}
}
