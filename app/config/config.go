package config

import (
	"fmt"
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	TMDB      TMDBConfig      `mapstructure:"tmdb"`
	Invidious InvidiousConfig `mapstructure:"invidious"`
	Matcher   MatcherConfig   `mapstructure:"matcher"`
	Sync      SyncConfig      `mapstructure:"sync"`
	Aliases   AliasesConfig   `mapstructure:"aliases"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`      // json 或 text
	Output     string `mapstructure:"output"`      // stdout 或 file
	MaxSize    int    `mapstructure:"max_size"`    // 兆字节
	MaxBackups int    `mapstructure:"max_backups"` // 备份数量
	MaxAge     int    `mapstructure:"max_age"`     // 天数
	Compress   bool   `mapstructure:"compress"`    // 是否压缩旧文件
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type TMDBConfig struct {
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
	Language string `mapstructure:"language"`
}

type InvidiousConfig struct {
	URL          string   `mapstructure:"url"`
	FallbackURLs []string `mapstructure:"fallback_urls"`
	Timeout      int      `mapstructure:"timeout"` // 秒
}

type MatcherConfig struct {
	MatchThreshold        int `mapstructure:"match_threshold"`         // 已关联 TMDB 的系列
	ManualThreshold       int `mapstructure:"manual_threshold"`        // 手动添加的系列（更宽松）
	MaxSearchResults      int `mapstructure:"max_search_results"`      // 单关键词结果上限
	KeywordsLimit         int `mapstructure:"keywords_limit"`          // 取前几个名称生成关键词
	NgramSize             int `mapstructure:"ngram_size"`              // 模糊匹配 N-gram 大小
	CollectionMaxDuration int `mapstructure:"collection_max_duration"` // 单集时长上限（秒）
}

type SyncConfig struct {
	Workers    int `mapstructure:"workers"`     // 整部同步并发数
	MaxSources int `mapstructure:"max_sources"` // 每集保存的视频源上限
}

type AliasesConfig struct {
	Path string `mapstructure:"path"` // 别名词典文件路径，空则用内置数据
}

func Load() *Config {
	setDefaults()

	// 读取配置
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("未找到配置文件，使用默认配置")
		} else {
			log.Fatalf("读取配置文件出错: %v", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		log.Fatalf("无法解码配置: %v", err)
	}

	// 验证配置
	if err := validateConfig(&config); err != nil {
		log.Fatalf("配置验证失败: %v", err)
	}

	return &config
}

// setDefaults 设置默认配置
func setDefaults() {
	viper.SetDefault("server.port", "5000")

	// 日志默认配置
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.max_size", 100)
	viper.SetDefault("log.max_backups", 3)
	viper.SetDefault("log.max_age", 28)
	viper.SetDefault("log.compress", true)

	viper.SetDefault("database.path", "data/tracker.db")

	// TMDB 默认配置
	viper.SetDefault("tmdb.base_url", "https://api.themoviedb.org/3")
	viper.SetDefault("tmdb.language", "zh-CN")

	// Invidious 默认配置
	viper.SetDefault("invidious.url", "https://invidious.snopyta.org")
	viper.SetDefault("invidious.fallback_urls", []string{
		"https://yewtu.be",
		"https://invidious.kavin.rocks",
	})
	viper.SetDefault("invidious.timeout", 30)

	// 匹配算法默认参数
	viper.SetDefault("matcher.match_threshold", 50)
	viper.SetDefault("matcher.manual_threshold", 30)
	viper.SetDefault("matcher.max_search_results", 50)
	viper.SetDefault("matcher.keywords_limit", 5)
	viper.SetDefault("matcher.ngram_size", 2)
	viper.SetDefault("matcher.collection_max_duration", 3600)

	// 同步默认配置
	viper.SetDefault("sync.workers", 4)
	viper.SetDefault("sync.max_sources", 10)

	viper.SetDefault("aliases.path", "data/aliases.yaml")
}

// validateConfig 验证配置的有效性
func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("服务器端口未设置")
	}
	if config.Invidious.URL == "" {
		return fmt.Errorf("Invidious 实例地址未设置")
	}
	if config.Matcher.KeywordsLimit <= 0 {
		return fmt.Errorf("关键词数量限制必须为正数")
	}
	if config.Sync.Workers <= 0 {
		return fmt.Errorf("同步并发数必须为正数")
	}
	return nil
}
