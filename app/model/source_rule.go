package model

import (
	"encoding/json"
	"time"
)

// SourceRule 每个系列的搜索规则，四个字段均为 JSON 字符串数组。
// 序列化格式只在此处解析一次，核心流程只接触 RuleSet。
type SourceRule struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	SeriesID      uint      `gorm:"not null;uniqueIndex;comment:所属系列ID" json:"series_id"`
	AllowKeywords string    `gorm:"type:json;comment:关键词白名单" json:"allow_keywords"`
	DenyKeywords  string    `gorm:"type:json;comment:关键词黑名单" json:"deny_keywords"`
	AllowChannels string    `gorm:"type:json;comment:频道白名单" json:"allow_channels"`
	DenyChannels  string    `gorm:"type:json;comment:频道黑名单" json:"deny_channels"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName 指定表名
func (SourceRule) TableName() string {
	return "source_rules"
}

// RuleSet 强类型的规则值对象。黑名单优先于白名单；
// 非空白名单是排他过滤，频道与关键词白名单需独立通过。
type RuleSet struct {
	AllowKeywords []string
	DenyKeywords  []string
	AllowChannels []string
	DenyChannels  []string
}

// IsEmpty 四个字段是否全为空
func (r RuleSet) IsEmpty() bool {
	return len(r.AllowKeywords) == 0 && len(r.DenyKeywords) == 0 &&
		len(r.AllowChannels) == 0 && len(r.DenyChannels) == 0
}

// Parse 解析为强类型规则。单个字段无法解析时按空处理，
// 坏规则不阻断匹配流程。
func (s *SourceRule) Parse() RuleSet {
	return RuleSet{
		AllowKeywords: parseStringArray(s.AllowKeywords),
		DenyKeywords:  parseStringArray(s.DenyKeywords),
		AllowChannels: parseStringArray(s.AllowChannels),
		DenyChannels:  parseStringArray(s.DenyChannels),
	}
}

func parseStringArray(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}
