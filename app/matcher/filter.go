package matcher

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// CollectionMaxDuration 单集时长上限（秒），超过视为合集。
// 启动时由配置覆盖。
var CollectionMaxDuration = 3600

// 合集/连播关键词
var collectionKeywords = []string{
	"合集", "全集", "连续播放", "一口气看完", "1-", "1～",
	"大合集", "合辑", "联播", "马拉松", "连播",
}

// 可能是频道品牌误伤的合集词（标题带具体集数时放行）
var collectionBrandKeywords = map[string]bool{
	"合集": true, "大合集": true, "合辑": true,
}

// 非正片内容关键词，按类别独立维护
var nonEpisodeCategories = []struct {
	name     string
	keywords []string
}{
	{"剪辑", []string{
		"混剪", "剪辑", "cut", "名场面", "高能", "高燃",
		"高光", "催泪", "感动", "燃向", "踩点",
	}},
	{"解说", []string{
		"解说", "解析", "详解", "评价", "吐槽", "盘点", "分析",
		"科普", "讲解", "拉片", "react", "reaction", "反应",
	}},
	{"预告", []string{
		"预告", "pv", "cm", "宣传", "先行", "预热",
		"片花", "trailer", "preview", "teaser",
	}},
	{"音乐", []string{
		"op", "ed", "ost", "bgm", "片头曲", "片尾曲",
		"主题曲", "插曲", "amv", "mad", "同人",
	}},
}

// 全局排除关键词
var excludeKeywords = []string{
	"教程", "教学", "攻略", "特别篇花絮",
}

var (
	collectionRangeRe = regexp.MustCompile(`(\d+)\s*[-~～到至]\s*(\d+)\s*[集话話期回]`)
	collectionAllRe   = regexp.MustCompile(`[全共]\s*(\d+)\s*[集话話期回]`)
	specificEpRe      = regexp.MustCompile(`第\s*\d+\s*[集话話期回]|[Ee][Pp]?\s*\d+`)
)

// ShouldFilter 综合判断候选视频是否应被过滤（合集或非正片）。
// 无状态纯函数，返回过滤原因供诊断。
func ShouldFilter(title string, duration int) (bool, string) {
	if ok, reason := isCollection(title, duration); ok {
		return true, reason
	}
	if ok, reason := isNonEpisodeContent(title); ok {
		return true, reason
	}
	return false, ""
}

// isCollection 检测合集视频。
// 标题带具体集数标记时，品牌类合集词视为误伤放行；
// 时长偏长但未超上限 1.5 倍且带具体集数的长单集同样放行。
func isCollection(title string, duration int) (bool, string) {
	titleLower := strings.ToLower(title)
	hasSpecificEp := hasEpisodeMarker(title)

	for _, kw := range collectionKeywords {
		if !strings.Contains(titleLower, strings.ToLower(kw)) {
			continue
		}
		if hasSpecificEp && collectionBrandKeywords[kw] {
			continue
		}
		return true, "合集关键词: " + kw
	}

	if m := collectionRangeRe.FindStringSubmatch(title); m != nil {
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[2])
		if end-start >= 2 {
			return true, fmt.Sprintf("集数范围: %d-%d", start, end)
		}
	}

	if collectionAllRe.MatchString(title) {
		return true, "全集模式"
	}

	if duration > 0 && duration > CollectionMaxDuration {
		if hasSpecificEp && duration < CollectionMaxDuration*3/2 {
			return false, ""
		}
		return true, fmt.Sprintf("时长过长: %ds", duration)
	}

	return false, ""
}

// isNonEpisodeContent 检测剪辑/解说/预告/音乐等非正片内容，不做放行例外
func isNonEpisodeContent(title string) (bool, string) {
	titleLower := strings.ToLower(title)

	for _, cat := range nonEpisodeCategories {
		for _, kw := range cat.keywords {
			if strings.Contains(titleLower, kw) {
				return true, fmt.Sprintf("非正片[%s]关键词: %s", cat.name, kw)
			}
		}
	}

	for _, kw := range excludeKeywords {
		if strings.Contains(titleLower, strings.ToLower(kw)) {
			return true, "排除关键词: " + kw
		}
	}

	return false, ""
}

// hasEpisodeMarker 检测标题是否带具体单集标记（如 "第5集"、"EP05"），
// EP 后紧跟范围分隔符的写法不算。
func hasEpisodeMarker(title string) bool {
	for _, loc := range specificEpRe.FindAllStringIndex(title, -1) {
		if !followedByRangeSep(title, loc[1]) {
			return true
		}
	}
	return false
}
