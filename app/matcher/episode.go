package matcher

import (
	"regexp"
	"strconv"
	"strings"
)

// 集数提取模式，按优先级排列，先命中先返回。
// 均作用于原始标题，不做归一化（归一化会破坏 EP/# 等标记）。
var episodePatterns = []*regexp.Regexp{
	regexp.MustCompile(`第\s*(\d+)\s*[集话話期回]`),
	regexp.MustCompile(`[Ee][Pp]?\s*\.?\s*(\d+)`),
	regexp.MustCompile(`#\s*(\d+)`),
	regexp.MustCompile(`(\d+)\s*[集话話期回]`),
	regexp.MustCompile(`第\s*([一二三四五六七八九十百千两零]+)\s*[集话話期回]`),
}

var seasonPatterns = []*regexp.Regexp{
	regexp.MustCompile(`第\s*(\d+)\s*季`),
	regexp.MustCompile(`[Ss](?:eason)?\s*(\d+)`),
	regexp.MustCompile(`第\s*([一二三四五六七八九十]+)\s*季`),
}

var (
	cnNumRe   = regexp.MustCompile(`^[一二三四五六七八九十百千两零]+$`)
	rangeSeps = "-~～到至"
)

// 中文数字位值
var cnNumMap = map[rune]int{
	'一': 1, '二': 2, '三': 3, '四': 4, '五': 5,
	'六': 6, '七': 7, '八': 8, '九': 9, '两': 2,
	'十': 10, '百': 100, '千': 1000,
}

// ExtractEpisode 从标题中提取集数，未找到返回 (0, false)。
// EP/E 标记后紧跟范围分隔符（如 "EP1-24"）不视为单集标记。
func ExtractEpisode(text string) (int, bool) {
	for i, pattern := range episodePatterns {
		for _, loc := range pattern.FindAllStringSubmatchIndex(text, -1) {
			// EP 模式需排除范围写法
			if i == 1 && followedByRangeSep(text, loc[1]) {
				continue
			}
			numStr := text[loc[2]:loc[3]]
			if cnNumRe.MatchString(numStr) {
				return cnNumToInt(numStr), true
			}
			if n, err := strconv.Atoi(numStr); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// ExtractSeason 从标题中提取季数，未找到返回 (0, false)。
func ExtractSeason(text string) (int, bool) {
	for _, pattern := range seasonPatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		numStr := match[1]
		if cnNumRe.MatchString(numStr) {
			return cnNumToInt(numStr), true
		}
		if n, err := strconv.Atoi(numStr); err == nil {
			return n, true
		}
	}
	return 0, false
}

// followedByRangeSep 判断位置 pos 之后（允许空白）是否紧跟范围分隔符
func followedByRangeSep(text string, pos int) bool {
	rest := strings.TrimLeft(text[pos:], " \t")
	for _, r := range rest {
		return strings.ContainsRune(rangeSeps, r)
	}
	return false
}

// cnNumToInt 中文数字转阿拉伯数字（位值算法）。
// 十/百/千 为倍数单位，单位前无数字时按一计（"十二" = 12，"二十" = 20）。
// 未知字符直接跳过，保证任意输入不崩溃。
func cnNumToInt(cn string) int {
	result := 0
	temp := 0
	for _, r := range cn {
		val, ok := cnNumMap[r]
		if !ok {
			continue
		}
		if val >= 10 {
			if temp == 0 {
				temp = 1
			}
			result += temp * val
			temp = 0
		} else {
			temp = val
		}
	}
	return result + temp
}
