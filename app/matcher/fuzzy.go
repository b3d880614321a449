package matcher

import (
	"math"
	"strings"
)

// NgramSize N-gram 相似度的窗口大小，启动时由配置覆盖
var NgramSize = 2

// FuzzyScore 综合模糊匹配评分 (0.0 - 100.0)。
// 入参需已经过 Normalize 处理。逐一对目标标题及全部别名评分取最大值，
// 每种策略覆盖一类噪声：精确转载、截断缺字、同音字变体、单字错写、乱序。
func FuzzyScore(sourceTitle, targetTitle string, aliases []string) float64 {
	allTitles := make([]string, 0, len(aliases)+1)
	allTitles = append(allTitles, targetTitle)
	for _, a := range aliases {
		allTitles = append(allTitles, strings.ToLower(strings.TrimSpace(a)))
	}

	best := 0.0
	for _, title := range allTitles {
		if title == "" {
			continue
		}

		// 精确匹配 → 满分直接返回
		if exactMatch(sourceTitle, title) {
			return 100.0
		}

		score := 0.0

		// 包含匹配
		if containsMatch(sourceTitle, title) {
			score = math.Max(score, 85.0)
		}

		// 子序列匹配（缺字情况，如 "斗破苍" → "斗破苍穹"）
		if ratio := subsequenceRatio(sourceTitle, title); ratio >= 0.8 {
			score = math.Max(score, ratio*80)
		}

		// 字符重叠匹配（同音字替换后仍有残留差异）
		if ratio := charOverlapRatio(sourceTitle, title); ratio >= 0.7 {
			score = math.Max(score, ratio*70)
		}

		// 编辑距离评分
		if maxLen := max(len([]rune(sourceTitle)), len([]rune(title))); maxLen > 0 {
			dist := editDistance(sourceTitle, title)
			score = math.Max(score, math.Max(0, 1-float64(dist)/float64(maxLen))*70)
		}

		// N-gram 相似度评分
		score = math.Max(score, ngramSimilarity(sourceTitle, title, NgramSize)*75)

		best = math.Max(best, score)
	}

	return math.Round(best*100) / 100
}

func exactMatch(s1, s2 string) bool {
	return strings.EqualFold(strings.TrimSpace(s1), strings.TrimSpace(s2))
}

func containsMatch(title, query string) bool {
	t, q := strings.ToLower(title), strings.ToLower(query)
	return strings.Contains(t, q) || strings.Contains(q, t)
}

// subsequenceRatio 计算 query 中有多少字符按顺序出现在 title 中
func subsequenceRatio(title, query string) float64 {
	if title == "" || query == "" {
		return 0
	}
	q := []rune(strings.ToLower(query))
	qi := 0
	for _, ch := range strings.ToLower(title) {
		if qi < len(q) && ch == q[qi] {
			qi++
		}
	}
	return float64(qi) / float64(len(q))
}

// charOverlapRatio 计算 query 每个字符在 title 中出现的比例（不计顺序）
func charOverlapRatio(title, query string) float64 {
	if title == "" || query == "" {
		return 0
	}
	t := strings.ToLower(title)
	matched := 0
	q := []rune(strings.ToLower(query))
	for _, ch := range q {
		if strings.ContainsRune(t, ch) {
			matched++
		}
	}
	return float64(matched) / float64(len(q))
}

// editDistance Levenshtein 编辑距离，按 rune 计算
func editDistance(s1, s2 string) int {
	r1, r2 := []rune(s1), []rune(s2)
	m, n := len(r1), len(r2)

	prev := make([]int, n+1)
	curr := make([]int, n+1)
	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			if r1[i-1] == r2[j-1] {
				curr[j] = prev[j-1]
			} else {
				curr[j] = 1 + min(prev[j], min(curr[j-1], prev[j-1]))
			}
		}
		prev, curr = curr, prev
	}
	return prev[n]
}

// ngramSimilarity N-gram Jaccard 相似度 (0.0 - 1.0)
func ngramSimilarity(s1, s2 string, n int) float64 {
	g1 := ngrams(s1, n)
	g2 := ngrams(s2, n)
	if len(g1) == 0 || len(g2) == 0 {
		return 0
	}

	inter := 0
	for g := range g1 {
		if g2[g] {
			inter++
		}
	}
	union := len(g1) + len(g2) - inter
	return float64(inter) / float64(union)
}

func ngrams(text string, n int) map[string]bool {
	runes := []rune(text)
	if len(runes) < n {
		return nil
	}
	out := make(map[string]bool, len(runes)-n+1)
	for i := 0; i+n <= len(runes); i++ {
		out[string(runes[i:i+n])] = true
	}
	return out
}
