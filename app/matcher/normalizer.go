package matcher

import (
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/width"
)

// 常见繁体字 → 简体字映射（覆盖国漫标题高频字）
var traditionalRunes = map[rune]rune{
	'鬥': '斗', '羅': '罗', '蒼': '苍', '靈': '灵', '劍': '剑',
	'萬': '万', '獨': '独', '廣': '广', '戰': '战', '龍': '龙',
	'國': '国', '樣': '样', '傳': '传', '恆': '恒', '華': '华',
	'動': '动', '畫': '画', '書': '书', '紀': '纪', '變': '变',
	'鏡': '镜', '輪': '轮', '風': '风', '雲': '云', '無': '无',
	'陸': '陆', '續': '续', '時': '时', '間': '间', '長': '长',
}

// 默认同音字/错别字/缺字映射（UP主规避版权的常见写法）
// 可通过别名词典文件覆盖，见 app/aliases
var defaultSubstitutions = map[string]string{
	"豆破":   "斗破",
	"窗穹":   "苍穹",
	"吃星空":  "吞噬星空",
	"仙尼":   "仙逆",
	"斗破苍":  "斗破苍穹",
	"斗罗":   "斗罗大陆",
	"吞噬":   "吞噬星空",
	"完美世":  "完美世界",
	"凡人修仙": "凡人修仙传",
}

// 需要替换为空格的标点和括号字符
const punctChars = "【】[]()（）《》<>「」『』-_—·•.,，。！!？?:：;；“”\"'‘’＂&＆/\\|~～"

type substitution struct {
	from string
	to   string
}

var (
	subMu sync.RWMutex
	subs  []substitution
)

func init() {
	SetSubstitutions(defaultSubstitutions)
}

// SetSubstitutions 替换同音字映射表。
// 规则按 from 长度降序排列，保证逐位置扫描时最长匹配优先；
// 同时为每个 to 补充恒等规则，使替换结果再次归一化时保持不变。
func SetSubstitutions(table map[string]string) {
	merged := make(map[string]string, len(table)*2)
	for from, to := range table {
		if from == "" || to == "" {
			continue
		}
		merged[from] = to
	}
	for _, to := range merged {
		if _, ok := merged[to]; !ok {
			merged[to] = to
		}
	}

	rules := make([]substitution, 0, len(merged))
	for from, to := range merged {
		rules = append(rules, substitution{from: from, to: to})
	}
	sort.Slice(rules, func(i, j int) bool {
		if len(rules[i].from) != len(rules[j].from) {
			return len(rules[i].from) > len(rules[j].from)
		}
		return rules[i].from < rules[j].from
	})

	subMu.Lock()
	subs = rules
	subMu.Unlock()
}

// Normalize 文本归一化处理
//
// 1. 繁体转简体
// 2. 同音字/错别字替换
// 3. 全角折叠
// 4. 去标点
// 5. 空白归一化
// 6. 小写
//
// 幂等：Normalize(Normalize(x)) == Normalize(x)
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	text = toSimplified(text)
	text = replaceHomophones(text)
	text = width.Fold.String(text)
	text = stripPunct(text)
	text = strings.Join(strings.Fields(text), " ")
	return strings.ToLower(text)
}

func toSimplified(text string) string {
	return strings.Map(func(r rune) rune {
		if s, ok := traditionalRunes[r]; ok {
			return s
		}
		return r
	}, text)
}

// replaceHomophones 从左到右逐位置扫描，每个位置按最长规则优先匹配。
// 命中后跳过整个替换目标，避免重复展开（如 斗罗大陆 → 斗罗大陆大陆）。
func replaceHomophones(text string) string {
	subMu.RLock()
	rules := subs
	subMu.RUnlock()

	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); {
		matched := false
		for _, rule := range rules {
			if strings.HasPrefix(text[i:], rule.from) {
				b.WriteString(rule.to)
				i += len(rule.from)
				matched = true
				break
			}
		}
		if !matched {
			b.WriteByte(text[i])
			i++
		}
	}
	return b.String()
}

func stripPunct(text string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(punctChars, r) {
			return ' '
		}
		return r
	}, text)
}
