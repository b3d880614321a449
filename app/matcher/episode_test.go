package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractEpisode(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"第01集", 1},
		{"第12话", 12},
		{"第 7 期", 7},
		{"第3回", 3},
		{"EP05", 5},
		{"ep.12", 12},
		{"E8 中字", 8},
		{"#23", 23},
		{"24集", 24},
		{"第十二集", 12},
		{"第二十集", 20},
		{"第二十三话", 23},
		{"第一百零三集", 103},
		{"斗破苍穹 年番 第99集 1080P", 99},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := ExtractEpisode(tc.in)
			require.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExtractEpisode_NoMatch(t *testing.T) {
	for _, in := range []string{"no digits here", "", "斗破苍穹"} {
		_, ok := ExtractEpisode(in)
		assert.False(t, ok, "input: %q", in)
	}
}

func TestExtractEpisode_PatternPriority(t *testing.T) {
	// 第N集 优先于裸数字+单位
	got, ok := ExtractEpisode("2023 斗罗大陆 第5集")
	require.True(t, ok)
	assert.Equal(t, 5, got)
}

func TestExtractEpisode_RangeNotSingleEpisode(t *testing.T) {
	// EP 后跟范围分隔符不算单集标记，回落到其他模式
	got, ok := ExtractEpisode("EP1-24集")
	require.True(t, ok)
	assert.NotEqual(t, 1, got)
}

func TestExtractSeason(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"第2季", 2},
		{"S03", 3},
		{"Season 4", 4},
		{"第三季", 3},
	}
	for _, tc := range cases {
		got, ok := ExtractSeason(tc.in)
		require.True(t, ok, "input: %q", tc.in)
		assert.Equal(t, tc.want, got)
	}

	_, ok := ExtractSeason("斗破苍穹 第5集")
	assert.False(t, ok)
}

func TestCnNumToInt(t *testing.T) {
	cases := map[string]int{
		"一":    1,
		"十":    10,
		"十二":   12,
		"二十":   20,
		"二十三":  23,
		"一百":   100,
		"一百零三": 103,
		"三百二十": 320,
		"两千":   2000,
	}
	for in, want := range cases {
		assert.Equal(t, want, cnNumToInt(in), "input: %q", in)
	}
}
