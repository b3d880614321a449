package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_Pipeline(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"punctuation to space", "【斗破苍穹】第5集（高清）", "斗破苍穹 第5集 高清"},
		{"whitespace collapse", "  斗破苍穹   年番  ", "斗破苍穹 年番"},
		{"lowercase", "Battle Through The Heavens EP5", "battle through the heavens ep5"},
		{"traditional to simplified", "鬥羅大陸", "斗罗大陆"},
		{"homophone substitution", "豆破窗穹", "斗破苍穹"},
		{"fullwidth folding", "ＥＰ０５", "ep05"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"【斗破苍穹】第５集 1080P",
		"鬥羅大陸 第二十集",
		"豆破 窗穹 年番",
		"斗罗", // 展开为 斗罗大陆 后不得再次展开
		"no cjk at all!!!",
		"\t\n mixed 　 whitespace",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input: %q", in)
	}
}

func TestNormalize_ArbitraryUnicodeDoesNotPanic(t *testing.T) {
	inputs := []string{
		"\xff\xfe invalid utf8",
		"🎬🎬🎬",
		"ظ؁؂؃ combining ́̂",
		string(rune(0)),
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() { Normalize(in) })
	}
}

func TestSetSubstitutions_DeterministicLongestFirst(t *testing.T) {
	SetSubstitutions(map[string]string{
		"斗破":  "斗破苍穹",
		"斗破苍": "斗破苍穹",
	})
	defer SetSubstitutions(defaultSubstitutions)

	// 较长的 from 先匹配，两条规则结果一致
	assert.Equal(t, "斗破苍穹", Normalize("斗破苍"))
	assert.Equal(t, "斗破苍穹", Normalize("斗破"))
	assert.Equal(t, "斗破苍穹", Normalize("斗破苍穹"))
}
