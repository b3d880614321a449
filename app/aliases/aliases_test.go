package aliases

import (
	"os"
	"path/filepath"
	"testing"

	"donghua-tracker/app/logger"
	"donghua-tracker/app/matcher"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_Builtin(t *testing.T) {
	d := New("", logger.Nop())

	found := d.Lookup("斗破苍穹")
	assert.Contains(t, found, "斗破")
	assert.Contains(t, found, "BTTH")

	assert.Empty(t, d.Lookup("不存在的系列"))
}

func TestLookup_ReturnsCopy(t *testing.T) {
	d := New("", logger.Nop())

	found := d.Lookup("斗罗大陆")
	require.NotEmpty(t, found)
	found[0] = "篡改"

	again := d.Lookup("斗罗大陆")
	assert.NotEqual(t, "篡改", again[0])
}

func TestReload_FileAliasesOverrideBuiltin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.yaml")
	content := `
series_aliases:
  斗破苍穹:
    - 自定义别名
  新系列:
    - 新别名
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	d := New(path, logger.Nop())

	// 文件里的系列整体覆盖内置条目
	assert.Equal(t, []string{"自定义别名"}, d.Lookup("斗破苍穹"))
	assert.Equal(t, []string{"新别名"}, d.Lookup("新系列"))

	// 文件未提及的内置条目保留
	assert.NotEmpty(t, d.Lookup("斗罗大陆"))
}

func TestReload_BadFileKeepsExistingData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{{不是yaml"), 0644))

	d := New(path, logger.Nop())
	assert.NotEmpty(t, d.Lookup("斗破苍穹"))
}

func TestReload_PushesHomophones(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.yaml")
	content := `
homophones:
  affa: 测试系列甲
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	New(path, logger.Nop())

	assert.Equal(t, "测试系列甲", matcher.Normalize("affa"))
}
