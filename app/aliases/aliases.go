package aliases

import (
	"os"
	"strings"
	"sync"

	"donghua-tracker/app/logger"
	"donghua-tracker/app/matcher"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// 内置国漫别名库，词典文件缺失时的兜底数据
var builtinSeriesAliases = map[string][]string{
	"斗破苍穹":  {"斗破苍穹动画", "Battle Through the Heavens", "BTTH", "斗破"},
	"斗罗大陆":  {"斗罗大陆动画", "Soul Land", "斗罗"},
	"完美世界":  {"完美世界动画", "Perfect World"},
	"吞噬星空":  {"吞噬星空动画", "Swallowed Star"},
	"仙逆":    {"仙逆动画", "Renegade Immortal"},
	"凡人修仙传": {"凡人修仙传动画", "A Record of a Mortal's Journey to Immortality", "凡人"},
	"一念永恒":  {"一念永恒动画", "A Will Eternal"},
	"遮天":    {"遮天动画", "Shrouding the Heavens"},
	"武动乾坤":  {"武动乾坤动画", "Martial Universe"},
	"秦时明月":  {"秦时明月动画", "Qin's Moon"},
	"少年歌行":  {"少年歌行动画", "The Young Brewmaster's Adventure"},
	"师兄啊师兄": {"师兄啊师兄动画"},
	"百炼成神":  {"百炼成神动画"},
	"元龙":    {"元龙动画"},
}

// dictFile 词典文件结构
type dictFile struct {
	Homophones    map[string]string   `yaml:"homophones"`
	SeriesAliases map[string][]string `yaml:"series_aliases"`
}

// Dictionary 外置别名/同音字词典。
// 词典是版本化的数据资源而非编译期常量，文件变更时热加载，
// 同音字表同步推送给 matcher 归一化器。
type Dictionary struct {
	log  *logger.Logger
	path string

	mu      sync.RWMutex
	aliases map[string][]string

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
}

// New 创建词典并加载文件，path 为空或文件缺失时使用内置数据
func New(path string, log *logger.Logger) *Dictionary {
	d := &Dictionary{
		log:     log,
		path:    path,
		aliases: builtinSeriesAliases,
		done:    make(chan struct{}),
	}
	d.reload()
	return d
}

// Lookup 获取系列的全局别名，返回副本
func (d *Dictionary) Lookup(title string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	found := d.aliases[title]
	if found == nil {
		// 标题大小写/空白差异兜底
		for name, list := range d.aliases {
			if strings.EqualFold(strings.TrimSpace(name), strings.TrimSpace(title)) {
				found = list
				break
			}
		}
	}
	out := make([]string, len(found))
	copy(out, found)
	return out
}

// Watch 监听词典文件变更并热加载
func (d *Dictionary) Watch() error {
	if d.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(d.path); err != nil {
		watcher.Close()
		return err
	}
	d.watcher = watcher

	d.wg.Add(1)
	go d.watchLoop()
	d.log.Infof("别名词典监听已启动: %s", d.path)
	return nil
}

// Close 停止文件监听
func (d *Dictionary) Close() {
	if d.watcher == nil {
		return
	}
	close(d.done)
	d.watcher.Close()
	d.wg.Wait()
}

func (d *Dictionary) watchLoop() {
	defer d.wg.Done()

	for {
		select {
		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				d.log.Infof("别名词典文件变更，重新加载: %s", event.Name)
				d.reload()
			}
		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.log.Warnf("别名词典监听出错: %v", err)
		case <-d.done:
			return
		}
	}
}

// reload 读取词典文件。文件缺失或无法解析时保留现有数据，
// 不让坏词典拖垮匹配流程。
func (d *Dictionary) reload() {
	if d.path == "" {
		return
	}

	data, err := os.ReadFile(d.path)
	if err != nil {
		if !os.IsNotExist(err) {
			d.log.Warnf("读取别名词典失败: %v", err)
		}
		return
	}

	var file dictFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		d.log.Warnf("解析别名词典失败，沿用现有词典: %v", err)
		return
	}

	if len(file.SeriesAliases) > 0 {
		merged := make(map[string][]string, len(builtinSeriesAliases)+len(file.SeriesAliases))
		for k, v := range builtinSeriesAliases {
			merged[k] = v
		}
		for k, v := range file.SeriesAliases {
			merged[k] = v
		}
		d.mu.Lock()
		d.aliases = merged
		d.mu.Unlock()
	}

	if len(file.Homophones) > 0 {
		matcher.SetSubstitutions(file.Homophones)
	}

	d.log.Infof("别名词典加载完成: %d 个系列, %d 条同音字映射",
		len(file.SeriesAliases), len(file.Homophones))
}
