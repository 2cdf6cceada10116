package extract

import (
	"fmt"
	"sort"
	"strings"
)

// Registry 是 extractor 的只读注册表（按 layout name 索引）。
type Registry struct {
	byName map[string]ListingExtractor
}

func NewRegistry(extractors ...ListingExtractor) (Registry, error) {
	byName := make(map[string]ListingExtractor, len(extractors))
	for _, x := range extractors {
		if x == nil {
			return Registry{}, fmt.Errorf("extractor 不能为空")
		}
		name := strings.ToLower(strings.TrimSpace(x.Name()))
		if name == "" {
			return Registry{}, fmt.Errorf("extractor.Name 不能为空")
		}
		if _, ok := byName[name]; ok {
			return Registry{}, fmt.Errorf("重复的 extractor：%q", name)
		}
		byName[name] = x
	}
	return Registry{byName: byName}, nil
}

func (r Registry) Get(name string) (ListingExtractor, bool) {
	if r.byName == nil {
		return nil, false
	}
	name = strings.ToLower(strings.TrimSpace(name))
	x, ok := r.byName[name]
	return x, ok
}

// Names 返回已注册的 layout 名称（已排序，用于帮助信息与错误提示）。
func (r Registry) Names() []string {
	out := make([]string, 0, len(r.byName))
	for n := range r.byName {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
