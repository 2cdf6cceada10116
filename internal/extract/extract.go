package extract

import (
	"errors"
	"fmt"

	"github.com/John-Robertt/topmovies/internal/domain"
)

// ListingExtractor 把“页面布局变化”限制在各自实现内部；normalize/load 只依赖 RawListingItem。
//
// 约束：
// - Extract 必须是纯函数：相同输入 => 相同输出，无副作用
// - 输出长度 == 页面上匹配到的 listing 容器数量，顺序与页面一致
// - 任一容器缺节点或字段解析失败，整体返回错误（不产出部分结果）
type ListingExtractor interface {
	Name() string
	Extract(html []byte) ([]domain.RawListingItem, error)
}

// ErrNoListings 表示页面上没有任何容器匹配 marker（通常是页面改版或 marker 过期）。
var ErrNoListings = errors.New("没有匹配到任何 listing 容器")

// MalformedItemError 表示第 Index 个 listing 容器无法抽取出完整记录。
type MalformedItemError struct {
	Index int    // 0-based，页面顺序
	Field string // "title" / "release_year" / "length" / "kind" / "rating"
	Err   error
}

func (e *MalformedItemError) Error() string {
	return fmt.Sprintf("listing #%d 字段 %s 无效：%v", e.Index, e.Field, e.Err)
}

func (e *MalformedItemError) Unwrap() error { return e.Err }
