package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/John-Robertt/topmovies/internal/infra/fsx"
)

// Store 提供 <root>/cache/ 下的页面快照读写。
//
// 约束：
// - 快照只保存抓取成功（HTTP 200）的原始 HTML
// - ReadOnly=true 时拒绝写入（offline 重放只读）
type Store struct {
	Root     string
	ReadOnly bool
}

var ErrReadOnly = errors.New("cache: read-only")

// ErrNoSnapshot 表示请求的快照不存在（offline 模式下是致命错误）。
var ErrNoSnapshot = errors.New("cache: snapshot not found")

func New(root string, readOnly bool) Store {
	return Store{
		Root:     filepath.Clean(strings.TrimSpace(root)),
		ReadOnly: readOnly,
	}
}

// SnapshotPath 返回某个 layout 的页面快照绝对路径：<root>/cache/pages/<layout>.html
func (s Store) SnapshotPath(layout string) (string, error) {
	l, err := cleanLayout(layout)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.Root, "cache", "pages", l+".html"), nil
}

func (s Store) ReadSnapshot(layout string) ([]byte, error) {
	path, err := s.SnapshotPath(layout)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w：%s", ErrNoSnapshot, path)
		}
		return nil, err
	}
	return b, nil
}

func (s Store) WriteSnapshot(layout string, html []byte) error {
	if s.ReadOnly {
		return ErrReadOnly
	}
	path, err := s.SnapshotPath(layout)
	if err != nil {
		return err
	}
	return fsx.WriteFileAtomic(path, html)
}

var layoutNameRE = regexp.MustCompile(`^[a-z0-9_]+$`)

func cleanLayout(l string) (string, error) {
	l = strings.ToLower(strings.TrimSpace(l))
	if l == "" {
		return "", fmt.Errorf("layout 不能为空")
	}
	// 最小约束：避免路径穿越。
	if !layoutNameRE.MatchString(l) {
		return "", fmt.Errorf("非法 layout：%q", l)
	}
	return l, nil
}
