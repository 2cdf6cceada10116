// Package log 提供进程级的 zerolog 控制台诊断日志。
//
// 进度日志（log.txt）不经过这里，见 internal/progress。
package log

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Config 是日志初始化参数；零值可用。
type Config struct {
	Level   string    // 为空时读取 LOG_LEVEL，仍为空则 info
	Output  io.Writer // 默认 os.Stderr
	Service string    // 默认 "topmovies"
	// Console=true 强制人类可读格式；为 false 时按 Output 是否为终端决定。
	Console bool
}

var (
	mu   sync.RWMutex
	base = zerolog.Nop()
)

// Configure 重建全局 logger；可重复调用（最后一次生效）。
func Configure(cfg Config) zerolog.Logger {
	level := parseLevel(cfg.Level)
	if strings.TrimSpace(cfg.Level) == "" {
		level = parseLevel(os.Getenv("LOG_LEVEL"))
	}

	w := cfg.Output
	if w == nil {
		w = os.Stderr
	}
	if cfg.Console || isTerminal(w) {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}

	service := strings.TrimSpace(cfg.Service)
	if service == "" {
		service = "topmovies"
	}

	l := zerolog.New(w).Level(level).With().
		Timestamp().
		Str("service", service).
		Logger()

	mu.Lock()
	base = l
	mu.Unlock()
	return l
}

func parseLevel(s string) zerolog.Level {
	s = strings.TrimSpace(s)
	if s == "" {
		return zerolog.InfoLevel
	}
	lv, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zerolog.InfoLevel
	}
	return lv
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Base 返回当前全局 logger；未 Configure 时为 Nop。
func Base() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// WithComponent 返回带 component 字段的子 logger。
func WithComponent(component string) zerolog.Logger {
	return Base().With().Str("component", component).Logger()
}
