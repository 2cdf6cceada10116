package main

import (
	"bytes"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/John-Robertt/topmovies/internal/app/run"
	"github.com/John-Robertt/topmovies/internal/config"
	"github.com/John-Robertt/topmovies/internal/domain"
)

func TestProgressUI_Lines(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressUI(&buf)
	p.now = func() time.Time { return time.Date(2024, 1, 1, 9, 8, 7, 0, time.UTC) }

	p.OnStart(config.EffectiveConfig{URL: "https://example.test/", Layout: "imdb_chart", Offline: true, ProxyURL: "http://u:p@proxy:8080"})
	p.OnStageDone(run.StageExtract, map[string]any{"items": 3}, 1500*time.Millisecond)
	p.OnSinkDone(domain.SinkResult{Sink: "db", Target: "x.db#T", OK: false, Message: "Error saving DB: boom"})
	p.OnStageDone(run.StageTransform, map[string]any{"error": "bad length"}, 0)

	out := buf.String()
	for _, want := range []string{
		"[09:08:07] topmovies run (offline)",
		"proxy: on (http://proxy:8080, auth=on)",
		"抽取: items=3 (1.5s)",
		"[db] FAIL x.db#T: Error saving DB: boom",
		"规范化: FAIL bad length (0.0s)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("输出缺少 %q：\n%s", want, out)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdefgh", 6); got != "abc..." {
		t.Fatalf("期望 abc...，实际 %q", got)
	}
	if got := truncate("  ab  ", 6); got != "ab" {
		t.Fatalf("期望 ab，实际 %q", got)
	}
}

func TestTruncate_MultiByteMessage(t *testing.T) {
	if got := truncate("千と千尋の神隠し", 7); got != "千と..." {
		t.Fatalf("期望 千と...，实际 %q", got)
	}

	msg := "sqlite: 写入失败：" + strings.Repeat("数据库已锁定", 40)
	for _, max := range []int{2, 3, 50, 120, 160} {
		got := truncate(msg, max)
		if !utf8.ValidString(got) {
			t.Fatalf("max=%d 截断结果不是合法 UTF-8：%q", max, got)
		}
		if w := runewidth.StringWidth(got); w > max {
			t.Fatalf("max=%d 截断后显示宽度 %d 超出限制", max, w)
		}
	}
}
