package main

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/John-Robertt/topmovies/internal/app/run"
	"github.com/John-Robertt/topmovies/internal/config"
	"github.com/John-Robertt/topmovies/internal/domain"
)

var _ run.Observer = (*progressUI)(nil)

// progressUI 是交互终端下的阶段进度输出。
//
// 约束：
// - 所有过程信息写到 stderr（或 fallback 到 stdout），不污染 stdout 的 JSON 输出契约
// - 事件驱动：run 层只发事件，CLI 决定如何展示
type progressUI struct {
	w io.Writer

	mu        sync.Mutex
	startedAt time.Time
	now       func() time.Time
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{w: w, now: time.Now}
}

func (p *progressUI) OnStart(eff config.EffectiveConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if p.startedAt.IsZero() {
		p.startedAt = now
	}

	mode := "online"
	if eff.Offline {
		mode = "offline"
	}
	fmt.Fprintf(p.w, "[%s] topmovies run (%s)\n", now.Format("15:04:05"), mode)
	fmt.Fprintln(p.w, "配置（生效）:")
	fmt.Fprintf(p.w, "  url: %s\n", truncate(eff.URL, 120))
	fmt.Fprintf(p.w, "  layout: %s\n", eff.Layout)
	if strings.TrimSpace(eff.ContainerMarker) != "" {
		fmt.Fprintf(p.w, "  container_marker: %s\n", truncate(eff.ContainerMarker, 120))
	}
	fmt.Fprintf(p.w, "  proxy: %s\n", formatProxy(eff.ProxyURL))
	fmt.Fprintf(p.w, "  timeout: %s\n", eff.Timeout)
	fmt.Fprintf(p.w, "  snapshot: %s\n", onOff(eff.Snapshot))
	fmt.Fprintln(p.w)
}

func (p *progressUI) OnStageDone(name string, fields map[string]any, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if msg, ok := fields["error"]; ok {
		fmt.Fprintf(p.w, "%s: FAIL %v (%s)\n", stageLabel(name), truncate(fmt.Sprint(msg), 160), formatShortDuration(dur))
		return
	}

	switch name {
	case run.StageFetch:
		fmt.Fprintf(p.w, "抓取: source=%v bytes=%d (%s)\n", fields["source"], intField(fields, "bytes"), formatShortDuration(dur))
	case run.StageExtract:
		fmt.Fprintf(p.w, "抽取: items=%d (%s)\n", intField(fields, "items"), formatShortDuration(dur))
	case run.StageTransform:
		fmt.Fprintf(p.w, "规范化: records=%d (%s)\n", intField(fields, "records"), formatShortDuration(dur))
	case run.StageLoad:
		fmt.Fprintf(p.w, "写入: ok=%d failed=%d (%s)\n", intField(fields, "ok"), intField(fields, "failed"), formatShortDuration(dur))
	case run.StageQuery:
		fmt.Fprintf(p.w, "回读: rows=%d %v (%s)\n", intField(fields, "rows"), fields["status"], formatShortDuration(dur))
	default:
		fmt.Fprintf(p.w, "%s (%s)\n", name, formatShortDuration(dur))
	}
}

func (p *progressUI) OnSinkDone(res domain.SinkResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	status := "OK"
	if !res.OK {
		status = "FAIL"
	}
	fmt.Fprintf(p.w, "  [%s] %s %s: %s\n", res.Sink, status, res.Target, truncate(res.Message, 160))
}

func stageLabel(name string) string {
	switch name {
	case run.StageFetch:
		return "抓取"
	case run.StageExtract:
		return "抽取"
	case run.StageTransform:
		return "规范化"
	case run.StageLoad:
		return "写入"
	case run.StageQuery:
		return "回读"
	default:
		return name
	}
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func formatProxy(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "off"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "on (" + truncate(raw, 120) + ")"
	}
	auth := "off"
	if u.User != nil {
		auth = "on"
	}
	return fmt.Sprintf("on (%s://%s, auth=%s)", u.Scheme, u.Host, auth)
}

// truncate 按终端显示宽度截断（CJK 记 2 列），不会切断多字节字符。
func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || runewidth.StringWidth(s) <= max {
		return s
	}
	if max <= 3 {
		return runewidth.Truncate(s, max, "")
	}
	return runewidth.Truncate(s, max, "...")
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func intField(fields map[string]any, key string) int {
	if fields == nil {
		return 0
	}
	switch x := fields[key].(type) {
	case int:
		return x
	case int64:
		return int(x)
	default:
		return 0
	}
}
