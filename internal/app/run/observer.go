package run

import (
	"time"

	"github.com/John-Robertt/topmovies/internal/config"
	"github.com/John-Robertt/topmovies/internal/domain"
)

// Observer 用于把“阶段进度/sink 结果”从核心执行流程中解耦出来。
//
// 约束：
// - run 包只负责发事件，不做任何输出（避免污染 stdout 的 JSON 契约）
// - 事件在调用 ExecuteWithObserver 的 goroutine 上按阶段顺序发出
type Observer interface {
	// OnStart 在 ExecuteWithObserver 开始时调用。
	OnStart(eff config.EffectiveConfig)
	// OnStageDone 在 fetch/extract/transform/load/query 每个阶段结束时调用（失败也会调用，fields 含 "error"）。
	OnStageDone(name string, fields map[string]any, dur time.Duration)
	// OnSinkDone 在每个 sink 尝试结束后调用。
	OnSinkDone(res domain.SinkResult)
}

// 阶段名（Observer.OnStageDone 的 name）。
const (
	StageFetch     = "fetch"
	StageExtract   = "extract"
	StageTransform = "transform"
	StageLoad      = "load"
	StageQuery     = "query"
)

type nopObserver struct{}

func (nopObserver) OnStart(config.EffectiveConfig)                    {}
func (nopObserver) OnStageDone(string, map[string]any, time.Duration) {}
func (nopObserver) OnSinkDone(domain.SinkResult)                      {}
