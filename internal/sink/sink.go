// Package sink 把规范化后的 MovieRecord 全量写入三个相互独立的落盘目标。
//
// 约束：
// - replace 语义：重复运行覆盖同名输出，不追加
// - 行号 0..N-1 在加载时分配，三个 sink 一致
// - 一个 sink 失败只影响它自己的状态行，其余 sink 照常尝试
package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/John-Robertt/topmovies/internal/domain"
)

// Sink 是一个落盘目标。
type Sink interface {
	Name() string   // "db" / "json" / "csv"
	Label() string  // 状态文本里的名称，例如 "DB"
	Target() string // 目标路径（报告与日志用）
	Write(ctx context.Context, records []domain.MovieRecord) error
}

// WriteError 表示某个 sink 写入失败。
type WriteError struct {
	Sink   string
	Target string
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("sink=%s target=%s: %v", e.Sink, e.Target, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// SuccessMessage / FailureMessage 是写进进度日志的状态行。
func SuccessMessage(label string) string {
	return fmt.Sprintf("Data Saved in %s Successfully", label)
}

func FailureMessage(label string, err error) string {
	return fmt.Sprintf("Error saving %s: %v", label, err)
}

// WriteAll 依次尝试每个 sink，并把每个结果（含失败）转换为 SinkResult。
//
// 返回值：
// - results 与 sinks 一一对应、同序
// - err 为所有失败 sink 的 *WriteError（errors.Join）；全部成功时为 nil
func WriteAll(ctx context.Context, sinks []Sink, records []domain.MovieRecord) ([]domain.SinkResult, error) {
	results := make([]domain.SinkResult, 0, len(sinks))
	var errs []error
	for _, s := range sinks {
		res := domain.SinkResult{Sink: s.Name(), Target: s.Target()}
		if err := s.Write(ctx, records); err != nil {
			errs = append(errs, &WriteError{Sink: s.Name(), Target: s.Target(), Err: err})
			res.Message = FailureMessage(s.Label(), err)
		} else {
			res.OK = true
			res.Message = SuccessMessage(s.Label())
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}
