package domain

import (
	"time"
)

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

const (
	ErrCodeConfigInvalid   = "config_invalid"
	ErrCodeFetchFailed     = "fetch_failed"
	ErrCodeExtractFailed   = "extract_failed"
	ErrCodeTransformFailed = "transform_failed"
	ErrCodeSinkFailed      = "sink_failed"
	ErrCodeQueryFailed     = "query_failed"
)

// RunReport 是一次 run 的对外稳定输出（stdout JSON / 终端摘要）。
type RunReport struct {
	URL     string `json:"url"`
	Layout  string `json:"layout"`
	Offline bool   `json:"offline"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`

	// HTTPStatus 是抓取阶段拿到的状态码；offline 或网络层失败时为 0。
	HTTPStatus int `json:"http_status"`
	Extracted  int `json:"extracted"`
	Normalized int `json:"normalized"`

	Summary ReportSummary `json:"summary"`
	Sinks   []SinkResult  `json:"sinks"`
	Query   *QueryResult  `json:"query,omitempty"`
}

type ReportSummary struct {
	SinksOK     int `json:"sinks_ok"`
	SinksFailed int `json:"sinks_failed"`
}

// SinkResult 记录一个 sink 的写入结果。Message 就是写进进度日志的那一行状态文本。
type SinkResult struct {
	Sink    string `json:"sink"`
	Target  string `json:"target"`
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// QueryResult 是回读查询的结果；失败时 Error 非空且 Rows 为空。
type QueryResult struct {
	Statement string   `json:"statement"`
	Columns   []string `json:"columns"`
	Rows      [][]any  `json:"rows"`
	Error     string   `json:"error,omitempty"`
}

// Finalize 做三件事：
// 1) 时间统一为 UTC
// 2) summary 由 sinks 计算得出（sinks 保持尝试顺序，不排序）
// 3) 推导最终 status：阶段性错误优先，其次是 sink 失败，最后是查询失败
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	if r.Sinks == nil {
		r.Sinks = []SinkResult{}
	}

	var s ReportSummary
	for _, it := range r.Sinks {
		if it.OK {
			s.SinksOK++
		} else {
			s.SinksFailed++
		}
	}
	r.Summary = s

	if r.ErrorCode == "" && s.SinksFailed > 0 {
		r.ErrorCode = ErrCodeSinkFailed
		r.ErrorMsg = firstSinkFailure(r.Sinks)
	}
	if r.ErrorCode == "" && r.Query != nil && r.Query.Error != "" {
		r.ErrorCode = ErrCodeQueryFailed
		r.ErrorMsg = r.Query.Error
	}

	if r.ErrorCode != "" {
		r.Status = StatusFailed
	} else {
		r.Status = StatusOK
	}
}

func firstSinkFailure(sinks []SinkResult) string {
	for _, it := range sinks {
		if !it.OK {
			return it.Message
		}
	}
	return ""
}
