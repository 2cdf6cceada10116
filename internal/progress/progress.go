// Package progress 写运行进度日志（追加式纯文本，每个阶段一行）。
//
// 行格式：<message>   <YYYY-MM-DD> <Weekday>    <HH:MM:SS>
package progress

import (
	"fmt"
	"strings"
	"time"

	"github.com/John-Robertt/topmovies/internal/infra/fsx"
)

const timestampLayout = "2006-01-02 Monday    15:04:05"

const (
	MsgStarted          = "ETL Process Started"
	MsgRequestStarted   = "Request URL Started"
	MsgRequestOK        = "Request Responded Successfully"
	MsgExtractStarted   = "Data Extraction Started"
	MsgExtractOK        = "Data Extracted Successfully"
	MsgExtractFailed    = "Data Extraction Failed"
	MsgTransformStarted = "Data Transformation Started"
	MsgTransformOK      = "Data Transformed Successfully"
	MsgTransformFailed  = "Data Transformation Failed"
	MsgEnded            = "ETL Process Ended"
)

// RequestFailed 返回非 200 响应对应的进度消息。
func RequestFailed(code int) string {
	return fmt.Sprintf("Sending Request Failed With Code: %d", code)
}

// RequestError 返回网络层失败（没有拿到任何响应）对应的进度消息。
func RequestError(err error) string {
	return fmt.Sprintf("Sending Request Failed: %v", err)
}

// Logger 把消息追加到 Path；每行单独 open/append/close。
// Now 为空时使用本地时间。
type Logger struct {
	Path string
	Now  func() time.Time
}

func New(path string) *Logger {
	return &Logger{Path: path}
}

// Format 返回一行完整的进度记录（含换行）。
func Format(msg string, at time.Time) string {
	msg = strings.TrimRight(msg, "\r\n")
	return msg + "   " + at.Format(timestampLayout) + "\n"
}

func (l *Logger) Log(msg string) error {
	if l == nil || strings.TrimSpace(l.Path) == "" {
		return nil
	}
	now := time.Now
	if l.Now != nil {
		now = l.Now
	}
	return fsx.AppendLine(l.Path, Format(msg, now()))
}
