package run

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/John-Robertt/topmovies/internal/config"
	"github.com/John-Robertt/topmovies/internal/domain"
	"github.com/John-Robertt/topmovies/internal/extract"
	"github.com/John-Robertt/topmovies/internal/extract/imdbchart"
	"github.com/John-Robertt/topmovies/internal/fetch"
	"github.com/John-Robertt/topmovies/internal/infra/cache"
	"github.com/John-Robertt/topmovies/internal/infra/httpx"
	"github.com/John-Robertt/topmovies/internal/log"
	"github.com/John-Robertt/topmovies/internal/normalize"
	"github.com/John-Robertt/topmovies/internal/progress"
	"github.com/John-Robertt/topmovies/internal/query"
	"github.com/John-Robertt/topmovies/internal/sink"
)

// DefaultRegistry 返回内置布局的注册表；marker 为空时使用各布局自带的默认值。
func DefaultRegistry(marker string) (extract.Registry, error) {
	return extract.NewRegistry(imdbchart.Extractor{Marker: marker})
}

// Sinks 按固定顺序（db -> json -> csv）构造本次 run 的落盘目标。
func Sinks(eff config.EffectiveConfig) []sink.Sink {
	return []sink.Sink{
		sink.Relational{DBPath: eff.DBPath, Table: eff.Table},
		sink.JSONDocument{Path: eff.JSONPath},
		sink.CSVFile{Path: eff.CSVPath},
	}
}

// Execute 执行一次完整的 ETL（fetch -> extract -> transform -> load -> query），返回对外稳定的 RunReport。
func Execute(ctx context.Context, eff config.EffectiveConfig, reg extract.Registry) domain.RunReport {
	return ExecuteWithObserver(ctx, eff, reg, nil)
}

// ExecuteWithObserver 与 Execute 相同，但允许传入 Observer 以输出阶段信息（由上层决定是否启用）。
//
// 约束：
// - 阶段严格串行，每个阶段消费上一阶段的完整输出
// - fetch/extract/transform 任一失败：记录失败行 + "ETL Process Ended"，不写任何 sink
// - sink 之间相互独立；查询在全部 sink 尝试之后执行
func ExecuteWithObserver(ctx context.Context, eff config.EffectiveConfig, reg extract.Registry, obs Observer) domain.RunReport {
	if obs == nil {
		obs = nopObserver{}
	}
	obs.OnStart(eff)

	r := &runner{
		eff: eff,
		obs: obs,
		pl:  progress.New(eff.LogPath),
		lg:  log.WithComponent("run"),
		rr: domain.RunReport{
			URL:       eff.URL,
			Layout:    eff.Layout,
			Offline:   eff.Offline,
			StartedAt: time.Now().UTC(),
		},
	}
	r.execute(ctx, reg)

	r.rr.FinishedAt = time.Now().UTC()
	r.rr.Finalize()
	return r.rr
}

type runner struct {
	eff config.EffectiveConfig
	obs Observer
	pl  *progress.Logger
	lg  zerolog.Logger
	rr  domain.RunReport
}

func (r *runner) execute(ctx context.Context, reg extract.Registry) {
	x, ok := reg.Get(r.eff.Layout)
	if !ok {
		r.fail(domain.ErrCodeConfigInvalid, fmt.Sprintf("未知的 layout：%q（可选：%v）", r.eff.Layout, reg.Names()))
		return
	}

	r.progress(progress.MsgStarted)

	html, ok := r.fetchStage(ctx)
	if !ok {
		r.progress(progress.MsgEnded)
		return
	}

	items, ok := r.extractStage(x, html)
	if !ok {
		r.progress(progress.MsgEnded)
		return
	}

	records, ok := r.transformStage(items)
	if !ok {
		r.progress(progress.MsgEnded)
		return
	}

	r.loadStage(ctx, records)
	r.progress(progress.MsgEnded)

	r.queryStage(ctx)
}

func (r *runner) fetchStage(ctx context.Context) ([]byte, bool) {
	started := time.Now()
	store := cache.New(r.eff.OutDir, r.eff.Offline)
	r.progress(progress.MsgRequestStarted)

	if r.eff.Offline {
		html, err := store.ReadSnapshot(r.eff.Layout)
		if err != nil {
			r.progress(progress.RequestError(err))
			r.stageFailed(StageFetch, started, domain.ErrCodeFetchFailed, fmt.Sprintf("读取页面快照失败：%v", err))
			return nil, false
		}
		r.progress(progress.MsgRequestOK)
		r.obs.OnStageDone(StageFetch, map[string]any{"bytes": len(html), "source": "snapshot"}, time.Since(started))
		return html, true
	}

	client, err := httpx.NewPageClient(r.eff.ProxyURL, r.eff.Timeout)
	if err != nil {
		r.fail(domain.ErrCodeConfigInvalid, fmt.Sprintf("proxy.url 无效：%v", err))
		return nil, false
	}

	page, err := fetch.Get(ctx, client, r.eff.URL)
	r.rr.HTTPStatus = page.StatusCode
	if err != nil {
		var se *fetch.StatusError
		if errors.As(err, &se) {
			r.progress(progress.RequestFailed(se.StatusCode))
		} else {
			r.progress(progress.RequestError(err))
		}
		r.stageFailed(StageFetch, started, domain.ErrCodeFetchFailed, fmt.Sprintf("抓取失败：%v", err))
		return nil, false
	}
	r.progress(progress.MsgRequestOK)

	if r.eff.Snapshot {
		if err := store.WriteSnapshot(r.eff.Layout, page.Body); err != nil {
			r.lg.Warn().Err(err).Msg("写入页面快照失败")
		}
	}
	r.obs.OnStageDone(StageFetch, map[string]any{"bytes": len(page.Body), "status": page.StatusCode, "source": "network"}, time.Since(started))
	return page.Body, true
}

func (r *runner) extractStage(x extract.ListingExtractor, html []byte) ([]domain.RawListingItem, bool) {
	started := time.Now()
	r.progress(progress.MsgExtractStarted)

	items, err := x.Extract(html)
	if err == nil && len(items) == 0 {
		err = extract.ErrNoListings
	}
	if err != nil {
		r.progress(progress.MsgExtractFailed)
		r.stageFailed(StageExtract, started, domain.ErrCodeExtractFailed, fmt.Sprintf("抽取失败：%v", err))
		return nil, false
	}

	r.rr.Extracted = len(items)
	r.progress(progress.MsgExtractOK)
	r.obs.OnStageDone(StageExtract, map[string]any{"items": len(items)}, time.Since(started))
	return items, true
}

func (r *runner) transformStage(items []domain.RawListingItem) ([]domain.MovieRecord, bool) {
	started := time.Now()
	r.progress(progress.MsgTransformStarted)

	records, err := normalize.All(items)
	if err != nil {
		r.progress(progress.MsgTransformFailed)
		r.stageFailed(StageTransform, started, domain.ErrCodeTransformFailed, fmt.Sprintf("规范化失败：%v", err))
		return nil, false
	}

	r.rr.Normalized = len(records)
	r.progress(progress.MsgTransformOK)
	r.obs.OnStageDone(StageTransform, map[string]any{"records": len(records)}, time.Since(started))
	return records, true
}

func (r *runner) loadStage(ctx context.Context, records []domain.MovieRecord) {
	started := time.Now()

	results, err := sink.WriteAll(ctx, Sinks(r.eff), records)
	for _, res := range results {
		r.progress(res.Message)
		r.obs.OnSinkDone(res)
	}
	r.rr.Sinks = results
	if err != nil {
		r.lg.Debug().Err(err).Msg("部分 sink 写入失败")
	}

	ok := 0
	for _, res := range results {
		if res.OK {
			ok++
		}
	}
	r.obs.OnStageDone(StageLoad, map[string]any{"ok": ok, "failed": len(results) - ok}, time.Since(started))
}

func (r *runner) queryStage(ctx context.Context) {
	started := time.Now()

	stmt, err := query.SelectAll(r.eff.Table)
	qr := &domain.QueryResult{Statement: stmt, Columns: []string{}, Rows: [][]any{}}
	if err == nil {
		var tbl query.Table
		tbl, err = query.Run(ctx, r.eff.DBPath, stmt)
		if err == nil {
			qr.Columns = tbl.Columns
			qr.Rows = tbl.Rows
		}
	}
	if err != nil {
		qr.Error = query.Status(err)
	}
	r.rr.Query = qr

	fields := map[string]any{"rows": len(qr.Rows), "status": query.Status(err)}
	r.obs.OnStageDone(StageQuery, fields, time.Since(started))
}

func (r *runner) stageFailed(stage string, started time.Time, code, msg string) {
	r.fail(code, msg)
	r.obs.OnStageDone(stage, map[string]any{"error": msg}, time.Since(started))
}

func (r *runner) fail(code, msg string) {
	if r.rr.ErrorCode != "" {
		return
	}
	r.rr.ErrorCode = code
	r.rr.ErrorMsg = msg
}

// progress 写一行进度日志；写失败只记诊断日志，不中断 run。
func (r *runner) progress(msg string) {
	if err := r.pl.Log(msg); err != nil {
		r.lg.Warn().Err(err).Str("path", r.pl.Path).Msg("写入进度日志失败")
	}
}
