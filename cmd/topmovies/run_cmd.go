package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/topmovies/internal/app/run"
	"github.com/John-Robertt/topmovies/internal/config"
	"github.com/John-Robertt/topmovies/internal/domain"
	applog "github.com/John-Robertt/topmovies/internal/log"
	"github.com/John-Robertt/topmovies/internal/query"
)

type runOptions struct {
	url     string
	outDir  string
	offline bool
}

func newRunCmd(root *rootOptions, stdout, stderr io.Writer) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "执行一次完整的 ETL：抓取 -> 抽取 -> 规范化 -> 写入 -> 回读",
		Long: `执行一次完整的 ETL。

stdout 是终端时输出摘要与回读结果表；否则 stdout 只输出一个 RunReport JSON（摘要走 stderr）。
进度日志追加写入 <out>/log.txt。`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			cli := config.CLIArgs{
				ConfigPath:  root.configPath,
				URL:         opts.url,
				URLSet:      flags.Changed("url"),
				OutDir:      opts.outDir,
				OutDirSet:   flags.Changed("out"),
				Offline:     opts.offline,
				OfflineSet:  flags.Changed("offline"),
				LogLevel:    root.logLevel,
				LogLevelSet: cmd.Flags().Changed("log-level"),
			}
			return runETL(cmd.Context(), cli, stdout, stderr)
		},
	}

	cmd.Flags().StringVar(&opts.url, "url", "", "列表页 URL（覆盖配置文件；默认 "+config.DefaultURL+"）")
	cmd.Flags().StringVar(&opts.outDir, "out", "", "输出目录（覆盖配置文件 out_dir；默认当前目录）")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "不访问网络，重放 <out>/cache/pages/ 下的页面快照；支持 --offline=false")
	return cmd
}

func runETL(ctx context.Context, cli config.CLIArgs, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	cwd, err := os.Getwd()
	if err != nil {
		return &exitError{code: 1, err: fmt.Errorf("读取当前目录失败：%w", err)}
	}

	eff, err := config.LoadEffective(cwd, cli)
	if err != nil {
		if werr := emitReport(stdout, stderr, reportForConfigError(cli, err)); werr != nil {
			return &exitError{code: 1, err: werr}
		}
		return &exitError{code: 1}
	}
	if eff.LogLevel != "" {
		applog.Configure(applog.Config{Level: eff.LogLevel, Output: stderr})
	}
	lg := applog.WithComponent("cli")

	reg, err := run.DefaultRegistry(eff.ContainerMarker)
	if err != nil {
		return &exitError{code: 1, err: fmt.Errorf("初始化 extractor registry 失败：%w", err)}
	}

	var obs run.Observer
	progressW, interactive := pickProgressWriter(stdout, stderr)
	if interactive {
		obs = newProgressUI(progressW)
	}

	rr := run.ExecuteWithObserver(ctx, eff, reg, obs)
	lg.Debug().
		Str("status", rr.Status).
		Str("error_code", rr.ErrorCode).
		Int("sinks_ok", rr.Summary.SinksOK).
		Dur("elapsed", rr.FinishedAt.Sub(rr.StartedAt)).
		Msg("run finished")

	if err := emitReport(stdout, stderr, rr); err != nil {
		lg.Error().Err(err).Str("status", rr.Status).Msg("RunReport 未能写出")
		return &exitError{code: 1, err: err}
	}
	if interactive {
		emitLocations(progressW, eff)
	}
	if rr.Status != domain.StatusOK {
		return &exitError{code: 1}
	}
	return nil
}

// emitReport 输出最终报告；非 TTY 下 JSON 写入失败会作为错误返回（调用方据此以非 0 退出）。
func emitReport(stdout, stderr io.Writer, rr domain.RunReport) error {
	if isTTY(stdout) {
		fmt.Fprintln(stdout, summaryLine(rr))
		if rr.ErrorCode != "" {
			fmt.Fprintf(stderr, "%s: %s\n", rr.ErrorCode, rr.ErrorMsg)
		}
		if rr.Query != nil && rr.Query.Error == "" {
			fmt.Fprint(stdout, "\n\nHere are the result of Select All query from DB\n\n")
			_ = query.Table{Columns: rr.Query.Columns, Rows: rr.Query.Rows}.Render(stdout)
		}
		return nil
	}

	// stdout 非 TTY：stdout 必须且仅输出一个 RunReport JSON（日志/摘要走 stderr）。
	enc := json.NewEncoder(stdout)
	if err := enc.Encode(rr); err != nil {
		return fmt.Errorf("输出 RunReport 失败：%w", err)
	}
	fmt.Fprintln(stderr, summaryLine(rr))
	return nil
}

func summaryLine(rr domain.RunReport) string {
	return fmt.Sprintf("完成：status=%s extracted=%d normalized=%d sinks_ok=%d sinks_failed=%d",
		rr.Status, rr.Extracted, rr.Normalized, rr.Summary.SinksOK, rr.Summary.SinksFailed,
	)
}

func reportForConfigError(cli config.CLIArgs, err error) domain.RunReport {
	now := time.Now().UTC()
	rr := domain.RunReport{
		URL:        cli.URL,
		Offline:    cli.OfflineSet && cli.Offline,
		StartedAt:  now,
		FinishedAt: now,
		ErrorCode:  config.Code(err),
		ErrorMsg:   err.Error(),
	}
	if rr.ErrorCode == "" {
		rr.ErrorCode = domain.ErrCodeConfigInvalid
	}
	rr.Finalize()
	return rr
}

func pickProgressWriter(stdout, stderr io.Writer) (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if isTTY(stderr) {
		return stderr, true
	}
	if isTTY(stdout) {
		return stdout, true
	}
	return nil, false
}

func emitLocations(w io.Writer, eff config.EffectiveConfig) {
	if w == nil {
		return
	}
	fmt.Fprintf(w, "db: %s (table %s)\n", eff.DBPath, eff.Table)
	fmt.Fprintf(w, "json: %s\n", eff.JSONPath)
	fmt.Fprintf(w, "csv: %s\n", eff.CSVPath)
	fmt.Fprintf(w, "log: %s\n", eff.LogPath)
}
