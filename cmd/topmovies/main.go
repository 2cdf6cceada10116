package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	applog "github.com/John-Robertt/topmovies/internal/log"
)

// version 在发布构建时通过 -ldflags "-X main.version=..." 注入。
var version = "dev"

// exitError 携带命令的退出码（run 失败 => 1）；其余 cobra 错误视为用法错误 => 2。
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute 运行一次 CLI 并返回退出码：0 成功、1 运行失败、2 用法错误。
func execute(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)

	err := root.Execute()
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintln(stderr, ee.err)
		}
		return ee.code
	}
	fmt.Fprintf(stderr, "参数错误：%v\n\n", err)
	_ = root.Usage()
	return 2
}

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "topmovies",
		Short: "抓取 IMDb 排行榜并写入 SQLite / JSON / CSV",
		Long: `topmovies 抓取一个排行榜页面，抽取每条记录的标题、年份、时长、分级与评分，
规范化后整体替换写入 SQLite 表、JSON 文档与 CSV 文件，最后回读 SQLite 表。`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			applog.Configure(applog.Config{
				Level:  opts.logLevel,
				Output: stderr,
			})
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "配置文件路径（默认读取 ./topmovies.json，可选）")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "诊断日志级别：debug|info|warn|error（默认读 LOG_LEVEL，最终 info）")

	root.AddCommand(
		newRunCmd(opts, stdout, stderr),
		newQueryCmd(opts, stdout, stderr),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "显示版本号",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("topmovies version %s\n", version)
		},
	}
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
