package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/John-Robertt/topmovies/internal/domain"
)

func chartServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	body, err := os.ReadFile(filepath.Join("..", "..", "internal", "app", "run", "testdata", "chart.html"))
	if err != nil {
		t.Fatalf("读取 fixture 失败：%v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCLI_Run_NoTTY_StdoutOnlyRunReportJSON(t *testing.T) {
	srv := chartServer(t, http.StatusOK)
	out := t.TempDir()

	var stdout, stderr bytes.Buffer
	code := execute([]string{"run", "--url", srv.URL, "--out", out}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("期望退出码 0，实际 %d\nstderr=%s", code, stderr.String())
	}

	var rr domain.RunReport
	if err := json.Unmarshal(stdout.Bytes(), &rr); err != nil {
		t.Fatalf("stdout 不是合法的 RunReport JSON：%v\nstdout=%q", err, stdout.String())
	}
	if rr.Status != domain.StatusOK || rr.Normalized != 3 || len(rr.Query.Rows) != 3 {
		t.Fatalf("报告不符合预期：%+v", rr)
	}
	if strings.Contains(stdout.String(), "配置（生效）") {
		t.Fatalf("stdout 不应包含进度输出：%q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "完成：status=ok") {
		t.Fatalf("stderr 缺少完成摘要：%q", stderr.String())
	}
	for _, name := range []string{"Best_movies.db", "Best_movies.json", "Best_movies.csv", "log.txt"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Fatalf("缺少输出文件 %s：%v", name, err)
		}
	}
}

func TestCLI_Run_Non200ExitsWithFailure(t *testing.T) {
	srv := chartServer(t, http.StatusForbidden)

	var stdout, stderr bytes.Buffer
	code := execute([]string{"run", "--url", srv.URL, "--out", t.TempDir()}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("期望退出码 1，实际 %d", code)
	}
	var rr domain.RunReport
	if err := json.Unmarshal(stdout.Bytes(), &rr); err != nil {
		t.Fatalf("stdout 不是合法 JSON：%v", err)
	}
	if rr.ErrorCode != domain.ErrCodeFetchFailed || rr.HTTPStatus != http.StatusForbidden {
		t.Fatalf("报告不符合预期：%+v", rr)
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestCLI_Run_ReportWriteFailureExitsNonZero(t *testing.T) {
	srv := chartServer(t, http.StatusOK)

	var stderr bytes.Buffer
	code := execute([]string{"run", "--url", srv.URL, "--out", t.TempDir()}, failWriter{}, &stderr)
	if code != 1 {
		t.Fatalf("RunReport 写不出去时期望退出码 1，实际 %d\nstderr=%s", code, stderr.String())
	}
	if !strings.Contains(stderr.String(), "输出 RunReport 失败") {
		t.Fatalf("stderr 应说明写出失败：%q", stderr.String())
	}
}

func TestCLI_Run_MissingExplicitConfig(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := execute([]string{"run", "--config", filepath.Join(t.TempDir(), "nope.json")}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("期望退出码 1，实际 %d", code)
	}
	var rr domain.RunReport
	if err := json.Unmarshal(stdout.Bytes(), &rr); err != nil {
		t.Fatalf("stdout 不是合法 JSON：%v", err)
	}
	if rr.ErrorCode != "config_not_found" {
		t.Fatalf("期望 config_not_found，实际 %q", rr.ErrorCode)
	}
}

func TestCLI_Query(t *testing.T) {
	srv := chartServer(t, http.StatusOK)
	out := t.TempDir()
	var sink bytes.Buffer
	if code := execute([]string{"run", "--url", srv.URL, "--out", out}, &sink, &sink); code != 0 {
		t.Fatalf("准备数据失败：%s", sink.String())
	}
	db := filepath.Join(out, "Best_movies.db")

	var stdout, stderr bytes.Buffer
	code := execute([]string{"query", `SELECT "Title" FROM "Best_movies" WHERE "Rate" > ? ORDER BY "index"`, "9.1", "--db", db}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("期望退出码 0，实际 %d\nstderr=%s", code, stderr.String())
	}
	got := stdout.String()
	if !strings.Contains(got, "The Shawshank Redemption") || !strings.Contains(got, "The Godfather") ||
		strings.Contains(got, "The Dark Knight") || !strings.Contains(got, "(2 rows)") {
		t.Fatalf("查询输出不符合预期：\n%s", got)
	}

	stdout.Reset()
	stderr.Reset()
	code = execute([]string{"query", "SELECT * FROM nope", "--db", db}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("期望退出码 1，实际 %d", code)
	}
	if !strings.Contains(stderr.String(), "Error processing query: ") {
		t.Fatalf("stderr 缺少查询错误：%q", stderr.String())
	}
}

func TestCLI_QueryMissingDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "nope", "Best_movies.db")

	var stdout, stderr bytes.Buffer
	if code := execute([]string{"query", "SELECT 1", "--db", db}, &stdout, &stderr); code != 1 {
		t.Fatalf("期望退出码 1，实际 %d", code)
	}
	if _, err := os.Stat(filepath.Dir(db)); !os.IsNotExist(err) {
		t.Fatalf("query 不应创建数据库目录：%v", err)
	}
}

func TestCLI_QueryJSON(t *testing.T) {
	srv := chartServer(t, http.StatusOK)
	out := t.TempDir()
	var sink bytes.Buffer
	if code := execute([]string{"run", "--url", srv.URL, "--out", out}, &sink, &sink); code != 0 {
		t.Fatalf("准备数据失败：%s", sink.String())
	}

	var stdout, stderr bytes.Buffer
	code := execute([]string{"query", `SELECT COUNT(*) AS n FROM "Best_movies"`, "--db", filepath.Join(out, "Best_movies.db"), "--json"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("期望退出码 0，实际 %d\nstderr=%s", code, stderr.String())
	}
	var res struct {
		Columns []string `json:"columns"`
		Rows    [][]any  `json:"rows"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &res); err != nil {
		t.Fatalf("输出不是合法 JSON：%v", err)
	}
	if len(res.Rows) != 1 || res.Rows[0][0] != float64(3) {
		t.Fatalf("计数不符合预期：%+v", res)
	}
}

func TestCLI_UsageErrors(t *testing.T) {
	cases := [][]string{
		{"run", "--nope"},
		{"run", "extra-arg"},
		{"query"},
		{"bogus"},
	}
	for _, args := range cases {
		var stdout, stderr bytes.Buffer
		if code := execute(args, &stdout, &stderr); code != 2 {
			t.Fatalf("args=%v 期望退出码 2，实际 %d", args, code)
		}
	}
}

func TestCLI_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := execute([]string{"version"}, &stdout, &stderr); code != 0 {
		t.Fatalf("期望退出码 0，实际 %d", code)
	}
	if strings.TrimSpace(stdout.String()) != "topmovies version dev" {
		t.Fatalf("版本输出不符合预期：%q", stdout.String())
	}
}
