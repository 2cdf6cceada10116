package query

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/John-Robertt/topmovies/internal/domain"
	"github.com/John-Robertt/topmovies/internal/store/sqlite"
)

func seed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "m.db")
	db, err := sqlite.Open(path)
	if err != nil {
		t.Fatalf("打开数据库失败：%v", err)
	}
	defer db.Close()
	recs := []domain.MovieRecord{
		{Title: "Amélie", ReleaseYear: 2001, Length: "02:02", Kind: "R", Rate: 8.3},
		{Title: "千と千尋の神隠し", ReleaseYear: 2001, Length: "02:05", Kind: "PG", Rate: 8.6},
	}
	if err := sqlite.ReplaceMovies(context.Background(), db, "Best_movies", recs); err != nil {
		t.Fatalf("写入失败：%v", err)
	}
	return path
}

func TestRun_SelectAll(t *testing.T) {
	path := seed(t)
	stmt, err := SelectAll("Best_movies")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	tbl, err := Run(context.Background(), path, stmt)
	if err != nil {
		t.Fatalf("查询失败：%v", err)
	}
	if len(tbl.Rows) != 2 || tbl.Columns[0] != "index" {
		t.Fatalf("结果不符合预期：%+v", tbl)
	}
	if tbl.Rows[0][0] != int64(0) || tbl.Rows[1][0] != int64(1) {
		t.Fatalf("index 列应为 0,1：%v", tbl.Rows)
	}
}

func TestRun_Params(t *testing.T) {
	path := seed(t)
	tbl, err := Run(context.Background(), path, `SELECT "Title" FROM "Best_movies" WHERE "Rate" > ?`, 8.5)
	if err != nil {
		t.Fatalf("查询失败：%v", err)
	}
	if len(tbl.Rows) != 1 || tbl.Rows[0][0] != "千と千尋の神隠し" {
		t.Fatalf("参数化查询结果不符合预期：%v", tbl.Rows)
	}
}

func TestRun_ErrorIsQueryError(t *testing.T) {
	path := seed(t)
	_, err := Run(context.Background(), path, `SELECT * FROM "nope"`)

	var qe *Error
	if !errors.As(err, &qe) {
		t.Fatalf("期望 *query.Error，实际 %T %v", err, err)
	}
	if s := Status(err); !strings.HasPrefix(s, "Error processing query: ") {
		t.Fatalf("状态文本不符合预期：%q", s)
	}
	if Status(nil) != "Query Executed Successfully" {
		t.Fatalf("成功状态文本不符合预期：%q", Status(nil))
	}
}

func TestRun_EmptyStatement(t *testing.T) {
	if _, err := Run(context.Background(), seed(t), "  "); err == nil {
		t.Fatalf("空语句应报错")
	}
}

func TestRun_MissingDatabaseIsNotCreated(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "absent")
	path := filepath.Join(dir, "m.db")

	_, err := Run(context.Background(), path, `SELECT 1`)
	var qe *Error
	if !errors.As(err, &qe) {
		t.Fatalf("期望 *query.Error，实际 %T %v", err, err)
	}
	if _, statErr := os.Stat(dir); !os.IsNotExist(statErr) {
		t.Fatalf("查询不应创建目录或数据库文件：%v", statErr)
	}
}

func TestRun_RejectsWrites(t *testing.T) {
	path := seed(t)
	ctx := context.Background()

	for _, stmt := range []string{
		`CREATE TABLE "evil" (x INTEGER)`,
		`DROP TABLE "Best_movies"`,
		`DELETE FROM "Best_movies"`,
	} {
		if _, err := Run(ctx, path, stmt); err == nil {
			t.Fatalf("写语句应被拒绝：%s", stmt)
		}
	}

	tbl, err := Run(ctx, path, `SELECT COUNT(*) FROM "Best_movies"`)
	if err != nil {
		t.Fatalf("查询失败：%v", err)
	}
	if tbl.Rows[0][0] != int64(2) {
		t.Fatalf("数据不应被修改，实际 %v", tbl.Rows)
	}
	tbl, err = Run(ctx, path, `SELECT name FROM sqlite_master WHERE name = ?`, "evil")
	if err != nil {
		t.Fatalf("查询失败：%v", err)
	}
	if len(tbl.Rows) != 0 {
		t.Fatalf("不应创建新表：%v", tbl.Rows)
	}
}

func TestSelectAll_RejectsBadTable(t *testing.T) {
	if _, err := SelectAll(`x"; DROP TABLE y; --`); err == nil {
		t.Fatalf("非法表名应报错")
	}
}

func TestTable_RenderAlignsByDisplayWidth(t *testing.T) {
	tbl := Table{
		Columns: []string{"index", "Title", "Rate"},
		Rows: [][]any{
			{int64(0), "千と千尋", 8.6},
			{int64(1), "Up", nil},
		},
	}
	var buf bytes.Buffer
	if err := tbl.Render(&buf); err != nil {
		t.Fatalf("渲染失败：%v", err)
	}
	want := strings.Join([]string{
		"index  Title     Rate",
		"-----  --------  ----",
		"0      千と千尋  8.6",
		"1      Up        NULL",
		"(2 rows)",
		"",
	}, "\n")
	if buf.String() != want {
		t.Fatalf("渲染结果不符合预期：\n got=%q\nwant=%q", buf.String(), want)
	}
}
