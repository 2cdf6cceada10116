// Package sqlite 封装基于文件的 SQLite 存储（modernc.org/sqlite，纯 Go 驱动）。
//
// 连接在每次 sink 写入 / 查询内部打开并关闭，不跨调用复用。
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/John-Robertt/topmovies/internal/domain"
)

// IndexColumn 是隐式行号列（0..N-1）的列名。
const IndexColumn = "index"

var tableNameRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateTable 校验表名：只允许标识符字符（表名会被拼进 DDL，不能走参数绑定）。
func ValidateTable(name string) error {
	if !tableNameRE.MatchString(name) {
		return fmt.Errorf("非法表名：%q", name)
	}
	return nil
}

// Open 打开（必要时创建）path 处的数据库文件，并做一次 Ping。
func Open(path string) (*sql.DB, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("sqlite: 数据库路径不能为空")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite: 创建目录失败：%w", err)
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open failed: %w", err)
	}
	// 单连接：写入与查询都是串行的一次性操作。
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping failed: %w", err)
	}
	return db, nil
}

// OpenReadOnly 以只读方式打开已存在的数据库文件：不创建目录或文件，连接上的写语句（含 DDL）会被拒绝。
func OpenReadOnly(path string) (*sql.DB, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("sqlite: 数据库路径不能为空")
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: 数据库文件不可用：%w", err)
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("sqlite: %s 不是普通文件", path)
	}

	dsn := "file:" + path + "?mode=ro&_pragma=busy_timeout(5000)&_pragma=query_only(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open failed: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping failed: %w", err)
	}
	return db, nil
}

// ReplaceMovies 在一个事务内整体替换 table：DROP -> CREATE -> 按序号插入。
// 任一步失败则回滚，旧表保持不变。
func ReplaceMovies(ctx context.Context, db *sql.DB, table string, records []domain.MovieRecord) error {
	if err := ValidateTable(table); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	qt := quoteIdent(table)
	stmts := []string{
		`DROP TABLE IF EXISTS ` + qt,
		`CREATE TABLE ` + qt + ` (` +
			quoteIdent(IndexColumn) + ` INTEGER, ` +
			`"Title" TEXT, "Release_Year" INTEGER, "Length" TEXT, "Kind" TEXT, "Rate" REAL)`,
		`CREATE INDEX ` + quoteIdent("ix_"+table+"_"+IndexColumn) + ` ON ` + qt + ` (` + quoteIdent(IndexColumn) + `)`,
	}
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s); err != nil {
			return err
		}
	}

	ins, err := tx.PrepareContext(ctx, `INSERT INTO `+qt+` (`+quoteIdent(IndexColumn)+`, "Title", "Release_Year", "Length", "Kind", "Rate") VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer ins.Close()

	for i, r := range records {
		if _, err := ins.ExecContext(ctx, i, r.Title, r.ReleaseYear, r.Length, r.Kind, r.Rate); err != nil {
			return fmt.Errorf("插入第 %d 行失败：%w", i, err)
		}
	}
	return tx.Commit()
}

// Query 执行一条只读语句，返回列名与按行的值。
// TEXT/BLOB 统一转成 string，便于 JSON 输出与表格渲染。
func Query(ctx context.Context, db *sql.DB, statement string, params ...any) ([]string, [][]any, error) {
	rows, err := db.QueryContext(ctx, statement, params...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	out := make([][]any, 0, 64)
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		out = append(out, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return cols, out, nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
