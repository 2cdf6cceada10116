// Package query 对关系型 sink 执行调用方提供的只读语句，并把结果整理成表格。
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/John-Robertt/topmovies/internal/store/sqlite"
)

// Table 是查询结果：列名 + 行（值类型为 int64/float64/string/nil）。
type Table struct {
	Columns []string
	Rows    [][]any
}

// Error 表示查询失败（打开数据库或执行语句）。
type Error struct {
	Statement string
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("query %q: %v", e.Statement, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// SelectAll 返回回读校验用的 "SELECT * FROM <table>" 语句。
func SelectAll(table string) (string, error) {
	if err := sqlite.ValidateTable(table); err != nil {
		return "", err
	}
	return `SELECT * FROM "` + table + `"`, nil
}

// Run 以只读方式打开已存在的 dbPath，执行 statement（params 按 ? 顺序绑定），读完结果后关闭连接。
func Run(ctx context.Context, dbPath, statement string, params ...any) (Table, error) {
	statement = strings.TrimSpace(statement)
	if statement == "" {
		return Table{}, &Error{Statement: statement, Err: fmt.Errorf("语句不能为空")}
	}

	db, err := sqlite.OpenReadOnly(dbPath)
	if err != nil {
		return Table{}, &Error{Statement: statement, Err: err}
	}
	defer db.Close()

	cols, rows, err := sqlite.Query(ctx, db, statement, params...)
	if err != nil {
		return Table{}, &Error{Statement: statement, Err: err}
	}
	return Table{Columns: cols, Rows: rows}, nil
}

// Status 把查询错误转换成面向用户的状态文本；err=nil 时返回成功文本。
func Status(err error) string {
	if err == nil {
		return "Query Executed Successfully"
	}
	var qe *Error
	if errors.As(err, &qe) {
		return fmt.Sprintf("Error processing query: %v", qe.Err)
	}
	return fmt.Sprintf("Error processing query: %v", err)
}
