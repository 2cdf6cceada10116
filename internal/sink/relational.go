package sink

import (
	"context"

	"github.com/John-Robertt/topmovies/internal/domain"
	"github.com/John-Robertt/topmovies/internal/store/sqlite"
)

// Relational 把记录写入 SQLite 文件中的一张表（整表替换，含 "index" 列）。
type Relational struct {
	DBPath string
	Table  string
}

func (Relational) Name() string  { return "db" }
func (Relational) Label() string { return "DB" }

func (s Relational) Target() string { return s.DBPath + "#" + s.Table }

func (s Relational) Write(ctx context.Context, records []domain.MovieRecord) error {
	if err := sqlite.ValidateTable(s.Table); err != nil {
		return err
	}
	db, err := sqlite.Open(s.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	return sqlite.ReplaceMovies(ctx, db, s.Table, records)
}
