package sink

import (
	"context"
	"encoding/json"
	"io"
	"strconv"

	"github.com/John-Robertt/topmovies/internal/domain"
	"github.com/John-Robertt/topmovies/internal/infra/fsx"
)

// JSONDocument 写出一个以字符串行号为 key 的对象：{"0": {...}, "1": {...}}。
// key 按行号顺序输出（map 编码会按字典序排成 "0","1","10","2"）。
type JSONDocument struct {
	Path string
}

func (JSONDocument) Name() string  { return "json" }
func (JSONDocument) Label() string { return "JSON" }

func (s JSONDocument) Target() string { return s.Path }

func (s JSONDocument) Write(ctx context.Context, records []domain.MovieRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fsx.WriteAtomic(s.Path, func(w io.Writer) error {
		return EncodeIndexedJSON(w, records)
	})
}

// EncodeIndexedJSON 把 records 编码为按行号索引的 JSON 对象。
func EncodeIndexedJSON(w io.Writer, records []domain.MovieRecord) error {
	if _, err := io.WriteString(w, "{"); err != nil {
		return err
	}
	for i, r := range records {
		if i > 0 {
			if _, err := io.WriteString(w, ","); err != nil {
				return err
			}
		}
		b, err := json.Marshal(r)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, strconv.Quote(strconv.Itoa(i))+":"); err != nil {
			return err
		}
		if _, err := w.Write(b); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "}")
	return err
}
