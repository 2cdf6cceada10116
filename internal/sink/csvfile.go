package sink

import (
	"context"
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/John-Robertt/topmovies/internal/domain"
	"github.com/John-Robertt/topmovies/internal/infra/fsx"
)

// CSVFile 写出表头 + 每条记录一行；首列是行号，表头留空。
type CSVFile struct {
	Path string
}

func (CSVFile) Name() string  { return "csv" }
func (CSVFile) Label() string { return "CSV" }

func (s CSVFile) Target() string { return s.Path }

func (s CSVFile) Write(ctx context.Context, records []domain.MovieRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fsx.WriteAtomic(s.Path, func(w io.Writer) error {
		return EncodeCSV(w, records)
	})
}

// EncodeCSV 把 records 编码为带行号列的 CSV。
func EncodeCSV(w io.Writer, records []domain.MovieRecord) error {
	cw := csv.NewWriter(w)

	header := append([]string{""}, domain.MovieColumns...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i, r := range records {
		row := []string{
			strconv.Itoa(i),
			r.Title,
			strconv.Itoa(r.ReleaseYear),
			r.Length,
			r.Kind,
			formatRate(r.Rate),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// formatRate 让整数值的评分保留 ".0"（9 -> "9.0"）。
func formatRate(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		return s + ".0"
	}
	return s
}
