package query

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Render 把表格按显示宽度对齐输出（标题里可能有 CJK 或带重音的字符）。
func (t Table) Render(w io.Writer) error {
	cells := make([][]string, 0, len(t.Rows)+1)
	cells = append(cells, t.Columns)
	for _, r := range t.Rows {
		row := make([]string, len(t.Columns))
		for i := range row {
			if i < len(r) {
				row[i] = formatCell(r[i])
			}
		}
		cells = append(cells, row)
	}

	widths := make([]int, len(t.Columns))
	for _, row := range cells {
		for i, c := range row {
			if n := runewidth.StringWidth(c); n > widths[i] {
				widths[i] = n
			}
		}
	}

	for ri, row := range cells {
		var sb strings.Builder
		for i, c := range row {
			if i > 0 {
				sb.WriteString("  ")
			}
			sb.WriteString(c)
			if i < len(row)-1 {
				sb.WriteString(strings.Repeat(" ", widths[i]-runewidth.StringWidth(c)))
			}
		}
		sb.WriteString("\n")
		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
		if ri == 0 {
			if err := writeRule(w, widths); err != nil {
				return err
			}
		}
	}
	if _, err := fmt.Fprintf(w, "(%d rows)\n", len(t.Rows)); err != nil {
		return err
	}
	return nil
}

func writeRule(w io.Writer, widths []int) error {
	parts := make([]string, len(widths))
	for i, n := range widths {
		if n < 1 {
			n = 1
		}
		parts[i] = strings.Repeat("-", n)
	}
	_, err := io.WriteString(w, strings.Join(parts, "  ")+"\n")
	return err
}

func formatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}
