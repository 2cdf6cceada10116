// Package normalize 把 RawListingItem 规范化为 MovieRecord。
//
// 三个逐字段变换彼此独立：标题去排名前缀、时长转 HH:MM、分级标签映射。
// year/rate 原样透传。任一字段失败即整批失败（不跳过单条）。
package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/John-Robertt/topmovies/internal/domain"
)

// kindRemap 是封闭的字面量映射表；不在表内的标签原样保留。
var kindRemap = map[string]string{
	"13+": "PG-13",
	"16+": "R",
	"18+": "NC-17",
}

// FieldError 表示某条记录的某个字段无法规范化。
type FieldError struct {
	Index int // 0-based；单字段调用时为 -1
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("字段 %s=%q 无效：%v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("第 %d 条记录字段 %s=%q 无效：%v", e.Index, e.Field, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// CleanTitle 去掉第一个空格及其之前的内容（排名前缀，如 "1."），再 trim。
//
// 已知局限：假设排名 token 本身不含空格。对已经干净的多词标题再次调用会吃掉第一个词，
// 所以该变换只对“没有空格”的标题幂等。没有空格时原样返回（trim 后）。
func CleanTitle(raw string) string {
	i := strings.IndexByte(raw, ' ')
	if i < 0 {
		return strings.TrimSpace(raw)
	}
	return strings.TrimSpace(raw[i+1:])
}

// FormatLength 把 "2h 22m" 转成 "02:22"。
//
// 输入必须恰好是两个空白分隔的 token：<digits>h 与 <digits>m。
// 小时限制在 0-23、分钟 0-59（按一天内时刻的语义格式化）。
func FormatLength(raw string) (string, error) {
	parts := strings.Fields(raw)
	if len(parts) != 2 {
		return "", lengthErr(raw, fmt.Errorf("期望 2 个 token（如 \"2h 22m\"），实际 %d 个", len(parts)))
	}

	h, err := unitInt(parts[0], 'h')
	if err != nil {
		return "", lengthErr(raw, err)
	}
	m, err := unitInt(parts[1], 'm')
	if err != nil {
		return "", lengthErr(raw, err)
	}
	if h > 23 {
		return "", lengthErr(raw, fmt.Errorf("小时超出范围：%d", h))
	}
	if m > 59 {
		return "", lengthErr(raw, fmt.Errorf("分钟超出范围：%d", m))
	}
	return fmt.Sprintf("%02d:%02d", h, m), nil
}

func unitInt(tok string, unit byte) (int, error) {
	if len(tok) < 2 || tok[len(tok)-1] != unit {
		return 0, fmt.Errorf("token %q 不是 <数字>%c 形式", tok, unit)
	}
	digits := tok[:len(tok)-1]
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, fmt.Errorf("token %q 不是 <数字>%c 形式", tok, unit)
		}
	}
	return strconv.Atoi(digits)
}

func lengthErr(raw string, err error) error {
	return &FieldError{Index: -1, Field: "length", Value: raw, Err: err}
}

// RemapKind 按封闭表把站点标签映射为标准分级代码；不做模糊匹配。
func RemapKind(kind string) string {
	if v, ok := kindRemap[kind]; ok {
		return v
	}
	return kind
}

// Record 规范化单条记录。
func Record(it domain.RawListingItem) (domain.MovieRecord, error) {
	length, err := FormatLength(it.RawLength)
	if err != nil {
		return domain.MovieRecord{}, err
	}
	return domain.MovieRecord{
		Title:       CleanTitle(it.RawTitle),
		ReleaseYear: it.ReleaseYear,
		Length:      length,
		Kind:        RemapKind(it.ContentKind),
		Rate:        it.RatingValue,
	}, nil
}

// All 规范化整批记录：输出与输入等长、同序。第一条失败即返回（带 0-based 下标）。
func All(items []domain.RawListingItem) ([]domain.MovieRecord, error) {
	out := make([]domain.MovieRecord, 0, len(items))
	for i, it := range items {
		r, err := Record(it)
		if err != nil {
			if fe, ok := err.(*FieldError); ok {
				e := *fe
				e.Index = i
				return nil, &e
			}
			return nil, &FieldError{Index: i, Field: "unknown", Err: err}
		}
		out = append(out, r)
	}
	return out, nil
}
