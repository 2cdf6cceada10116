package imdbchart

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/topmovies/internal/domain"
	"github.com/John-Robertt/topmovies/internal/extract"
)

// DefaultMarker 是 IMDb Top 250 页面上 listing 容器 li 的完整 class 属性值。
// 站点把多个样式作用域 token 拼在同一个属性里；这里整体按字面量匹配，而不是当作多个独立 class。
const DefaultMarker = "ipc-metadata-list-summary-item sc-10233bc-0 TwzGn cli-parent"

// Name 是该布局在 extract.Registry 中的名称。
const Name = "imdb_chart"

// Extractor 按固定的相对路径从 IMDb chart 页面抽取字段。
//
// 字段身份完全由节点位置决定（不是语义属性），因此强绑定当前页面结构：
//
//	li[class=<Marker>]
//	  div                      <- 第一个 div
//	  X                        <- 其后的兄弟节点 = body
//	    span                   <- body 内第一个 span
//	    M                      <- 其后的兄弟节点 = info
//	      h3                   <- 标题
//	      div                  <- info 内第一个 div
//	      Y  > span span span  <- 年份 / 时长 / 分级
//	      span > svg + Z       <- 评分（svg 后的兄弟节点文本）
//
// 页面改版时应新增一个实现，而不是修改 normalize。
type Extractor struct {
	// Marker 为空时使用 DefaultMarker。
	Marker string
}

var _ extract.ListingExtractor = Extractor{}

func (Extractor) Name() string { return Name }

func (x Extractor) marker() string {
	m := strings.TrimSpace(x.Marker)
	if m == "" {
		return DefaultMarker
	}
	return m
}

// Extract 解析整页 HTML，返回页面顺序的原始记录。
func (x Extractor) Extract(html []byte) ([]domain.RawListingItem, error) {
	if len(html) == 0 {
		return nil, errors.New("html 为空")
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, err
	}

	marker := x.marker()
	containers := doc.Find("li").FilterFunction(func(_ int, s *goquery.Selection) bool {
		v, ok := s.Attr("class")
		return ok && v == marker
	})
	items := make([]domain.RawListingItem, 0, containers.Length())

	var firstErr error
	containers.EachWithBreak(func(i int, li *goquery.Selection) bool {
		it, err := extractItem(li)
		if err != nil {
			firstErr = withIndex(i, err)
			return false
		}
		items = append(items, it)
		return true
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return items, nil
}

func extractItem(li *goquery.Selection) (domain.RawListingItem, error) {
	body := li.Find("div").First().Next()
	if body.Length() == 0 {
		return domain.RawListingItem{}, missing("title", "li > div + *")
	}
	info := body.Find("span").First().Next()
	if info.Length() == 0 {
		return domain.RawListingItem{}, missing("title", "body > span + *")
	}

	h3 := info.Find("h3").First()
	if h3.Length() == 0 {
		return domain.RawListingItem{}, missing("title", "h3")
	}
	title := strings.TrimSpace(h3.Text())
	if title == "" {
		return domain.RawListingItem{}, fieldErr("title", errors.New("标题为空"))
	}

	anchor := info.Find("div").First()
	if anchor.Length() == 0 {
		return domain.RawListingItem{}, missing("release_year", "info > div")
	}

	meta := anchor.Next().Find("span")
	if meta.Length() < 3 {
		return domain.RawListingItem{}, missing(metaField(meta.Length()), "div + * > span")
	}
	yearText := strings.TrimSpace(meta.Eq(0).Text())
	year, err := strconv.Atoi(yearText)
	if err != nil {
		return domain.RawListingItem{}, fieldErr("release_year", fmt.Errorf("无法解析年份 %q", yearText))
	}
	length := strings.TrimSpace(meta.Eq(1).Text())
	kind := strings.TrimSpace(meta.Eq(2).Text())
	if length == "" {
		return domain.RawListingItem{}, fieldErr("length", errors.New("时长为空"))
	}
	if kind == "" {
		return domain.RawListingItem{}, fieldErr("kind", errors.New("分级为空"))
	}

	rateNode := anchor.NextAllFiltered("span").First().Find("svg").First().Next()
	if rateNode.Length() == 0 {
		return domain.RawListingItem{}, missing("rating", "span > svg + *")
	}
	rateText := strings.TrimSpace(rateNode.Text())
	if !isDecimal(rateText) {
		return domain.RawListingItem{}, fieldErr("rating", fmt.Errorf("无法解析评分 %q", rateText))
	}
	rate, err := strconv.ParseFloat(rateText, 64)
	if err != nil {
		return domain.RawListingItem{}, fieldErr("rating", fmt.Errorf("无法解析评分 %q", rateText))
	}
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return domain.RawListingItem{}, fieldErr("rating", fmt.Errorf("评分不是有限数值：%q", rateText))
	}

	return domain.RawListingItem{
		RawTitle:    title,
		ReleaseYear: year,
		RawLength:   length,
		ContentKind: kind,
		RatingValue: rate,
	}, nil
}

// isDecimal 只接受形如 "9.3" 的十进制文本；ParseFloat 另外接受的 NaN、Inf、0x1p3、1e1 等写法一律拒绝。
func isDecimal(s string) bool {
	if s == "" || s == "." {
		return false
	}
	dots := 0
	for _, r := range s {
		switch {
		case r == '.':
			dots++
		case r < '0' || r > '9':
			return false
		}
	}
	return dots <= 1
}

// metaField 把缺失的 span 数量映射回第一个缺失的字段名。
func metaField(have int) string {
	switch have {
	case 0:
		return "release_year"
	case 1:
		return "length"
	default:
		return "kind"
	}
}

func missing(field, path string) error {
	return fieldErr(field, fmt.Errorf("缺少节点 %s（页面结构可能已变化）", path))
}

func fieldErr(field string, err error) error {
	return &extract.MalformedItemError{Field: field, Err: err}
}

func withIndex(i int, err error) error {
	var me *extract.MalformedItemError
	if errors.As(err, &me) {
		me.Index = i
		return me
	}
	return &extract.MalformedItemError{Index: i, Field: "unknown", Err: err}
}
