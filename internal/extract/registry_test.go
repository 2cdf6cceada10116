package extract

import (
	"reflect"
	"testing"

	"github.com/John-Robertt/topmovies/internal/domain"
)

type stubExtractor struct{ name string }

func (s stubExtractor) Name() string { return s.name }

func (s stubExtractor) Extract(html []byte) ([]domain.RawListingItem, error) { return nil, nil }

func TestNewRegistry_LookupIsCaseInsensitive(t *testing.T) {
	reg, err := NewRegistry(stubExtractor{name: "imdb_chart"}, stubExtractor{name: "Other"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if _, ok := reg.Get(" IMDB_CHART "); !ok {
		t.Fatalf("期望命中 imdb_chart")
	}
	if _, ok := reg.Get("nope"); ok {
		t.Fatalf("不期望命中未注册的 layout")
	}
	if got := reg.Names(); !reflect.DeepEqual(got, []string{"imdb_chart", "other"}) {
		t.Fatalf("Names 不符合预期：%v", got)
	}
}

func TestNewRegistry_RejectsDuplicateAndEmpty(t *testing.T) {
	if _, err := NewRegistry(stubExtractor{name: "a"}, stubExtractor{name: "A"}); err == nil {
		t.Fatalf("期望重复名报错")
	}
	if _, err := NewRegistry(stubExtractor{name: " "}); err == nil {
		t.Fatalf("期望空名报错")
	}
	if _, err := NewRegistry(nil); err == nil {
		t.Fatalf("期望 nil extractor 报错")
	}
}

func TestRegistry_ZeroValue(t *testing.T) {
	var reg Registry
	if _, ok := reg.Get("imdb_chart"); ok {
		t.Fatalf("零值注册表不应命中")
	}
}
