package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGet_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	p, err := Get(context.Background(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if p.StatusCode != http.StatusOK || string(p.Body) != "<html>ok</html>" {
		t.Fatalf("page 不符合预期：status=%d body=%q", p.StatusCode, p.Body)
	}
}

func TestGet_Non200IsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	p, err := Get(context.Background(), srv.Client(), srv.URL)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("期望 *StatusError，实际 %T %v", err, err)
	}
	if se.StatusCode != http.StatusForbidden || p.StatusCode != http.StatusForbidden {
		t.Fatalf("状态码不符合预期：err=%d page=%d", se.StatusCode, p.StatusCode)
	}
	if se.Error() != "HTTP 403" {
		t.Fatalf("错误文本不符合预期：%q", se.Error())
	}
}

// 201 也不是 200：列表页只认 200。
func TestGet_OtherSuccessCodesRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	_, err := Get(context.Background(), srv.Client(), srv.URL)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("期望 *StatusError，实际 %v", err)
	}
}

func TestGet_RequiresClientAndURL(t *testing.T) {
	if _, err := Get(context.Background(), nil, "http://x"); err == nil {
		t.Fatalf("nil client 应报错")
	}
	if _, err := Get(context.Background(), http.DefaultClient, "  "); err == nil {
		t.Fatalf("空 url 应报错")
	}
}
