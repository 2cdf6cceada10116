package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Page 是一次抓取的原始结果。
type Page struct {
	URL        string
	StatusCode int
	Body       []byte
}

// StatusError 表示列表页返回了非 200 的状态码。
// 这是整次 run 的终止条件：上层不得继续 extract/normalize/load。
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// Get 对 url 发起一次 GET（固定请求头由 client 的 Transport 负责）。
//
// 返回值：
// - 网络层失败：Page 为空，err 为底层错误
// - 非 200：Page 带 StatusCode（Body 仍然读出，便于排查），err 为 *StatusError
// - 200：Page 完整，err=nil
func Get(ctx context.Context, c *http.Client, url string) (Page, error) {
	if c == nil {
		return Page{}, errors.New("http client 不能为空")
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return Page{}, errors.New("url 不能为空")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Page{}, err
	}
	resp, err := c.Do(req)
	if err != nil {
		return Page{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Page{URL: url, StatusCode: resp.StatusCode}, err
	}

	p := Page{URL: url, StatusCode: resp.StatusCode, Body: body}
	if resp.StatusCode != http.StatusOK {
		return p, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}
	return p, nil
}
