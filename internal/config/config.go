package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// ErrCodeNotFound 表示通过 --config 显式指定的配置文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

// FileName 是 cwd 下自动发现的配置文件名。
const FileName = "topmovies.json"

const (
	DefaultURL       = "https://www.imdb.com/chart/top"
	DefaultLayout    = "imdb_chart"
	DefaultTable     = "Best_movies"
	DefaultDBFile    = "Best_movies.db"
	DefaultJSONFile  = "Best_movies.json"
	DefaultCSVFile   = "Best_movies.csv"
	DefaultLogFile   = "log.txt"
	DefaultTimeout   = 20 * time.Second
	maxTimeoutSecond = 300
)

// CLIArgs 是 CLI 暴露的覆盖项，并保留“是否显式指定”的信息。
// 例如 --offline=false 必须能覆盖 config 中的 offline=true。
type CLIArgs struct {
	// ConfigPath 非空时必须存在；为空时尝试读取 <cwd>/topmovies.json（可选）。
	ConfigPath string

	URL    string
	URLSet bool

	OutDir    string
	OutDirSet bool

	Offline    bool
	OfflineSet bool

	LogLevel    string
	LogLevelSet bool
}

// FileConfig 对应 topmovies.json 的解析结构。
type FileConfig struct {
	URL             string       `json:"url"`
	Layout          string       `json:"layout"`
	ContainerMarker string       `json:"container_marker"`
	OutDir          string       `json:"out_dir"`
	DBFile          string       `json:"db_file"`
	Table           string       `json:"table"`
	JSONFile        string       `json:"json_file"`
	CSVFile         string       `json:"csv_file"`
	LogFile         string       `json:"log_file"`
	Proxy           *ProxyConfig `json:"proxy"`
	TimeoutSeconds  int          `json:"timeout_seconds"`
	Snapshot        *bool        `json:"snapshot"`
	Offline         *bool        `json:"offline"`
	LogLevel        string       `json:"log_level"`
}

type ProxyConfig struct {
	URL string `json:"url"`
}

// EffectiveConfig 是合并并规范化后的最终配置；路径均为绝对路径。
type EffectiveConfig struct {
	URL             string
	Layout          string
	ContainerMarker string

	OutDir   string
	DBPath   string
	Table    string
	JSONPath string
	CSVPath  string
	LogPath  string

	ProxyURL string
	Timeout  time.Duration
	Snapshot bool
	Offline  bool
	LogLevel string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			if e.Path == "" {
				return fmt.Sprintf("%s：%v", e.Code, e.Err)
			}
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 发现并读取配置文件，然后与 CLI 参数合并为最终配置。
//
// 发现规则：
// 1) CLI 提供 --config：读取该文件（必须存在）
// 2) 否则尝试读取 <cwd>/topmovies.json（可选）
//
// 覆盖优先级：CLI（显式指定）> 配置文件 > 内置默认。
// 相对路径：out_dir 相对 cwd；db_file/json_file/csv_file/log_file 相对 out_dir。
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	cfgPath := filepath.Join(cwdAbs, FileName)
	required := false
	if strings.TrimSpace(cli.ConfigPath) != "" {
		cfgPath = absCleanFrom(cwdAbs, cli.ConfigPath)
		required = true
	}

	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if required && !exists {
		return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
	}
	if !exists {
		cfgPath = ""
	}
	return merge(cwdAbs, cli, fc, cfgPath)
}

func merge(cwdAbs string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	invalid := func(format string, args ...any) error {
		return &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf(format, args...)}
	}

	rawURL := pick(cli.URLSet, cli.URL, fc.URL, DefaultURL)
	if err := validateHTTPURL(rawURL); err != nil {
		return EffectiveConfig{}, invalid("url 无效：%v", err)
	}

	outDir := pick(cli.OutDirSet, cli.OutDir, fc.OutDir, ".")
	if strings.TrimSpace(outDir) == "" {
		return EffectiveConfig{}, invalid("out_dir 不能为空")
	}
	outAbs := absCleanFrom(cwdAbs, outDir)

	table := pick(false, "", fc.Table, DefaultTable)
	if !isIdent(table) {
		return EffectiveConfig{}, invalid("table 只能包含字母、数字和下划线，且不能以数字开头：%q", table)
	}

	layout := pick(false, "", fc.Layout, DefaultLayout)

	proxyURL := ""
	if fc.Proxy != nil {
		proxyURL = strings.TrimSpace(fc.Proxy.URL)
	}
	if proxyURL != "" {
		if _, err := url.Parse(proxyURL); err != nil {
			return EffectiveConfig{}, invalid("proxy.url 无效：%w", err)
		}
	}

	timeout := DefaultTimeout
	switch {
	case fc.TimeoutSeconds < 0:
		return EffectiveConfig{}, invalid("timeout_seconds 不能为负数：%d", fc.TimeoutSeconds)
	case fc.TimeoutSeconds > maxTimeoutSecond:
		timeout = maxTimeoutSecond * time.Second
	case fc.TimeoutSeconds > 0:
		timeout = time.Duration(fc.TimeoutSeconds) * time.Second
	}

	snapshot := true
	if fc.Snapshot != nil {
		snapshot = *fc.Snapshot
	}

	offline := false
	if cli.OfflineSet {
		offline = cli.Offline
	} else if fc.Offline != nil {
		offline = *fc.Offline
	}

	return EffectiveConfig{
		URL:             strings.TrimSpace(rawURL),
		Layout:          layout,
		ContainerMarker: strings.TrimSpace(fc.ContainerMarker),
		OutDir:          outAbs,
		DBPath:          absCleanFrom(outAbs, pick(false, "", fc.DBFile, DefaultDBFile)),
		Table:           table,
		JSONPath:        absCleanFrom(outAbs, pick(false, "", fc.JSONFile, DefaultJSONFile)),
		CSVPath:         absCleanFrom(outAbs, pick(false, "", fc.CSVFile, DefaultCSVFile)),
		LogPath:         absCleanFrom(outAbs, pick(false, "", fc.LogFile, DefaultLogFile)),
		ProxyURL:        proxyURL,
		Timeout:         timeout,
		Snapshot:        snapshot,
		Offline:         offline,
		LogLevel:        strings.TrimSpace(pick(cli.LogLevelSet, cli.LogLevel, fc.LogLevel, "")),
	}, nil
}

// pick 按 CLI > file > 默认 取值；空白字符串视为未设置。
func pick(cliSet bool, cliVal, fileVal, def string) string {
	if cliSet {
		return cliVal
	}
	if strings.TrimSpace(fileVal) != "" {
		return strings.TrimSpace(fileVal)
	}
	return def
}

func validateHTTPURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("不能为空")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("必须是 http/https：%q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("缺少 host：%q", raw)
	}
	return nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
