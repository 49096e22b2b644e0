package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// ErrCodeNotFound 表示找不到 douban_config.json。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
	// ErrCodeMissingUser 表示配置文件缺少 user_id 字段。
	ErrCodeMissingUser = "config_missing_user"
)

// Config 是爬取/富化流程需要的全部外部输入。
//
// cookies 是不透明的会话凭证：本程序不做登录，只原样随请求携带。
type Config struct {
	UserID  string  `json:"user_id"`
	Cookies Cookies `json:"cookies"`
}

// Cookies 统一三种来源形态为 name -> value 映射：
// - JSON 对象：{"bid":"x","dbcl2":"y"}
// - name/value 对象列表：[{"name":"bid","value":"x"}, ...]（浏览器导出格式）
// - 分号分隔字符串："bid=x; dbcl2=y"
type Cookies map[string]string

func (c *Cookies) UnmarshalJSON(b []byte) error {
	out := map[string]string{}

	var asMap map[string]string
	if err := json.Unmarshal(b, &asMap); err == nil {
		*c = asMap
		return nil
	}

	var asList []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	}
	if err := json.Unmarshal(b, &asList); err == nil {
		for _, item := range asList {
			if item.Name != "" && item.Value != "" {
				out[item.Name] = item.Value
			}
		}
		*c = out
		return nil
	}

	var asString string
	if err := json.Unmarshal(b, &asString); err == nil {
		for _, part := range strings.Split(asString, ";") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if k, v, ok := strings.Cut(part, "="); ok {
				out[strings.TrimSpace(k)] = strings.TrimSpace(v)
			}
		}
		*c = out
		return nil
	}

	return fmt.Errorf("cookies 必须是对象、name/value 列表或分号分隔字符串")
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
	case ErrCodeMissingUser:
		return fmt.Sprintf("%s：配置文件 %q 缺少必填字段 user_id", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
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

// Load 读取并校验单个配置文件。
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, &Error{Code: ErrCodeNotFound, Path: path, Err: err}
		}
		return Config{}, &Error{Code: ErrCodeInvalid, Path: path, Err: err}
	}

	var cfg Config
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Config{}, &Error{Code: ErrCodeInvalid, Path: path, Err: err}
	}
	if strings.TrimSpace(cfg.UserID) == "" {
		return Config{}, &Error{Code: ErrCodeMissingUser, Path: path}
	}
	if cfg.Cookies == nil {
		cfg.Cookies = Cookies{}
	}
	return cfg, nil
}

// Discover 按固定顺序查找配置文件：<cwd>/douban_config.json，其次
// <dataDir>/douban_config.json。两处都不存在时返回 config_not_found。
func Discover(cwd, dataDir string) (Config, error) {
	primary := filepath.Join(cwd, "douban_config.json")
	cfg, err := Load(primary)
	if Code(err) != ErrCodeNotFound {
		return cfg, err
	}
	return Load(filepath.Join(dataDir, "douban_config.json"))
}
