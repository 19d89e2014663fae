package log

import (
	"os"
	"strconv"
	"strings"
)

// 日志相关环境变量
const (
	EnvLevel     = "LOG_LEVEL"
	EnvFormat    = "LOG_FORMAT"
	EnvOutput    = "LOG_OUTPUT"
	EnvAddSource = "LOG_ADD_SOURCE"
	EnvMode      = "ENV"
)

// Config 日志配置
type Config struct {
	// Level 日志级别：debug, info, warn, error
	Level string `json:"level" yaml:"level"`

	// Format 日志格式：console, json, text
	Format string `json:"format" yaml:"format"`

	// Output 输出目标：stdout, stderr, file:/path/to/log
	Output string `json:"output" yaml:"output"`

	// AddSource 是否记录源文件位置
	AddSource bool `json:"add_source" yaml:"add_source"`
}

// NewConfigFromEnv 从环境变量创建服务端日志配置
// ENV=development 时强制 debug 级别并输出源文件位置
func NewConfigFromEnv() *Config {
	cfg := &Config{
		Level:     envOr(EnvLevel, "info"),
		Format:    envOr(EnvFormat, "console"),
		Output:    envOr(EnvOutput, "stdout"),
		AddSource: envBool(EnvAddSource, false),
	}

	if cfg.isDevelopment() {
		cfg.Level = "debug"
		cfg.Format = "console"
		cfg.AddSource = true
	}

	return cfg
}

// NewCLIConfig 命令行工具的日志配置
// 标准输出留给报表，日志默认写 stderr；未设置 LOG_LEVEL 时只记录警告，verbose 打开 debug
func NewCLIConfig(verbose bool) *Config {
	cfg := NewConfigFromEnv()
	if os.Getenv(EnvOutput) == "" {
		cfg.Output = "stderr"
	}
	switch {
	case verbose:
		cfg.Level = "debug"
	case os.Getenv(EnvLevel) == "" && !cfg.isDevelopment():
		cfg.Level = "warn"
	}
	return cfg
}

func (c *Config) isDevelopment() bool {
	return strings.EqualFold(envOr(EnvMode, "production"), "development")
}

func envOr(key, def string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return def
}

func envBool(key string, def bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return def
	}
	return b
}
