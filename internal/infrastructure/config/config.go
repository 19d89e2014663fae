package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	applog "github.com/retailmind/backend/internal/infrastructure/log"
	"gopkg.in/yaml.v3"
)

const (
	// EnvHTTPPort HTTP 监听端口环境变量名
	EnvHTTPPort = "RETAILMIND_HTTP_PORT"
	// EnvDatasetDir 数据集目录环境变量名
	EnvDatasetDir = "RETAILMIND_DATASET_DIR"
	// EnvSnapshotDB SQLite 快照路径环境变量名（设置后优先于 JSONL 目录）
	EnvSnapshotDB = "RETAILMIND_SNAPSHOT_DB"
	// EnvWatch 是否监听数据集目录变化
	EnvWatch = "RETAILMIND_WATCH"
	// ConfigFileName 数据根目录下的可选配置文件
	ConfigFileName = "config.yaml"
)

// Config 应用配置
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Dataset   DatasetConfig   `yaml:"dataset"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Upload    UploadConfig    `yaml:"upload"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTPPort string `yaml:"http_port"` // 固定端口，用于单例锁
}

// DatasetConfig 数据集来源配置
type DatasetConfig struct {
	// Dir 存放 dashboard_turns.jsonl 等文件的目录
	Dir string `yaml:"dir"`
	// SnapshotDB 只读 SQLite 快照，留空表示使用 Dir
	SnapshotDB string `yaml:"snapshot_db"`
	// Watch 数据文件变化时自动重新加载
	Watch bool `yaml:"watch"`
	// WatchDebounce 文件事件防抖时间
	WatchDebounce time.Duration `yaml:"watch_debounce"`
	// HistorySize 保留的指标历史条数
	HistorySize int `yaml:"history_size"`
}

// WebSocketConfig WebSocket 配置
type WebSocketConfig struct {
	ReadBufferSize  int `yaml:"read_buffer_size"`
	WriteBufferSize int `yaml:"write_buffer_size"`
}

// UploadConfig 上传实验室配置
type UploadConfig struct {
	// MaxBytes 单次上传的最大字节数
	MaxBytes int64 `yaml:"max_bytes"`
	// HistorySize 保留的上传历史条数，0 表示不限制
	HistorySize int `yaml:"history_size"`
}

// NewConfig 创建配置：默认值 < config.yaml < 环境变量
func NewConfig() *Config {
	cfg := defaultConfig()

	path := ConfigFilePath()
	if err := cfg.LoadFile(path); err != nil && !os.IsNotExist(err) {
		// 配置文件损坏时保留默认值
		applog.NewModuleLogger("config", "loader").Warn("Ignoring invalid config file",
			"path", path,
			"error", err,
		)
	}

	cfg.applyEnv()
	return cfg
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: ":19970",
		},
		Dataset: DatasetConfig{
			Dir:           DefaultDatasetDir(),
			SnapshotDB:    "",
			Watch:         false,
			WatchDebounce: 500 * time.Millisecond,
			HistorySize:   10,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		Upload: UploadConfig{
			MaxBytes:    5 << 20,
			HistorySize: 100,
		},
	}
}

// LoadFile 用 YAML 文件覆盖当前配置，文件中未出现的字段保持不变
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if port := os.Getenv(EnvHTTPPort); port != "" {
		c.Server.HTTPPort = port
	}
	if dir := os.Getenv(EnvDatasetDir); dir != "" {
		c.Dataset.Dir = dir
	}
	if db := os.Getenv(EnvSnapshotDB); db != "" {
		c.Dataset.SnapshotDB = db
	}
	if watch := os.Getenv(EnvWatch); watch != "" {
		if b, err := strconv.ParseBool(watch); err == nil {
			c.Dataset.Watch = b
		}
	}
}

// NewServerConfig 创建服务器配置
func NewServerConfig(cfg *Config) *ServerConfig {
	return &cfg.Server
}

// NewDatasetConfig 创建数据集配置
func NewDatasetConfig(cfg *Config) *DatasetConfig {
	return &cfg.Dataset
}

// NewWebSocketConfig 创建 WebSocket 配置
func NewWebSocketConfig(cfg *Config) *WebSocketConfig {
	return &cfg.WebSocket
}

// NewUploadConfig 创建上传配置
func NewUploadConfig(cfg *Config) *UploadConfig {
	return &cfg.Upload
}
