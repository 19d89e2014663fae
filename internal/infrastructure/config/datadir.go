package config

import (
	"os"
	"path/filepath"
	"sync"
)

const (
	// EnvDataDir 数据根目录环境变量
	EnvDataDir = "RETAILMIND_DATA_DIR"
	// DefaultDataDirName 用户主目录下的默认数据目录名
	DefaultDataDirName = ".retailmind"
	// DatasetDirName 数据根目录下存放 dashboard_* 文件的子目录
	DatasetDirName = "dataset"
	// SnapshotDirName 数据根目录下存放 SQLite 快照的子目录
	SnapshotDirName = "snapshots"
)

var (
	dataDirOnce sync.Once
	dataDirPath string
)

// GetDataDir 数据根目录，首次调用后缓存
// 优先 RETAILMIND_DATA_DIR，其次 ~/.retailmind，取不到主目录时使用相对路径
// 其他路径都从这里派生，不要自行拼接主目录
func GetDataDir() string {
	dataDirOnce.Do(func() {
		if dir := os.Getenv(EnvDataDir); dir != "" {
			dataDirPath = dir
			return
		}
		homeDir, err := os.UserHomeDir()
		if err != nil {
			dataDirPath = DefaultDataDirName
			return
		}
		dataDirPath = filepath.Join(homeDir, DefaultDataDirName)
	})
	return dataDirPath
}

// DefaultDatasetDir 默认数据集目录
func DefaultDatasetDir() string {
	return filepath.Join(GetDataDir(), DatasetDirName)
}

// ConfigFilePath 可选的 YAML 配置文件路径
func ConfigFilePath() string {
	return filepath.Join(GetDataDir(), ConfigFileName)
}

// SnapshotPath 快照目录下指定名称的 SQLite 文件路径
func SnapshotPath(name string) string {
	return filepath.Join(GetDataDir(), SnapshotDirName, name)
}

// ResetDataDir 清除缓存，仅供测试使用
func ResetDataDir() {
	dataDirOnce = sync.Once{}
	dataDirPath = ""
}
