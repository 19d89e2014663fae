package tokenizer

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// EncodingName 使用的编码
const EncodingName = "cl100k_base"

// 在包初始化时设置离线加载器，避免运行时下载编码文件
func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// TiktokenCounter 使用 tiktoken 统计上传会话的 token 数
type TiktokenCounter struct {
	encoding *tiktoken.Tiktoken
	mu       sync.RWMutex
}

var (
	counterInstance *TiktokenCounter
	counterOnce     sync.Once
	counterErr      error
)

// GetTiktokenCounter 获取 TiktokenCounter 单例
func GetTiktokenCounter() (*TiktokenCounter, error) {
	counterOnce.Do(func() {
		enc, err := tiktoken.GetEncoding(EncodingName)
		if err != nil {
			counterErr = err
			return
		}
		counterInstance = &TiktokenCounter{encoding: enc}
	})

	if counterErr != nil {
		return nil, counterErr
	}
	return counterInstance, nil
}

// Count 计算文本的 token 数
func (c *TiktokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.encoding.Encode(text, nil, nil))
}

// FallbackCounter 编码不可用时的近似计数：按空白切分的词数
type FallbackCounter struct{}

// Count 计算近似 token 数
func (FallbackCounter) Count(text string) int {
	return len(strings.Fields(text))
}

// Counter 统一的计数接口
type Counter interface {
	Count(text string) int
}

// NewCounter 优先返回 tiktoken 计数器，加载失败时退化为词数统计
func NewCounter() Counter {
	c, err := GetTiktokenCounter()
	if err != nil {
		return FallbackCounter{}
	}
	return c
}
