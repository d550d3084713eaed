package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/agentcrew/backend/config"
)

// 预定义错误
var (
	// ErrProvider 完成调用失败（网络/认证/配额）
	ErrProvider = errors.New("completion provider error")

	// ErrEmptyResponse LLM 返回空结果
	ErrEmptyResponse = errors.New("no response from LLM")
)

// Provider 完成调用接口
// temperature 由调用方按用途显式指定（创意类偏高、分析类偏低）
type Provider interface {
	Generate(ctx context.Context, prompt string, temperature float64) (string, error)
}

// NewProvider 根据配置选择 Provider 实现
func NewProvider(cfg *config.Config) (Provider, error) {
	switch cfg.LLM.Provider {
	case "", "http":
		return NewClient(cfg), nil
	case "eino":
		return NewEinoProvider(cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.LLM.Provider)
	}
}
