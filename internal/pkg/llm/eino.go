package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"k8s.io/klog/v2"

	"github.com/agentcrew/backend/config"
)

// EinoProvider 基于 cloudwego/eino 的 Provider 实现
// 与 Client 等价，走 eino 的 OpenAI ChatModel
type EinoProvider struct {
	chatModel model.ToolCallingChatModel
}

// NewEinoProvider 创建 eino ChatModel Provider
func NewEinoProvider(cfg *config.Config) (*EinoProvider, error) {
	modelConfig := &openai.ChatModelConfig{
		APIKey: cfg.LLM.APIKey,
		Model:  cfg.LLM.Model,
	}
	if cfg.LLM.APIURL != "" {
		modelConfig.BaseURL = cfg.LLM.APIURL
	}
	if cfg.LLM.MaxTokens > 0 {
		maxTokens := cfg.LLM.MaxTokens
		modelConfig.MaxTokens = &maxTokens
	}

	chatModel, err := openai.NewChatModel(context.Background(), modelConfig)
	if err != nil {
		klog.Errorf("[EinoProvider] 创建 ChatModel 失败: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	klog.V(6).Infof("[EinoProvider] ChatModel 创建成功: model=%s", cfg.LLM.Model)
	return &EinoProvider{chatModel: chatModel}, nil
}

// Generate 实现 Provider 接口
func (p *EinoProvider) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	messages := []*schema.Message{
		schema.UserMessage(prompt),
	}

	temp := float32(temperature)
	resp, err := p.chatModel.Generate(ctx, messages, model.WithTemperature(temp))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProvider, err)
	}
	if resp == nil || resp.Content == "" {
		return "", ErrEmptyResponse
	}

	return resp.Content, nil
}
