package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/agentcrew/backend/config"
	"k8s.io/klog/v2"
)

// Client OpenAI 兼容的 LLM 客户端
type Client struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
	Client    *http.Client
}

// NewClient 创建新的 LLM 客户端
func NewClient(cfg *config.Config) *Client {
	timeout := cfg.Collaboration.CallTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		BaseURL:   cfg.LLM.APIURL,
		APIKey:    cfg.LLM.APIKey,
		Model:     cfg.LLM.Model,
		MaxTokens: cfg.LLM.MaxTokens,
		Client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Generate 发送单轮完成请求，temperature 按调用用途指定
func (c *Client) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	klog.V(6).Infof("Generate 请求: model=%s, temperature=%.1f, promptLen=%d", c.Model, temperature, len(prompt))
	resp, err := c.sendRequest(ctx, ChatRequest{
		Model:       c.Model,
		Messages:    []ChatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	return resp.Choices[0].Message.Content, nil
}

// sendRequest 发送 HTTP 请求到 LLM API
func (c *Client) sendRequest(ctx context.Context, reqBody ChatRequest) (*ChatResponse, error) {
	url := c.BaseURL + "/chat/completions"
	klog.V(6).Infof("发送 LLM 请求: url=%s, model=%s", url, reqBody.Model)

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrProvider, err)
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal response: %v", ErrProvider, err)
	}

	if chatResp.Error != nil {
		return nil, fmt.Errorf("%w: API error: %s", ErrProvider, chatResp.Error.Message)
	}

	return &chatResp, nil
}
