package utils

import (
	"encoding/json"
	"strings"

	"k8s.io/klog/v2"
)

// StripCodeFence 去掉 ```json ... ``` 代码块包装
// LLM 经常把 JSON 包在代码块里返回，解析前先剥掉
func StripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	// 跳过起始 ``` 以及可选的语言标识（json 等）
	rest := trimmed[3:]
	if idx := strings.IndexAny(rest, "\r\n"); idx >= 0 {
		rest = rest[idx:]
	}
	rest = strings.TrimLeft(rest, "\r\n")

	if idx := strings.Index(rest, "```"); idx >= 0 {
		rest = rest[:idx]
	}
	return strings.TrimSpace(rest)
}

// ExtractJSON 从文本中提取 JSON 部分
func ExtractJSON(content string) string {
	start := -1
	end := -1
	depth := 0

	for i, ch := range content {
		if ch == '{' {
			if depth == 0 {
				start = i
			}
			depth++
		} else if ch == '}' {
			depth--
			if depth == 0 && start != -1 {
				end = i + 1
				break
			}
		}
	}

	if start >= 0 && end > start {
		return content[start:end]
	}

	return content
}

func ToJSON(v any) string {
	jsonData, err := json.Marshal(v)
	if err != nil {
		klog.Errorf("JSON序列化失败: %v", err)
		return ""
	}
	return string(jsonData)
}
