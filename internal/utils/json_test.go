package utils

import "testing"

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "json fence",
			input:    "```json\n{\"message\": \"hi\"}\n```",
			expected: `{"message": "hi"}`,
		},
		{
			name:     "bare fence",
			input:    "```\n{\"a\": 1}\n```",
			expected: `{"a": 1}`,
		},
		{
			name:     "no fence",
			input:    `{"a": 1}`,
			expected: `{"a": 1}`,
		},
		{
			name:     "surrounding whitespace",
			input:    "  ```json\n{\"a\": 1}\n```  ",
			expected: `{"a": 1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripCodeFence(tt.input); got != tt.expected {
				t.Errorf("StripCodeFence() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestExtractJSON(t *testing.T) {
	input := "some prefix {\"key\": {\"nested\": true}} trailing"
	expected := `{"key": {"nested": true}}`
	if got := ExtractJSON(input); got != expected {
		t.Errorf("ExtractJSON() = %q, want %q", got, expected)
	}

	// 没有 JSON 时原样返回
	if got := ExtractJSON("no json here"); got != "no json here" {
		t.Errorf("ExtractJSON() = %q, want original text", got)
	}
}

func TestToJSON(t *testing.T) {
	got := ToJSON(map[string]int{"a": 1})
	if got != `{"a":1}` {
		t.Errorf("ToJSON() = %q", got)
	}
}
