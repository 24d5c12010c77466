package generator

import (
	"context"
	"html"
	"strings"
)

// MockLLM 一个简单的占位实现，便于本地调试，不调用外部模型。
type MockLLM struct{}

func (m MockLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	brief := prompt.User
	if i := strings.Index(brief, "\n\nDeliver"); i >= 0 {
		brief = brief[:i]
	}
	brief = strings.TrimSpace(strings.TrimPrefix(brief, "Project brief:"))

	// 模拟真实模型：前后带说明文字并用代码块包裹。
	var sb strings.Builder
	sb.WriteString("Here is your app:\n\n")
	sb.WriteString("```html\n")
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"UTF-8\" />\n")
	sb.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\" />\n")
	sb.WriteString("<title>Preview</title>\n")
	sb.WriteString("<style>body{font-family:system-ui,sans-serif;max-width:640px;margin:2rem auto;padding:0 1rem}</style>\n")
	sb.WriteString("</head>\n<body>\n<main>\n<h1>Preview build</h1>\n<p>")
	sb.WriteString(html.EscapeString(brief))
	sb.WriteString("</p>\n</main>\n</body>\n</html>\n")
	sb.WriteString("```\n\nEnjoy!")
	return sb.String(), nil
}
