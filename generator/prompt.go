package generator

import (
	"fmt"
	"strings"
)

// Prompt 表示发送给 LLM 的消息集合。
type Prompt struct {
	System      string
	User        string
	Temperature float64
}

const systemPrompt = "You are an expert frontend developer. Generate ONLY the complete HTML code with embedded CSS and " +
	"JavaScript. DO NOT include explanations, markdown formatting, or code fences."

var deliveryRules = []string{
	"Starts with <!DOCTYPE html> and includes <html>, <head>, and <body>.",
	"Embeds all CSS inside <style> tags and all scripts inside <script> tags.",
	"Loads nothing from external URLs: no CDNs, web fonts, or remote images.",
	"Provides graceful error handling for anything that can fail at runtime.",
	"Includes thoughtful, mobile-friendly design.",
	"Contains no prose before <!DOCTYPE html> or after </html>.",
}

// BuildPrompt asks for exactly one self-contained HTML document implementing brief.
func BuildPrompt(brief string) Prompt {
	var sb strings.Builder
	sb.WriteString("Project brief:\n")
	sb.WriteString(strings.TrimSpace(brief))
	sb.WriteString("\n\nDeliver a single HTML file that:\n")
	for _, rule := range deliveryRules {
		sb.WriteString(fmt.Sprintf("- %s\n", rule))
	}

	return Prompt{
		System:      systemPrompt,
		User:        sb.String(),
		Temperature: 0.3,
	}
}
