package generator

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
)

// Agent 负责根据 brief 生成单页 HTML。
type Agent struct {
	llm    LLMClient
	logger zerolog.Logger
}

func NewAgent(llm LLMClient, logger zerolog.Logger) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	return &Agent{llm: llm, logger: logger}, nil
}

// Generate makes one completion call and extracts the document. There is no
// retry; every failure is a *GenerationError.
func (a *Agent) Generate(ctx context.Context, brief string) (Document, error) {
	prompt := BuildPrompt(brief)

	raw, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		return Document{}, &GenerationError{Reason: "completion call failed", Err: err}
	}
	if strings.TrimSpace(raw) == "" {
		return Document{}, &GenerationError{Reason: "model returned empty output"}
	}
	a.logger.Debug().Int("raw_bytes", len(raw)).Msg("completion received")

	html, err := ExtractHTML(raw)
	if err != nil {
		return Document{}, &GenerationError{Reason: "extraction failed", Err: err}
	}
	a.logger.Debug().Int("html_bytes", len(html)).Msg("html extracted")

	return Document{Raw: raw, HTML: html}, nil
}
