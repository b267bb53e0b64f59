package openaicompat

import (
	rag "github.com/shaonidutta/rag-vs-fine-tuning"
)

// ParseResponse converts an OpenAI-format ChatResponse to a rag ChatResponse.
// It extracts content and usage from choices[0]. An empty choices array
// yields a zero response, not an error; some gateways return that shape for
// filtered prompts.
func ParseResponse(resp ChatResponse) rag.ChatResponse {
	var out rag.ChatResponse

	if len(resp.Choices) > 0 && resp.Choices[0].Message != nil {
		out.Content = resp.Choices[0].Message.Content
	}

	if resp.Usage != nil {
		out.Usage = rag.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		}
	}

	return out
}
