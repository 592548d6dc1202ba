// Package llm is the seam between the dispatch loop and the reasoning
// backend. The dispatcher hands over conversation items and tool
// declarations and gets back one completed turn; transport, streaming, and
// model selection stay behind the Provider interface.
package llm

import (
	"context"

	"github.com/openai/openai-go/v3/responses"
)

// Provider produces one model turn. onToken receives output text deltas as
// they stream; the returned response is the completed turn, including any
// function calls the model proposed.
type Provider interface {
	ChatStream(ctx context.Context, input []responses.ResponseInputItemUnionParam, tools []responses.ToolUnionParam, onToken func(string)) (*responses.Response, error)
}
