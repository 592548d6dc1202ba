package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// OpenAI drives one model through the responses API. A provider is bound to
// a single model name; the tier factory owns the tier-to-model mapping.
type OpenAI struct {
	client openai.Client
	model  shared.ResponsesModel
}

func NewOpenAI(baseURL, apiKey, model string) *OpenAI {
	opts := []option.RequestOption{
		option.WithHTTPClient(&http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}),
	}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAI{
		client: openai.NewClient(opts...),
		model:  shared.ResponsesModel(model),
	}
}

// ChatStream runs one streaming turn. Only text deltas and the terminal
// events matter here; intermediate item events are dropped because the
// completed response carries the full output list anyway.
func (o *OpenAI) ChatStream(ctx context.Context, input []responses.ResponseInputItemUnionParam, tools []responses.ToolUnionParam, onToken func(string)) (*responses.Response, error) {
	stream := o.client.Responses.NewStreaming(ctx, responses.ResponseNewParams{
		Model: o.model,
		Input: responses.ResponseNewParamsInputUnion{OfInputItemList: input},
		Tools: tools,
	})

	var final *responses.Response
	for stream.Next() {
		switch ev := stream.Current(); ev.Type {
		case "response.output_text.delta":
			if onToken != nil && ev.Delta != "" {
				onToken(ev.Delta)
			}
		case "response.completed":
			resp := ev.Response
			final = &resp
		case "response.failed":
			return nil, fmt.Errorf("backend reported failure: %s", ev.Response.Error.Message)
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("streaming turn: %w", err)
	}
	if final == nil {
		return nil, fmt.Errorf("stream ended without a completed response")
	}
	return final, nil
}
