package agent

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/smarttalks/booker-agent/internal/model/chat"
)

// Responder is the conversational response agent: given the transcript and
// the current persona prompt it streams the natural-language reply.
type Responder struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewResponder compiles the response chain over the given chat model.
func NewResponder(ctx context.Context, chatModel model.ChatModel) (*Responder, error) {
	chain, err := newChatChain(ctx, chatModel)
	if err != nil {
		return nil, err
	}
	return &Responder{chain: chain}, nil
}

// Respond starts a streaming completion. The caller owns the returned
// stream and must Close it.
func (r *Responder) Respond(ctx context.Context, transcript []chat.Message, systemPrompt string) (Stream, error) {
	reader, err := r.chain.Stream(ctx, chainInput(systemPrompt, transcript))
	if err != nil {
		return nil, fmt.Errorf("failed to stream response chain: %w", err)
	}
	return &messageStream{reader: reader}, nil
}
