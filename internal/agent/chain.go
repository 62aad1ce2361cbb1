package agent

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/smarttalks/booker-agent/internal/model/chat"
)

// newChatChain compiles the shared template: a per-turn system prompt
// followed by the running transcript.
func newChatChain(ctx context.Context, chatModel model.ChatModel) (compose.Runnable[map[string]any, *schema.Message], error) {
	template := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(template)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}
	return runnable, nil
}

// chainInput assembles the template variables for one model call.
func chainInput(systemPrompt string, transcript []chat.Message) map[string]any {
	return map[string]any{
		"system":  systemPrompt,
		"history": historyMessages(transcript),
	}
}

// historyMessages converts transcript entries to model messages. System
// entries are skipped: the system prompt is rebuilt per call and injected
// separately so its embedded timestamp stays current.
func historyMessages(transcript []chat.Message) []*schema.Message {
	history := make([]*schema.Message, 0, len(transcript))
	for _, msg := range transcript {
		switch msg.Role {
		case chat.RoleUser:
			history = append(history, schema.UserMessage(msg.Content))
		case chat.RoleAssistant:
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		}
	}
	return history
}
