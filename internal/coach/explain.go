package coach

import (
	"context"
	"fmt"
	"strings"

	"github.com/abhisek/equilibrium/internal/llm"
)

// PurposeExplain labels explanation requests in the audit log.
const PurposeExplain = "explain-question"

// ChatRole is the speaker of a ChatMessage.
type ChatRole string

const (
	ChatUser  ChatRole = "user"
	ChatModel ChatRole = "model"
)

// ChatMessage is one entry of an explanation chat.
type ChatMessage struct {
	Role ChatRole `json:"role"`
	Text string   `json:"text"`
}

// Explainer answers questions about questionnaire questions.
type Explainer struct {
	provider llm.Provider
	cfg      Config
}

func NewExplainer(provider llm.Provider, cfg Config) *Explainer {
	return &Explainer{provider: provider, cfg: cfg}
}

// Explain returns an explanation of question. With an empty history it
// gives a short first explanation; otherwise it answers the last user
// message of the chat.
func (e *Explainer) Explain(ctx context.Context, question string, history []ChatMessage) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("explain: empty question")
	}
	msgs, err := chatMessages(history)
	if err != nil {
		return "", fmt.Errorf("explain: %w", err)
	}

	ctx = llm.WithPurpose(ctx, PurposeExplain)
	resp, err := e.provider.Generate(ctx, llm.Request{
		System:      explainSystemPrompt(question),
		Messages:    msgs,
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("explain: %w", err)
	}

	text := strings.TrimSpace(string(resp.Content))
	if text == "" {
		return "", invalid("empty explanation")
	}
	return text, nil
}

func explainSystemPrompt(question string) string {
	return fmt.Sprintf(`You are a helpful and empathetic assistant in a mental wellness app called Equilibrium.
The person is asking for clarification on a check-in question about burnout.

Explain the question clearly and concisely, focusing on why it matters when assessing burnout.
If there is no earlier conversation, give an initial explanation of 2-3 sentences.
Otherwise continue the conversation and answer the follow-up.

The question being explained is: %q

Keep a supportive, non-clinical tone.`, question)
}

func chatMessages(history []ChatMessage) ([]llm.Message, error) {
	if len(history) == 0 {
		return []llm.Message{{Role: llm.RoleUser, Content: "Please explain this question."}}, nil
	}
	msgs := make([]llm.Message, 0, len(history))
	for i, m := range history {
		if strings.TrimSpace(m.Text) == "" {
			return nil, fmt.Errorf("history entry %d is empty", i)
		}
		switch m.Role {
		case ChatUser:
			msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: m.Text})
		case ChatModel:
			msgs = append(msgs, llm.Message{Role: llm.RoleAssistant, Content: m.Text})
		default:
			return nil, fmt.Errorf("history entry %d: unknown role %q", i, m.Role)
		}
	}
	if history[len(history)-1].Role != ChatUser {
		return nil, fmt.Errorf("history must end with a user message")
	}
	return msgs, nil
}
