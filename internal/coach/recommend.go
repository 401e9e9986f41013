package coach

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/abhisek/equilibrium/internal/llm"
)

// PurposeRecommendations labels recommendation requests in the audit log.
const PurposeRecommendations = "recommendations"

// Recommendation is one coping strategy card.
type Recommendation struct {
	Icon        string `json:"iconName"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Recommendations is the analysis shown next to a logged check-in.
type Recommendations struct {
	Level string           `json:"level"`
	Items []Recommendation `json:"recommendations"`
}

// FallbackRecommendations is shown when the provider cannot produce any.
func FallbackRecommendations() Recommendations {
	return Recommendations{
		Level: "Analysis Complete",
		Items: []Recommendation{
			{Icon: "Leaf", Title: "Take a mindful moment", Description: "Step away from your screen and take a few deep breaths. Focus on your senses."},
			{Icon: "Footprints", Title: "Stretch your legs", Description: "A short walk or a few stretches can help reset your mind and body."},
		},
	}
}

const recommendSystemPrompt = `You are a compassionate therapist specializing in workplace wellness and burnout prevention. Your tone is supportive, calm, and encouraging.

Given a person's burnout score and their answers, write a short, encouraging assessment of their burnout level ("level"), then two distinct, personalized and actionable coping strategies ("recommendations"), each with a title, a description and an icon from the allowed list.

Tie each strategy to the answers. If rest is low, suggest sleep hygiene. If emotional distance is high, suggest reaching out to someone. If control is low, suggest focusing on what can be controlled. If enjoyment is low, suggest a mindful break.

Do not sound like a robot. Be empathetic and give genuinely helpful advice.`

// Recommender produces Recommendations for one logged check-in.
type Recommender struct {
	provider llm.Provider
	cfg      Config
}

func NewRecommender(provider llm.Provider, cfg Config) *Recommender {
	return &Recommender{provider: provider, cfg: cfg}
}

// Recommend asks the provider for an assessment and two strategies.
func (r *Recommender) Recommend(ctx context.Context, in Input) (Recommendations, error) {
	ctx = llm.WithPurpose(ctx, PurposeRecommendations)

	resp, err := r.provider.Generate(ctx, llm.Request{
		System:      recommendSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildRecommendMessage(in)}},
		Schema:      RecommendationsSchema,
		MaxTokens:   r.cfg.MaxTokens,
		Temperature: r.cfg.Temperature,
	})
	if err != nil {
		return Recommendations{}, fmt.Errorf("recommendations: %w", err)
	}

	var out Recommendations
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return Recommendations{}, fmt.Errorf("parse recommendations: %w", err)
	}
	if err := out.validate(); err != nil {
		return Recommendations{}, err
	}
	return out, nil
}

func (r Recommendations) validate() error {
	if strings.TrimSpace(r.Level) == "" {
		return invalid("empty level")
	}
	if len(r.Items) != 2 {
		return invalid("got %d recommendations, want 2", len(r.Items))
	}
	for i, it := range r.Items {
		if !slices.Contains(Icons, it.Icon) {
			return invalid("recommendation %d: unknown icon %q", i, it.Icon)
		}
		if strings.TrimSpace(it.Title) == "" || strings.TrimSpace(it.Description) == "" {
			return invalid("recommendation %d: empty title or description", i)
		}
	}
	return nil
}

func buildRecommendMessage(in Input) string {
	var b strings.Builder
	writeAnswers(&b, in)
	if in.MoodTag != "" {
		fmt.Fprintf(&b, "\nMood: %s\nTake this mood into account.\n", in.MoodTag)
	}
	return b.String()
}
