package coach

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abhisek/equilibrium/internal/llm"
)

// PurposePlan labels improvement plan requests in the audit log.
const PurposePlan = "improvement-plan"

// Plan is a three-strategy improvement plan.
type Plan struct {
	Introduction string     `json:"introduction"`
	Strategies   []Strategy `json:"strategies"`
}

// Strategy is one plan section with 3 to 5 checklist items.
type Strategy struct {
	Title     string   `json:"title"`
	Rationale string   `json:"rationale"`
	Checklist []string `json:"checklist"`
}

const planSystemPrompt = `You are a wellness coach and therapist creating a personalized action plan for someone dealing with burnout. Your tone is encouraging, empathetic and highly practical.

Start with a brief, empathetic introduction that acknowledges their situation without being alarming.

Then devise three distinct strategies based on their weakest areas. For each strategy:
1. Give it a short, encouraging title.
2. Write a rationale that explains why it matters for them, linked to their specific answers.
3. Write a checklist of 3 to 5 small, concrete steps that are easy to start. Prefer "Set a bedtime alarm for 10 PM" over "Get more sleep".

Take a holistic view: stress management, boundaries, rest, reconnecting with values and control over the work environment.`

// Planner builds improvement plans.
type Planner struct {
	provider llm.Provider
	cfg      Config
}

func NewPlanner(provider llm.Provider, cfg Config) *Planner {
	return &Planner{provider: provider, cfg: cfg}
}

type planOutput struct {
	Introduction string `json:"introduction"`
	Strategies   []struct {
		Title     string `json:"title"`
		Rationale string `json:"rationale"`
		Checklist []struct {
			Text string `json:"text"`
		} `json:"checklist"`
	} `json:"strategies"`
}

// Plan asks the provider for a plan tailored to in.
func (p *Planner) Plan(ctx context.Context, in Input) (*Plan, error) {
	ctx = llm.WithPurpose(ctx, PurposePlan)

	var b strings.Builder
	writeAnswers(&b, in)

	resp, err := p.provider.Generate(ctx, llm.Request{
		System:      planSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: b.String()}},
		Schema:      PlanSchema,
		MaxTokens:   p.cfg.MaxTokens,
		Temperature: p.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("improvement plan: %w", err)
	}

	var out planOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse improvement plan: %w", err)
	}
	if strings.TrimSpace(out.Introduction) == "" {
		return nil, invalid("empty introduction")
	}
	if len(out.Strategies) != 3 {
		return nil, invalid("got %d strategies, want 3", len(out.Strategies))
	}

	plan := &Plan{Introduction: out.Introduction}
	for i, s := range out.Strategies {
		if n := len(s.Checklist); n < 3 || n > 5 {
			return nil, invalid("strategy %d: %d checklist items, want 3 to 5", i, n)
		}
		st := Strategy{Title: s.Title, Rationale: s.Rationale}
		for _, item := range s.Checklist {
			st.Checklist = append(st.Checklist, item.Text)
		}
		plan.Strategies = append(plan.Strategies, st)
	}
	return plan, nil
}
