package oracle

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/abhisek/equilibrium/internal/interview"
	"github.com/abhisek/equilibrium/internal/rubric"
)

var systemPrompt = buildSystemPrompt()

func buildSystemPrompt() string {
	var b strings.Builder
	b.WriteString(`You are a warm, empathetic wellness coach running a short conversational check-in that gauges a person's risk of burnout.

You ask one question at a time. The person answers every question on a 1-5 scale, where 1 means "Not at all" and 5 means "Extremely". After each answer you either ask a new follow-up question or finish the check-in.

Across the conversation, cover these seven areas:
`)
	for i, d := range rubric.Dimensions {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, d.Name, d.Question)
	}
	fmt.Fprintf(&b, `
Rules:
- Ask between %d and %d questions in total.
- Never repeat a question that already appears in the conversation.
- Do not number your questions. Keep them natural and caring, not clinical.
- Vary the areas you ask about so every area is covered.
- Every question must be answerable on the 1-5 scale.

When you continue, set "status" to "IN_PROGRESS" and put the question in "question".
When you finish, set "status" to "COMPLETED", ask nothing further, and fill "mappedAnswers" by interpreting the entire conversation onto the seven areas: q1..q7 in the order listed above, each an integer from 1 to 5 on the same scale as the person's answers.`,
		interview.MinTurns, interview.MaxTurns)
	return b.String()
}

var directives = map[interview.Phase]string{
	interview.PhaseOpening: "Start the check-in by asking the first, general opening question.",
	interview.PhaseProbing: "Ask the next question. It is too early to finish.",
	interview.PhaseClosing: "Ask the next question, or, if you understand all seven areas well enough, finish with the final mapping instead.",
	interview.PhaseFinal:   "The question limit has been reached. Do not ask anything else: finish now with the final mapping.",
}

var stepTemplate = template.Must(template.New("step").Parse(`{{if .MoodTag}}The person describes their mood right now as: {{.MoodTag}}
Take this mood into account.

{{end}}{{if .Turns}}Conversation so far ({{len .Turns}} of at most {{.MaxTurns}} questions):

{{range $i, $t := .Turns}}{{if $i}}
{{end}}Coach: {{$t.Question}}
You: {{$t.Answer}}
{{end}}
{{end}}{{.Directive}}`))

type stepPromptData struct {
	MoodTag   string
	Turns     interview.Transcript
	MaxTurns  int
	Directive string
}

// buildStepMessage serializes the transcript and the phase directive into
// the user message of one oracle request.
func buildStepMessage(req interview.Request) (string, error) {
	directive, ok := directives[req.Phase]
	if !ok {
		return "", fmt.Errorf("unknown phase %q", req.Phase)
	}
	var buf bytes.Buffer
	err := stepTemplate.Execute(&buf, stepPromptData{
		MoodTag:   req.MoodTag,
		Turns:     req.Transcript,
		MaxTurns:  interview.MaxTurns,
		Directive: directive,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
