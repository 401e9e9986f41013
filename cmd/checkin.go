package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/abhisek/equilibrium/internal/app"
	"github.com/abhisek/equilibrium/internal/checkin"
	"github.com/abhisek/equilibrium/internal/rubric"
	"github.com/abhisek/equilibrium/internal/tui"
)

var checkinCmd = &cobra.Command{
	Use:   "checkin",
	Short: "Run an interactive burnout check-in",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheckin(cmd)
	},
}

func init() {
	addCheckinFlags(checkinCmd)
}

func addCheckinFlags(c *cobra.Command) {
	c.Flags().StringP("mood", "m", "", "Mood tag, e.g. Stressed (asked interactively when empty)")
	c.Flags().Bool("offline", false, "Ask the seven standard questions without an LLM")
	addSessionFlag(c)
}

func runCheckin(cmd *cobra.Command) error {
	mood, _ := cmd.Flags().GetString("mood")
	offline, _ := cmd.Flags().GetBool("offline")

	sessionID, err := resolveSession(cmd)
	if err != nil {
		return err
	}

	// The TUI owns the terminal; requests are still audited in the database.
	a, err := setup(cmd, setupOptions{
		Options: app.Options{Offline: offline},
		logTo:   io.Discard,
	})
	if err != nil {
		return err
	}
	defer closeApp(a)

	if a.Provider == nil && !offline {
		return fmt.Errorf("%w: set ANTHROPIC_API_KEY, OPENAI_API_KEY, GEMINI_API_KEY or OPENROUTER_API_KEY, or run with --offline", app.ErrNoProvider)
	}

	opts := tui.Options{SessionID: sessionID, MoodTag: mood, AskMood: mood == ""}
	if a.Provider != nil {
		opts.Explain = a.Service.Explain
	}

	out, err := tui.Run(cmd.Context(), a.Service, opts)
	if errors.Is(err, tui.ErrAborted) {
		fmt.Println("Check-in cancelled. Nothing was saved.")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("Burnout score: %d/100 (%s)\n", out.Score, rubric.BandOf(out.Score))
	fmt.Printf("Saved as log %s\n", out.LogID)

	if a.Provider != nil {
		an, err := a.Service.Recommendations(cmd.Context(), out.LogID)
		if err != nil {
			return fmt.Errorf("load analysis: %w", err)
		}
		fmt.Println()
		printAnalysis(an)
	}
	return nil
}

func printAnalysis(an checkin.Analysis) {
	fmt.Println(an.Recommendations.Level)
	for _, r := range an.Recommendations.Items {
		fmt.Printf("  • %s: %s\n", r.Title, r.Description)
	}
}
