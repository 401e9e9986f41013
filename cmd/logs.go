package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/equilibrium/internal/app"
	"github.com/abhisek/equilibrium/internal/rubric"
	"github.com/abhisek/equilibrium/internal/sessionlog"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Browse saved check-in results",
}

var logsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the session's check-ins, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		sessionID, err := resolveSession(cmd)
		if err != nil {
			return err
		}

		a, err := setup(cmd, setupOptions{Options: app.Options{Offline: true}})
		if err != nil {
			return err
		}
		defer closeApp(a)

		recs, err := a.Service.Logs(cmd.Context(), sessionID)
		if err != nil {
			return fmt.Errorf("list logs: %w", err)
		}
		if asJSON {
			return printJSON(map[string]any{"logs": recs})
		}
		if len(recs) == 0 {
			fmt.Println("No check-ins yet. Run `equilibrium checkin` to start one.")
			return nil
		}

		fmt.Printf("%-36s  %-16s  %5s  %-8s  %s\n", "ID", "Logged", "Score", "Level", "Mood")
		fmt.Println(strings.Repeat("─", 80))
		for _, r := range recs {
			fmt.Printf("%-36s  %-16s  %5d  %-8s  %s\n",
				r.ID,
				r.LoggedAt.Local().Format("2006-01-02 15:04"),
				r.Score,
				rubric.BandOf(r.Score),
				r.MoodTag,
			)
		}
		return nil
	},
}

var logsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one check-in with its answers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		analyze, _ := cmd.Flags().GetBool("analyze")
		asJSON, _ := cmd.Flags().GetBool("json")

		a, err := setup(cmd, setupOptions{Options: app.Options{Offline: !analyze}})
		if err != nil {
			return err
		}
		defer closeApp(a)

		ctx := cmd.Context()
		if analyze {
			an, err := a.Service.Recommendations(ctx, args[0])
			if err != nil {
				return lookupErr(args[0], err)
			}
			if asJSON {
				return printJSON(an)
			}
			printRecord(an.Log)
			fmt.Println()
			printAnalysis(an)
			return nil
		}

		rec, err := a.Service.Log(ctx, args[0])
		if err != nil {
			return lookupErr(args[0], err)
		}
		if asJSON {
			return printJSON(rec)
		}
		printRecord(rec)
		return nil
	},
}

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Show the score trend of the last seven check-ins",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		sessionID, err := resolveSession(cmd)
		if err != nil {
			return err
		}

		a, err := setup(cmd, setupOptions{Options: app.Options{Offline: true}})
		if err != nil {
			return err
		}
		defer closeApp(a)

		points, err := a.Service.Trend(cmd.Context(), sessionID)
		if err != nil {
			return fmt.Errorf("load trend: %w", err)
		}
		if asJSON {
			return printJSON(map[string]any{"trend": points})
		}
		if len(points) == 0 {
			fmt.Println("No check-ins yet.")
			return nil
		}
		for _, p := range points {
			fmt.Printf("%s  %3d  %s\n",
				p.Date.Local().Format("Jan 02"),
				p.Score,
				strings.Repeat("█", (p.Score+4)/5))
		}
		return nil
	},
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Build an improvement plan from your latest check-in",
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, err := resolveSession(cmd)
		if err != nil {
			return err
		}

		a, err := setup(cmd, setupOptions{})
		if err != nil {
			return err
		}
		defer closeApp(a)

		fmt.Fprintln(os.Stderr, "Building your plan...")
		plan, err := a.Service.Plan(cmd.Context(), sessionID)
		if err != nil {
			return fmt.Errorf("build plan: %w", err)
		}
		if plan == nil {
			fmt.Println("Complete a check-in first to get a plan.")
			return nil
		}

		fmt.Println(plan.Introduction)
		for i, s := range plan.Strategies {
			fmt.Printf("\n%d. %s\n   %s\n", i+1, s.Title, s.Rationale)
			for _, item := range s.Checklist {
				fmt.Printf("   [ ] %s\n", item)
			}
		}
		return nil
	},
}

var explainCmd = &cobra.Command{
	Use:   "explain <question>",
	Short: "Explain what a check-in question is asking",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd, setupOptions{})
		if err != nil {
			return err
		}
		defer closeApp(a)

		text, err := a.Service.Explain(cmd.Context(), strings.Join(args, " "), nil)
		if err != nil {
			return fmt.Errorf("explain: %w", err)
		}
		fmt.Println(text)
		return nil
	},
}

func printRecord(r sessionlog.Record) {
	fmt.Printf("ID:      %s\n", r.ID)
	fmt.Printf("Logged:  %s\n", r.LoggedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("Score:   %d/100 (%s)\n", r.Score, rubric.BandOf(r.Score))
	if r.MoodTag != "" {
		fmt.Printf("Mood:    %s\n", r.MoodTag)
	}
	fmt.Println()
	for i, d := range rubric.Dimensions {
		fmt.Printf("  %-20s %d/5\n", d.Name, r.Answers.Get(i))
	}
}

func lookupErr(id string, err error) error {
	if errors.Is(err, sessionlog.ErrNotFound) {
		return fmt.Errorf("log %s not found", id)
	}
	return fmt.Errorf("get log: %w", err)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	addSessionFlag(logsListCmd)
	logsListCmd.Flags().Bool("json", false, "Print JSON")

	logsShowCmd.Flags().BoolP("analyze", "a", false, "Ask the coach for recommendations")
	logsShowCmd.Flags().Bool("json", false, "Print JSON")

	addSessionFlag(trendCmd)
	trendCmd.Flags().Bool("json", false, "Print JSON")

	addSessionFlag(planCmd)

	logsCmd.AddCommand(logsListCmd)
	logsCmd.AddCommand(logsShowCmd)
}
