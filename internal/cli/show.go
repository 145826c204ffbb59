// show.go implements "practice show" and "practice history" over stored sessions.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ashureev/interview-labs/internal/app"
	"github.com/ashureev/interview-labs/internal/domain"
)

var historyLimit int

var showCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print a stored session as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		components, err := app.Build(cmd.Context(), cfg, newLogger())
		if err != nil {
			return err
		}
		defer components.Close()

		s, err := components.Records.Fetch(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		answers, err := components.Records.Answers(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
			"session":        s,
			"answer_records": answers,
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <user-id>",
	Short: "List a user's stored sessions, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		components, err := app.Build(cmd.Context(), cfg, newLogger())
		if err != nil {
			return err
		}
		defer components.Close()

		sessions, err := components.Records.List(cmd.Context(), args[0], historyLimit)
		if err != nil {
			return err
		}
		printHistory(cmd.OutOrStdout(), sessions)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of sessions to list")
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printHistory(out io.Writer, sessions []*domain.Session) {
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions found.")
		return
	}
	for _, s := range sessions {
		score := "-"
		if s.Result != nil {
			score = fmt.Sprintf("%d", s.Result.OverallScore)
		}
		fmt.Fprintf(out, "%-36s  %-11s  %-5s  %s  %d/%d  score %s\n",
			s.ID, s.Status, s.Modality, s.StartedAt.Local().Format(time.DateTime),
			s.QuestionsAnswered, s.TotalQuestions, score)
	}
}
