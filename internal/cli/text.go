// text.go implements "practice text", an interactive text interview on stdin.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ashureev/interview-labs/internal/app"
	"github.com/ashureev/interview-labs/internal/domain"
	"github.com/ashureev/interview-labs/internal/identity"
	"github.com/ashureev/interview-labs/internal/session"
)

const stopCommand = ":stop"

var (
	textIndustry string
	textLevel    string
	textType     string
	textMinutes  int
	textLanguage string
	textUser     string
)

var textCmd = &cobra.Command{
	Use:   "text",
	Short: "Run a timed text interview",
	Long: `Ask the selected questions one at a time and read one answer per line.
Type :stop to end early. The session is scored and stored when it ends.`,
	RunE: runTextCmd,
}

func init() {
	textCmd.Flags().StringVar(&textIndustry, "industry", "software", "Industry the questions are drawn for")
	textCmd.Flags().StringVar(&textLevel, "level", "mid", "Experience level: entry, mid, senior, executive")
	textCmd.Flags().StringVar(&textType, "type", "mixed", "Interview type: behavioral, technical, mixed")
	textCmd.Flags().IntVar(&textMinutes, "minutes", 15, "Session length in minutes")
	textCmd.Flags().StringVar(&textLanguage, "lang", "", "Question language: en, hi (defaults to the server setting)")
	textCmd.Flags().StringVar(&textUser, "user", "", "Anonymous user ID to record the session under (generated when empty)")
}

func runTextCmd(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger()

	components, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()

	userID := textUser
	if userID == "" {
		if userID, err = identity.NewAnonID(); err != nil {
			return fmt.Errorf("generating user ID: %w", err)
		}
	}
	if err := identity.EnsureUser(ctx, components.Repo, userID); err != nil {
		return err
	}

	svc := session.NewService(context.Background(), session.Deps{
		Analyzer: components.Analyzer,
		Records:  components.Records,
	}, components.Questions, session.ServiceConfig{
		QuestionsPerSession: cfg.Session.QuestionsPerSession,
		DefaultLanguage:     domain.Language(cfg.Session.DefaultLanguage),
	}, logger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeout.Shutdown)
		defer cancel()
		_ = svc.Shutdown(shutdownCtx)
	}()

	ic := domain.InterviewConfig{
		Industry:        textIndustry,
		ExperienceLevel: domain.ExperienceLevel(textLevel),
		InterviewType:   domain.InterviewType(textType),
		DurationMinutes: textMinutes,
		Language:        domain.Language(textLanguage),
	}
	return runInterview(ctx, svc, userID, ic, cmd.InOrStdin(), cmd.OutOrStdout())
}

// runInterview drives one text session from in to out and prints the analysis.
// The session ends on the last answer, on :stop, at end of input or when the
// countdown expires, whichever comes first.
func runInterview(ctx context.Context, svc *session.Service, userID string, ic domain.InterviewConfig, in io.Reader, out io.Writer) error {
	o, err := svc.StartSession(ctx, userID, ic, domain.ModalityText)
	if err != nil {
		return fmt.Errorf("starting session: %w", err)
	}

	snap := o.Snapshot()
	fmt.Fprintf(out, "Session %s: %d questions, %d minutes. Type %s to finish early.\n\n",
		snap.ID, snap.TotalQuestions, snap.Config.DurationMinutes, stopCommand)

	idx, question := o.CurrentQuestion()
	printQuestion(out, idx, snap.TotalQuestions, question)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-o.Done():
				return
			}
		}
	}()

loop:
	for {
		select {
		case <-ctx.Done():
			_ = o.RequestStop(context.Background())
			break loop
		case <-o.Done():
			fmt.Fprintln(out, "\nTime is up.")
			break loop
		case line, ok := <-lines:
			if !ok {
				_ = o.RequestStop(ctx)
				break loop
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if line == stopCommand {
				_ = o.RequestStop(ctx)
				break loop
			}
			p, err := o.SubmitTextAnswer(ctx, line)
			if errors.Is(err, domain.ErrSessionClosed) {
				break loop
			}
			if err != nil {
				return err
			}
			if p.Finished {
				break loop
			}
			printQuestion(out, p.QuestionIndex, p.TotalQuestions, p.NextQuestion)
		}
	}

	<-o.Done()
	a, ok := o.Result()
	if !ok {
		return fmt.Errorf("session %s ended without a result", o.ID())
	}
	printAnalysis(out, o.Snapshot(), a)
	return nil
}

func printQuestion(out io.Writer, idx, total int, question string) {
	fmt.Fprintf(out, "Q%d/%d: %s\n> ", idx+1, total, question)
}

func printAnalysis(out io.Writer, s domain.Session, a domain.Analysis) {
	fmt.Fprintf(out, "\nAnswered %d of %d questions.\n", s.QuestionsAnswered, s.TotalQuestions)
	fmt.Fprintf(out, "Overall score: %d\n", a.OverallScore)
	if a.Fallback {
		fmt.Fprintln(out, "(estimated locally, the analysis service was unavailable)")
	}
	for i, score := range a.PerQuestionScores {
		fmt.Fprintf(out, "  Q%d: %d\n", i+1, score)
	}
	printList(out, "Strengths", a.Strengths)
	printList(out, "Weaknesses", a.Weaknesses)
	printList(out, "Recommendations", a.Recommendations)
	if a.NarrativeFeedback != "" {
		fmt.Fprintf(out, "\n%s\n", a.NarrativeFeedback)
	}
}

func printList(out io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(out, "\n%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(out, "  - %s\n", item)
	}
}
