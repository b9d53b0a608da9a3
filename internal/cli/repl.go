package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dkoval/voxgate/internal/answer"
	"github.com/dkoval/voxgate/internal/fusion"
	"github.com/dkoval/voxgate/internal/intent"
	"github.com/dkoval/voxgate/internal/model"
	"github.com/dkoval/voxgate/internal/safety"
	"github.com/dkoval/voxgate/internal/watch"
)

var (
	replPolicy      string
	replVocab       string
	replAudit       string
	replWatch       bool
	replAnswerURL   string
	replAnswerModel string
	replAnswerKey   string
)

func init() {
	rootCmd.AddCommand(replCmd)
	replCmd.Flags().StringVar(&replPolicy, "policy", "", "Path to policy YAML (default: ~/.voxgate/policy.yaml)")
	replCmd.Flags().StringVar(&replVocab, "vocab", "", "Path to vocabulary YAML")
	replCmd.Flags().StringVar(&replAudit, "audit-log", "", "Append decisions to this JSONL log")
	replCmd.Flags().BoolVar(&replWatch, "watch", false, "Hot-reload policy and vocabulary on file change")
	replCmd.Flags().StringVar(&replAnswerURL, "answer-url", "", "OpenAI-compatible endpoint for answering questions")
	replCmd.Flags().StringVar(&replAnswerModel, "answer-model", "", "Model name for the answer backend")
	replCmd.Flags().StringVar(&replAnswerKey, "answer-key", "", "API key for the answer backend")
}

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive session on stdin",
	Long: "Reads utterances line by line and prints each decision. Approved\n" +
		"execution-category actions are marked executed so reference memory\n" +
		"works; with --answer-url, approved questions are answered inline.",
	RunE: runRepl,
}

func runRepl(cmd *cobra.Command, args []string) error {
	session, err := newSession(replPolicy, replVocab, replAudit)
	if err != nil {
		return err
	}

	if replWatch {
		reloader, err := watch.NewReloader(func() error {
			cfg, hash, err := safety.LoadConfigWithHash(replPolicy)
			if err != nil {
				return err
			}
			vocab, err := intent.LoadVocabulary(replVocab)
			if err != nil {
				return err
			}
			session.UpdatePolicy(cfg, hash)
			session.UpdateVocabulary(vocab)
			return nil
		}, []string{replPolicy, replVocab})
		if err != nil {
			return err
		}
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go reloader.Run(ctx)
	}

	fmt.Fprintf(os.Stderr, "voxgate session %s (mode: %s). Ctrl-D to quit.\n",
		session.ID()[:8], session.Mode())

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprintf(os.Stderr, "%s> ", session.Mode())
		if !scanner.Scan() {
			break
		}

		d := session.Process(scanner.Text())
		printDecision(d)

		if d.Status == model.StatusApproved {
			settle(session, d)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	fmt.Fprintln(os.Stderr)
	return nil
}

// settle plays the host's role for the interactive session: execution
// is simulated, questions go to the answer backend when configured.
func settle(session *fusion.Session, d model.Decision) {
	if d.Intent == nil {
		return
	}

	if fusion.Categorize(*d.Intent) == fusion.CategoryKnowledge && replAnswerURL != "" {
		text, err := answer.Answer(answer.Config{
			APIURL:  replAnswerURL,
			APIKey:  replAnswerKey,
			Model:   replAnswerModel,
			Timeout: 30 * time.Second,
		}, d.Intent.Target)
		if err != nil {
			fmt.Fprintf(os.Stderr, "answer failed: %v\n", err)
			session.ExecutionResult(d.ID, false)
			return
		}
		fmt.Printf("  %s\n", text)
		session.ExecutionResult(d.ID, true)
		return
	}

	session.ExecutionResult(d.ID, true)
}

func printDecision(d model.Decision) {
	var b strings.Builder

	fmt.Fprintf(&b, "  [%s]", strings.ToUpper(string(d.Status)))
	if d.Intent != nil && d.Intent.Action != "" {
		fmt.Fprintf(&b, " %s", d.Intent.Action)
		if d.Intent.Target != "" {
			fmt.Fprintf(&b, " %q", d.Intent.Target)
		}
		fmt.Fprintf(&b, " (risk %d, conf %.2f)", d.Intent.RiskLevel, d.Intent.Confidence)
	}
	if d.Reason != "" {
		fmt.Fprintf(&b, ": %s", d.Reason)
	}
	fmt.Println(b.String())

	if d.Prompt != "" {
		fmt.Printf("  %s\n", d.Prompt)
	}
}
