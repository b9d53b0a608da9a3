package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dkoval/voxgate/internal/audit"
	"github.com/dkoval/voxgate/internal/fusion"
	"github.com/dkoval/voxgate/internal/intent"
	"github.com/dkoval/voxgate/internal/model"
	"github.com/dkoval/voxgate/internal/safety"
)

var (
	decidePolicy string
	decideVocab  string
	decideAudit  string
)

func init() {
	rootCmd.AddCommand(decideCmd)
	decideCmd.Flags().StringVar(&decidePolicy, "policy", "", "Path to policy YAML (default: ~/.voxgate/policy.yaml)")
	decideCmd.Flags().StringVar(&decideVocab, "vocab", "", "Path to vocabulary YAML")
	decideCmd.Flags().StringVar(&decideAudit, "audit-log", "", "Append the decision to this JSONL log")
}

var decideCmd = &cobra.Command{
	Use:   "decide <text...>",
	Short: "Run one utterance through the decision pipeline",
	Long: "Parses the text, evaluates it against the safety policy, and prints the\n" +
		"decision as JSON. A one-shot session: no memory carries over between\n" +
		"invocations. Exit code 77 indicates a blocked action.",
	Args: cobra.MinimumNArgs(1),
	RunE: runDecide,
}

func runDecide(cmd *cobra.Command, args []string) error {
	session, err := newSession(decidePolicy, decideVocab, decideAudit)
	if err != nil {
		return err
	}

	d := session.Process(strings.Join(args, " "))

	out, _ := json.MarshalIndent(d, "", "  ")
	fmt.Println(string(out))

	if d.Status == model.StatusBlocked {
		os.Exit(77)
	}
	return nil
}

// newSession builds a fusion session from the usual three flag values.
func newSession(policyPath, vocabPath, auditPath string) (*fusion.Session, error) {
	cfg, hash, err := safety.LoadConfigWithHash(policyPath)
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}

	vocab, err := intent.LoadVocabulary(vocabPath)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}

	var log *audit.Log
	if auditPath != "" {
		log, err = audit.Open(auditPath)
		if err != nil {
			return nil, fmt.Errorf("open decision log: %w", err)
		}
	}

	return fusion.NewSession(fusion.Options{
		Config:     cfg,
		PolicyHash: hash,
		Vocabulary: vocab,
		Audit:      log,
	}), nil
}
