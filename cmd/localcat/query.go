package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MimeLyc/localcat/internal/session"
)

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Suggest a translation for one text",
	Long:  "Look the text up in the translation memory; on a miss, highlight the glossary terms it contains.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	svc, _, err := openService(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	res := svc.Query(strings.Join(args, " "))
	out := cmd.OutOrStdout()

	switch res.Outcome {
	case session.OutcomeMemory:
		m := res.Match
		fmt.Fprintf(out, "%s %s (%.0f%%, %s, used %d, last %s)\n", res.Outcome, m.Kind, m.Similarity*100, m.Origin, m.UsageCount, m.LastUsed)
		fmt.Fprintln(out, m.Target)
	case session.OutcomeTerms:
		fmt.Fprintf(out, "%s (%d hits)\n", res.Outcome, len(res.Hits))
		fmt.Fprintln(out, res.Rendered)
		for _, hit := range res.Hits {
			fmt.Fprintf(out, "  %d-%d %s => %s (%s)\n", hit.Start, hit.End, hit.Source, hit.Target, hit.Origin)
		}
	default:
		fmt.Fprintln(out, res.Outcome)
		fmt.Fprintln(out, res.Rendered)
	}
	return nil
}
