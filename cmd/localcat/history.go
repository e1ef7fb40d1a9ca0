package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MimeLyc/localcat/internal/session"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent runs",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	svc, _, err := openService(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	runs, err := svc.History(commandContext(cmd), historyLimit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded")
		return nil
	}
	for _, run := range runs {
		fmt.Fprintf(out, "%s  %s  %s=%d %s=%d %s=%d  %s\n",
			run.ID,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			session.OutcomeMemory, run.Counts[session.OutcomeMemory],
			session.OutcomeTerms, run.Counts[session.OutcomeTerms],
			session.OutcomeNoMatch, run.Counts[session.OutcomeNoMatch],
			strings.Join(run.Sources, ", "),
		)
	}
	return nil
}
