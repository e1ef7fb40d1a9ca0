package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MimeLyc/localcat/internal/service"
	"github.com/MimeLyc/localcat/internal/session"
)

var runCmd = &cobra.Command{
	Use:   "run <file> [file...]",
	Short: "Process PO/SRT files and write a report next to each",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	svc, _, err := openService(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	summary, err := svc.RunFiles(commandContext(cmd), args)
	if err != nil {
		return err
	}
	printSummary(cmd, summary)
	return nil
}

func printSummary(cmd *cobra.Command, summary service.RunSummary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s\n", summary.RunID)
	for _, f := range summary.Files {
		fmt.Fprintf(out, "  %s: %d segments -> %s\n", f.Path, len(f.Results), f.ReportPath)
	}
	fmt.Fprintf(out, "Total: %d segments, %s=%d %s=%d %s=%d\n",
		summary.Segments(),
		session.OutcomeMemory, summary.Counts[session.OutcomeMemory],
		session.OutcomeTerms, summary.Counts[session.OutcomeTerms],
		session.OutcomeNoMatch, summary.Counts[session.OutcomeNoMatch],
	)
}
