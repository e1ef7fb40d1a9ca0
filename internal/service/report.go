package service

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/MimeLyc/localcat/internal/session"
)

var reportOutcomes = []session.Outcome{
	session.OutcomeMemory,
	session.OutcomeTerms,
	session.OutcomeNoMatch,
}

// writeReport writes one line per segment:
//
//	[app.po_3] TM_HIT Save => 保存
//	[app.po_4] TERMS [Apple Pie|苹果派] is ready
//	[app.po_5] NO_MATCH Nothing here
func writeReport(report FileReport, runID string) (err error) {
	f, err := os.Create(report.ReportPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "# %s (run %s)\n", report.Path, runID)
	fmt.Fprintf(w, "# %s\n", summarize(report.Results))
	for _, res := range report.Results {
		fmt.Fprintln(w, FormatResult(res))
	}
	return w.Flush()
}

// FormatResult renders one result as a single report line.
func FormatResult(res session.Result) string {
	var b strings.Builder
	if res.Segment.ID != "" {
		fmt.Fprintf(&b, "[%s] ", res.Segment.ID)
	}
	b.WriteString(string(res.Outcome))
	b.WriteByte(' ')
	switch res.Outcome {
	case session.OutcomeMemory:
		fmt.Fprintf(&b, "%s => %s", singleLine(res.Segment.Text), singleLine(res.Match.Target))
	default:
		b.WriteString(singleLine(res.Rendered))
	}
	return b.String()
}

func summarize(results []session.Result) string {
	counts := make(map[session.Outcome]int, len(reportOutcomes))
	for _, res := range results {
		counts[res.Outcome]++
	}
	parts := make([]string, 0, len(reportOutcomes))
	for _, outcome := range reportOutcomes {
		parts = append(parts, fmt.Sprintf("%s=%d", outcome, counts[outcome]))
	}
	return fmt.Sprintf("%d segments: %s", len(results), strings.Join(parts, " "))
}

func singleLine(s string) string {
	return strings.NewReplacer("\r\n", `\n`, "\n", `\n`).Replace(s)
}
