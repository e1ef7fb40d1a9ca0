package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MimeLyc/localcat/internal/segment"
)

var (
	saveContextPrev string
	saveContextNext string
	saveSpeaker     string
	saveFile        string
)

var saveCmd = &cobra.Command{
	Use:   "save <source> <target>",
	Short: "Record a confirmed translation in the memory",
	Args:  cobra.ExactArgs(2),
	RunE:  runSave,
}

func init() {
	saveCmd.Flags().StringVar(&saveContextPrev, "context-prev", "", "Context before the segment")
	saveCmd.Flags().StringVar(&saveContextNext, "context-next", "", "Context after the segment")
	saveCmd.Flags().StringVar(&saveSpeaker, "speaker", "", "Speaker of the segment")
	saveCmd.Flags().StringVar(&saveFile, "file", "", "File the segment came from")
}

func runSave(cmd *cobra.Command, args []string) error {
	svc, _, err := openService(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	m, err := svc.Save(segment.Segment{
		Text:          args[0],
		ContextBefore: saveContextPrev,
		ContextAfter:  saveContextNext,
		Speaker:       saveSpeaker,
		OriginFile:    saveFile,
	}, args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved to %s: %s => %s\n", m.Origin, m.Source, m.Target)
	return nil
}
