package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"minutes/internal/config"
)

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Convert a recording to text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, err := ctx.client()
			if err != nil {
				return err
			}
			audio, err := readAudio(args[0])
			if err != nil {
				return err
			}
			result, err := remote.VoiceToText(cmd.Context(), audio)
			if err != nil {
				return describeError(err, remote.BaseURL())
			}

			if target := strings.TrimSpace(outPath); target != "" {
				resolved, err := config.ExpandPath(target)
				if err != nil {
					return err
				}
				if err := os.WriteFile(resolved, []byte(result.Transcription), 0o644); err != nil {
					return fmt.Errorf("write transcript: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Transcribed %s (%d bytes) to %s\n", result.Filename, result.Size, resolved)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Transcription)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the transcript to this file instead of stdout")
	return cmd
}
