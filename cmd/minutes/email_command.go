package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"minutes/internal/api"
	"minutes/internal/config"
	"minutes/internal/workflow"
)

func newEmailCommand(ctx *commandContext) *cobra.Command {
	var to, summaryFile, prompt, title string

	cmd := &cobra.Command{
		Use:   "email",
		Short: "Email an existing summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			recipients := workflow.SplitRecipients(to)
			if len(recipients) == 0 {
				return errors.New("at least one recipient is required (--to)")
			}
			summary, err := readSummary(cmd.InOrStdin(), summaryFile)
			if err != nil {
				return err
			}
			remote, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := remote.SendEmail(cmd.Context(), api.EmailRequest{
				Recipients:     recipients,
				Summary:        summary,
				OriginalPrompt: prompt,
				Title:          strings.TrimSpace(title),
			})
			if err != nil {
				return describeError(err, remote.BaseURL())
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Comma separated recipients")
	cmd.Flags().StringVarP(&summaryFile, "summary-file", "f", "-", "File holding the summary (- reads stdin)")
	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "Instructions the summary was generated with")
	cmd.Flags().StringVarP(&title, "title", "t", "", "Subject title")
	return cmd
}

func readSummary(stdin io.Reader, path string) (string, error) {
	path = strings.TrimSpace(path)
	var data []byte
	var err error
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		var resolved string
		if resolved, err = config.ExpandPath(path); err == nil {
			data, err = os.ReadFile(resolved)
		}
	}
	if err != nil {
		return "", fmt.Errorf("read summary: %w", err)
	}
	summary := strings.TrimSpace(string(data))
	if summary == "" {
		return "", errors.New("summary is empty")
	}
	return summary, nil
}
