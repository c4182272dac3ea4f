package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"minutes/internal/api"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Report minutesd reachability and provider configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, err := ctx.client()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			lines := renderSectionHeader("minutesd", colorize)

			health, err := remote.Health(cmd.Context())
			if err != nil {
				lines = append(lines, renderStatusLine("Server", statusError, remote.BaseURL()+" unreachable", colorize))
				fmt.Fprintln(out, strings.Join(lines, "\n"))
				return describeError(err, remote.BaseURL())
			}
			lines = append(lines, renderStatusLine("Server", statusOK, remote.BaseURL(), colorize))
			for _, name := range []string{api.ServiceSummarize, api.ServiceTranscription, api.ServiceEmail} {
				if health.Services[name] {
					lines = append(lines, renderStatusLine(name, statusOK, "configured", colorize))
				} else {
					lines = append(lines, renderStatusLine(name, statusWarn, "API key not set", colorize))
				}
			}
			fmt.Fprintln(out, strings.Join(lines, "\n"))
			return nil
		},
	}
}
