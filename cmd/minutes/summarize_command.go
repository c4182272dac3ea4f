package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"minutes/internal/workflow"
)

type summarizeOptions struct {
	prompt   string
	title    string
	text     string
	download bool
	email    string
}

func newSummarizeCommand(ctx *commandContext) *cobra.Command {
	var opts summarizeOptions

	cmd := &cobra.Command{
		Use:   "summarize [transcript-or-audio-file]",
		Short: "Summarize a transcript, optionally downloading or emailing the result",
		Long: "Summarize reads a transcript from a text file, an audio recording, --text, or stdin,\n" +
			"asks minutesd for a summary using --prompt (or client.default_prompt), and prints it.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			controller, err := ctx.newController()
			if err != nil {
				return err
			}
			cfg, _ := ctx.ensureConfig()
			source := ""
			if len(args) == 1 {
				source = args[0]
			}
			if err := loadTranscript(cmd, controller, source, opts.text); err != nil {
				return describeError(err, cfg.Client.ServerURL)
			}
			return runSummarize(cmd, controller, opts, ctx.downloadDir(), cfg.Client.ServerURL)
		},
	}

	cmd.Flags().StringVarP(&opts.prompt, "prompt", "p", "", "Summarization instructions")
	cmd.Flags().StringVarP(&opts.title, "title", "t", "", "Document title used for downloads and email")
	cmd.Flags().StringVar(&opts.text, "text", "", "Transcript text (instead of a file or stdin)")
	cmd.Flags().BoolVarP(&opts.download, "download", "d", false, "Write the summary to the download directory")
	cmd.Flags().StringVarP(&opts.email, "email", "e", "", "Comma separated recipients to email the summary to")
	return cmd
}

func loadTranscript(cmd *cobra.Command, controller *workflow.Controller, source, text string) error {
	switch {
	case strings.TrimSpace(text) != "":
		controller.SetTranscript(text)
		return nil
	case source == "" || source == "-":
		return controller.UploadText("stdin", cmd.InOrStdin())
	case isAudioFile(source):
		audio, err := readAudio(source)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Transcribing %s...\n", audio.Filename)
		return controller.UploadAudio(cmd.Context(), audio)
	default:
		file, name, err := openText(source)
		if err != nil {
			return err
		}
		defer file.Close()
		return controller.UploadText(name, file)
	}
}

func runSummarize(cmd *cobra.Command, controller *workflow.Controller, opts summarizeOptions, downloadDir, serverURL string) error {
	if p := strings.TrimSpace(opts.prompt); p != "" {
		controller.SetPrompt(p)
	}
	if t := strings.TrimSpace(opts.title); t != "" {
		controller.SetTitle(t)
	}

	runCtx := cmd.Context()
	if err := controller.Generate(runCtx); err != nil {
		return describeError(err, serverURL)
	}
	snap := controller.Snapshot()
	fmt.Fprintln(cmd.OutOrStdout(), snap.Summary)

	stderr := cmd.ErrOrStderr()
	if opts.download {
		export, err := controller.Download()
		if err != nil {
			return err
		}
		path, err := export.WriteTo(downloadDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(stderr, "Saved %s\n", path)
	}
	if strings.TrimSpace(opts.email) != "" {
		if err := controller.SendEmail(runCtx, opts.email); err != nil {
			return describeError(err, serverURL)
		}
		fmt.Fprintf(stderr, "Emailed %d recipient(s)\n", len(workflow.SplitRecipients(opts.email)))
	}
	return nil
}
