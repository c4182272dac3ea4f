package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"minutes/internal/workflow"
)

const sessionHelp = `Commands:
  load <file>        read a transcript file or transcribe an audio file
  paste              type or paste a transcript, end with a line containing "."
  prompt <text>      set the summarization instructions
  title <text>       set the document title
  generate           summarize the transcript
  regenerate         summarize again with the same transcript and prompt
  edit               start or finish editing the summary
  summary            (while editing) replace the summary, end with "."
  save               save the summary to history
  history            list saved summaries
  open <n|id>        load a saved summary
  delete <n|id>      remove a saved summary
  download           write the summary to the download directory
  email <a@x, b@y>   email the summary
  show               print the current session
  quit               leave the session`

func newSessionCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Interactive summarization session with in-memory history",
		RunE: func(cmd *cobra.Command, args []string) error {
			controller, err := ctx.newController()
			if err != nil {
				return err
			}
			cfg, _ := ctx.ensureConfig()
			s := &session{
				controller:  controller,
				in:          bufio.NewScanner(cmd.InOrStdin()),
				out:         cmd.OutOrStdout(),
				colorize:    shouldColorize(cmd.OutOrStdout()),
				downloadDir: ctx.downloadDir(),
				serverURL:   cfg.Client.ServerURL,
			}
			s.in.Buffer(make([]byte, 0, 64<<10), 8<<20)
			return s.run(cmd.Context())
		},
	}
}

type session struct {
	controller  *workflow.Controller
	in          *bufio.Scanner
	out         io.Writer
	colorize    bool
	downloadDir string
	serverURL   string

	noticesSeen uint64
}

func (s *session) run(ctx context.Context) error {
	fmt.Fprintln(s.out, "minutes session against "+s.serverURL+" (type help for commands)")
	for {
		fmt.Fprintf(s.out, "%s> ", s.controller.Snapshot().State)
		if !s.in.Scan() {
			fmt.Fprintln(s.out)
			return s.in.Err()
		}
		line := strings.TrimSpace(s.in.Text())
		if line == "" {
			continue
		}
		name, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)
		if name == "quit" || name == "exit" {
			return nil
		}
		err := s.dispatch(ctx, strings.ToLower(name), arg)
		printed := s.flushNotices()
		if err != nil && printed == 0 {
			fmt.Fprintln(s.out, paint("error: "+describeError(err, s.serverURL).Error(), ansiRed, s.colorize))
		}
	}
}

func (s *session) dispatch(ctx context.Context, name, arg string) error {
	c := s.controller
	switch name {
	case "help", "?":
		fmt.Fprintln(s.out, sessionHelp)
	case "load":
		if arg == "" {
			return errors.New("usage: load <file>")
		}
		if isAudioFile(arg) {
			audio, err := readAudio(arg)
			if err != nil {
				return err
			}
			fmt.Fprintf(s.out, "Transcribing %s...\n", audio.Filename)
			return s.interruptible(ctx, func(ctx context.Context) error { return c.UploadAudio(ctx, audio) })
		}
		file, fileName, err := openText(arg)
		if err != nil {
			return err
		}
		defer file.Close()
		return c.UploadText(fileName, file)
	case "paste":
		text, err := s.readBlock()
		if err != nil {
			return err
		}
		c.SetTranscript(text)
		fmt.Fprintf(s.out, "Transcript set (%d characters)\n", len(text))
	case "prompt":
		c.SetPrompt(arg)
	case "title":
		c.SetTitle(arg)
	case "generate", "regenerate":
		fmt.Fprintln(s.out, "Generating summary...")
		err := s.interruptible(ctx, func(ctx context.Context) error {
			if name == "regenerate" {
				return c.Regenerate(ctx)
			}
			return c.Generate(ctx)
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, c.Snapshot().Summary)
	case "edit":
		if err := c.ToggleEdit(); err != nil {
			return err
		}
		if c.Snapshot().State == workflow.StateEditing {
			fmt.Fprintln(s.out, `Editing. Use "summary" to replace the text and "edit" again to finish.`)
		}
	case "summary":
		if c.Snapshot().State != workflow.StateEditing {
			return errors.New(`run "edit" before changing the summary`)
		}
		text, err := s.readBlock()
		if err != nil {
			return err
		}
		return c.EditSummary(text)
	case "save":
		_, err := c.Save()
		return err
	case "history":
		snap := c.Snapshot()
		fmt.Fprintln(s.out, renderHistory(c.History(), snap.SelectedID))
	case "open":
		id, err := s.resolveEntry(arg)
		if err != nil {
			return err
		}
		if !c.Load(id) {
			return fmt.Errorf("no saved summary %q", arg)
		}
		s.show()
	case "delete":
		id, err := s.resolveEntry(arg)
		if err != nil {
			return err
		}
		if !c.Delete(id) {
			return fmt.Errorf("no saved summary %q", arg)
		}
		fmt.Fprintln(s.out, "Deleted")
	case "download":
		export, err := c.Download()
		if err != nil {
			return err
		}
		path, err := export.WriteTo(s.downloadDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Saved %s\n", path)
	case "email":
		return s.interruptible(ctx, func(ctx context.Context) error { return c.SendEmail(ctx, arg) })
	case "show":
		s.show()
	default:
		return fmt.Errorf("unknown command %q (type help)", name)
	}
	return nil
}

// interruptible runs fn with a context canceled by Ctrl-C, so an in-flight
// request can be abandoned without leaving the session.
func (s *session) interruptible(parent context.Context, fn func(context.Context) error) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()
	return fn(ctx)
}

func (s *session) readBlock() (string, error) {
	var lines []string
	for s.in.Scan() {
		line := s.in.Text()
		if strings.TrimSpace(line) == "." {
			return strings.Join(lines, "\n"), nil
		}
		lines = append(lines, line)
	}
	if err := s.in.Err(); err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}

func (s *session) resolveEntry(arg string) (string, error) {
	if arg == "" {
		return "", errors.New("an entry number or id is required")
	}
	history := s.controller.History()
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(history) {
			return "", fmt.Errorf("entry %d out of range (%d saved)", n, len(history))
		}
		return history[n-1].ID(), nil
	}
	var matches []string
	for _, entry := range history {
		if entry.ID() == arg {
			return arg, nil
		}
		if strings.HasPrefix(entry.ID(), arg) {
			matches = append(matches, entry.ID())
		}
	}
	if len(matches) > 1 {
		return "", fmt.Errorf("%q matches %d saved summaries; use more of the id", arg, len(matches))
	}
	if len(matches) == 1 {
		return matches[0], nil
	}
	return arg, nil
}

func (s *session) show() {
	snap := s.controller.Snapshot()
	lines := renderSectionHeader("Session", s.colorize)
	fmt.Fprintln(s.out, strings.Join(lines, "\n"))
	fmt.Fprintf(s.out, "State:      %s\n", snap.State)
	fmt.Fprintf(s.out, "Title:      %s\n", snap.Title)
	fmt.Fprintf(s.out, "Prompt:     %s\n", snap.Prompt)
	fmt.Fprintf(s.out, "Transcript: %s\n", preview(snap.Transcript, 72))
	fmt.Fprintf(s.out, "History:    %d saved\n", snap.History)
	if snap.HasSummary() {
		fmt.Fprintln(s.out)
		fmt.Fprintln(s.out, snap.Summary)
	}
}

// flushNotices prints notices raised since the last flush.
func (s *session) flushNotices() int {
	printed := 0
	for _, n := range s.controller.Notices() {
		if n.Seq <= s.noticesSeen {
			continue
		}
		fmt.Fprintln(s.out, renderNotice(n, s.colorize))
		s.noticesSeen = n.Seq
		printed++
	}
	return printed
}
