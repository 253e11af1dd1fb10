// Package cli implements the interactive and one-shot terminal channel
// drivers (spec §4.6): read a line, skip empties, recognize /quit and
// /exit, drive the agent loop with streaming enabled.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Turn drives one agent loop turn with streaming text deltas forwarded to
// onTextDelta as they arrive.
type Turn func(ctx context.Context, text string, onTextDelta func(string)) string

// Commands wires the supplemental slash commands beyond spec §4.6's
// mandatory /quit and /exit: /reset and /summary, carried forward from
// the teacher's handleSlashCommand as session-management conveniences
// (SPEC_FULL.md §11). Either field may be left nil, in which case the
// command is reported as unsupported rather than silently ignored.
type Commands struct {
	Reset     func()
	Summarize func(ctx context.Context) string
}

// RunInteractive reads lines from in until EOF or /quit /exit, printing
// streamed text deltas and a final reply line to out.
func RunInteractive(ctx context.Context, in io.Reader, out io.Writer, turn Turn, cmds Commands) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/quit", "/exit":
			return
		case "/reset":
			if cmds.Reset == nil {
				fmt.Fprintln(out, "/reset not supported")
				continue
			}
			cmds.Reset()
			fmt.Fprintln(out, "session reset")
			continue
		case "/summary":
			if cmds.Summarize == nil {
				fmt.Fprintln(out, "/summary not supported")
				continue
			}
			fmt.Fprintln(out, cmds.Summarize(ctx))
			continue
		}

		turn(ctx, line, func(delta string) {
			fmt.Fprint(out, delta)
		})
		fmt.Fprintln(out)
	}
}

// RunOnceShot drives a single ephemeral turn (no disk persistence) and
// returns the final reply text.
func RunOnceShot(ctx context.Context, prompt string, turn Turn) string {
	var sb strings.Builder
	reply := turn(ctx, prompt, func(delta string) {
		sb.WriteString(delta)
	})
	if reply == "" {
		reply = sb.String()
	}
	return reply
}
