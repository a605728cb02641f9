package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/taskdesk/taskdesk/pkg/domain/model"
	"github.com/urfave/cli/v3"
)

var (
	askHeader = color.New(color.FgCyan, color.Bold)
	askMuted  = color.New(color.FgHiBlack)
	askSource = color.New(color.FgGreen)
)

func printReply(w io.Writer, reply *model.ChatReply) {
	_, _ = askHeader.Fprintln(w, "Answer")
	_, _ = fmt.Fprintln(w, reply.Answer)

	if len(reply.Context) > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = askHeader.Fprintln(w, "Context")
		for i, c := range reply.Context {
			_, _ = askSource.Fprintf(w, "%d. %s", i+1, c.Title)
			_, _ = askMuted.Fprintf(w, " (%s)\n", c.Source)
		}
	}

	if len(reply.WebResults) > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = askHeader.Fprintln(w, "Web")
		for i, r := range reply.WebResults {
			_, _ = askSource.Fprintf(w, "%d. %s", i+1, r.Title)
			_, _ = askMuted.Fprintf(w, " %s\n", r.URL)
		}
	}

	_, _ = fmt.Fprintln(w)
	_, _ = askMuted.Fprintf(w, "session %s, path %s\n", reply.SessionID, reply.Path)
}

func cmdAsk() *cli.Command {
	var sessionID string
	var rtCfg runtimeConfig

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "session",
			Usage:       "Continue an existing chat session",
			Destination: &sessionID,
		},
	}
	flags = append(flags, rtCfg.Flags()...)

	return &cli.Command{
		Name:      "ask",
		Usage:     "Run one chat turn locally and print the answer",
		ArgsUsage: "<question>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			rt, err := rtCfg.build(ctx)
			if err != nil {
				return err
			}
			defer rt.close()

			question := strings.Join(c.Args().Slice(), " ")
			reply, err := rt.uc.Chat.Ask(ctx, question, model.SessionID(sessionID))
			if err != nil {
				return err
			}

			printReply(c.Root().Writer, reply)
			return nil
		},
	}
}
