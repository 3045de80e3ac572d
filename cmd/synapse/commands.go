// cmd/synapse/commands.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"

	"synapse/internal/client"
	"synapse/internal/council"
	"synapse/internal/export"
	"synapse/internal/ranking"
	"synapse/internal/ui"
)

func tuiCommand() *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Open the interactive council view",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "export-dir",
				Value: ".",
				Usage: "Directory for /export output",
			},
			&cli.StringFlag{
				Name:  "style",
				Value: "dark",
				Usage: "Markdown style (dark, light, notty, dracula)",
			},
		},
		Action: func(c *cli.Context) error {
			e, err := newEnv(c, false)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx, cancel := context.WithCancel(c.Context)
			defer cancel()

			model := ui.New(ctx, e.session, ui.Options{
				ExportDir:     c.String("export-dir"),
				MarkdownStyle: c.String("style"),
				Layout:        e.cfg.Layout,
			})
			p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
			_, err = p.Run()
			return err
		},
	}
}

func askCommand() *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Ask the council a question and print the result",
		ArgsUsage: "<question>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "conversation",
				Aliases: []string{"C"},
				Usage:   "Continue conversation `ID` instead of starting a new one",
			},
			&cli.BoolFlag{
				Name:  "no-stream",
				Usage: "Use the blocking endpoint instead of the event stream",
			},
		},
		Action: func(c *cli.Context) error {
			question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if question == "" {
				return errors.New("a question is required")
			}

			e, err := newEnv(c, true)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			var conv *council.Conversation
			if id := c.String("conversation"); id != "" {
				conv, err = e.session.Open(ctx, id)
			} else {
				conv, err = e.session.Create(ctx, "")
			}
			if err != nil {
				return err
			}

			out := c.App.Writer
			if c.Bool("no-stream") {
				res, err := e.client.SendMessage(ctx, conv.ID, question)
				if err != nil {
					return err
				}
				msg := ranking.Enrich(res.Message())
				printResult(out, &msg)
				return nil
			}

			progress := &progressPrinter{w: c.App.ErrWriter}
			if err := e.session.Submit(ctx, question, progress.update); err != nil {
				return err
			}
			printResult(out, lastAssistant(e.session.Conversation()))
			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List conversations",
		Action: func(c *cli.Context) error {
			e, err := newEnv(c, true)
			if err != nil {
				return err
			}
			defer e.Close()

			list, err := e.session.List(c.Context)
			if err != nil {
				return err
			}
			out := c.App.Writer
			if e.session.Offline() {
				fmt.Fprintln(out, "(offline: showing cached conversations)")
			}
			for _, s := range list {
				title := s.Title
				if title == "" {
					title = "New Conversation"
				}
				created := ""
				if !s.CreatedAt.IsZero() {
					created = s.CreatedAt.Local().Format("2006-01-02 15:04")
				}
				fmt.Fprintf(out, "%s  %-16s  %3d  %s\n", s.ID, created, s.MessageCount, title)
			}
			return nil
		},
	}
}

func layoutCommand() *cli.Command {
	return &cli.Command{
		Name:      "layout",
		Usage:     "Print the laid out reasoning graph of a conversation as JSON",
		ArgsUsage: "<conversation-id>",
		Action: func(c *cli.Context) error {
			id := c.Args().First()
			if id == "" {
				return errors.New("a conversation id is required")
			}
			e, err := newEnv(c, true)
			if err != nil {
				return err
			}
			defer e.Close()

			if _, err := e.session.Open(c.Context, id); err != nil {
				return err
			}
			enc := json.NewEncoder(c.App.Writer)
			enc.SetIndent("", "  ")
			return enc.Encode(e.session.Layout())
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Export a conversation to markdown",
		ArgsUsage: "<conversation-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Usage:   "Write the file into `DIR` instead of printing it",
			},
		},
		Action: func(c *cli.Context) error {
			id := c.Args().First()
			if id == "" {
				return errors.New("a conversation id is required")
			}
			e, err := newEnv(c, true)
			if err != nil {
				return err
			}
			defer e.Close()

			conv, err := e.session.Open(c.Context, id)
			if err != nil {
				return err
			}
			if dir := c.String("dir"); dir != "" {
				path, err := export.WriteConversation(conv, dir)
				if err != nil {
					return err
				}
				fmt.Fprintln(c.App.Writer, path)
				return nil
			}
			_, err = io.WriteString(c.App.Writer, export.ExportConversation(conv))
			return err
		},
	}
}

func metricsCommand() *cli.Command {
	return &cli.Command{
		Name:  "metrics",
		Usage: "Summarize per-model latency and success rates",
		Action: func(c *cli.Context) error {
			e, err := newEnv(c, true)
			if err != nil {
				return err
			}
			defer e.Close()

			entries, err := e.client.Metrics(c.Context)
			if err != nil {
				return err
			}
			printMetrics(c.App.Writer, client.SummarizeMetrics(entries))
			return nil
		},
	}
}

// progressPrinter reports stage transitions of a streamed exchange
type progressPrinter struct {
	w    io.Writer
	seen [4]bool
}

func (p *progressPrinter) update(conv *council.Conversation) {
	msg := lastAssistant(conv)
	if msg == nil {
		return
	}
	stages := [4]bool{false, msg.Stage1 != nil, msg.Stage2 != nil, msg.Stage3 != nil}
	for n := 1; n <= 3; n++ {
		if stages[n] && !p.seen[n] {
			p.seen[n] = true
			fmt.Fprintf(p.w, "stage %d complete\n", n)
		}
	}
}

func lastAssistant(conv *council.Conversation) *council.Message {
	i := conv.LastAssistant()
	if i < 0 {
		return nil
	}
	return &conv.Messages[i]
}

func printResult(w io.Writer, msg *council.Message) {
	if msg == nil {
		fmt.Fprintln(w, "(no answer)")
		return
	}

	for _, r := range msg.Stage1 {
		fmt.Fprintf(w, "== %s (%s)\n%s\n\n", strings.ToUpper(r.Role), council.ShortModel(r.Model), strings.TrimSpace(r.Response))
	}

	if msg.Metadata != nil && len(msg.Metadata.AggregateRankings) > 0 {
		fmt.Fprintln(w, "== Aggregate ranking")
		for i, a := range msg.Metadata.AggregateRankings {
			name := a.Model
			if name == "" {
				name = a.Label
			}
			fmt.Fprintf(w, "%d. %s  avg %.2f (%d votes)\n", i+1, name, a.AverageRank, a.RankingsCount)
		}
		fmt.Fprintln(w)
	}

	if msg.Stage3 != nil {
		fmt.Fprintf(w, "== Final answer (%s)\n%s\n", council.ShortModel(msg.Stage3.Model), strings.TrimSpace(msg.Stage3.Response))
	}
}

func printMetrics(w io.Writer, stats []client.ModelStats) {
	if len(stats) == 0 {
		fmt.Fprintln(w, "no metrics recorded")
		return
	}
	fmt.Fprintf(w, "%-40s %6s %8s %10s %8s\n", "MODEL", "CALLS", "SUCCESS", "LATENCY", "TOKENS")
	for _, s := range stats {
		fmt.Fprintf(w, "%-40s %6d %7.0f%% %9.2fs %8d\n",
			s.Model, s.Calls, s.SuccessRate()*100, s.MeanLatency.Seconds(), s.Tokens)
	}
}
