package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/clawface/internal/bridge"
	"github.com/nextlevelbuilder/clawface/internal/face"
	"github.com/nextlevelbuilder/clawface/internal/gatewayclient"
	"github.com/nextlevelbuilder/clawface/internal/normalize"
	"github.com/nextlevelbuilder/clawface/internal/textproc"
	"github.com/nextlevelbuilder/clawface/internal/tui"
)

func faceCmd() *cobra.Command {
	var (
		logFile string
		list    bool
	)
	cmd := &cobra.Command{
		Use:   "face",
		Short: "Show the face in the terminal and chat with the agent",
		Long: `Show the face in the terminal. Typed messages go to the agent and
the face reacts to the conversation.

Keys: enter sends, esc returns to idle, ctrl+c quits.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				listExpressions(cmd.OutOrStdout())
				return nil
			}
			return runFace(cmd.Context(), logFile)
		},
	}
	cmd.Flags().StringVar(&logFile, "log-file", filepath.Join(os.TempDir(), "clawface.log"), `log destination ("-" discards logs)`)
	cmd.Flags().BoolVar(&list, "list", false, "print the expression catalog and exit")
	return cmd
}

func listExpressions(w io.Writer) {
	for _, name := range face.Names() {
		def, _ := face.Lookup(name)
		fmt.Fprintf(w, "%-14s %s\n", name, def.Label)
	}
}

// replyLines renders a reply for the transcript: markdown flattened, with
// each MEDIA attachment on its own line.
func replyLines(text string) []tui.LineMsg {
	var out []tui.LineMsg
	if shown := textproc.Subtitle(text); shown != "" {
		out = append(out, tui.LineMsg{Who: "agent", Text: shown})
	}
	for _, ref := range textproc.MediaRefs(text) {
		out = append(out, tui.LineMsg{Who: "media", Text: ref})
	}
	return out
}

func runFace(ctx context.Context, logFile string) error {
	var logOut io.Writer = io.Discard
	if logFile != "-" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	setupLogging(logOut)
	cfg := loadConfig()

	if cfg.Gateway.URL == "" {
		return fmt.Errorf("gateway.url is not set (config %s or CLAWFACE_GATEWAY_URL)", resolveConfigPath())
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sink := tui.NewSink()
	engine := newEngine(sink, thoughtPool(cfg))
	b := bridge.New(engine, bridge.Options{
		AutoExpressions: cfg.Gateway.AutoExpressions,
		Callbacks: bridge.Callbacks{
			OnConnect: func() { sink.Status("connected to " + cfg.Gateway.URL) },
			OnDisconnect: func(err error) {
				if err != nil {
					sink.Status("disconnected: " + formatSendError(err) + " (retrying)")
					return
				}
				sink.Status("disconnected")
			},
			OnMessage: func(text string, _ normalize.ChatEvent) {
				for _, l := range replyLines(text) {
					sink.Line(l.Who, l.Text)
				}
			},
			OnToolUse: func(tool string, _ normalize.AgentEvent) { sink.Status("agent is using " + tool) },
			OnError:   func(msg string) { sink.Line("error", msg) },
		},
	})
	client := gatewayclient.New(gatewayConfig(cfg), b)
	b.Attach(client)

	engine.Start()
	defer engine.Close()
	go client.Connect(ctx)
	defer client.Disconnect()

	timeout := time.Duration(cfg.Gateway.RequestTimeoutMs) * time.Millisecond
	send := func(ctx context.Context, text string) error {
		_, err := b.Send(ctx, text)
		if err != nil {
			return errors.New(formatSendError(err))
		}
		return nil
	}
	return tui.Run(tui.NewModel(sink, engine, send, timeout))
}
