package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/clawface/internal/bridge"
	"github.com/nextlevelbuilder/clawface/internal/gatewayclient"
	"github.com/nextlevelbuilder/clawface/internal/normalize"
)

func chatCmd() *cobra.Command {
	var (
		message string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the agent without a face",
		Long: `Chat with the agent through the gateway.

Examples:
  clawface chat                          # Interactive REPL
  clawface chat -m "What time is it?"    # One-shot message`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), message, timeout)
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "one-shot message (omit for interactive mode)")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "how long to wait for connection and reply")
	return cmd
}

func runChat(ctx context.Context, message string, timeout time.Duration) error {
	cfg := loadConfig()
	if cfg.Gateway.URL == "" {
		return errors.New("gateway.url is not set")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	connected := make(chan struct{}, 1)
	sess := newChatSession(timeout)
	cb := sess.callbacks()
	cb.OnConnect = func() {
		select {
		case connected <- struct{}{}:
		default:
		}
	}
	b := bridge.New(nil, bridge.Options{Callbacks: cb})
	client := gatewayclient.New(gatewayConfig(cfg), b)
	b.Attach(client)
	sess.send = b.Send
	go client.Connect(ctx)
	defer client.Disconnect()

	wait, cancel := context.WithTimeout(ctx, timeout)
	select {
	case <-connected:
		cancel()
	case <-wait.Done():
		cancel()
		return fmt.Errorf("could not connect to %s", cfg.Gateway.URL)
	}
	ask := func(text string) (string, error) { return sess.ask(ctx, text) }

	if message != "" {
		reply, err := ask(message)
		if err != nil {
			return err
		}
		fmt.Println(reply)
		return nil
	}

	fmt.Fprintf(os.Stderr, "Connected to %s (session %s)\n", cfg.Gateway.URL, client.SessionKey())
	fmt.Fprintf(os.Stderr, "Type \"exit\" to quit\n\n")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(os.Stderr, "You: ")
		if !scanner.Scan() {
			return nil
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Fprintln(os.Stderr, "Goodbye!")
			return nil
		}
		reply, err := ask(input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
			continue
		}
		fmt.Printf("\n%s\n\n", reply)
	}
}

const msgDisconnected = "Disconnected from the gateway before the reply arrived."

// chatSession pairs each sent message with the reply, failure or disconnect
// that follows it.
type chatSession struct {
	send     func(ctx context.Context, text string) (json.RawMessage, error)
	timeout  time.Duration
	replies  chan string
	failures chan string
}

func newChatSession(timeout time.Duration) *chatSession {
	return &chatSession{
		timeout:  timeout,
		replies:  make(chan string, 8),
		failures: make(chan string, 8),
	}
}

func (s *chatSession) callbacks() bridge.Callbacks {
	return bridge.Callbacks{
		OnDisconnect: func(err error) {
			slog.Debug("chat: gateway disconnected", "error", err)
			offer(s.failures, msgDisconnected)
		},
		OnMessage: func(text string, _ normalize.ChatEvent) { offer(s.replies, text) },
		OnError:   func(msg string) { offer(s.failures, msg) },
	}
}

func (s *chatSession) ask(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	drain(s.replies)
	drain(s.failures)
	resp, err := s.send(ctx, text)
	if err != nil {
		return "", errors.New(formatSendError(err))
	}
	// Some gateways answer inline instead of streaming chat events.
	if reply := normalize.ExtractText(resp); reply != "" {
		return reply, nil
	}
	select {
	case reply := <-s.replies:
		return reply, nil
	case msg := <-s.failures:
		return "", errors.New(msg)
	case <-ctx.Done():
		return "", errors.New(formatSendError(ctx.Err()))
	}
}

// offer never blocks the gateway read loop.
func offer(ch chan string, s string) {
	select {
	case ch <- s:
	default:
	}
}

func drain(ch chan string) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}
