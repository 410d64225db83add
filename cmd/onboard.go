package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/clawface/internal/bridge"
	"github.com/nextlevelbuilder/clawface/internal/config"
	"github.com/nextlevelbuilder/clawface/internal/gatewayclient"
)

const verifyTimeout = 10 * time.Second

var errInvalidPort = errors.New("enter a port between 1 and 65535")

func onboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "onboard",
		Short: "Interactive setup wizard: gateway, speech and server",
		Run: func(cmd *cobra.Command, args []string) {
			runOnboard(cmd.Context())
		},
	}
}

func runOnboard(ctx context.Context) {
	fmt.Println("╔══════════════════════════════════════════════╗")
	fmt.Println("║           clawface setup wizard              ║")
	fmt.Println("╚══════════════════════════════════════════════╝")
	fmt.Println()

	cfgPath := resolveConfigPath()
	cfg := config.Default()
	if fileExists(cfgPath) {
		fmt.Printf("Found existing config at %s\n", cfgPath)
		useExisting, err := promptConfirm("Use existing config as base?", true)
		if err != nil {
			fmt.Println("Cancelled.")
			return
		}
		if useExisting {
			if loaded, err := config.Load(cfgPath); err != nil {
				fmt.Printf("Warning: could not load existing config: %v\n", err)
			} else {
				cfg = loaded
			}
		}
	}

	if err := onboardGateway(cfg); err != nil {
		fmt.Println("Cancelled.")
		return
	}
	if err := onboardSpeech(cfg); err != nil {
		fmt.Println("Cancelled.")
		return
	}
	if err := onboardServer(cfg); err != nil {
		fmt.Println("Cancelled.")
		return
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Config is not valid: %v\n", err)
		os.Exit(1)
	}
	if err := config.Save(cfgPath, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nSaved %s\n", cfgPath)

	if cfg.Gateway.URL != "" {
		fmt.Printf("Checking gateway at %s... ", cfg.Gateway.URL)
		if err := verifyGateway(ctx, cfg); err != nil {
			fmt.Println("FAILED")
			fmt.Printf("  %s\n", formatSendError(err))
		} else {
			fmt.Println("OK")
		}
	}

	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  clawface serve    # browser face at http://localhost:" + strconv.Itoa(cfg.Server.Port))
	fmt.Println("  clawface face     # terminal face")
}

func onboardGateway(cfg *config.Config) error {
	var token string
	url := cfg.Gateway.URL
	err := runSection("Gateway",
		textField("Gateway URL", "ws:// or wss:// address of the chat gateway (empty to skip)", &url),
		secretField("Gateway token", &token),
		textField("Session key", "", &cfg.Gateway.SessionKey),
		yesNoField("React to the conversation automatically?", &cfg.Gateway.AutoExpressions),
	)
	if err != nil {
		return err
	}
	cfg.Gateway.URL = config.NormalizeGatewayURL(url)
	if token != "" {
		cfg.Gateway.Token = token
	}
	return nil
}

func onboardSpeech(cfg *config.Config) error {
	var key string
	if cfg.Speech.Provider == "" {
		cfg.Speech.Provider = "openai"
	}
	err := runSection("Speech",
		secretField("OpenAI API key (text-to-speech and transcription)", &key),
		choiceField("Primary voice", &cfg.Speech.Provider,
			huh.NewOption("OpenAI ("+cfg.Speech.Voice+")", "openai"),
			huh.NewOption("Edge TTS (free, needs edge-tts)", "edge"),
		),
		yesNoField("Speak agent replies in the browser face?", &cfg.Speech.SpeakReplies),
	)
	if err != nil {
		return err
	}
	if key != "" {
		cfg.Speech.OpenAIAPIKey = key
	}
	return nil
}

func onboardServer(cfg *config.Config) error {
	port := strconv.Itoa(cfg.Server.Port)
	err := runSection("Server",
		portField("Server port", &port),
		choiceField("State snapshot storage", &cfg.Snapshot.Backend,
			huh.NewOption("File ("+cfg.Snapshot.Path+")", "file"),
			huh.NewOption("Redis", "redis"),
		),
	)
	if err != nil {
		return err
	}
	cfg.Server.Port, _ = strconv.Atoi(port)

	if cfg.Snapshot.Backend != "redis" {
		return nil
	}
	if cfg.Snapshot.RedisAddr == "" {
		cfg.Snapshot.RedisAddr = "localhost:6379"
	}
	return runSection("Redis", textField("Redis address", "", &cfg.Snapshot.RedisAddr))
}

// verifyGateway connects once and waits for the handshake.
func verifyGateway(ctx context.Context, cfg *config.Config) error {
	result := make(chan error, 1)
	report := func(err error) {
		select {
		case result <- err:
		default:
		}
	}
	b := bridge.New(nil, bridge.Options{Callbacks: bridge.Callbacks{
		OnConnect: func() { report(nil) },
		OnDisconnect: func(err error) {
			if err != nil {
				report(err)
			}
		},
	}})
	client := gatewayclient.New(gatewayConfig(cfg), b)
	defer client.Disconnect()
	go client.Connect(ctx)

	select {
	case err := <-result:
		return err
	case <-time.After(verifyTimeout):
		return gatewayclient.ErrRequestTimeout
	}
}
