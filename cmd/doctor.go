package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/mattn/go-shellwords"
	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/clawface/internal/config"
	"github.com/nextlevelbuilder/clawface/internal/gatewayclient"
	"github.com/nextlevelbuilder/clawface/pkg/protocol"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check system environment and configuration health",
		Run: func(cmd *cobra.Command, args []string) {
			runDoctor()
		},
	}
}

func runDoctor() {
	fmt.Println("clawface doctor")
	fmt.Printf("  Version:  %s (protocol %d)\n", gatewayclient.Version, protocol.ProtocolVersion)
	fmt.Printf("  OS:       %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("  Go:       %s\n", runtime.Version())
	fmt.Println()

	// Config
	cfgPath := resolveConfigPath()
	fmt.Printf("  Config:   %s", cfgPath)
	if _, err := os.Stat(cfgPath); err != nil {
		fmt.Println(" (NOT FOUND, using defaults)")
	} else {
		fmt.Println(" (OK)")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  Config load error: %s\n", err)
		return
	}

	// Gateway
	fmt.Println()
	fmt.Println("  Gateway:")
	if cfg.Gateway.URL == "" {
		fmt.Printf("    %-12s (not configured)\n", "URL:")
	} else {
		fmt.Printf("    %-12s %s\n", "URL:", cfg.Gateway.URL)
	}
	checkSecret("Token:", cfg.Gateway.Token)
	fmt.Printf("    %-12s %s\n", "Session:", cfg.Gateway.SessionKey)

	// Speech
	fmt.Println()
	fmt.Println("  Speech:")
	checkSecret("OpenAI:", cfg.Speech.OpenAIAPIKey)

	// Snapshot
	fmt.Println()
	fmt.Printf("  Snapshot: %s", cfg.Snapshot.Backend)
	if cfg.Snapshot.Backend == "redis" {
		fmt.Printf(" (%s)\n", cfg.Snapshot.RedisAddr)
	} else {
		fmt.Printf(" (%s)\n", config.ExpandHome(cfg.Snapshot.Path))
	}

	// External tools
	fmt.Println()
	fmt.Println("  External Tools:")
	checkBinary(commandBinary(cfg.Speech.FFmpeg, "ffmpeg"))
	checkBinary(commandBinary(cfg.Speech.EdgeBinary, "edge-tts"))

	// Certificates
	fmt.Println()
	certDir := config.ExpandHome(cfg.Server.CertDir)
	fmt.Printf("  HTTPS certs: %s", certDir)
	if fileExists(filepath.Join(certDir, "key.pem")) && fileExists(filepath.Join(certDir, "cert.pem")) {
		fmt.Println(" (OK)")
	} else {
		fmt.Println(" (NOT FOUND, https disabled)")
	}

	fmt.Println()
	fmt.Println("Doctor check complete.")
}

func checkSecret(name, secret string) {
	if secret != "" {
		fmt.Printf("    %-12s %s\n", name, config.MaskSecret(secret))
	} else {
		fmt.Printf("    %-12s (not configured)\n", name)
	}
}

// commandBinary is the program named by a configured command line.
func commandBinary(command, fallback string) string {
	args, err := shellwords.Parse(command)
	if err != nil || len(args) == 0 {
		return fallback
	}
	return args[0]
}

func checkBinary(name string) {
	path, err := exec.LookPath(name)
	if err != nil {
		fmt.Printf("    %-12s NOT FOUND\n", name+":")
	} else {
		fmt.Printf("    %-12s %s\n", name+":", path)
	}
}
