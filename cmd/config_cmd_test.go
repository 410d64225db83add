package cmd

import (
	"strings"
	"testing"

	"github.com/nextlevelbuilder/clawface/internal/config"
)

func TestRenderConfigMasksSecrets(t *testing.T) {
	cfg := config.Default()
	cfg.Gateway.Token = "tok-1234567890"
	cfg.Speech.OpenAIAPIKey = "sk-abcdefghijkl"

	for _, format := range []string{"json", "yaml"} {
		out, err := renderConfig(cfg, format)
		if err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		if strings.Contains(out, "tok-1234567890") || strings.Contains(out, "sk-abcdefghijkl") {
			t.Errorf("%s output leaks a secret:\n%s", format, out)
		}
		if !strings.Contains(out, "sk-a****ijkl") {
			t.Errorf("%s output missing masked key:\n%s", format, out)
		}
	}

	if _, err := renderConfig(cfg, "toml"); err == nil {
		t.Error("expected error for unknown format")
	}
}
