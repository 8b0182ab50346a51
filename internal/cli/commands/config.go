package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapflow/internal/cli/config"
	"github.com/leapstack-labs/leapflow/internal/cli/output"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewConfigCommand creates the config command.
func NewConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Show the effective configuration after defaults, the config file,
LEAPFLOW_ environment variables and flags have been applied. Passwords are
redacted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContextWithoutLedger(cmd)
			return renderConfig(cmdCtx.Renderer, cmdCtx.Cfg)
		},
	}
}

func renderConfig(r *output.Renderer, cfg *config.Config) error {
	redacted := cfg.Redacted()

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(redacted)
	}

	body, err := yaml.Marshal(redacted)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}

	r.Header(1, "Configuration")
	configFile := cfg.ConfigFile
	if configFile == "" {
		configFile = "(none, using defaults)"
	}
	r.KeyValue("Config file", configFile)
	r.KeyValue("Project root", cfg.ProjectRoot)
	r.Println("")

	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println("```yaml")
		r.Printf("%s", body)
		r.Println("```")
		return nil
	}
	r.Println(strings.TrimRight(string(body), "\n"))
	return nil
}
