package commands

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/leapflow/internal/cli/config"
	"github.com/leapstack-labs/leapflow/internal/cli/output"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const configHeader = `# leapflow configuration.
# Relative paths resolve against this file's directory. Any key can be
# overridden with a LEAPFLOW_ environment variable, using __ between levels
# (LEAPFLOW_REPORT__SINCE=2025-06-01).
`

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new leapflow project",
		Long: `Initialize a new leapflow project with a default configuration.

This creates:
  - leapflow.yaml with every setting at its default
  - data/ directory for the input exports
  - sql/01_schema_design.sql, the aid warehouse schema
  - .gitignore for the run ledger and pipeline outputs`,
		Example: `  # Initialize in current directory
  leapflow init

  # Initialize in a new directory
  leapflow init my-study

  # Force overwrite existing files
  leapflow init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			cmdCtx := NewCommandContextWithoutLedger(cmd)
			return runInit(cmdCtx.Renderer, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")

	return cmd
}

func runInit(r *output.Renderer, dir string, force bool) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	configPath := filepath.Join(dir, config.ConfigFileNames[0])
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", config.ConfigFileNames[0])
	}

	content, err := defaultConfigYAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(configPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", configPath, err)
	}

	files, err := copyTemplate("project", dir, force)
	if err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(map[string]any{
			"directory": dir,
			"files":     append([]string{config.ConfigFileNames[0]}, files...),
		})
	}

	r.StatusLine(config.ConfigFileNames[0], "success", "")
	for _, f := range files {
		r.StatusLine(f, "success", "")
	}

	r.Println("")
	r.Success("leapflow project initialized!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  1. Copy the input exports into data/")
	r.Println("  2. Run 'leapflow activity' or 'leapflow aid'")
	r.Println("  3. Point report.target at the retail database and run 'leapflow report'")
	r.Println("  4. Run 'leapflow runs' to see the run history")

	return nil
}

// defaultConfigYAML renders the default configuration as YAML.
func defaultConfigYAML() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(configHeader)

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(config.Default()); err != nil {
		return nil, fmt.Errorf("failed to encode configuration: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode configuration: %w", err)
	}
	return buf.Bytes(), nil
}
