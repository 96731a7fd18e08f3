package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ppiankov/aletheia/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage Aletheia configuration",
	Long: `Manage Aletheia configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (ALETHEIA_*)
3. Config file (~/.aletheia/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after merging the config file over the defaults.`,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration file",
	Long:  `Create a default configuration file at ~/.aletheia/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	if configFile := viper.ConfigFileUsed(); configFile != "" {
		fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", configFile)
	} else {
		fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
	}

	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Println("  Current Configuration")
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Println()
	fmt.Println(string(yamlData))
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Println()
	fmt.Println("Configuration hierarchy (highest to lowest priority):")
	fmt.Println("  1. CLI flags")
	fmt.Println("  2. Environment variables (ALETHEIA_*, OPENAI_API_KEY, ANTHROPIC_API_KEY)")
	fmt.Println("  3. Config file (~/.aletheia/config.yaml)")
	fmt.Println("  4. Defaults")
	fmt.Println()

	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("find home directory: %w", err)
	}
	configDir := filepath.Join(home, ".aletheia")
	configPath := filepath.Join(configDir, "config.yaml")

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s\nUse 'aletheia config show' to view it, or delete it first to recreate", configPath)
	}

	content, err := renderDefaultConfig()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	fmt.Printf("✓ Created default configuration: %s\n", configPath)
	fmt.Printf("\nTo view the configuration:\n")
	fmt.Printf("  aletheia config show\n")
	fmt.Printf("\nTo customize, edit the file with your preferred editor:\n")
	fmt.Printf("  $EDITOR %s\n", configPath)
	fmt.Printf("\n")

	return nil
}

// renderDefaultConfig produces the annotated YAML that config init writes.
func renderDefaultConfig() ([]byte, error) {
	yamlData, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("# Aletheia Configuration File\n")
	buf.WriteString("# See https://github.com/ppiankov/aletheia for full documentation\n")
	buf.WriteString("#\n")
	buf.WriteString("# Configuration hierarchy (highest to lowest priority):\n")
	buf.WriteString("#   1. CLI flags\n")
	buf.WriteString("#   2. Environment variables (ALETHEIA_*)\n")
	buf.WriteString("#   3. This config file\n")
	buf.WriteString("#   4. Built-in defaults\n\n")
	buf.Write(yamlData)
	buf.WriteString("\n# API keys are read from the environment, not this file:\n")
	buf.WriteString("#   export OPENAI_API_KEY=sk-...\n")
	buf.WriteString("#   export ANTHROPIC_API_KEY=sk-ant-...\n")
	buf.WriteString("#   export OLLAMA_BASE_URL=http://localhost:11434/api/generate\n")
	return buf.Bytes(), nil
}
