package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ludo-technologies/mailscan/internal/config"
	"github.com/ludo-technologies/mailscan/internal/constants"
)

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a mailscan configuration file",
		Long: `Generate a mailscan configuration file with sensible defaults.

By default, creates ` + constants.ConfigFileName + ` in the current directory.
Use --interactive for a guided setup wizard.

Examples:
  # Create ` + constants.ConfigFileName + ` in current directory
  mailscan init

  # Custom output path
  mailscan init --config custom.yaml

  # Overwrite existing file
  mailscan init --force

  # Interactive setup wizard
  mailscan init --interactive
  mailscan init -i`,
		RunE: runInit,
	}

	cmd.Flags().StringP("config", "c", constants.ConfigFileName,
		"Output path for the config file")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing config file")
	cmd.Flags().BoolP("interactive", "i", false,
		"Interactive setup wizard")

	return cmd
}

// strictness profiles adjust the check thresholds
type strictnessProfile struct {
	Label       string
	Description string
	MinScore    float64
	MinGrade    string
	MaxSerious  int
}

var strictnessProfiles = []strictnessProfile{
	{"Standard (recommended)", "Grade C or better, no critical findings", 0.7, "C", -1},
	{"Relaxed", "Grade D or better, report-only serious findings", 0.6, "D", -1},
	{"Strict", "Grade B or better, no serious findings, CI enforcement", 0.8, "B", 0},
}

var clientChoices = []struct {
	Label   string
	Clients []string
}{
	{"All major clients", []string{"outlook", "gmail", "apple-mail", "yahoo"}},
	{"Outlook and Gmail", []string{"outlook", "gmail"}},
	{"None (skip compatibility notes)", nil},
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	force, _ := cmd.Flags().GetBool("force")
	interactive, _ := cmd.Flags().GetBool("interactive")

	cfg := config.DefaultConfig()

	if interactive {
		var err error
		cfg, configPath, err = runInteractiveSetup(configPath)
		if err != nil {
			return err
		}
	}

	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
	}

	content, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}
	header := []byte("# mailscan configuration\n# Property allow/deny lists default to the built-in email-safe tables when omitted.\n")
	if err := os.WriteFile(configPath, append(header, content...), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	displayPath := configPath
	if absPath, err := filepath.Abs(configPath); err == nil {
		displayPath = absPath
	}
	fmt.Printf("Created %s\n", displayPath)
	fmt.Println("\nRun 'mailscan analyze <file.html>' to analyze a template.")

	return nil
}

func runInteractiveSetup(defaultConfigPath string) (*config.Config, string, error) {
	fmt.Println()
	fmt.Println("mailscan Configuration Setup")
	fmt.Println("============================")
	fmt.Println()

	strictnessTemplates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "\U0001F449 {{ .Label | cyan }} - {{ .Description | faint }}",
		Inactive: "   {{ .Label | white }} - {{ .Description | faint }}",
		Selected: "\U00002705 {{ .Label | green }}",
	}
	strictnessPrompt := promptui.Select{
		Label:     "How strict should the quality gate be?",
		Items:     strictnessProfiles,
		Templates: strictnessTemplates,
	}
	strictnessIdx, _, err := strictnessPrompt.Run()
	if err != nil {
		return nil, "", fmt.Errorf("strictness selection cancelled: %w", err)
	}
	profile := strictnessProfiles[strictnessIdx]

	fmt.Println()

	clientTemplates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "\U0001F449 {{ .Label | cyan }}",
		Inactive: "   {{ .Label | white }}",
		Selected: "\U00002705 {{ .Label | green }}",
	}
	clientPrompt := promptui.Select{
		Label:     "Which clients should compatibility notes target?",
		Items:     clientChoices,
		Templates: clientTemplates,
	}
	clientIdx, _, err := clientPrompt.Run()
	if err != nil {
		return nil, "", fmt.Errorf("client selection cancelled: %w", err)
	}

	fmt.Println()

	outputPrompt := promptui.Prompt{
		Label:   "Output file path",
		Default: defaultConfigPath,
	}
	outputPath, err := outputPrompt.Run()
	if err != nil {
		return nil, "", fmt.Errorf("output path input cancelled: %w", err)
	}
	if outputPath == "" {
		outputPath = defaultConfigPath
	}

	cfg := config.DefaultConfig()
	cfg.Check.MinScore = profile.MinScore
	cfg.Check.MinGrade = profile.MinGrade
	cfg.Check.MaxSerious = profile.MaxSerious
	cfg.Analysis.TargetClients = clientChoices[clientIdx].Clients

	fmt.Println()
	fmt.Printf("Creating %s... ", outputPath)

	return cfg, outputPath, nil
}
