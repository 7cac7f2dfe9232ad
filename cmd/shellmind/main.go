package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iishyfishyy/shellmind/internal/agent"
	"github.com/iishyfishyy/shellmind/internal/config"
	"github.com/iishyfishyy/shellmind/internal/llm"
	"github.com/iishyfishyy/shellmind/internal/ui"
)

var (
	// version is set by goreleaser at build time
	version = "dev"
	commit  = "none"
	date    = "unknown"

	// CLI flags
	flags cliFlags
)

const defaultModelPath = "./local_model_weights"

type cliFlags struct {
	apiURL      string
	modelPath   string
	ollama      bool
	ollamaURL   string
	modelName   string
	interactive bool
	command     string
	confirm     bool
	debug       bool
	jsonOutput  bool
	copy        bool
	configPath  string
}

func main() {
	rootCmd := &cobra.Command{
		Use:          "shellmind [command]",
		Short:        "Natural language shell assistant",
		Long:         "shellmind runs shell commands and answers natural-language requests using a language model",
		Version:      fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage: true,
		RunE:         runRoot,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.apiURL, "api-url", "", "URL of a generation API server")
	pf.StringVar(&flags.modelPath, "model-path", defaultModelPath, "Path to local model weights")
	pf.BoolVar(&flags.ollama, "ollama", false, "Use a local Ollama inference server")
	pf.StringVar(&flags.ollamaURL, "ollama-url", "http://localhost:11434", "Ollama server URL")
	pf.StringVar(&flags.modelName, "model-name", llm.DefaultInferenceModel, "Model name on the inference server")
	pf.BoolVarP(&flags.debug, "debug", "d", false, "Enable debug logging")
	pf.StringVar(&flags.configPath, "config", "", "Config file (default ~/.shellmind/config.yaml)")

	rootCmd.Flags().BoolVarP(&flags.interactive, "interactive", "i", false, "Run in interactive mode")
	rootCmd.Flags().StringVarP(&flags.command, "command", "c", "", "Command to process")
	rootCmd.Flags().BoolVar(&flags.confirm, "confirm", false, "Ask before running model-proposed shell commands")
	rootCmd.Flags().BoolVar(&flags.jsonOutput, "json", false, "Print results as JSON")
	rootCmd.Flags().BoolVar(&flags.copy, "copy", false, "Copy the output to the clipboard")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("shellmind %s\n", rootCmd.Version)
		},
	})
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "configure",
		Short: "Configure the model backend and history storage",
		RunE:  runConfigure,
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies the flags the user set
// explicitly on top of it
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.configPath != "" {
		cfg, err = config.LoadFrom(flags.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	applyFlags(cfg, cmd.Flags().Changed)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyFlags overrides cfg with flags the user set. The local model path
// is a fallback only used when no other backend is configured.
func applyFlags(cfg *config.Config, changed func(string) bool) {
	if changed("api-url") {
		cfg.Backend.APIURL = flags.apiURL
	}
	if changed("model-path") {
		cfg.Backend.ModelPath = flags.modelPath
	}
	if flags.ollama || changed("ollama-url") {
		cfg.Backend.OllamaURL = flags.ollamaURL
	}
	if changed("model-name") || (cfg.Backend.OllamaURL != "" && cfg.Backend.ModelName == "") {
		cfg.Backend.ModelName = flags.modelName
	}
	if cfg.Backend.OllamaURL == "" && cfg.Backend.APIURL == "" && cfg.Backend.ModelPath == "" {
		cfg.Backend.ModelPath = defaultModelPath
	}
	if flags.debug {
		cfg.Log.Debug = true
	}
	if flags.confirm {
		cfg.Confirm = true
	}
}

// needsSetupHint reports a first run: no config file and nothing but the
// local model fallback selected
func needsSetupHint(cfg *config.Config) bool {
	if flags.configPath != "" || cfg.Backend.OllamaURL != "" || cfg.Backend.APIURL != "" {
		return false
	}
	exists, err := config.Exists()
	return err == nil && !exists
}

func runRoot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if needsSetupHint(cfg) {
		ui.ShowInfo("No configuration found, using the local model stand-in. Run 'shellmind configure' to pick a backend.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		if errors.Is(err, llm.ErrConfig) {
			ui.ShowError(err.Error())
			ui.ShowInfo("Pass --ollama, --api-url or --model-path, or run 'shellmind configure'")
		}
		return err
	}
	defer a.Close()

	out := newOutput(os.Stdout)

	command := flags.command
	if command == "" && len(args) > 0 {
		command = strings.Join(args, " ")
	}

	if flags.interactive || command == "" {
		return runInteractive(ctx, a, out)
	}

	out.show(a.dispatcher.Process(ctx, command))
	return nil
}

// runInteractive reads commands until exit, quit, EOF or Ctrl-C
func runInteractive(ctx context.Context, a *app, out *output) error {
	a.dispatcher.Start()
	defer a.dispatcher.Stop()

	ui.ShowInfo(fmt.Sprintf("shellmind interactive mode (backend: %s). Type 'exit' or 'quit' to leave.", a.client.Backend()))

	read := lineReader(os.Stdin)
	if ui.IsInteractive() {
		read = ui.AskCommand
	}

	for a.dispatcher.Running() {
		line, err := read()
		if errors.Is(err, ui.ErrInterrupted) || errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read command: %w", err)
		}

		command := strings.TrimSpace(line)
		if command == "" {
			continue
		}
		if isExit(command) {
			break
		}

		out.show(a.dispatcher.Process(ctx, command))

		if ctx.Err() != nil {
			break
		}
	}

	ui.ShowInfo("Goodbye.")
	return nil
}

func isExit(command string) bool {
	switch strings.ToLower(command) {
	case "exit", "quit":
		return true
	}
	return false
}

func lineReader(r io.Reader) func() (string, error) {
	scanner := bufio.NewScanner(r)
	return func() (string, error) {
		fmt.Print("Enter command: ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		return scanner.Text(), nil
	}
}

// output prints envelopes according to the --json and --copy flags
type output struct {
	w       io.Writer
	printer *ui.Printer
	json    bool
	copy    bool
}

func newOutput(w io.Writer) *output {
	return &output{
		w:       w,
		printer: ui.NewPrinter(w, ui.IsInteractive()),
		json:    flags.jsonOutput,
		copy:    flags.copy,
	}
}

func (o *output) show(env agent.Envelope) {
	if o.json {
		enc := json.NewEncoder(o.w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(env); err != nil {
			ui.ShowError(fmt.Sprintf("Failed to encode result: %v", err))
		}
	} else {
		o.printer.Print(env)
	}

	if o.copy && env.Status == agent.StatusSuccess {
		if err := ui.CopyToClipboard(env); err != nil {
			ui.ShowWarning(err.Error())
		} else {
			ui.ShowSuccess("Copied to clipboard!")
		}
	}
}
