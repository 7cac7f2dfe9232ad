package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iishyfishyy/shellmind/internal/config"
	"github.com/iishyfishyy/shellmind/internal/llm"
	"github.com/iishyfishyy/shellmind/internal/ui"
)

func runConfigure(cmd *cobra.Command, args []string) error {
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
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	backend, err := ui.AskBackend()
	if err != nil {
		return err
	}

	cfg.Backend = config.BackendConfig{}
	switch backend {
	case "Ollama":
		if cfg.Backend.OllamaURL, err = ui.AskString("Ollama URL:", "http://localhost:11434"); err != nil {
			return err
		}
		if cfg.Backend.ModelName, err = ui.AskString("Model name:", llm.DefaultInferenceModel); err != nil {
			return err
		}
	case "API server":
		if cfg.Backend.APIURL, err = ui.AskString("API server URL:", "http://localhost:8000"); err != nil {
			return err
		}
	default:
		if cfg.Backend.ModelPath, err = ui.AskString("Model path:", defaultModelPath); err != nil {
			return err
		}
	}

	if cfg.Confirm, err = ui.PromptYesNo("Ask before running commands proposed by the model?", cfg.Confirm); err != nil {
		return err
	}

	persist, err := ui.PromptYesNo("Keep command history in a local SQLite database?", cfg.History.Driver == config.HistorySQLite)
	if err != nil {
		return err
	}
	if persist {
		cfg.History.Driver = config.HistorySQLite
	} else if cfg.History.Driver == config.HistorySQLite {
		cfg.History.Driver = config.HistoryMemory
	}

	configPath := flags.configPath
	if configPath != "" {
		err = config.SaveTo(cfg, configPath)
	} else {
		err = config.Save(cfg)
		configPath, _ = config.GetConfigPath()
	}
	if err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	ui.ShowSuccess(fmt.Sprintf("Configuration saved to %s", configPath))
	ui.ShowInfo("\nYou're all set! Try running: shellmind \"list all files\"")
	return nil
}
