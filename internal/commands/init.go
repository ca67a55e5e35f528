package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pweiskircher/profile-sync/internal/config"
	"github.com/pweiskircher/profile-sync/internal/contracts"
	"github.com/pweiskircher/profile-sync/internal/output"
	"github.com/pweiskircher/profile-sync/internal/store"
)

type InitOptions struct {
	Org        string
	BaseURL    string
	TokenEnv   string
	Strategy   string
	Force      bool
	ConfigPath string
}

// RunInit scaffolds the project layout and writes a starter config. An
// existing config is only overwritten with --force.
func RunInit(workDir string, options InitOptions) (output.Report, error) {
	report := output.Report{CommandName: string(contracts.CommandInit)}

	org := strings.TrimSpace(options.Org)
	if org == "" {
		return report, fmt.Errorf("--org is required")
	}
	baseURL := strings.TrimSpace(options.BaseURL)
	if baseURL == "" {
		return report, fmt.Errorf("--url is required")
	}

	configPath := strings.TrimSpace(options.ConfigPath)
	if configPath == "" {
		configPath = filepath.Join(workDir, contracts.DefaultConfigFilePath)
	}

	if !options.Force {
		if _, err := os.Stat(configPath); err == nil {
			return report, fmt.Errorf("config already exists at %s (use --force to overwrite)", configPath)
		}
	}

	projectStore, err := store.New(workDir)
	if err != nil {
		return report, err
	}
	if err := projectStore.EnsureLayout(); err != nil {
		return report, err
	}

	cfg := config.Default()
	cfg.DefaultOrg = org
	cfg.DefaultStrategy = strings.TrimSpace(options.Strategy)
	cfg.Orgs[org] = config.OrgProfile{
		BaseURL:  baseURL,
		TokenEnv: strings.TrimSpace(options.TokenEnv),
	}

	if err := config.Write(configPath, cfg); err != nil {
		return report, err
	}

	action := "created"
	if options.Force {
		action = "overwritten"
	}
	report.Profiles = append(report.Profiles, contracts.ProfileResult{
		Name:   "workspace",
		Action: action,
		Status: contracts.ProfileStatusSuccess,
		Messages: []contracts.ProfileMessage{{
			Level: "info",
			Text:  "config=" + configPath + " org=" + org,
		}},
	})

	return report, nil
}
