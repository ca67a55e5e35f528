// pattern: Functional Core
package config

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/pweiskircher/profile-sync/internal/contracts"
)

const SupportedConfigVersion = 1

// OrgProfile describes one remote org an operator can sync against.
// TokenEnv names the environment variable holding that org's API
// token; when empty the shared PROFILE_SYNC_TOKEN variable is used.
type OrgProfile struct {
	BaseURL  string `yaml:"base_url"`
	TokenEnv string `yaml:"token_env,omitempty"`
}

type Config struct {
	ConfigVersion   int                   `yaml:"config_version"`
	DefaultOrg      string                `yaml:"default_org,omitempty"`
	APIVersion      string                `yaml:"api_version,omitempty"`
	DefaultStrategy string                `yaml:"default_strategy,omitempty"`
	Orgs            map[string]OrgProfile `yaml:"orgs"`
}

// Default returns the starter configuration the init command writes.
func Default() Config {
	return Config{
		ConfigVersion: SupportedConfigVersion,
		APIVersion:    contracts.DefaultAPIVersion,
		Orgs:          map[string]OrgProfile{},
	}
}

func Validate(config Config) error {
	if config.ConfigVersion != SupportedConfigVersion {
		return fmt.Errorf("unsupported config_version %d (supported: %d)", config.ConfigVersion, SupportedConfigVersion)
	}

	for _, alias := range sortedOrgAliases(config.Orgs) {
		org := config.Orgs[alias]
		if strings.TrimSpace(alias) == "" {
			return errors.New("org alias must not be blank")
		}
		baseURL := strings.TrimSpace(org.BaseURL)
		if baseURL == "" {
			return fmt.Errorf("org %q: base_url is required", alias)
		}
		parsed, err := url.Parse(baseURL)
		if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return fmt.Errorf("org %q: base_url %q must be an absolute http(s) URL", alias, org.BaseURL)
		}
	}

	if defaultOrg := strings.TrimSpace(config.DefaultOrg); defaultOrg != "" {
		if _, ok := config.Orgs[defaultOrg]; !ok {
			return fmt.Errorf("default_org references unknown org %q", defaultOrg)
		}
	}

	return nil
}

func sortedOrgAliases(orgs map[string]OrgProfile) []string {
	aliases := make([]string, 0, len(orgs))
	for alias := range orgs {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases
}
