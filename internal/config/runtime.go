// pattern: Functional Core
package config

import (
	"os"
	"strings"

	"github.com/pweiskircher/profile-sync/internal/contracts"
)

const (
	EnvToken   = "PROFILE_SYNC_TOKEN"
	EnvBaseURL = "PROFILE_SYNC_URL"
)

type RuntimeFlags struct {
	Org        string
	Strategy   string
	BaseURL    string
	APIVersion string
}

// Environment is the process environment snapshot Resolve reads from.
// The lookup is retained so per-org token_env indirection can be
// followed at resolve time.
type Environment struct {
	Token   string
	BaseURL string
	lookup  func(string) (string, bool)
}

type ResolveOptions struct {
	RequireToken bool
}

type RuntimeSettings struct {
	OrgAlias   string
	Org        OrgProfile
	Token      string
	BaseURL    string
	APIVersion string
	Strategy   string
}

func Resolve(config Config, flags RuntimeFlags, env Environment, options ResolveOptions) (RuntimeSettings, error) {
	if err := Validate(config); err != nil {
		return RuntimeSettings{}, &ResolveError{
			Code:    ResolveErrorCodeInvalidConfig,
			Message: "configuration is invalid",
			Err:     err,
		}
	}

	alias, org, err := resolveOrg(config, flags.Org)
	if err != nil {
		return RuntimeSettings{}, err
	}

	token := resolveToken(org, env)
	if options.RequireToken && token == "" {
		variable := strings.TrimSpace(org.TokenEnv)
		if variable == "" {
			variable = EnvToken
		}
		return RuntimeSettings{}, &ResolveError{
			Code:    ResolveErrorCodeMissingToken,
			Message: variable + " is required",
		}
	}

	settings := RuntimeSettings{
		OrgAlias:   alias,
		Org:        org,
		Token:      token,
		BaseURL:    firstNonEmpty(flags.BaseURL, env.BaseURL, org.BaseURL),
		APIVersion: firstNonEmpty(flags.APIVersion, config.APIVersion, contracts.DefaultAPIVersion),
		Strategy:   firstNonEmpty(flags.Strategy, config.DefaultStrategy),
	}

	return settings, nil
}

// IsZero reports whether the snapshot carries no environment data at all,
// so callers can fall back to EnvironmentFromOS.
func (e Environment) IsZero() bool {
	return e.Token == "" && e.BaseURL == "" && e.lookup == nil
}

func EnvironmentFromOS() Environment {
	return EnvironmentFromLookup(os.LookupEnv)
}

func EnvironmentFromLookup(lookup func(string) (string, bool)) Environment {
	if lookup == nil {
		return Environment{}
	}

	return Environment{
		Token:   lookupTrimmed(lookup, EnvToken),
		BaseURL: lookupTrimmed(lookup, EnvBaseURL),
		lookup:  lookup,
	}
}

func resolveOrg(config Config, orgFlag string) (string, OrgProfile, error) {
	flagValue := strings.TrimSpace(orgFlag)
	if orgFlag != "" && flagValue == "" {
		return "", OrgProfile{}, &ResolveError{
			Code:    ResolveErrorCodeInvalidFlag,
			Message: "--org must not be only whitespace",
		}
	}

	if flagValue != "" {
		org, ok := config.Orgs[flagValue]
		if !ok {
			return "", OrgProfile{}, &ResolveError{
				Code:    ResolveErrorCodeUnknownOrg,
				Message: "--org references unknown org " + flagValue,
			}
		}
		return flagValue, org, nil
	}

	defaultOrg := strings.TrimSpace(config.DefaultOrg)
	if defaultOrg != "" {
		org, ok := config.Orgs[defaultOrg]
		if !ok {
			return "", OrgProfile{}, &ResolveError{
				Code:    ResolveErrorCodeUnknownOrg,
				Message: "default_org references unknown org " + defaultOrg,
			}
		}
		return defaultOrg, org, nil
	}

	if len(config.Orgs) == 1 {
		for alias, org := range config.Orgs {
			return alias, org, nil
		}
	}

	available := sortedOrgAliases(config.Orgs)
	return "", OrgProfile{}, &ResolveError{
		Code:    ResolveErrorCodeMissingOrg,
		Message: "org is required when config defines multiple orgs: " + strings.Join(available, ", "),
	}
}

func resolveToken(org OrgProfile, env Environment) string {
	if variable := strings.TrimSpace(org.TokenEnv); variable != "" && env.lookup != nil {
		if value, ok := env.lookup(variable); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
		return ""
	}
	return strings.TrimSpace(env.Token)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func lookupTrimmed(lookup func(string) (string, bool), key string) string {
	value, ok := lookup(key)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}
