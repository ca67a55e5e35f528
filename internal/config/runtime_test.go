package config

import (
	"testing"
)

func lookupFromMap(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}

func TestResolveUsesFlagOrgOverDefault(t *testing.T) {
	t.Parallel()

	env := EnvironmentFromLookup(lookupFromMap(map[string]string{
		EnvToken: "shared-token",
	}))

	settings, err := Resolve(sampleConfig(), RuntimeFlags{Org: "staging"}, env, ResolveOptions{})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if settings.OrgAlias != "staging" {
		t.Fatalf("expected staging org, got %q", settings.OrgAlias)
	}
	if settings.BaseURL != "https://staging.example.test" {
		t.Fatalf("unexpected base URL: %q", settings.BaseURL)
	}
	if settings.Token != "shared-token" {
		t.Fatalf("expected shared token fallback, got %q", settings.Token)
	}
}

func TestResolveFollowsPerOrgTokenEnv(t *testing.T) {
	t.Parallel()

	env := EnvironmentFromLookup(lookupFromMap(map[string]string{
		EnvToken:     "shared-token",
		"PROD_TOKEN": "prod-token",
	}))

	settings, err := Resolve(sampleConfig(), RuntimeFlags{}, env, ResolveOptions{RequireToken: true})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if settings.OrgAlias != "prod" {
		t.Fatalf("expected default org prod, got %q", settings.OrgAlias)
	}
	if settings.Token != "prod-token" {
		t.Fatalf("expected token from PROD_TOKEN, got %q", settings.Token)
	}
}

func TestResolveMissingTokenNamesTheVariable(t *testing.T) {
	t.Parallel()

	env := EnvironmentFromLookup(lookupFromMap(map[string]string{
		EnvToken: "shared-token",
	}))

	_, err := Resolve(sampleConfig(), RuntimeFlags{}, env, ResolveOptions{RequireToken: true})
	if !IsResolveErrorCode(err, ResolveErrorCodeMissingToken) {
		t.Fatalf("expected missing_api_token, got: %v", err)
	}
}

func TestResolveOrgSelection(t *testing.T) {
	t.Parallel()

	t.Run("unknown flag org", func(t *testing.T) {
		t.Parallel()
		_, err := Resolve(sampleConfig(), RuntimeFlags{Org: "ghost"}, Environment{}, ResolveOptions{})
		if !IsResolveErrorCode(err, ResolveErrorCodeUnknownOrg) {
			t.Fatalf("expected unknown_org, got: %v", err)
		}
	})

	t.Run("whitespace flag org", func(t *testing.T) {
		t.Parallel()
		_, err := Resolve(sampleConfig(), RuntimeFlags{Org: "   "}, Environment{}, ResolveOptions{})
		if !IsResolveErrorCode(err, ResolveErrorCodeInvalidFlag) {
			t.Fatalf("expected invalid_flag_value, got: %v", err)
		}
	})

	t.Run("single org needs no default", func(t *testing.T) {
		t.Parallel()
		cfg := Config{
			ConfigVersion: SupportedConfigVersion,
			Orgs: map[string]OrgProfile{
				"only": {BaseURL: "https://only.example.test"},
			},
		}
		settings, err := Resolve(cfg, RuntimeFlags{}, Environment{}, ResolveOptions{})
		if err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
		if settings.OrgAlias != "only" {
			t.Fatalf("expected only org, got %q", settings.OrgAlias)
		}
	})

	t.Run("multiple orgs without default", func(t *testing.T) {
		t.Parallel()
		cfg := sampleConfig()
		cfg.DefaultOrg = ""
		_, err := Resolve(cfg, RuntimeFlags{}, Environment{}, ResolveOptions{})
		if !IsResolveErrorCode(err, ResolveErrorCodeMissingOrg) {
			t.Fatalf("expected missing_org, got: %v", err)
		}
	})
}

func TestResolvePrecedenceFlagsOverEnvOverConfig(t *testing.T) {
	t.Parallel()

	env := EnvironmentFromLookup(lookupFromMap(map[string]string{
		EnvBaseURL: "https://env.example.test",
	}))

	flagged, err := Resolve(sampleConfig(), RuntimeFlags{
		Org:        "staging",
		BaseURL:    "https://flag.example.test",
		APIVersion: "62.0",
		Strategy:   "union",
	}, env, ResolveOptions{})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if flagged.BaseURL != "https://flag.example.test" {
		t.Fatalf("expected flag base URL to win, got %q", flagged.BaseURL)
	}
	if flagged.APIVersion != "62.0" {
		t.Fatalf("expected flag API version to win, got %q", flagged.APIVersion)
	}
	if flagged.Strategy != "union" {
		t.Fatalf("expected flag strategy to win, got %q", flagged.Strategy)
	}

	unflagged, err := Resolve(sampleConfig(), RuntimeFlags{Org: "staging"}, env, ResolveOptions{})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if unflagged.BaseURL != "https://env.example.test" {
		t.Fatalf("expected env base URL to win over config, got %q", unflagged.BaseURL)
	}
	if unflagged.APIVersion != "61.0" {
		t.Fatalf("expected config API version, got %q", unflagged.APIVersion)
	}
}
