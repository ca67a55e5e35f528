package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sampleConfig() Config {
	return Config{
		ConfigVersion: SupportedConfigVersion,
		DefaultOrg:    "prod",
		APIVersion:    "61.0",
		Orgs: map[string]OrgProfile{
			"prod":    {BaseURL: "https://prod.example.test", TokenEnv: "PROD_TOKEN"},
			"staging": {BaseURL: "https://staging.example.test"},
		},
	}
}

func TestConfigWriteReadRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".sync", "config.yaml")
	want := sampleConfig()
	if err := Write(path, want); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigReadMissingFileFails(t *testing.T) {
	t.Parallel()

	_, err := Read(filepath.Join(t.TempDir(), "absent.yaml"))
	if !IsErrorCode(err, ErrorCodeReadFailed) {
		t.Fatalf("expected config_read_failed, got: %v", err)
	}
}

func TestConfigReadRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := "config_version: 1\nmystery_field: true\norgs: {}\n"
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("seed write failed: %v", err)
	}

	_, err := Read(path)
	if !IsErrorCode(err, ErrorCodeParseFailed) {
		t.Fatalf("expected config_parse_failed, got: %v", err)
	}
}

func TestConfigReadRejectsInvalidContent(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
	}{
		{
			name: "unsupported version",
			raw:  "config_version: 9\norgs: {}\n",
		},
		{
			name: "org without base url",
			raw:  "config_version: 1\norgs:\n  prod: {}\n",
		},
		{
			name: "relative base url",
			raw:  "config_version: 1\norgs:\n  prod:\n    base_url: example.test/api\n",
		},
		{
			name: "unknown default org",
			raw:  "config_version: 1\ndefault_org: ghost\norgs:\n  prod:\n    base_url: https://prod.example.test\n",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tc.raw), 0o644); err != nil {
				t.Fatalf("seed write failed: %v", err)
			}

			_, err := Read(path)
			if !IsErrorCode(err, ErrorCodeValidationFailed) {
				t.Fatalf("expected config_validation_failed, got: %v", err)
			}
		})
	}
}

func TestConfigWriteRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	invalid := sampleConfig()
	invalid.ConfigVersion = 99

	err := Write(filepath.Join(t.TempDir(), "config.yaml"), invalid)
	if !IsErrorCode(err, ErrorCodeValidationFailed) {
		t.Fatalf("expected config_validation_failed, got: %v", err)
	}
}
