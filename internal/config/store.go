// pattern: Imperative Shell
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pweiskircher/profile-sync/internal/contracts"
)

func Read(path string) (Config, error) {
	resolvedPath := resolvePath(path)
	raw, err := os.ReadFile(resolvedPath)
	if err != nil {
		return Config{}, &Error{Code: ErrorCodeReadFailed, Path: resolvedPath, Err: err}
	}

	config, err := decode(raw)
	if err != nil {
		return Config{}, &Error{Code: ErrorCodeParseFailed, Path: resolvedPath, Err: err}
	}

	if err := Validate(config); err != nil {
		return Config{}, &Error{Code: ErrorCodeValidationFailed, Path: resolvedPath, Err: err}
	}

	return config, nil
}

func Write(path string, config Config) error {
	resolvedPath := resolvePath(path)
	if err := Validate(config); err != nil {
		return &Error{Code: ErrorCodeValidationFailed, Path: resolvedPath, Err: err}
	}

	dir := filepath.Dir(resolvedPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &Error{Code: ErrorCodeWriteFailed, Path: resolvedPath, Err: fmt.Errorf("failed to create parent directory: %w", err)}
	}

	encoded, err := encode(config)
	if err != nil {
		return &Error{Code: ErrorCodeWriteFailed, Path: resolvedPath, Err: err}
	}

	if err := os.WriteFile(resolvedPath, encoded, 0o644); err != nil {
		return &Error{Code: ErrorCodeWriteFailed, Path: resolvedPath, Err: err}
	}

	return nil
}

func decode(raw []byte) (Config, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)

	var config Config
	if err := decoder.Decode(&config); err != nil {
		return Config{}, fmt.Errorf("failed to decode config YAML: %w", err)
	}

	return config, nil
}

func encode(config Config) ([]byte, error) {
	encoded, err := yaml.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config YAML: %w", err)
	}
	return encoded, nil
}

func resolvePath(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return contracts.DefaultConfigFilePath
	}
	return trimmed
}
