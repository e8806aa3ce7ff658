package config

import (
	"fmt"

	"github.com/goccy/go-yaml"
)

// MaxConfigSize limits YAML input to prevent memory exhaustion.
const MaxConfigSize = 1 << 20

// decodeStrict parses YAML into v, rejecting unknown fields.
// Errors carry the offending line with source context.
func decodeStrict(data []byte, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty file", ErrConfigParse)
	}
	if len(data) > MaxConfigSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrConfigTooLarge, len(data), MaxConfigSize)
	}
	if err := yaml.UnmarshalWithOptions(data, v, yaml.Strict()); err != nil {
		return fmt.Errorf("%w:\n%s", ErrConfigParse, yaml.FormatError(err, false, true))
	}
	return nil
}

// Marshal renders the configuration as YAML, as printed by
// `mdexport doctor --config`.
func Marshal(cfg *Config) ([]byte, error) {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return out, nil
}
