package i18ncache

import (
	"fmt"
	"time"
)

// ValidationResult accumulates everything wrong with a config. Errors
// reject the config; warnings are advisory.
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

func (r *ValidationResult) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Valid = false
}

func (r *ValidationResult) addWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// ConfigPatch is a partial cache configuration: nil fields are absent and
// skip validation entirely, so callers can check just the fields they are
// about to change. No defaults are injected at this layer.
type ConfigPatch struct {
	MaxSize           *int
	DefaultTTL        *time.Duration
	EnablePersistence *bool
	StorageKey        *string
}

// CompressionPatch is the optional compression block of an advanced
// config patch.
type CompressionPatch struct {
	EnableCompression *bool
	Threshold         *int
	Level             *int
}

// PerformancePatch is the optional performance block of an advanced
// config patch.
type PerformancePatch struct {
	MaxConcurrentLoads *int
	LoadTimeout        *time.Duration
}

// AdvancedConfigPatch extends ConfigPatch with nested compression and
// performance blocks.
type AdvancedConfigPatch struct {
	ConfigPatch
	Compression *CompressionPatch
	Performance *PerformancePatch
}

// ValidateConfig checks a partial cache configuration against the
// documented bounds. All violations accumulate in one result rather than
// short-circuiting on the first.
func ValidateConfig(patch ConfigPatch) ValidationResult {
	result := ValidationResult{Valid: true}

	if patch.MaxSize != nil {
		if *patch.MaxSize < MinMaxSize {
			result.addError("maxSize must be at least %d, got %d", MinMaxSize, *patch.MaxSize)
		} else if *patch.MaxSize > MaxMaxSize {
			result.addError("maxSize must be at most %d, got %d", MaxMaxSize, *patch.MaxSize)
		}
	}

	if patch.DefaultTTL != nil {
		if *patch.DefaultTTL < MinTTL {
			result.addError("ttl must be at least %v, got %v", MinTTL, *patch.DefaultTTL)
		} else if *patch.DefaultTTL > MaxTTL {
			// Very long TTLs are legal but suspicious.
			result.addWarning("ttl %v exceeds %v; entries will stay stale for a long time", *patch.DefaultTTL, MaxTTL)
		}
	}

	if patch.StorageKey != nil && *patch.StorageKey == "" {
		result.addError("storageKey must be a non-empty string")
	}

	return result
}

// ValidateAdvancedConfig validates the base patch plus the nested
// compression and performance blocks, inheriting all base errors.
func ValidateAdvancedConfig(patch AdvancedConfigPatch) ValidationResult {
	result := ValidateConfig(patch.ConfigPatch)

	if c := patch.Compression; c != nil {
		compressionEnabled := c.EnableCompression != nil && *c.EnableCompression
		if compressionEnabled && c.Threshold != nil && *c.Threshold < 0 {
			result.addError("compression threshold must be >= 0, got %d", *c.Threshold)
		}
		if c.Level != nil && (*c.Level < 1 || *c.Level > 9) {
			result.addError("compression level must be in [1, 9], got %d", *c.Level)
		}
	}

	if p := patch.Performance; p != nil {
		if p.MaxConcurrentLoads != nil && *p.MaxConcurrentLoads < 1 {
			result.addError("maxConcurrentLoads must be at least 1, got %d", *p.MaxConcurrentLoads)
		}
		if p.LoadTimeout != nil && *p.LoadTimeout < time.Second {
			result.addWarning("loadTimeout %v is below 1s; slow backends will be marked failed", *p.LoadTimeout)
		}
	}

	return result
}

// validateFull checks a complete config before construction. It reuses
// the patch validator so New and ValidateConfig can never disagree.
func validateFull(config *Config) ValidationResult {
	result := ValidateConfig(ConfigPatch{
		MaxSize:           &config.MaxSize,
		DefaultTTL:        &config.DefaultTTL,
		EnablePersistence: &config.EnablePersistence,
		StorageKey:        &config.StorageKey,
	})

	if config.EnablePersistence && config.Persistence == nil {
		result.addError("persistence is enabled but no store is configured")
	}

	return result
}
