// Package config provides Viper-based configuration loading for the battle engine.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// Anchor is a spawn position for a battler's presentation counterpart.
type Anchor struct {
	X float64 `mapstructure:"x"`
	Y float64 `mapstructure:"y"`
}

// BattleConfig holds encounter pacing and rule settings.
type BattleConfig struct {
	// TurnDelay is the pause between one battler's resolution and the next.
	TurnDelay time.Duration `mapstructure:"turn_delay"`
	// DamageDelay is the pause between dealing damage and announcing a defeat.
	DamageDelay time.Duration `mapstructure:"damage_delay"`
	// DefeatDelay is the pause between announcing a defeat and removing the battler.
	DefeatDelay time.Duration `mapstructure:"defeat_delay"`
	// VictoryDelay is the pause between the last hostile falling and signaling the win.
	VictoryDelay time.Duration `mapstructure:"victory_delay"`
	// Seed seeds the targeting source. Zero selects the crypto source.
	Seed int64 `mapstructure:"seed"`
	// HostilePolicy selects how hostiles act: "idle", "random", or "script".
	HostilePolicy string `mapstructure:"hostile_policy"`
	// TurnOrder selects the sweep order: "roster" or "initiative".
	TurnOrder    string   `mapstructure:"turn_order"`
	PartyAnchors []Anchor `mapstructure:"party_anchors"`
	EnemyAnchors []Anchor `mapstructure:"enemy_anchors"`
}

// EncounterSpawn names one hostile to generate for the encounter.
type EncounterSpawn struct {
	Name  string `mapstructure:"name"`
	Level int    `mapstructure:"level"`
}

// ContentConfig locates the roster content files.
type ContentConfig struct {
	// PartyFile is the YAML file holding the current party.
	PartyFile string `mapstructure:"party_file"`
	// EnemyDir is the directory of enemy template YAML files.
	EnemyDir string `mapstructure:"enemy_dir"`
	// Encounter lists the hostiles generated for the encounter, in order.
	Encounter []EncounterSpawn `mapstructure:"encounter"`
}

// ScriptingConfig holds Lua hostile policy settings.
type ScriptingConfig struct {
	// AIScript is the Lua file defining choose_target. Required when
	// battle.hostile_policy is "script".
	AIScript string `mapstructure:"ai_script"`
	// InstructionLimit caps the opcodes executed per hook call; 0 uses the default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// DatabaseConfig holds PostgreSQL connection settings for encounter reports.
type DatabaseConfig struct {
	// Enabled turns report persistence on.
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// TelemetryConfig holds OpenTelemetry tracing settings.
type TelemetryConfig struct {
	// Enabled installs the OTLP/HTTP exporter. Endpoint and headers come from
	// the standard OTEL_EXPORTER_OTLP_* environment variables.
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Battle    BattleConfig    `mapstructure:"battle"`
	Content   ContentConfig   `mapstructure:"content"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateBattle(c.Battle); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateContent(c.Content, c.Battle); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Battle.HostilePolicy == "script" && c.Scripting.AIScript == "" {
		errs = append(errs, "scripting.ai_script must be set when battle.hostile_policy is \"script\"")
	}
	if c.Scripting.InstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("scripting.instruction_limit must be >= 0, got %d", c.Scripting.InstructionLimit))
	}
	if c.Database.Enabled {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if c.Telemetry.Enabled && c.Telemetry.ServiceName == "" {
		errs = append(errs, "telemetry.service_name must not be empty when telemetry is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateBattle(b BattleConfig) error {
	var errs []string
	delays := []struct {
		key string
		d   time.Duration
	}{
		{"battle.turn_delay", b.TurnDelay},
		{"battle.damage_delay", b.DamageDelay},
		{"battle.defeat_delay", b.DefeatDelay},
		{"battle.victory_delay", b.VictoryDelay},
	}
	for _, d := range delays {
		if d.d < 0 {
			errs = append(errs, fmt.Sprintf("%s must not be negative", d.key))
		}
	}
	validPolicies := map[string]bool{"idle": true, "random": true, "script": true}
	if !validPolicies[b.HostilePolicy] {
		errs = append(errs, fmt.Sprintf("battle.hostile_policy must be one of [idle, random, script], got %q", b.HostilePolicy))
	}
	validOrders := map[string]bool{"roster": true, "initiative": true}
	if !validOrders[b.TurnOrder] {
		errs = append(errs, fmt.Sprintf("battle.turn_order must be one of [roster, initiative], got %q", b.TurnOrder))
	}
	if len(b.PartyAnchors) == 0 {
		errs = append(errs, "battle.party_anchors must not be empty")
	}
	if len(b.EnemyAnchors) == 0 {
		errs = append(errs, "battle.enemy_anchors must not be empty")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateContent(c ContentConfig, b BattleConfig) error {
	var errs []string
	if c.PartyFile == "" {
		errs = append(errs, "content.party_file must not be empty")
	}
	if c.EnemyDir == "" {
		errs = append(errs, "content.enemy_dir must not be empty")
	}
	if len(c.Encounter) == 0 {
		errs = append(errs, "content.encounter must list at least one hostile")
	}
	if len(c.Encounter) > len(b.EnemyAnchors) {
		errs = append(errs, fmt.Sprintf("content.encounter lists %d hostiles but only %d enemy anchors are configured", len(c.Encounter), len(b.EnemyAnchors)))
	}
	for i, s := range c.Encounter {
		if s.Name == "" {
			errs = append(errs, fmt.Sprintf("content.encounter[%d].name must not be empty", i))
		}
		if s.Level < 0 {
			errs = append(errs, fmt.Sprintf("content.encounter[%d].level must be >= 0, got %d", i, s.Level))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with BATTLE_ prefix
	v.SetEnvPrefix("BATTLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Viper instance holding only the default settings.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("battle.turn_delay", "600ms")
	v.SetDefault("battle.damage_delay", "400ms")
	v.SetDefault("battle.defeat_delay", "400ms")
	v.SetDefault("battle.victory_delay", "1s")
	v.SetDefault("battle.seed", 0)
	v.SetDefault("battle.hostile_policy", "random")
	v.SetDefault("battle.turn_order", "roster")
	v.SetDefault("battle.party_anchors", []map[string]any{
		{"x": 4, "y": 1}, {"x": 4, "y": 4}, {"x": 4, "y": 7}, {"x": 4, "y": 10},
	})
	v.SetDefault("battle.enemy_anchors", []map[string]any{
		{"x": 44, "y": 1}, {"x": 44, "y": 4}, {"x": 44, "y": 7}, {"x": 44, "y": 10},
	})

	v.SetDefault("content.party_file", "content/party.yaml")
	v.SetDefault("content.enemy_dir", "content/enemies")
	v.SetDefault("content.encounter", []map[string]any{
		{"name": "Slime", "level": 1},
	})

	v.SetDefault("scripting.ai_script", "content/scripts/ai/hostile.lua")
	v.SetDefault("scripting.instruction_limit", 0)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "battle")
	v.SetDefault("database.password", "battle")
	v.SetDefault("database.name", "battle")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "battle")
}
