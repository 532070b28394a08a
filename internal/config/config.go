// Package config owns the harness's on-disk configuration: the chat
// providers it can route to, per-agent model selection, and the tunables
// for the hill-climber, test generator, TTT loop, archivist, and training
// loop runner. Configuration lives at .openagents/config.json, merged with
// a user-global file and environment overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"
)

// ProviderKind identifies which chatprovider backend a ProviderConfig
// targets.
type ProviderKind string

const (
	ProviderKindFMBridge    ProviderKind = "fm_bridge"
	ProviderKindOpenAIShape ProviderKind = "openai_shape"
	ProviderKindAnthropic   ProviderKind = "anthropic"
)

// JSONSchemaExtend documents the enumerated provider kinds for schema
// consumers (editors, config validators).
func (ProviderKind) JSONSchemaExtend(schema *jsonschema.Schema) {
	schema.Title = "Provider Kind"
	schema.Enum = []any{string(ProviderKindFMBridge), string(ProviderKindOpenAIShape), string(ProviderKindAnthropic)}
}

// ProviderConfig configures one chat backend the harness can route to.
type ProviderConfig struct {
	Kind     ProviderKind    `json:"kind" jsonschema:"title=Kind,description=Which chatprovider backend this entry configures"`
	BaseURL  string          `json:"base_url,omitempty" jsonschema:"title=Base URL,description=Override base URL for openai_shape providers"`
	APIKey   FlexibleAPIKey  `json:"api_key,omitempty" jsonschema:"title=API Key,description=API key; may be a string or a provider-specific object"`
	Model    string          `json:"model,omitempty" jsonschema:"title=Model,description=Default model name for this provider"`
	Disabled bool            `json:"disabled,omitempty" jsonschema:"title=Disabled,description=Whether this provider is excluded from routing"`
}

// AgentRole identifies which harness subsystem an AgentConfig applies to.
type AgentRole string

const (
	RoleTaskWorker   AgentRole = "task_worker"   // runs the task itself, typically via the local FM bridge
	RoleFreeReasoner AgentRole = "free_reasoner" // hill-climber's every-run reasoner
	RoleAutoReasoner AgentRole = "auto_reasoner" // hill-climber's every-Nth-run deep reasoner
	RoleTestGen      AgentRole = "test_gen"
	RoleArchivist    AgentRole = "archivist"
)

// AgentConfig binds a role to a configured provider and model override.
type AgentConfig struct {
	Provider string `json:"provider" jsonschema:"title=Provider,description=Key into Config.Providers"`
	Model    string `json:"model,omitempty" jsonschema:"title=Model,description=Overrides the provider's default model for this role"`
}

// HillClimberSettings tunes the hill-climber loop (see internal/hillclimber).
type HillClimberSettings struct {
	AutoRoutingEveryN int `json:"auto_routing_every_n,omitempty" jsonschema:"title=Auto-routing interval,description=Escalate to the deep reasoner every Nth run,default=10"`
}

// TestGenSettings tunes the iterative test generator (see internal/testgen).
type TestGenSettings struct {
	MaxRoundsPerCategory int `json:"max_rounds_per_category,omitempty" jsonschema:"title=Max rounds per category,default=3"`
}

// TTTSettings tunes test-time training (see internal/ttt).
type TTTSettings struct {
	MaxIterations           int     `json:"max_iterations,omitempty" jsonschema:"default=5"`
	AttemptsPerIteration    int     `json:"attempts_per_iteration,omitempty" jsonschema:"default=50"`
	SatisfactionThreshold   float64 `json:"satisfaction_threshold,omitempty" jsonschema:"default=1.0"`
	MinImprovementThreshold float64 `json:"min_improvement_threshold,omitempty" jsonschema:"default=0.01"`
}

// LoopSettings tunes the progressive training loop runner (see internal/loop).
type LoopSettings struct {
	ProgressionThreshold           float64 `json:"progression_threshold,omitempty" jsonschema:"default=0.8"`
	MinIterationsBeforeProgression int     `json:"min_iterations_before_progression,omitempty" jsonschema:"default=3"`
	MaxDurationMs                  int64   `json:"max_duration_ms,omitempty"`
	MaxIterations                  int     `json:"max_iterations,omitempty"`
}

// ArchivistSettings tunes pattern mining and pruning (see internal/archivist).
type ArchivistSettings struct {
	MinOccurrences       int     `json:"min_occurrences,omitempty" jsonschema:"default=2"`
	MinConfidence        float64 `json:"min_confidence,omitempty" jsonschema:"default=0.6"`
	MaxTrajectoryAgeDays int     `json:"max_trajectory_age_days,omitempty"`
	PruneLearnedSkills   bool    `json:"prune_learned_skills,omitempty"`
}

// Options carries general workspace-level settings.
type Options struct {
	DataDirectory string              `json:"data_directory,omitempty" jsonschema:"title=Data directory,description=Root directory for trajectories, episodes, and the SQLite database,default=.openagents"`
	Debug         bool                `json:"debug,omitempty"`
	Env           EnvironmentConfig   `json:"env,omitempty"`
}

// Config is the harness's full configuration surface.
type Config struct {
	Providers  map[string]ProviderConfig `json:"providers,omitempty" jsonschema:"title=Providers,description=Named chat provider configurations"`
	Agents     map[AgentRole]AgentConfig `json:"agents,omitempty" jsonschema:"title=Agents,description=Role to provider/model bindings"`
	HillClimber HillClimberSettings      `json:"hill_climber,omitempty"`
	TestGen     TestGenSettings          `json:"test_gen,omitempty"`
	TTT         TTTSettings              `json:"ttt,omitempty"`
	Loop        LoopSettings             `json:"loop,omitempty"`
	Archivist   ArchivistSettings        `json:"archivist,omitempty"`
	Options     Options                  `json:"options,omitempty"`
}

// Default returns the harness's built-in configuration, used when no
// config file is present and as the base that file/env layers merge onto.
func Default() *Config {
	return &Config{
		Providers: map[string]ProviderConfig{
			"local": {Kind: ProviderKindFMBridge},
		},
		Agents: map[AgentRole]AgentConfig{
			RoleTaskWorker:   {Provider: "local"},
			RoleFreeReasoner: {Provider: "local"},
			RoleTestGen:      {Provider: "local"},
			RoleArchivist:    {Provider: "local"},
		},
		HillClimber: HillClimberSettings{AutoRoutingEveryN: 10},
		TestGen:     TestGenSettings{MaxRoundsPerCategory: 3},
		TTT: TTTSettings{
			MaxIterations:           5,
			AttemptsPerIteration:    50,
			SatisfactionThreshold:   1.0,
			MinImprovementThreshold: 0.01,
		},
		Loop: LoopSettings{
			ProgressionThreshold:           0.8,
			MinIterationsBeforeProgression: 3,
		},
		Archivist: ArchivistSettings{
			MinOccurrences: 2,
			MinConfidence:  0.6,
		},
		Options: Options{DataDirectory: ".openagents"},
	}
}

// DBPath returns the path to the harness's SQLite database under the
// configured data directory.
func (c *Config) DBPath() string {
	return filepath.Join(c.dataDir(), "openagents.db")
}

// TrajectoryDir returns the directory ATIF trajectories are stored under.
func (c *Config) TrajectoryDir() string {
	return filepath.Join(c.dataDir(), "trajectories")
}

// GymDir returns the directory episodes are stored under.
func (c *Config) GymDir() string {
	return filepath.Join(c.dataDir(), "gym")
}

// ArchivedStatePath returns the path to the archivist's processed-session
// tracker.
func (c *Config) ArchivedStatePath() string {
	return filepath.Join(c.dataDir(), "archivist", "archived.json")
}

// LoopStatePath returns the path to the training loop runner's checkpoint.
func (c *Config) LoopStatePath() string {
	return filepath.Join(c.dataDir(), "training", "loop-state.json")
}

func (c *Config) dataDir() string {
	if c.Options.DataDirectory != "" {
		return c.Options.DataDirectory
	}
	return ".openagents"
}

// writeIndented is shared by anything that persists a Config as pretty JSON.
func writeIndented(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: creating directory for %s: %w", path, err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}
