package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Bubble  BubbleConfig  `mapstructure:"bubble"`
	Graph   GraphConfig   `mapstructure:"graph"`
	Neo4j   Neo4jConfig   `mapstructure:"neo4j"`
	Tracing TracingConfig `mapstructure:"tracing"`
	Audit   AuditConfig   `mapstructure:"audit"`
	Monitor MonitorConfig `mapstructure:"monitor"`
	Log     LogConfig     `mapstructure:"log"`
}

type BubbleConfig struct {
	Mode string `mapstructure:"mode"`

	// KmerSize overrides the k stored in the graph file when positive.
	KmerSize int `mapstructure:"kmer_size"`

	// MaxPathLength bounds bubble exploration in bases; 0 means 2*k.
	MaxPathLength int `mapstructure:"max_path_length"`

	CoverageCutoff float64 `mapstructure:"coverage_cutoff"`

	// MaxRounds caps repeated passes; 0 runs until nothing changes.
	MaxRounds int `mapstructure:"max_rounds"`

	ProgressEvery   int  `mapstructure:"progress_every"`
	VerifyAdjacency bool `mapstructure:"verify_adjacency"`

	// ExciseRuns removes the whole pass-through run of a deleted branch.
	ExciseRuns bool `mapstructure:"excise_runs"`
}

// PathLengthBound returns the exploration bound for a graph built from
// k-mers of size k.
func (c BubbleConfig) PathLengthBound(k int) int {
	if c.MaxPathLength > 0 {
		return c.MaxPathLength
	}
	return 2 * k
}

type GraphConfig struct {
	Input  string `mapstructure:"input"`
	Output string `mapstructure:"output"`
	// Truth is an optional JSON table of true node multiplicities.
	Truth string `mapstructure:"truth"`
}

type Neo4jConfig struct {
	URI       string `mapstructure:"uri"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	GraphName string `mapstructure:"graph_name"`
}

type TracingConfig struct {
	ServiceName  string  `mapstructure:"service_name"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	Insecure     bool    `mapstructure:"insecure"`
	SampleRate   float64 `mapstructure:"sample_rate"`
}

type AuditConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	OutputPath string `mapstructure:"output_path"`
}

// MonitorConfig enables the live run monitor when Listen is set.
type MonitorConfig struct {
	Listen string `mapstructure:"listen"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	switch c.Bubble.Mode {
	case "", "extract", "fused":
	default:
		warnings = append(warnings, fmt.Sprintf("bubble mode '%s' is unknown (use extract or fused)", c.Bubble.Mode))
	}

	if c.Bubble.CoverageCutoff <= 0 {
		warnings = append(warnings, fmt.Sprintf("bubble coverage_cutoff %.2f removes nothing", c.Bubble.CoverageCutoff))
	}

	if c.Bubble.MaxPathLength < 0 {
		warnings = append(warnings, fmt.Sprintf("bubble max_path_length %d is negative", c.Bubble.MaxPathLength))
	}

	if c.Bubble.MaxRounds < 0 {
		warnings = append(warnings, fmt.Sprintf("bubble max_rounds %d is negative", c.Bubble.MaxRounds))
	}

	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1.0 {
		warnings = append(warnings, fmt.Sprintf("tracing sample_rate %.2f is outside [0.0, 1.0]", c.Tracing.SampleRate))
	}

	if c.Neo4j.URI != "" && c.Neo4j.Password == "" {
		warnings = append(warnings, fmt.Sprintf("neo4j uri '%s' is configured but password is empty", c.Neo4j.URI))
	}

	return warnings
}

// setDefaults registers every key. Unmarshal only sees keys viper knows
// about, so a key without a default cannot be set from the environment.
func setDefaults(v *viper.Viper) {
	v.SetDefault("bubble.mode", "extract")
	v.SetDefault("bubble.kmer_size", 0)
	v.SetDefault("bubble.max_path_length", 0)
	v.SetDefault("bubble.coverage_cutoff", 5.0)
	v.SetDefault("bubble.max_rounds", 0)
	v.SetDefault("bubble.progress_every", 100000)
	v.SetDefault("bubble.verify_adjacency", false)
	v.SetDefault("bubble.excise_runs", false)
	v.SetDefault("graph.input", "")
	v.SetDefault("graph.output", "")
	v.SetDefault("graph.truth", "")
	v.SetDefault("neo4j.uri", "")
	v.SetDefault("neo4j.username", "neo4j")
	v.SetDefault("neo4j.password", "")
	v.SetDefault("neo4j.graph_name", "default")
	v.SetDefault("tracing.service_name", "bubbler")
	v.SetDefault("tracing.otlp_endpoint", "")
	v.SetDefault("tracing.insecure", true)
	v.SetDefault("tracing.sample_rate", 1.0)
	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.output_path", "stderr")
	v.SetDefault("monitor.listen", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration from file and environment. An empty path uses
// defaults and BUBBLER_* environment variables only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("BUBBLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if warnings := cfg.Validate(); len(warnings) > 0 {
		for _, warning := range warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
		}
	}

	return &cfg, nil
}
