// Package config loads simulator settings from environment variables
// with validated defaults.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// AppConfig holds configuration values parsed from environment
// variables with the FLASHSIM_ prefix.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity.
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// Events is the number of accesses to simulate.
	Events int `koanf:"events" validate:"required,gte=1"`

	// StatsPeriod is the number of events between periodic collections.
	StatsPeriod int `koanf:"stats_period" validate:"required,gte=1"`

	// Seed makes the synthetic workload reproducible.
	Seed int64 `koanf:"seed"`

	// Keyspace is the number of distinct object keys in the workload.
	Keyspace uint64 `koanf:"keyspace" validate:"required,gte=1"`

	// ObjectMinBytes and ObjectMaxBytes bound the per-object sizes.
	ObjectMinBytes uint64 `koanf:"object_min_bytes" validate:"required,gte=1"`
	ObjectMaxBytes uint64 `koanf:"object_max_bytes" validate:"required,gtefield=ObjectMinBytes"`

	// ContainerBytes is the capacity of one flash container;
	// Containers is how many of them the flash holds.
	ContainerBytes uint64 `koanf:"container_bytes" validate:"required,gte=1"`
	Containers     int    `koanf:"containers" validate:"required,gte=2"`

	// DRAMEntries sizes the DRAM front buffer (0 disables it).
	DRAMEntries int `koanf:"dram_entries" validate:"gte=0"`

	// CopyFwdLimit caps objects copied forward per reclaimed container.
	CopyFwdLimit int `koanf:"copyfwd_limit" validate:"gte=0"`

	// Policy selects the recency policy: "lru" or "arc".
	Policy string `koanf:"policy" validate:"required,oneof=lru arc"`

	// Optional metric sets (see stats.Options).
	RedundancyAware  bool `koanf:"redundancy_aware"`
	ExtendedSegments bool `koanf:"extended_segments"`
	DRAMCounters     bool `koanf:"dram_counters"`

	// RunName labels this run in logs and the results store.
	RunName string `koanf:"run_name" validate:"required"`

	// ResultsDB is the path of the bbolt results database. Empty means
	// the report goes to stdout only.
	ResultsDB string `koanf:"results_db"`
}

// DEFAULT_APP_CONFIG defines the default simulation parameters: a small
// flash of 32 containers of 4 MiB, a 100k-key zipf workload, and the
// fuller observed metric variant (redundancy-aware accounting).
var DEFAULT_APP_CONFIG = AppConfig{
	Env:              "prod",
	LogLevel:         "info",
	Events:           1000000,
	StatsPeriod:      100000,
	Seed:             1,
	Keyspace:         100000,
	ObjectMinBytes:   4096,
	ObjectMaxBytes:   65536,
	ContainerBytes:   4 * 1024 * 1024,
	Containers:       32,
	DRAMEntries:      1024,
	CopyFwdLimit:     32,
	Policy:           "lru",
	RedundancyAware:  true,
	ExtendedSegments: false,
	DRAMCounters:     false,
	RunName:          "run",
	ResultsDB:        "",
}

// envLoader loads environment variables with the prefix "FLASHSIM_",
// lowercasing keys and trimming the prefix. A var so tests can mock it.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "FLASHSIM_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "FLASHSIM_"))
			return key, strings.TrimSpace(value)
		},
	}), nil)
}

// defaultLoader loads DEFAULT_APP_CONFIG through the structs provider.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// Load parses environment variables and returns an AppConfig instance.
// It applies default values and runs validation automatically.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
