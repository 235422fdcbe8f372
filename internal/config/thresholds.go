package config

import "runtime"

// Resolution chain for sizing values (highest priority first):
//   1. CLI flags (--workers, --iterations)
//   2. Environment variables (TASKBENCH_WORKERS, ...), then the .env file
//   3. Hardware estimation (this file), for values explicitly set to 0
//   4. Static defaults in Defaults

// ApplyAdaptiveDefaults resolves zero sizing values from the hardware.
// Workers=0 means one worker per logical CPU; Iterations=0 restores the
// default iteration budget.
func ApplyAdaptiveDefaults(cfg AppConfig) AppConfig {
	if cfg.Workers == 0 {
		cfg.Workers = EstimateWorkers()
	}
	if cfg.Iterations == 0 {
		cfg.Iterations = DefaultIterations
	}
	return cfg
}

// EstimateWorkers returns a pool size that keeps every logical CPU busy.
func EstimateWorkers() int {
	return max(1, runtime.NumCPU())
}
