// Package config reads environment variables into tagged structs with
// caarlos0/env. A .env file in the working directory is loaded once, before
// the first Load, and never overrides variables that are already set.
//
//	var cfg app.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
// Load caches the first result per type, so components that read the same
// struct agree on its values. Parse skips the cache and ParseWithEnv reads
// from a map instead of the process environment, which is what tests use.
package config
