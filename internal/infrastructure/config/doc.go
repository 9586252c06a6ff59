// Package config loads and validates hearthctl configuration.
//
// Configuration is layered: hardcoded defaults, then the YAML file,
// then an optional .env file, then HEARTHCTL_* environment variables.
// Later layers win. Secrets (hub token, broker passwords) should be
// supplied via the environment rather than the YAML file.
package config
