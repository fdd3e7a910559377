// Package config manages stageport configuration.
//
// It handles:
//   - Defaults for the stage and its container managers
//   - A YAML or TOML config file, located by flag, STAGEPORT_CONFIG or the user config dir
//   - STAGEPORT_* environment overrides
package config
