// Package config provides layered service configuration: baseline defaults,
// an optional YAML file, then MNR_* environment overrides, validated as a
// whole.
package config
