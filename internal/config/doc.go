// Package config loads and validates the FreightPulse configuration.
//
// Configuration is layered: defaults, then an optional YAML file, then
// environment variables with the FREIGHTPULSE prefix. A .env file in
// the working directory is honored when present. All thresholds,
// source URLs, and file paths live here so components can be unit
// tested without environment coupling.
package config
