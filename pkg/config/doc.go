// Package config defines the verdict service configuration.
//
// Configuration lives in a single YAML file with one section per
// subsystem (server, policy, ledger, telemetry). Loading follows a
// fixed sequence: parse the file, fill in defaults, apply
// VERDICT_SECTION_FIELD environment overrides, then validate. All
// validation failures are collected and reported together so a broken
// config surfaces every problem in one pass.
package config
