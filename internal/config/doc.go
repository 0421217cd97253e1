// Package config defines the application's typed configuration and its layered
// loading: built-in defaults, an optional YAML file, ARXIV_-prefixed
// environment variables, and finally CLI flags applied by the commands.
// Validation happens eagerly at load time so a misconfigured process stops
// before touching the network or the data directory.
package config
