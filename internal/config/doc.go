// Package config loads the todoist-daily settings from command-line flags,
// environment variables and an optional YAML file.
//
// Every setting has a flag and an environment variable named after the
// original deployment variables (TODOIST_CLIENT_ID, BASE_PATH, ...). Flags
// given on the command line win over the environment, which wins over the
// config file, which wins over the built-in defaults.
package config
