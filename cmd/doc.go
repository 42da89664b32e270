// Package cmd implements the command-line interface for todoist-daily.
//
// This package provides the following commands:
//   - serve: Start the web dashboard with Todoist OAuth login
//   - report: Print the daily report for a personal access token
//   - generate-key: Generate a cookie encryption key
//   - version: Display version information
//
// Every command accepts the configuration flags registered by the config
// package; each flag can also be set through its environment variable.
package cmd
