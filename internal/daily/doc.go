// Package daily builds the "yesterday / today" report for a single Todoist project.
//
// A report is built in three sequential steps:
//
//  1. find the configured project by exact name
//  2. fetch the tasks due today and resolve their parent labels
//  3. fetch the tasks completed yesterday, re-fetch each in full and resolve
//     their parent labels
//
// Task fetches inside a step run concurrently; the first failure cancels the
// rest of the step and fails the report.
//
// Every task in a report carries a display label built from its top-most
// ancestor:
//
//	Ship release 👉 Write changelog
package daily
