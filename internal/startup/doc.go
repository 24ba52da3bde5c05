// Package startup loads configuration from the environment, prints the
// startup banner and configuration report, and provides the structured
// lifecycle log helpers used by main.
package startup
