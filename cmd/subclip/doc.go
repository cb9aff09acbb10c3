// Package main hosts the subclip CLI.
//
// The Cobra command tree resolves configuration once, builds the harvesting
// pipeline from internal packages and renders results for the terminal.
// Dataset logic lives in internal/; commands here only wire and print.
package main
