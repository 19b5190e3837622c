// Package main is the single-binary entrypoint for the planner.
package main

import "github.com/taskplanner/planner/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
