// Package main is the single-binary entrypoint for momentum.
package main

import "github.com/productive-me/momentum/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
