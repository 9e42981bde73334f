// Package main provides the CLI entry point for Logica.
package main

import "github.com/logica-lang/logica/internal/cli"

func main() {
	cli.Execute()
}
