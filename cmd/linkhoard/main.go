// Package main provides the entry point for the linkhoard CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/linkhoard/linkhoard/internal/cli"
)

func main() {
	// A .env in the working directory overrides nothing already exported.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
