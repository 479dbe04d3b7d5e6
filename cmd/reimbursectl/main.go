// Package main is the entry point for the reimbursectl admin CLI.
package main

import (
	"os"

	"github.com/garyjia/fleet-reimbursement/cmd/reimbursectl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
