// Command jobscribe extracts job postings and drafts applications.
package main

import (
	"os"

	"github.com/jmylchreest/jobscribe/cmd/jobscribe/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
