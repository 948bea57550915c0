// Command seatimectl audits sea service and visa usage from local files,
// without a database. Inputs are YAML (or JSON); output is indented JSON.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
