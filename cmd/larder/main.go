// Command larder is the catalog admin CLI: export and import backup files
// against the configured database, and seed a fresh install.
package main

import (
	"fmt"
	"os"
)

func main() {
	cmd := newRootCommand(newCommandContext())
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
