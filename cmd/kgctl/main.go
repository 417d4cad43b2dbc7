// Command kgctl queries the pharmaceutical knowledge graph from the shell.
// It builds the same seeded graph as the API server, optionally extended
// with a seed file, and prints every result as indented JSON.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
