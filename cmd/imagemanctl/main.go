// Package main is imagemanctl, a thin command-line wrapper around the
// imageman client library.
package main

import (
	"fmt"
	"os"

	imageman "github.com/volcanic/imageman-go"
)

func main() {
	cfg := imageman.ConfigFromEnv()

	if err := newRootCmd(cfg).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
