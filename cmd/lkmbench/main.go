// lkmbench evaluates machine-generated Linux kernel module code: single-file
// scoring, iterative feedback training, and multi-model comparison runs.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
