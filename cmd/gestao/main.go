// main.go - dashboard server and command line reports
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newCLI().rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
