// Package main provides the guildhall CLI: the guild's Discord bot, its web
// site, and the supporting maintenance commands.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
