package main

import (
	"fmt"
	"os"

	"notification-delivery/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "alertctl:", err)
		os.Exit(1)
	}
}
