// main is the entry point for the liferaft CLI.
package main

import (
	"github.com/liferaft/liferaft/cmd"
	"github.com/liferaft/liferaft/internal/contract"
	"github.com/liferaft/liferaft/internal/registry"
)

func main() {
	err := cmd.Execute()

	// LogFatal exits, so close handles before reporting
	registry.CloseStores()

	if err != nil {
		contract.LogFatal("Command failed", err)
	}
}
