package main

import (
	"os"

	"pelohub/cmd"
	"pelohub/internal/log"
	"pelohub/pkg/build"
)

func main() {
	// Initialize build information including version, commit hash, and build time
	if err := build.Initialize(); err != nil {
		log.Warnf("Build: using default build info: %v", err)
	}

	os.Exit(cmd.Execute())
}
