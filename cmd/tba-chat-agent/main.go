package main

import (
	"os"

	"github.com/quantumauth-io/quantum-go-utils/log"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error("tba-chat-agent failed", "error", err)
		os.Exit(1)
	}
}
