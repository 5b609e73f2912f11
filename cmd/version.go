package cmd

import "fmt"

// Version information (injected at build time via ldflags).
var (
	AppVersion = "0.1.0"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

// runVersion displays version information.
func runVersion() {
	fmt.Printf("vaccine-ai %s\n", AppVersion)
	fmt.Printf("Build: %s\n", BuildTime)
	fmt.Printf("Commit: %s\n", GitCommit)
}
