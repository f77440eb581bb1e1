// Package cmd holds build metadata for the localvcs binary, set with
// -ldflags "-X github.com/KrolPower/LocalVCS/cmd.Version=...".
package cmd

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
