package main

import (
	_ "embed"
	"strings"

	"kahla/cmd"
)

//go:embed VERSION
var embeddedVersion string

// A -ldflags version wins over the VERSION file.
func init() {
	if v := strings.TrimSpace(embeddedVersion); v != "" && cmd.Version == "dev" {
		cmd.Version = v
		cmd.ApplyVersion()
	}
}
