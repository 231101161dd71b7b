package main

import (
	"os"

	"github.com/hausmates/hcal/internal/app"
)

// Populated by the release build via -ldflags.
var (
	version = ""
	commit  = ""
	date    = ""
)

func main() {
	app.SetBuildInfo(version, commit, date)
	os.Exit(app.Execute())
}
