package main

import (
	"os"
	"runtime/debug"

	"github.com/marcus/vcpull/cmd"
)

// Version is stamped by release builds with -ldflags "-X main.Version=vX.Y.Z".
var Version string

func main() {
	cmd.SetVersion(buildVersion(Version, debug.ReadBuildInfo))
	os.Exit(cmd.Execute())
}

// buildVersion picks, in order: the stamped version, the module version that
// go install records, or devel+<rev>[+dirty] for a source checkout.
func buildVersion(stamped string, readInfo func() (*debug.BuildInfo, bool)) string {
	if stamped != "" {
		return stamped
	}
	info, ok := readInfo()
	if !ok || info == nil {
		return "dev"
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}

	var rev string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if rev == "" {
		return "dev"
	}
	v := "devel+" + rev[:min(len(rev), 12)]
	if dirty {
		v += "+dirty"
	}
	return v
}
