package cmd

import (
	"github.com/marcus/vcpull/internal/output"
	versionpkg "github.com/marcus/vcpull/internal/version"
	"github.com/spf13/cobra"
)

func newVersionCmd(a *app) *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.out.Info("vcpull %s", version)
			if !check {
				return nil
			}

			result := versionpkg.CheckCached(cmd.Context(), version)
			switch {
			case result.Err != nil:
				a.out.Warning("update check failed: %v", result.Err)
			case result.HasUpdate:
				a.out.Warning("%s is available: %s", result.Latest, result.URL)
				if upd := versionpkg.UpdateCommand(result.Latest); upd != "" {
					a.out.Info("  %s", output.Code(upd))
				}
			case versionpkg.IsDevelopmentVersion(version):
				a.out.Subtle("development build, update check skipped")
			default:
				a.out.Success("up to date")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "check GitHub for a newer release")
	return cmd
}
