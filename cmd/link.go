package cmd

import (
	"fmt"

	"github.com/marcus/vcpull/internal/output"
	"github.com/marcus/vcpull/internal/projectlink"
	"github.com/marcus/vcpull/internal/pull"
	"github.com/spf13/cobra"
)

func newLinkCmd(a *app) *cobra.Command {
	var flags pullFlags
	cmd := &cobra.Command{
		Use:   "link [path]",
		Short: "Link a directory to a project without downloading variables",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolveDir(args)
			if err != nil {
				return err
			}
			client, err := a.authedClient()
			if err != nil {
				return err
			}

			switch outcome := a.resolver(client).Resolve(cmd.Context(), dir, flags.yes).(type) {
			case pull.Linked:
				link := outcome.Link
				if err := (projectlink.Persister{}).Persist(dir, link.Project, link.Org); err != nil {
					return fmt.Errorf("save project settings: %w", err)
				}
				a.out.Info("%s  %s is linked to %s", output.EmojiLink, dir,
					output.Bold(link.Org.Slug+"/"+link.Project.Name))
				return nil
			case pull.Failed:
				return &ExitError{Code: outcome.Code}
			default:
				return nil
			}
		},
	}
	flags.register(cmd.Flags(), false)
	return cmd
}

func newUnlinkCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unlink [path]",
		Short: "Remove the project link from a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolveDir(args)
			if err != nil {
				return err
			}
			removed, err := projectlink.Remove(dir)
			if err != nil {
				return fmt.Errorf("unlink: %w", err)
			}
			if !removed {
				a.out.Warning("%s is not linked", dir)
				return nil
			}
			a.out.Success("%s  Unlinked %s", output.EmojiSuccess, dir)
			return nil
		},
	}
}
