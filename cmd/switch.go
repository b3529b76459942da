package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/marcus/vcpull/internal/apiclient"
	"github.com/marcus/vcpull/internal/globalconfig"
	"github.com/marcus/vcpull/internal/output"
	"github.com/marcus/vcpull/internal/setup"
	"github.com/marcus/vcpull/internal/suggest"
	"github.com/spf13/cobra"
)

const personalScope = "personal"

func newSwitchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "switch [team]",
		Short: "Set the default team used when linking with --yes",
		Long: `Sets current_team in the global config. Pass a team slug or ID, or
"personal" to link new directories to your personal account.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.authedClient()
			if err != nil {
				return err
			}
			teams, err := client.ListTeams(cmd.Context())
			if err != nil {
				return fmt.Errorf("list teams: %w", err)
			}

			var choice string
			if len(args) > 0 {
				choice = args[0]
			} else {
				if !output.IsInteractive() {
					return errors.New("no team given: pass a team slug or run in a terminal")
				}
				choices := []setup.Choice{{Label: "Personal account", Value: personalScope}}
				for _, t := range teams {
					choices = append(choices, setup.Choice{Label: t.Name + " (" + t.Slug + ")", Value: t.ID})
				}
				choice, err = setup.HuhPrompter{}.Select(cmd.Context(), "Switch to scope", choices)
				if errors.Is(err, huh.ErrUserAborted) {
					return nil
				}
				if err != nil {
					return err
				}
			}

			team, err := matchTeam(teams, choice)
			if err != nil {
				return err
			}

			cfg, err := globalconfig.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg.CurrentTeam = ""
			label := personalScope
			if team != nil {
				cfg.CurrentTeam = team.ID
				label = team.Slug
			}
			if err := globalconfig.SaveConfig(cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			a.out.Success("%s  Switched to %s", output.EmojiSuccess, output.Bold(label))
			return nil
		},
	}
}

// matchTeam finds choice by ID or slug; "personal" returns nil.
func matchTeam(teams []apiclient.Team, choice string) (*apiclient.Team, error) {
	if choice == personalScope {
		return nil, nil
	}
	for i, t := range teams {
		if t.ID == choice || t.Slug == choice {
			return &teams[i], nil
		}
	}
	var names []string
	for _, t := range teams {
		names = append(names, t.Slug)
	}
	if matches := suggest.Closest(choice, names); len(matches) > 0 {
		return nil, fmt.Errorf("%w: team %s (did you mean %s?)", apiclient.ErrNotFound, choice, strings.Join(matches, ", "))
	}
	return nil, fmt.Errorf("%w: team %s", apiclient.ErrNotFound, choice)
}
