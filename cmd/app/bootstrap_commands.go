package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/jediahjireh/credential-management/cmd/app/commands"
	"github.com/jediahjireh/credential-management/internal/app"
	"github.com/jediahjireh/credential-management/internal/config"
)

func getBootstrapCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-admin",
			Usage: "Register a new user with the admin role",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "username",
					Aliases:  []string{"u"},
					Required: true,
					Usage:    "Username for the new admin",
				},
				&cli.StringFlag{
					Name:     "email",
					Aliases:  []string{"e"},
					Required: true,
					Usage:    "Email address for the new admin",
				},
				&cli.StringFlag{
					Name:     "secret",
					Aliases:  []string{"s"},
					Required: true,
					Usage:    "Login secret for the new admin",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				userUseCase, err := container.UserUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreateAdmin(
					ctx,
					userUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("username"),
					cmd.String("email"),
					cmd.String("secret"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "create-ou",
			Usage: "Create a new organisational unit with divisions",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "name",
					Aliases:  []string{"n"},
					Required: true,
					Usage:    "Name of the organisational unit",
				},
				&cli.StringSliceFlag{
					Name:    "division",
					Aliases: []string{"d"},
					Usage:   "Division name (repeat for multiple divisions)",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				orgUnitUseCase, err := container.OrgUnitUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreateOrgUnit(
					ctx,
					orgUnitUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("name"),
					cmd.StringSlice("division"),
					cmd.String("format"),
				)
			},
		},
	}
}
