// submodule cmd contains command definitions
package main

import (
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/curator/internal/formatter"
)

// setupCommand creates the profile: config file, database schema, and an empty lists file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Initialize configuration, database, and lists file",
		Action: r.Setup,
	}
}

// authCommand links the three accounts the update pipeline needs.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Link tracker, catalog, and recommender accounts",
		Commands: []*cli.Command{
			{
				Name:   "tracker",
				Usage:  "Authorize the watch tracker with a device code",
				Action: r.AuthTracker,
			},
			{
				Name:  "catalog",
				Usage: "Approve catalog list access in the browser",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "manual",
						Usage: "Press Enter after approving instead of waiting for the local callback",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for approval",
						Value: defaultApprovalTimeout,
					},
				},
				Action: r.AuthCatalog,
			},
			{
				Name:  "recommender",
				Usage: "Store the generative model API key",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "key",
						Usage:    "API key",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "skip-check",
						Usage: "Save without validating the key",
					},
				},
				Action: r.AuthRecommender,
			},
			{
				Name:  "status",
				Usage: "Show linked accounts and update state",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "check",
						Usage: "Validate each stored credential against its service",
					},
				},
				Action: r.AuthStatus,
			},
		},
	}
}

// listsCommand manages the configured lists.
func listsCommand(r *Runner) *cli.Command {
	idArg := []cli.Argument{&cli.StringArg{Name: "id"}}

	return &cli.Command{
		Name:    "lists",
		Aliases: []string{"ls"},
		Usage:   "Manage curated lists",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print configured lists",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.ListsShow,
			},
			{
				Name:  "add",
				Usage: "Configure a new list, creating it on the catalog unless --id is given",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Base list name",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "kind",
						Usage: "combined, movie, or show",
						Value: "combined",
					},
					&cli.IntFlag{
						Name:  "count",
						Usage: "Number of titles to request (1-50)",
						Value: 10,
					},
					&cli.StringFlag{
						Name:  "description",
						Usage: "List description",
					},
					&cli.StringFlag{
						Name:  "prompt",
						Usage: "Extra instructions appended to the model prompt",
					},
					&cli.IntFlag{
						Name:  "history",
						Usage: "Attach this many watch history rows (0 to skip)",
					},
					&cli.IntFlag{
						Name:  "watchlist",
						Usage: "Attach this many watchlist rows (0 to skip)",
					},
					&cli.StringFlag{
						Name:  "media-kind",
						Usage: "Restrict attached rows to movie, show, or all",
						Value: "all",
					},
					&cli.BoolFlag{
						Name:  "random",
						Usage: "Sample attached rows randomly instead of newest first",
					},
					&cli.StringFlag{
						Name:  "id",
						Usage: "Use an existing catalog list",
					},
					&cli.BoolFlag{
						Name:  "disabled",
						Usage: "Add the list disabled",
					},
				},
				Action: r.ListsAdd,
			},
			{
				Name:      "enable",
				Usage:     "Include a list in updates",
				Arguments: idArg,
				Action:    r.ListsEnable,
			},
			{
				Name:      "disable",
				Usage:     "Skip a list during updates",
				Arguments: idArg,
				Action:    r.ListsDisable,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Delete a list configuration",
				Arguments: idArg,
				Action:    r.ListsRemove,
			},
			{
				Name:    "edit",
				Aliases: []string{"ui", "tui"},
				Usage:   "Interactive list editor",
				Action:  r.ListsEdit,
			},
		},
	}
}

// updateCommand runs one full update.
func updateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "update",
		Usage: "Sync watch data and regenerate every enabled list",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the run result as JSON",
			},
		},
		Action: r.Update,
	}
}

// syncCommand mirrors tracker data without touching lists.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "sync",
		Usage:  "Mirror watch history and watchlist into the local database",
		Action: r.Sync,
	}
}

// watchCommand keeps the process alive and updates on the configured interval.
func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Run updates on a timer",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "once",
				Usage: "Check once and exit",
			},
		},
		Action: r.Watch,
	}
}

// historyCommand exports mirrored rows.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Inspect mirrored tracker data",
		Commands: []*cli.Command{
			{
				Name:  "export",
				Usage: "Write a local table to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "source",
						Usage: "watch_history or watchlist",
						Value: "watch_history",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "csv, markdown, json, or txt",
						Value:   formatter.FormatCSV,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: <source>.<ext>)",
					},
				},
				Action: r.HistoryExport,
			},
		},
	}
}

// unlockCommand clears a lock left by an interrupted run.
func unlockCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "unlock",
		Usage:  "Remove a stale update lock",
		Action: r.Unlock,
	}
}
