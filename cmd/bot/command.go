package main

import "github.com/urfave/cli/v2"

var flags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path of the TOML config file",
		EnvVars: []string{"CONFIG_FILE"},
	},
	&cli.StringFlag{
		Name:  "env",
		Value: ".env",
		Usage: "Path of the dotenv file, ignored when missing",
	},
}

// loadApp creates an app with sane defaults.
func (s *srv) loadApp() {
	s.app = cli.NewApp()
	s.app.Action = cli.ShowAppHelp
	s.app.Name = "trixbot"
	s.app.Usage = "Community bot of the channel"
	s.app.Flags = flags
	s.app.Commands = []*cli.Command{
		{
			Action:      s.startBot,
			Name:        "bot",
			Usage:       "Start the bot",
			Flags:       flags,
			Category:    "Bot",
			Description: `Polls the chat platform and serves publications, moderation and games.`,
		},
		{
			Action:      s.startMigrate,
			Name:        "migrate",
			Usage:       "Apply database migrations",
			Flags:       flags,
			Category:    "Database",
			Description: `Applies the migrations that are not recorded in the database yet.`,
		},
	}
}
