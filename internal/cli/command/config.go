package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/pcd-go/internal/cli/config"
	"github.com/yndnr/pcd-go/internal/cli/output"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage the CLI configuration",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective configuration",
				Action: configShow,
			},
			{
				Name:      "set-profile",
				Usage:     "Add or update a named server profile",
				ArgsUsage: "NAME",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "server", Usage: "HTTP address of the profile"},
					&cli.StringFlag{Name: "socket", Usage: "local socket of the profile"},
					&cli.BoolFlag{Name: "use", Usage: "Make it the current profile"},
				},
				Action: configSetProfile,
			},
			{
				Name:      "use",
				Usage:     "Select the current profile (empty to clear)",
				ArgsUsage: "[NAME]",
				Action:    configUse,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	flags := ParseGlobalFlags(c)
	if flags.Output != output.FormatTable {
		return printResult(c, currentConfig(c))
	}
	table := &output.Table{Headers: []string{"SETTING", "VALUE"}}
	table.AddRow("server", flags.Server)
	table.AddRow("socket", flags.Socket)
	table.AddRow("output", string(flags.Output))
	table.AddRow("profile", currentConfig(c).CurrentProfile)
	table.AddRow("file", configPath(c))
	return table.Render(stdout(c))
}

func configSetProfile(c *cli.Context) error {
	name := c.Args().First()
	if name == "" {
		return fmt.Errorf("profile name required")
	}
	cfg, err := config.Load(configPath(c))
	if err != nil {
		return err
	}
	p := cfg.Profiles[name]
	if s := c.String("server"); s != "" {
		p.Server = s
	}
	if s := c.String("socket"); s != "" {
		p.Socket = s
	}
	cfg.Profiles[name] = p
	if c.Bool("use") {
		cfg.CurrentProfile = name
	}
	if err := config.Save(cfg, configPath(c)); err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout(c), "Profile %q saved.\n", name)
	return err
}

func configUse(c *cli.Context) error {
	cfg, err := config.Load(configPath(c))
	if err != nil {
		return err
	}
	cfg.CurrentProfile = c.Args().First()
	if err := cfg.Validate(); err != nil {
		return err
	}
	return config.Save(cfg, configPath(c))
}

func currentConfig(c *cli.Context) *config.CLIConfig {
	if cfg, ok := c.App.Metadata[metaConfig].(*config.CLIConfig); ok {
		return cfg
	}
	return config.Default()
}

func configPath(c *cli.Context) string {
	if p, ok := c.App.Metadata[metaConfigPath].(string); ok && p != "" {
		return p
	}
	return c.String("config")
}
