package command

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/pcd-go/internal/cli/connection"
)

// LocalCommand returns the local management subcommand group.
func LocalCommand() *cli.Command {
	run := func(cmd string) cli.ActionFunc {
		return func(c *cli.Context) error {
			line := cmd
			if c.NArg() > 0 {
				line += " " + strings.Join(c.Args().Slice(), " ")
			}
			return localExec(c, line)
		}
	}

	return &cli.Command{
		Name:  "local",
		Usage: "Query the server over its local Unix socket",
		Subcommands: []*cli.Command{
			{Name: "status", Usage: "Show device status and build", Action: run("status")},
			{Name: "sessions", Usage: "List open sessions", Action: run("sessions")},
			{Name: "digest", Usage: "Show the storage digest", Action: run("digest")},
			{Name: "dump", Usage: "Hex dump the storage contents", Action: run("dump")},
			{
				Name:      "loglevel",
				Usage:     "Show or change the server log level",
				ArgsUsage: "[LEVEL]",
				Action:    run("loglevel"),
			},
		},
	}
}

func localExec(c *cli.Context, line string) error {
	client := connection.NewSocketClient(ParseGlobalFlags(c).Socket)
	if err := client.Connect(); err != nil {
		return fmt.Errorf("connect local socket: %w", err)
	}
	defer client.Close()

	lines, err := client.Execute(line)
	if err != nil {
		return err
	}
	w := stdout(c)
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}
