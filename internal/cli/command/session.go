package command

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/pcd-go/internal/cli/connection"
	"github.com/yndnr/pcd-go/internal/cli/output"
)

// SessionCommand returns the session subcommand group.
func SessionCommand() *cli.Command {
	return &cli.Command{
		Name:    "session",
		Aliases: []string{"sess"},
		Usage:   "Open and drive device sessions",
		Subcommands: []*cli.Command{
			{
				Name:   "open",
				Usage:  "Open a session at position 0",
				Action: sessionOpen,
			},
			{
				Name:   "list",
				Usage:  "List open sessions",
				Action: sessionList,
			},
			{
				Name:      "get",
				Usage:     "Show a session's position",
				ArgsUsage: "SESSION_ID",
				Action:    sessionGet,
			},
			{
				Name:      "read",
				Usage:     "Read bytes at the session cursor",
				ArgsUsage: "SESSION_ID",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "length",
						Aliases: []string{"n"},
						Value:   512,
						Usage:   "Number of bytes to read",
					},
					&cli.BoolFlag{
						Name:  "raw",
						Usage: "Write the bytes to stdout instead of a summary",
					},
				},
				Action: sessionRead,
			},
			{
				Name:      "write",
				Usage:     "Write bytes at the session cursor",
				ArgsUsage: "SESSION_ID [DATA]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "Read the data from a file (- for stdin)",
					},
				},
				Action: sessionWrite,
			},
			{
				Name:      "seek",
				Usage:     "Move the session cursor",
				ArgsUsage: "SESSION_ID OFFSET",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "whence",
						Value: "set",
						Usage: "Reference point: set, cur or end",
					},
				},
				Action: sessionSeek,
			},
			{
				Name:      "close",
				Usage:     "Close a session",
				ArgsUsage: "SESSION_ID",
				Action:    sessionClose,
			},
		},
	}
}

func sessionOpen(c *cli.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	sess, err := deviceClient(c).Open(ctx)
	if err != nil {
		return err
	}
	return printResult(c, sess)
}

func sessionList(c *cli.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	sessions, err := deviceClient(c).List(ctx)
	if err != nil {
		return err
	}

	flags := ParseGlobalFlags(c)
	if flags.Output != output.FormatTable {
		return printResult(c, sessions)
	}

	table := &output.Table{Headers: []string{"SESSION ID", "POSITION", "OPENED"}}
	for _, s := range sessions {
		table.AddRow(s.ID, strconv.FormatInt(s.Position, 10), s.OpenedAt.Local().Format("2006-01-02 15:04:05"))
	}
	w := stdout(c)
	if err := table.Render(w); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "\nTotal: %d sessions\n", len(sessions))
	return err
}

func sessionGet(c *cli.Context) error {
	id, err := sessionArg(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	sess, err := deviceClient(c).Get(ctx, id)
	if err != nil {
		return err
	}
	return printResult(c, sess)
}

func sessionRead(c *cli.Context) error {
	id, err := sessionArg(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := deviceClient(c).Read(ctx, id, c.Int("length"))
	if err != nil {
		return err
	}
	if c.Bool("raw") {
		_, err := stdout(c).Write(res.Data)
		return err
	}
	return printResult(c, res)
}

func sessionWrite(c *cli.Context) error {
	id, err := sessionArg(c)
	if err != nil {
		return err
	}
	data, err := inputData(c, 1)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := deviceClient(c).Write(ctx, id, data)
	if err != nil {
		return err
	}
	return printResult(c, res)
}

func sessionSeek(c *cli.Context) error {
	id, err := sessionArg(c)
	if err != nil {
		return err
	}
	if c.NArg() < 2 {
		return fmt.Errorf("offset required")
	}
	offset, err := strconv.ParseInt(c.Args().Get(1), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid offset %q: %w", c.Args().Get(1), err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	pos, err := deviceClient(c).Seek(ctx, id, offset, c.String("whence"))
	if err != nil {
		return err
	}
	return printResult(c, connection.Session{ID: id, Position: pos})
}

func sessionClose(c *cli.Context) error {
	id, err := sessionArg(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := deviceClient(c).Close(ctx, id); err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout(c), "Session %s closed.\n", id)
	return err
}

func sessionArg(c *cli.Context) (string, error) {
	id := c.Args().First()
	if id == "" {
		return "", fmt.Errorf("session ID required")
	}
	return id, nil
}

// inputData returns the bytes to write: the positional argument at idx,
// or the contents of --file.
func inputData(c *cli.Context, idx int) ([]byte, error) {
	if path := c.String("file"); path != "" {
		if path == "-" {
			return io.ReadAll(stdin(c))
		}
		return os.ReadFile(path)
	}
	if c.NArg() <= idx {
		return nil, fmt.Errorf("data required (argument or --file)")
	}
	return []byte(c.Args().Get(idx)), nil
}
