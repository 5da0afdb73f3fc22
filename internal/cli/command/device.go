package command

import (
	"bytes"
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/pcd-go/internal/cli/connection"
)

const catChunk = 128

// DeviceCommand returns the device subcommand group.
func DeviceCommand() *cli.Command {
	return &cli.Command{
		Name:    "device",
		Aliases: []string{"dev"},
		Usage:   "Inspect the device and transfer whole buffers",
		Subcommands: []*cli.Command{
			{
				Name:   "info",
				Usage:  "Show device identity, counters and digest",
				Action: deviceInfo,
			},
			{
				Name:  "cat",
				Usage: "Print the storage contents from offset 0 to the end",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "trim",
						Usage: "Drop trailing zero bytes",
					},
				},
				Action: deviceCat,
			},
			{
				Name:      "put",
				Usage:     "Write data at an offset using a short-lived session",
				ArgsUsage: "[DATA]",
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:  "offset",
						Usage: "Start position",
					},
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "Read the data from a file (- for stdin)",
					},
				},
				Action: devicePut,
			},
		},
	}
}

func deviceInfo(c *cli.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	info, err := deviceClient(c).Device(ctx)
	if err != nil {
		return err
	}
	return printResult(c, info)
}

func deviceCat(c *cli.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	client := deviceClient(c)
	var buf bytes.Buffer
	err := withSession(ctx, client, func(id string) error {
		for {
			res, err := client.Read(ctx, id, catChunk)
			if isEndOfStorage(err) {
				return nil
			}
			if err != nil {
				return err
			}
			buf.Write(res.Data)
		}
	})
	if err != nil {
		return err
	}

	data := buf.Bytes()
	if c.Bool("trim") {
		data = bytes.TrimRight(data, "\x00")
	}
	_, err = stdout(c).Write(data)
	return err
}

func devicePut(c *cli.Context) error {
	data, err := inputData(c, 0)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	client := deviceClient(c)
	var res *connection.WriteResult
	err = withSession(ctx, client, func(id string) error {
		if _, err := client.Seek(ctx, id, c.Int64("offset"), "set"); err != nil {
			return err
		}
		res, err = client.Write(ctx, id, data)
		return err
	})
	if err != nil {
		return err
	}
	if res.BytesWritten < len(data) {
		fmt.Fprintf(stderr(c), "short write: %d of %d bytes\n", res.BytesWritten, len(data))
	}
	return printResult(c, res)
}

// withSession opens a session, runs fn and always closes the session.
func withSession(ctx context.Context, client *connection.DeviceClient, fn func(id string) error) error {
	sess, err := client.Open(ctx)
	if err != nil {
		return err
	}
	err = fn(sess.ID)
	if cerr := client.Close(context.WithoutCancel(ctx), sess.ID); err == nil {
		err = cerr
	}
	return err
}
