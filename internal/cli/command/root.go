package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/pcd-go/internal/cli/config"
	"github.com/yndnr/pcd-go/internal/cli/connection"
	"github.com/yndnr/pcd-go/internal/cli/output"
	"github.com/yndnr/pcd-go/internal/infra/buildinfo"
)

const (
	metaConfig     = "config"
	metaConfigPath = "configPath"

	requestTimeout = 30 * time.Second
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "pcd-cli",
		Usage:   "pcd command-line client",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			SessionCommand(),
			DeviceCommand(),
			LocalCommand(),
			ConfigCommand(),
		},
		Before: loadConfig,
	}
}

// globalFlags returns the global CLI flags. Defaults come from the config
// file and PCD_* variables, so the flags carry no values of their own.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "pcd server address (default: http://localhost:5080, env: PCD_SERVER)",
		},
		&cli.StringFlag{
			Name:  "socket",
			Usage: "local management socket (env: PCD_SOCKET)",
		},
		&cli.StringFlag{
			Name:  "profile",
			Usage: "named server profile from the config file (env: PCD_PROFILE)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml (env: PCD_OUTPUT)",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.StringFlag{
			Name:  "config",
			Usage: "CLI config file",
			Value: config.DefaultConfigPath(),
		},
	}
}

// loadConfig resolves the effective configuration once per run.
func loadConfig(c *cli.Context) error {
	path := c.String("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	cfg = config.Merge(cfg, config.Environ(), map[string]string{
		"server":  c.String("server"),
		"output":  c.String("output"),
		"socket":  c.String("socket"),
		"profile": c.String("profile"),
	})
	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, err := output.ParseFormat(cfg.DefaultOutput); err != nil {
		return err
	}
	c.App.Metadata[metaConfig] = cfg
	c.App.Metadata[metaConfigPath] = path
	return nil
}

// GlobalFlags holds the resolved global settings.
type GlobalFlags struct {
	Server string
	Socket string
	Output output.Format
	Wide   bool
}

// ParseGlobalFlags returns the resolved global settings.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	cfg, ok := c.App.Metadata[metaConfig].(*config.CLIConfig)
	if !ok {
		cfg = config.Merge(config.Default(), nil, map[string]string{
			"server": c.String("server"),
			"output": c.String("output"),
			"socket": c.String("socket"),
		})
	}
	format, err := output.ParseFormat(cfg.DefaultOutput)
	if err != nil {
		format = output.FormatTable
	}
	return &GlobalFlags{
		Server: cfg.Server(),
		Socket: cfg.Socket(),
		Output: format,
		Wide:   c.Bool("wide"),
	}
}

// deviceClient returns an HTTP client for the configured server.
func deviceClient(c *cli.Context) *connection.DeviceClient {
	return connection.NewDeviceClient(ParseGlobalFlags(c).Server)
}

func requestContext(c *cli.Context) (context.Context, context.CancelFunc) {
	parent := c.Context
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, requestTimeout)
}

func stdout(c *cli.Context) io.Writer {
	if c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}

func stdin(c *cli.Context) io.Reader {
	if c.App.Reader != nil {
		return c.App.Reader
	}
	return os.Stdin
}

// printResult writes data in the selected output format.
func printResult(c *cli.Context, data any) error {
	flags := ParseGlobalFlags(c)
	return output.NewFormatter(flags.Output, flags.Wide).Format(stdout(c), data)
}

// isEndOfStorage reports whether err is the server's end-of-storage error.
func isEndOfStorage(err error) bool {
	var apiErr *connection.APIError
	return errors.As(err, &apiErr) && apiErr.Code == "PCD-DEV-4161"
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}

func stderr(c *cli.Context) io.Writer {
	if c.App.ErrWriter != nil {
		return c.App.ErrWriter
	}
	return os.Stderr
}
