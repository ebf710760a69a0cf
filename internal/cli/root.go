package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	req "github.com/bmcszk/go-req"
)

// errUnsuccessfulStatus makes the command exit with 1 without printing an error.
var errUnsuccessfulStatus = errors.New("response status is not successful")

const (
	flagFile          = "file"
	flagOut           = "out"
	flagIncludeHeader = "include-header"
	flagVar           = "var"
	flagEnvFile       = "env-file"
	flagCurl          = "curl"
	flagDryrun        = "dryrun"
	flagCopy          = "copy"
	flagSelect        = "select"
	flagFormat        = "format"
	flagDebug         = "debug"
	flagLogFile       = "log-file"

	defaultFile = "./req.toml"
	envPrefix   = "REQ"
)

type options struct {
	name          string
	file          string
	out           string
	includeHeader bool
	vars          []string
	envFile       string
	curl          bool
	dryrun        bool
	copy          bool
	selectExpr    string
	format        string
	debug         bool
	logFile       string
}

// Execute runs the req command with the process arguments and returns the exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return Run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

// Run runs the req command with explicit arguments and streams.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if args == nil {
		// cobra reads os.Args when given nil
		args = []string{}
	}
	cmd := newRootCmd(stdin, stdout, stderr)
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errUnsuccessfulStatus) {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var opts options
	v := viper.New()

	cmd := &cobra.Command{
		Use:           "req [NAME]",
		Short:         "Send HTTP requests defined as tasks in a TOML or YAML file",
		Version:       req.Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return v.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.name = args[0]
			}
			opts.file = v.GetString(flagFile)
			opts.envFile = v.GetString(flagEnvFile)
			opts.format = v.GetString(flagFormat)
			opts.logFile = v.GetString(flagLogFile)
			opts.debug = v.GetBool(flagDebug)

			r := &runner{opts: opts, stdin: stdin, stdout: stdout, stderr: stderr}
			return r.run(cmd.Context())
		},
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	flags := cmd.Flags()
	flags.StringVarP(&opts.file, flagFile, "f", defaultFile, "Read task definitions from `DEF` (- for stdin)")
	flags.StringVarP(&opts.out, flagOut, "o", "", "Write result to `OUTPUT`")
	flags.BoolVarP(&opts.includeHeader, flagIncludeHeader, "i", false, "Include response headers in the output")
	flags.StringArrayVarP(&opts.vars, flagVar, "v", nil, "Pass variable in the form `KEY=VALUE`")
	flags.StringVarP(&opts.envFile, flagEnvFile, "e", "", "Load variables from environment `FILE`")
	flags.BoolVar(&opts.curl, flagCurl, false, "Print compatible curl command")
	flags.BoolVar(&opts.dryrun, flagDryrun, false, "Dump the resolved task without sending the request")
	flags.BoolVar(&opts.copy, flagCopy, false, "Copy the curl command to the clipboard (with --curl)")
	flags.StringVar(&opts.selectExpr, flagSelect, "", "Print the result of a JSONPath `EXPR` over the JSON response")
	flags.StringVar(&opts.format, flagFormat, "", "Document format: toml or yaml (default by file extension)")
	flags.BoolVar(&opts.debug, flagDebug, false, "Enable debug logging")
	flags.StringVar(&opts.logFile, flagLogFile, "", "Write JSON logs to `PATH` with rotation")

	return cmd
}
