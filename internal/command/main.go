// Package command implements the modelkit command line tool.
package command

import (
	"fmt"
	"os"
	"sort"

	"github.com/urfave/cli/v2"
)

const (
	flagSchema = "schema"
	flagModel  = "model"
	flagDebug  = "debug"
)

// NewApp builds the command line application.
func NewApp() *cli.App {
	app := &cli.App{
		Name:  "modelkit",
		Usage: "create, query, update and destroy schema-defined records",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagSchema,
				Aliases: []string{"s"},
				EnvVars: []string{"MODELKIT_SCHEMA"},
				Usage:   "YAML schema file describing the model",
			},
			&cli.StringFlag{
				Name:    flagModel,
				Aliases: []string{"m"},
				EnvVars: []string{"MODELKIT_MODEL"},
				Value:   "Record",
				Usage:   "Model name; the backend collection is derived from it",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				EnvVars: []string{"MODELKIT_DEBUG"},
				Usage:   "Print errors with their stack trace",
			},
		},
		Commands: []*cli.Command{
			createCommand(),
			findCommand(),
			listCommand(),
			updateCommand(),
			destroyCommand(),
			schemaCommand(),
		},
	}

	app.ExitErrHandler = func(ctx *cli.Context, err error) {
		if err == nil {
			return
		}
		if ctx.Bool(flagDebug) {
			fmt.Fprintf(ctx.App.ErrWriter, "%+v\n", err)
		} else {
			fmt.Fprintln(ctx.App.ErrWriter, err.Error())
		}
	}

	sort.Sort(cli.FlagsByName(app.Flags))
	sort.Sort(cli.CommandsByName(app.Commands))

	return app
}

// Main runs the application with the process arguments and exits on failure.
func Main() {
	if err := NewApp().Run(os.Args); err != nil {
		os.Exit(1)
	}
}
