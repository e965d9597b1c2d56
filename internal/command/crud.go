package command

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/burugo/modelkit"
)

const (
	flagData  = "data"
	flagQuery = "query"
)

var (
	dataFlag = &cli.StringFlag{
		Name:     flagData,
		Aliases:  []string{"d"},
		Usage:    "Attributes as a JSON object",
		Required: true,
	}
	queryFlag = &cli.StringFlag{
		Name:    flagQuery,
		Aliases: []string{"q"},
		Value:   "{}",
		Usage:   `Query as a JSON object, e.g. '{"age": {"$gte": 18}}'`,
	}
)

func createCommand() *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Validate and store a new record",
		Flags: []cli.Flag{dataFlag},
		Action: withApp(func(cCtx *cli.Context, app *App) error {
			data, err := jsonObject(cCtx, flagData)
			if err != nil {
				return err
			}
			inst, err := app.Model.CreateAsync(cCtx.Context, data).Wait()
			if err != nil {
				return errors.WithStack(err)
			}
			return write(cCtx, inst)
		}),
	}
}

func findCommand() *cli.Command {
	return &cli.Command{
		Name:  "find",
		Usage: "Print the first record matching a query",
		Flags: []cli.Flag{queryFlag},
		Action: withApp(func(cCtx *cli.Context, app *App) error {
			query, err := jsonObject(cCtx, flagQuery)
			if err != nil {
				return err
			}
			inst, err := app.Model.Find(cCtx.Context, query)
			if err != nil {
				return errors.WithStack(err)
			}
			return write(cCtx, inst)
		}),
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"where"},
		Usage:   "Print every record matching a query",
		Flags:   []cli.Flag{queryFlag},
		Action: withApp(func(cCtx *cli.Context, app *App) error {
			query, err := jsonObject(cCtx, flagQuery)
			if err != nil {
				return err
			}
			insts, err := app.Model.Where(cCtx.Context, query)
			if err != nil {
				return errors.WithStack(err)
			}
			if insts == nil {
				insts = []*modelkit.Instance{}
			}
			return write(cCtx, insts)
		}),
	}
}

func updateCommand() *cli.Command {
	return &cli.Command{
		Name:  "update",
		Usage: "Merge attributes into the first record matching a query",
		Flags: []cli.Flag{queryFlag, dataFlag},
		Action: withApp(func(cCtx *cli.Context, app *App) error {
			query, err := jsonObject(cCtx, flagQuery)
			if err != nil {
				return err
			}
			changes, err := jsonObject(cCtx, flagData)
			if err != nil {
				return err
			}
			inst, err := app.Model.Update(cCtx.Context, query, changes)
			if err != nil {
				return errors.WithStack(err)
			}
			return write(cCtx, inst)
		}),
	}
}

func destroyCommand() *cli.Command {
	return &cli.Command{
		Name:  "destroy",
		Usage: "Delete the first record matching a query",
		Flags: []cli.Flag{queryFlag},
		Action: withApp(func(cCtx *cli.Context, app *App) error {
			query, err := jsonObject(cCtx, flagQuery)
			if err != nil {
				return err
			}
			return errors.WithStack(app.Model.Destroy(cCtx.Context, query))
		}),
	}
}

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Print the effective schema, implicit fields included",
		Action: withApp(func(cCtx *cli.Context, app *App) error {
			return write(cCtx, app.Model.Schema())
		}),
	}
}

// withApp builds the App for one command run and releases it afterwards.
func withApp(fn func(cCtx *cli.Context, app *App) error) cli.ActionFunc {
	return func(cCtx *cli.Context) error {
		schemaPath := cCtx.String(flagSchema)
		if schemaPath == "" {
			return errors.New("a schema file is required (--schema)")
		}
		app, cleanup, err := initializeApp(ModelOptions{
			SchemaPath: schemaPath,
			Name:       cCtx.String(flagModel),
		})
		if err != nil {
			return err
		}
		defer cleanup()
		return fn(cCtx, app)
	}
}

func jsonObject(cCtx *cli.Context, flag string) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal([]byte(cCtx.String(flag)), &out); err != nil {
		return nil, errors.Wrapf(err, "--%s must be a JSON object", flag)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

func write(cCtx *cli.Context, v any) error {
	enc := json.NewEncoder(cCtx.App.Writer)
	enc.SetIndent("", "  ")
	return errors.WithStack(enc.Encode(v))
}
