package command

import (
	"context"
	"os"

	"github.com/pkg/errors"

	"github.com/burugo/modelkit"
	"github.com/burugo/modelkit/config"
	"github.com/burugo/modelkit/drivers"
	"github.com/burugo/modelkit/logger"
	"github.com/burugo/modelkit/schema"
)

// App is what every CRUD command works with: one model bound to the configured backend.
type App struct {
	Config    *config.Config
	Logger    logger.Interface
	Telemetry *Telemetry
	Store     *drivers.Store
	Model     *modelkit.Model
}

// ModelOptions select the schema file and the model name.
type ModelOptions struct {
	SchemaPath string
	Name       string
}

func provideConfig() (*config.Config, error) {
	return config.Parse()
}

func provideLogger(conf *config.Config) (logger.Interface, error) {
	logConf, err := conf.Logger.LoggerConfig()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return logger.New(os.Stderr, conf.Logger.Format, logConf), nil
}

func provideStore(conf *config.Config, log logger.Interface, telemetry *Telemetry) (*drivers.Store, func(), error) {
	store, err := drivers.Open(conf, log, telemetry.Observer)
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not open backend")
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			log.Error(context.Background(), "could not close backend", "error", err.Error())
		}
	}
	return store, cleanup, nil
}

func provideModel(opts ModelOptions, store *drivers.Store, log logger.Interface, telemetry *Telemetry) (*modelkit.Model, error) {
	s, err := schema.ParseFile(opts.SchemaPath)
	if err != nil {
		return nil, errors.Wrapf(err, "could not load schema %q", opts.SchemaPath)
	}

	modelkit.Configure(modelkit.Options{
		Backend:  modelkit.BackendFactory(store.Factory),
		Logger:   log,
		Observer: telemetry.Observer,
	})

	m, err := modelkit.Base.Extend(nil, &modelkit.Statics{Name: opts.Name, Schema: s})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return m, nil
}
