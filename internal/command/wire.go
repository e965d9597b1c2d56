//go:build wireinject
// +build wireinject

package command

import (
	"github.com/google/wire"
)

func initializeApp(opts ModelOptions) (*App, func(), error) {
	wire.Build(
		provideConfig,
		provideLogger,
		provideTelemetry,
		provideStore,
		provideModel,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}
