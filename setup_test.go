package modelkit_test

import (
	"testing"
	"time"

	"github.com/burugo/modelkit"
	"github.com/burugo/modelkit/clock"
	"github.com/burugo/modelkit/defaults"
	"github.com/burugo/modelkit/logger"
	"github.com/burugo/modelkit/metrics"
	"github.com/burugo/modelkit/schema"
)

var epoch = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func userSchema() schema.Schema {
	return schema.Schema{
		"email": {Type: schema.TypeString, Format: "email"},
		"name":  {Type: schema.TypeString, Default: schema.Value("anonymous")},
		"token": {Type: schema.TypeString, Default: defaults.Random},
		"address": {Properties: schema.Schema{
			"city":    {Type: schema.TypeString, Default: schema.Value("Paris")},
			"country": {Type: schema.TypeString},
		}},
	}
}

// newUsers returns a User model with a ticking clock, sequential ids and its own memory backend.
func newUsers(t *testing.T) (*modelkit.Model, *clock.Fake) {
	t.Helper()
	clk := clock.NewTicking(epoch, time.Second)
	users, err := modelkit.Base.Extend(nil, &modelkit.Statics{
		Name:        "User",
		Schema:      userSchema(),
		Clock:       clk,
		IDGenerator: defaults.NewSequential("u"),
	})
	if err != nil {
		t.Fatalf("extend User: %v", err)
	}
	return users, clk
}

// configure replaces the package-wide collaborators for one test.
func configure(t *testing.T, opts modelkit.Options) {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = logger.Discard
	}
	modelkit.Configure(opts)
	t.Cleanup(func() {
		modelkit.Configure(modelkit.Options{
			Backend:  modelkit.MemoryBackendFactory,
			Logger:   logger.Default,
			Observer: metrics.Nop{},
		})
	})
}
