// Package mqfx wires an mq.Registry into an fx application.
package mqfx

import (
	"context"

	"go.uber.org/fx"

	"github.com/jacklaaa89/mq"
)

// Module creates an fx module that provides a *mq.Registry and the *mq.Loader which populates it.
// The builtin engines are registered when the registry is provided, plugins found in cfg.PluginDir
// are loaded on fx.OnStart. On fx.OnStop the bindings they made are removed and any builtin
// engine a plugin replaced is bound again.
//
// Plugin failures never stop the application from starting, they are logged by the loader.
func Module(cfg mq.Config) fx.Option {
	return fx.Module("mq",
		fx.Provide(func(lc fx.Lifecycle) (*mq.Registry, *mq.Loader) {
			r := mq.NewRegistry()
			mq.RegisterBuiltins(r)

			l := mq.NewLoader(cfg)
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					_, _ = l.Load(r)
					return nil
				},
				OnStop: func(ctx context.Context) error {
					l.Unload()
					return nil
				},
			})

			return r, l
		}),
	)
}

// EnvModule is Module configured from the MQ_ environment.
func EnvModule() fx.Option {
	return Module(mq.LoadConfig())
}
