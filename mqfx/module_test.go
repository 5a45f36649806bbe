package mqfx

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/jacklaaa89/mq"
	"github.com/jacklaaa89/mq/memory"
	_ "github.com/jacklaaa89/mq/random"
)

func TestModule(t *testing.T) {
	var (
		r *mq.Registry
		l *mq.Loader
	)

	dir := t.TempDir()
	t.Setenv("MQ_PLUGIN_DIR", dir)

	app := fxtest.New(t,
		Module(mq.Config{PluginDir: dir}),
		fx.Populate(&r, &l),
	)

	app.RequireStart()

	require.NotNil(t, r)
	assert.NotSame(t, mq.Default(), r, "the module provides its own registry")
	assert.Subset(t, r.Schemes(), []string{memory.Scheme, "random"})
	assert.Equal(t, dir, l.Dir)
	assert.Empty(t, l.Modules())

	c, err := r.ConnectRecv(context.Background(), "random:")
	require.NoError(t, err)
	require.NoError(t, c.Release())

	app.RequireStop()
	assert.Subset(t, r.Schemes(), []string{memory.Scheme, "random"}, "builtins outlive the plugins")
}

func TestModule_MissingPluginDir(t *testing.T) {
	var r *mq.Registry

	app := fxtest.New(t,
		Module(mq.Config{PluginDir: filepath.Join(t.TempDir(), "missing")}),
		fx.Populate(&r),
	)

	app.RequireStart()
	assert.Contains(t, r.Schemes(), memory.Scheme)
	app.RequireStop()
}

func TestEnvModule(t *testing.T) {
	t.Setenv("MQ_PLUGIN_DIR", t.TempDir())

	var l *mq.Loader
	app := fxtest.New(t, EnvModule(), fx.Populate(&l))
	app.RequireStart()
	assert.Equal(t, mq.LoadConfig().PluginDir, l.Dir)
	app.RequireStop()
}
