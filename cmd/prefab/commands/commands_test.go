package commands_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/prefab/cmd/prefab/commands"
	"go.trai.ch/prefab/internal/app"
	"go.trai.ch/prefab/internal/build"
	"go.trai.ch/prefab/internal/core/domain"
)

type mockApp struct {
	updateFunc  func(ctx context.Context, opts app.UpdateOptions) error
	revertFunc  func(ctx context.Context, opts app.SelectionOptions) error
	unlinkFunc  func(ctx context.Context, opts app.SelectionOptions) error
	createFunc  func(ctx context.Context, opts app.CreateOptions) (domain.Identity, error)
	replaceFunc func(ctx context.Context, opts app.ReplaceOptions) (domain.Identity, error)
	showFunc    func(ctx context.Context, opts app.ShowOptions) ([]app.InstanceInfo, error)
}

func (m *mockApp) Update(ctx context.Context, opts app.UpdateOptions) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, opts)
	}
	return nil
}

func (m *mockApp) Revert(ctx context.Context, opts app.SelectionOptions) error {
	if m.revertFunc != nil {
		return m.revertFunc(ctx, opts)
	}
	return nil
}

func (m *mockApp) Unlink(ctx context.Context, opts app.SelectionOptions) error {
	if m.unlinkFunc != nil {
		return m.unlinkFunc(ctx, opts)
	}
	return nil
}

func (m *mockApp) Create(ctx context.Context, opts app.CreateOptions) (domain.Identity, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, opts)
	}
	return domain.Identity{}, nil
}

func (m *mockApp) Replace(ctx context.Context, opts app.ReplaceOptions) (domain.Identity, error) {
	if m.replaceFunc != nil {
		return m.replaceFunc(ctx, opts)
	}
	return domain.Identity{}, nil
}

func (m *mockApp) Show(ctx context.Context, opts app.ShowOptions) ([]app.InstanceInfo, error) {
	if m.showFunc != nil {
		return m.showFunc(ctx, opts)
	}
	return nil, nil
}

func TestCommands_Update(t *testing.T) {
	t.Run("wires flags correctly", func(t *testing.T) {
		var captured app.UpdateOptions
		called := false

		mock := &mockApp{
			updateFunc: func(_ context.Context, opts app.UpdateOptions) error {
				captured = opts
				called = true
				return nil
			},
		}

		cli := commands.New(mock)
		cli.SetArgs([]string{"update", "-c", "project", "--dry-run", "-j", "3", "a.json", "b.json"})

		err := cli.Execute(context.Background())
		require.NoError(t, err)
		assert.True(t, called)
		assert.Equal(t, app.UpdateOptions{
			Config:    "project",
			Documents: []string{"a.json", "b.json"},
			DryRun:    true,
			Jobs:      3,
		}, captured)
	})

	t.Run("returns error on update failure", func(t *testing.T) {
		mock := &mockApp{
			updateFunc: func(_ context.Context, _ app.UpdateOptions) error {
				return errors.New("simulated error")
			},
		}

		cli := commands.New(mock)
		cli.SetArgs([]string{"update", "a.json"})
		// Silence output to avoid polluting test logs
		cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))

		err := cli.Execute(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "simulated error")
	})

	t.Run("shows usage when no documents provided", func(t *testing.T) {
		mock := &mockApp{
			updateFunc: func(_ context.Context, _ app.UpdateOptions) error {
				panic("should not be called")
			},
		}

		cli := commands.New(mock)
		buf := new(bytes.Buffer)
		cli.SetOutput(buf, buf)
		cli.SetArgs([]string{"update"})

		err := cli.Execute(context.Background())
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "Usage:")
	})
}

func TestCommands_Selection(t *testing.T) {
	for _, name := range []string{"revert", "unlink"} {
		t.Run(name, func(t *testing.T) {
			var captured app.SelectionOptions
			record := func(_ context.Context, opts app.SelectionOptions) error {
				captured = opts
				return nil
			}
			mock := &mockApp{revertFunc: record, unlinkFunc: record}

			cli := commands.New(mock)
			cli.SetArgs([]string{name, "level.json", "obj-a", "obj-b"})

			require.NoError(t, cli.Execute(context.Background()))
			assert.Equal(t, app.SelectionOptions{Document: "level.json", Objects: []string{"obj-a", "obj-b"}}, captured)
		})
	}

	t.Run("requires an object", func(t *testing.T) {
		cli := commands.New(&mockApp{})
		cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))
		cli.SetArgs([]string{"revert", "level.json"})

		assert.Error(t, cli.Execute(context.Background()))
	})
}

func TestCommands_Create(t *testing.T) {
	template := domain.NewIdentity()
	var captured app.CreateOptions
	mock := &mockApp{
		createFunc: func(_ context.Context, opts app.CreateOptions) (domain.Identity, error) {
			captured = opts
			return template, nil
		},
	}

	cli := commands.New(mock)
	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs([]string{"create", "level.json", "obj", "props/crate"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.Equal(t, app.CreateOptions{Document: "level.json", Object: "obj", Path: "props/crate"}, captured)
	assert.Equal(t, template.String()+"\n", buf.String())
}

func TestCommands_Replace(t *testing.T) {
	created := domain.NewIdentity()
	var captured app.ReplaceOptions
	mock := &mockApp{
		replaceFunc: func(_ context.Context, opts app.ReplaceOptions) (domain.Identity, error) {
			captured = opts
			return created, nil
		},
	}

	cli := commands.New(mock)
	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs([]string{"replace", "level.json", "obj", "crate", "--seed", "s"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.Equal(t, app.ReplaceOptions{Document: "level.json", Object: "obj", Template: "crate", Seed: "s"}, captured)
	assert.Contains(t, buf.String(), created.String())
}

func TestCommands_Show(t *testing.T) {
	t.Run("renders a row per instance", func(t *testing.T) {
		infos := []app.InstanceInfo{
			{
				Object:       domain.NewIdentity(),
				Template:     domain.NewIdentity(),
				TemplatePath: "/project/prefabs/crate.prefab",
				Seed:         domain.NewSeed(),
				State:        app.StateOutdated,
			},
			{
				Object:   domain.NewIdentity(),
				Template: domain.NewIdentity(),
				Seed:     domain.NewSeed(),
				State:    app.StateMissing,
			},
		}
		mock := &mockApp{
			showFunc: func(_ context.Context, opts app.ShowOptions) ([]app.InstanceInfo, error) {
				assert.Equal(t, "level.json", opts.Document)
				return infos, nil
			},
		}

		cli := commands.New(mock)
		buf := new(bytes.Buffer)
		cli.SetOutput(buf, buf)
		cli.SetArgs([]string{"show", "level.json"})

		require.NoError(t, cli.Execute(context.Background()))
		out := buf.String()
		assert.Contains(t, out, "OBJECT")
		assert.Contains(t, out, infos[0].Object.String())
		assert.Contains(t, out, "crate.prefab")
		assert.Contains(t, out, "outdated")
		assert.Contains(t, out, infos[1].Template.String())
		assert.Contains(t, out, "missing")
	})

	t.Run("reports documents without instances", func(t *testing.T) {
		cli := commands.New(&mockApp{})
		buf := new(bytes.Buffer)
		cli.SetOutput(buf, buf)
		cli.SetArgs([]string{"show", "level.json"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Contains(t, buf.String(), "no prefab instances")
	})
}

func TestCommands_Version(t *testing.T) {
	mock := &mockApp{}
	cli := commands.New(mock)

	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs([]string{"version"})

	err := cli.Execute(context.Background())
	require.NoError(t, err)

	assert.Contains(t, buf.String(), build.Version)
}
