package configsvc

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testConfig struct {
	Name    string        `yaml:"name"`
	Timeout time.Duration `yaml:"timeout"`
}

func startService(t *testing.T) *Service {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	svc := New(zap.NewNop())
	go func() {
		_ = svc.Start(ctx)
	}()
	<-svc.Ready()
	return svc
}

func TestRegister(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bridge.yml")
	require.NoError(t, os.WriteFile(path, []byte("name: first\ntimeout: 5s\n"), 0o644))

	svc := startService(t)

	reloads := make(chan testConfig, 1)
	config, err := Register(svc, path, testConfig{}, func(config testConfig, err error) {
		if err == nil {
			select {
			case reloads <- config:
			default:
			}
		}
	})
	require.NoError(t, err)
	assert.Equal(t, "first", config.Name)
	assert.Equal(t, 5*time.Second, config.Timeout)

	require.NoError(t, os.WriteFile(path, []byte("name: second\ntimeout: 1s\n"), 0o644))
	select {
	case reloaded := <-reloads:
		assert.Equal(t, "second", reloaded.Name)
		assert.Equal(t, time.Second, reloaded.Timeout)
	case <-time.After(5 * time.Second):
		t.Fatal("reload callback did not fire")
	}
}

func TestRegisterMissingFile(t *testing.T) {
	svc := startService(t)

	_, err := Register(svc, filepath.Join(t.TempDir(), "nope.yml"), testConfig{}, func(testConfig, error) {})
	require.Error(t, err)
}

func TestRegisterFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "triggers.conf")

	svc := startService(t)

	reloads := make(chan []byte, 1)
	contents, err := svc.RegisterFile(path, func(contents []byte, err error) {
		if err == nil {
			select {
			case reloads <- contents:
			default:
			}
		}
	})
	// The file does not exist yet; the watch must still be in place.
	require.True(t, os.IsNotExist(err))
	assert.Nil(t, contents)

	require.NoError(t, os.WriteFile(path, []byte("KEY_VOLUMEUP\t1\techo hi\n"), 0o644))
	select {
	case reloaded := <-reloads:
		assert.Contains(t, string(reloaded), "KEY_VOLUMEUP")
	case <-time.After(5 * time.Second):
		t.Fatal("file watch callback did not fire")
	}
}
