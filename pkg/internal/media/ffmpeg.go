package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// ErrProcessingFailure marks probe, thumbnail, normalization or composition
// failures. Recordings hit by it go to the failed state and are never retried
// automatically.
var ErrProcessingFailure = errors.New("media processing failure")

// Runner shells out to the media toolchain. Kept as an interface so the
// pipeline logic is testable without ffmpeg installed.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("%s execution failed: %w\noutput: %s", name, err, tail(output, 2048))
	}
	return output, nil
}

func tail(data []byte, n int) []byte {
	if len(data) <= n {
		return data
	}
	return data[len(data)-n:]
}

func workspaceRoot() string {
	root := viper.GetString("media.temp_dir")
	if len(root) == 0 {
		root = filepath.Join(os.TempDir(), "riffhouse")
	}
	return root
}

// scratchDir allocates a job-scoped temp directory. Callers remove it with a
// deferred os.RemoveAll on every exit path.
func scratchDir(prefix string) (string, error) {
	dir := filepath.Join(workspaceRoot(), fmt.Sprintf("%s-%s", prefix, uuid.NewString()))
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", err
	}
	return dir, nil
}
