// Where: internal/container/container.go
// What: Container-backed environment execution.
// Why: isolation = container runs matrix commands inside an image instead of a local venv.
package container

import (
	"context"
	"fmt"
	"io"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

const workMount = "/work"

// Client defines the subset of Docker SDK methods used by this package.
// This interface enables mocking the Docker client in tests.
type Client interface {
	ImagePull(ctx context.Context, ref string, options image.PullOptions) (io.ReadCloser, error)
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig,
		networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerWait(ctx context.Context, containerID string, condition container.WaitCondition) (<-chan container.WaitResponse, <-chan error)
	ContainerLogs(ctx context.Context, containerID string, options container.LogsOptions) (io.ReadCloser, error)
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
}

// NewClient constructs a Docker SDK client using environment defaults.
func NewClient() (Client, error) {
	return client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
}

// RunSpec describes one environment's container execution.
type RunSpec struct {
	Image    string
	HostDir  string
	Env      []string
	Commands [][]string
}

// RunCommands executes the command list inside the image, one container
// per command, with HostDir bind-mounted at /work as the working
// directory. The first non-zero exit stops the sequence and is returned.
func RunCommands(ctx context.Context, c Client, spec RunSpec, out io.Writer) (int, error) {
	if spec.Image == "" {
		return -1, fmt.Errorf("container run needs an image")
	}

	// Best effort: a locally available image is fine when the pull fails.
	if rc, err := c.ImagePull(ctx, spec.Image, image.PullOptions{}); err == nil {
		_, _ = io.Copy(io.Discard, rc)
		_ = rc.Close()
	}

	for _, argv := range spec.Commands {
		code, err := runOne(ctx, c, spec, argv, out)
		if err != nil {
			return -1, err
		}
		if code != 0 {
			return code, nil
		}
	}
	return 0, nil
}

func runOne(ctx context.Context, c Client, spec RunSpec, argv []string, out io.Writer) (int, error) {
	created, err := c.ContainerCreate(ctx,
		&container.Config{
			Image:      spec.Image,
			Cmd:        argv,
			Env:        spec.Env,
			WorkingDir: workMount,
		},
		&container.HostConfig{
			Binds: []string{spec.HostDir + ":" + workMount},
		},
		nil, nil, "")
	if err != nil {
		return -1, fmt.Errorf("create container: %w", err)
	}
	defer func() {
		_ = c.ContainerRemove(context.WithoutCancel(ctx), created.ID, container.RemoveOptions{Force: true})
	}()

	if err := c.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return -1, fmt.Errorf("start container: %w", err)
	}

	waitCh, errCh := c.ContainerWait(ctx, created.ID, container.WaitConditionNotRunning)

	var status container.WaitResponse
	select {
	case status = <-waitCh:
	case err := <-errCh:
		return -1, fmt.Errorf("wait for container: %w", err)
	case <-ctx.Done():
		return -1, ctx.Err()
	}

	logs, err := c.ContainerLogs(ctx, created.ID, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err == nil {
		_, _ = stdcopy.StdCopy(out, out, logs)
		_ = logs.Close()
	}

	if status.Error != nil {
		return -1, fmt.Errorf("container error: %s", status.Error.Message)
	}
	return int(status.StatusCode), nil
}
