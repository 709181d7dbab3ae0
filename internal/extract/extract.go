// Package extract runs the DIMA exporter container that turns a survey
// database into the CSV files the ingest command reads.
//
// The exporter image is built from a Dockerfile directory, started with the
// output directory bind-mounted, waited on, and always removed afterwards.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/archive"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/docker/docker/pkg/stdcopy"
	v1 "github.com/opencontainers/image-spec/specs-go/v1"
)

// Defaults applied by New.
const (
	DefaultImageTag    = "dima-export:latest"
	DefaultMountTarget = "/extracted"
)

var (
	ErrBuild = errors.New("image build failed")
	ErrExit  = errors.New("exporter exited with non-zero status")
)

// Engine is the part of the Docker API the extractor uses.
// *client.Client satisfies it.
type Engine interface {
	ImageBuild(ctx context.Context, buildContext io.Reader, options types.ImageBuildOptions) (types.ImageBuildResponse, error)
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *v1.Platform, containerName string) (container.ContainerCreateCreatedBody, error)
	ContainerStart(ctx context.Context, containerID string, options types.ContainerStartOptions) error
	ContainerWait(ctx context.Context, containerID string, condition container.WaitCondition) (<-chan container.ContainerWaitOKBody, <-chan error)
	ContainerLogs(ctx context.Context, containerID string, options types.ContainerLogsOptions) (io.ReadCloser, error)
	ContainerRemove(ctx context.Context, containerID string, options types.ContainerRemoveOptions) error
}

// NewClient connects to the Docker daemon named by the DOCKER_* environment.
func NewClient() (*client.Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("docker client: %w", err)
	}
	return cli, nil
}

// Options configures one extraction.
type Options struct {
	// DockerfileDir is the build context holding the exporter Dockerfile.
	DockerfileDir string
	ImageTag      string
	// OutputDir receives the CSV exports. It is created if missing.
	OutputDir   string
	MountTarget string
	// Clean empties OutputDir before the run. Without it a non-empty
	// directory only produces a warning.
	Clean bool
	// Timeout bounds the whole run. Zero means no limit.
	Timeout time.Duration
}

// Result describes a finished extraction.
type Result struct {
	ImageTag    string
	ContainerID string
	ExitCode    int64
	// Cleared is the number of entries removed from OutputDir.
	Cleared int
}

// Extractor builds and runs the exporter.
type Extractor struct {
	engine Engine
	opts   Options
	logger *slog.Logger
}

// New returns an extractor. Empty ImageTag and MountTarget take the package
// defaults.
func New(engine Engine, opts Options, logger *slog.Logger) *Extractor {
	if opts.ImageTag == "" {
		opts.ImageTag = DefaultImageTag
	}
	if opts.MountTarget == "" {
		opts.MountTarget = DefaultMountTarget
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{engine: engine, opts: opts, logger: logger}
}

// Run performs the extraction. The container is removed even when the run
// fails or ctx is canceled.
func (e *Extractor) Run(ctx context.Context) (Result, error) {
	res := Result{ImageTag: e.opts.ImageTag}

	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	out, err := filepath.Abs(e.opts.OutputDir)
	if err != nil {
		return res, fmt.Errorf("resolve output directory: %w", err)
	}
	if res.Cleared, err = e.prepareOutput(out); err != nil {
		return res, err
	}

	if err := e.build(ctx); err != nil {
		return res, err
	}

	created, err := e.engine.ContainerCreate(ctx,
		&container.Config{
			Image: e.opts.ImageTag,
			Env:   []string{"OUT=" + e.opts.MountTarget},
		},
		&container.HostConfig{
			Mounts: []mount.Mount{{
				Type:   mount.TypeBind,
				Source: out,
				Target: e.opts.MountTarget,
			}},
		},
		&network.NetworkingConfig{}, nil, "")
	if err != nil {
		return res, fmt.Errorf("create container: %w", err)
	}
	res.ContainerID = created.ID
	log := e.logger.With("container", shortID(created.ID))
	defer e.remove(created.ID, log)

	if err := e.engine.ContainerStart(ctx, created.ID, types.ContainerStartOptions{}); err != nil {
		return res, fmt.Errorf("start container: %w", err)
	}
	log.Info("exporter started", "image", e.opts.ImageTag, "mount", out+":"+e.opts.MountTarget)

	code, err := e.wait(ctx, created.ID)
	res.ExitCode = code
	if logErr := e.logs(ctx, created.ID, log); logErr != nil {
		log.Warn("container logs unavailable", "error", logErr)
	}
	if err != nil {
		return res, err
	}
	log.Info("exporter finished", "exit_code", code)
	if code != 0 {
		return res, fmt.Errorf("%w: %d", ErrExit, code)
	}
	return res, nil
}

// prepareOutput creates dir and, with Clean set, empties it.
func (e *Extractor) prepareOutput(dir string) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create output directory: %w", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read output directory: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}
	if !e.opts.Clean {
		e.logger.Warn("output directory is not empty; existing exports will be ingested too", "dir", dir, "entries", len(entries))
		return 0, nil
	}

	cleared := 0
	for _, entry := range entries {
		p := filepath.Join(dir, entry.Name())
		if err := os.RemoveAll(p); err != nil {
			e.logger.Warn("failed to clear entry", "path", p, "error", err)
			continue
		}
		cleared++
	}
	e.logger.Info("cleared output directory", "dir", dir, "removed", cleared)
	return cleared, nil
}

func (e *Extractor) build(ctx context.Context) error {
	buildCtx, err := archive.TarWithOptions(e.opts.DockerfileDir, &archive.TarOptions{})
	if err != nil {
		return fmt.Errorf("%w: pack build context %s: %v", ErrBuild, e.opts.DockerfileDir, err)
	}
	defer buildCtx.Close()

	e.logger.Info("building exporter image", "tag", e.opts.ImageTag, "context", e.opts.DockerfileDir)
	resp, err := e.engine.ImageBuild(ctx, buildCtx, types.ImageBuildOptions{
		Tags:       []string{e.opts.ImageTag},
		Dockerfile: "Dockerfile",
		Remove:     true,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBuild, err)
	}
	defer resp.Body.Close()

	out := newLineLogger(e.logger, "build")
	defer out.Flush()
	if err := jsonmessage.DisplayJSONMessagesStream(resp.Body, out, 0, false, nil); err != nil {
		return fmt.Errorf("%w: %v", ErrBuild, err)
	}
	e.logger.Info("image built", "tag", e.opts.ImageTag)
	return nil
}

func (e *Extractor) wait(ctx context.Context, id string) (int64, error) {
	statusCh, errCh := e.engine.ContainerWait(ctx, id, container.WaitConditionNotRunning)
	select {
	case status := <-statusCh:
		if status.Error != nil {
			return status.StatusCode, fmt.Errorf("wait container: %s", status.Error.Message)
		}
		return status.StatusCode, nil
	case err := <-errCh:
		return -1, fmt.Errorf("wait container: %w", err)
	case <-ctx.Done():
		return -1, fmt.Errorf("wait container: %w", ctx.Err())
	}
}

func (e *Extractor) logs(ctx context.Context, id string, log *slog.Logger) error {
	rc, err := e.engine.ContainerLogs(ctx, id, types.ContainerLogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return err
	}
	defer rc.Close()

	stdout := newLineLogger(log, "stdout")
	stderr := newLineLogger(log, "stderr")
	defer stdout.Flush()
	defer stderr.Flush()
	_, err = stdcopy.StdCopy(stdout, stderr, rc)
	return err
}

// remove force-removes the container with a fresh context so cleanup still
// runs after cancellation.
func (e *Extractor) remove(id string, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := e.engine.ContainerRemove(ctx, id, types.ContainerRemoveOptions{Force: true}); err != nil {
		log.Error("failed to remove container", "error", err)
		return
	}
	log.Info("container removed")
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
