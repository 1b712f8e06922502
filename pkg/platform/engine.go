package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/edgectl/edgectl/pkg/runner"
)

// DockerCliEngine drives the container engine through its CLI,
// addressed via the endpoint selected by container mode.
type DockerCliEngine struct {
	runner   *runner.Runner
	cliPath  string
	endpoint string
}

// NewDockerCliEngine creates an engine client for the given endpoint
// URI (npipe:// or unix://).
func NewDockerCliEngine(r *runner.Runner, cliPath, endpoint string) *DockerCliEngine {
	return &DockerCliEngine{runner: r, cliPath: cliPath, endpoint: endpoint}
}

// cliHost converts an npipe:// URI to the CLI's -H form.
func cliHost(endpoint string) string {
	if rest, ok := strings.CutPrefix(endpoint, "npipe://"); ok {
		return "npipe:///" + rest
	}
	return endpoint
}

func (e *DockerCliEngine) run(ctx context.Context, args ...string) (runner.Result, error) {
	full := append([]string{"-H", cliHost(e.endpoint)}, args...)
	return e.runner.Run(ctx, runner.Command{Path: e.cliPath, Args: full})
}

// List returns all containers, running or not, with their labels.
func (e *DockerCliEngine) List(ctx context.Context) ([]Container, error) {
	res, err := e.run(ctx, "ps", "--all", "--no-trunc", "--format", "{{json .}}")
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	var containers []Container
	for _, line := range strings.Split(strings.TrimSpace(res.Output), "\n") {
		if line == "" {
			continue
		}
		var row struct {
			ID     string `json:"ID"`
			Names  string `json:"Names"`
			Labels string `json:"Labels"`
		}
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			return nil, fmt.Errorf("failed to parse container listing: %w", err)
		}
		containers = append(containers, Container{
			ID:     row.ID,
			Name:   row.Names,
			Labels: parseLabels(row.Labels),
		})
	}
	return containers, nil
}

// parseLabels splits the CLI's comma-separated key=value label format.
func parseLabels(s string) map[string]string {
	labels := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		labels[key] = value
	}
	return labels
}

func (e *DockerCliEngine) Stop(ctx context.Context, id string) error {
	if _, err := e.run(ctx, "stop", id); err != nil {
		return fmt.Errorf("failed to stop container %s: %w", id, err)
	}
	return nil
}

func (e *DockerCliEngine) Remove(ctx context.Context, id string) error {
	if _, err := e.run(ctx, "rm", "--force", id); err != nil {
		return fmt.Errorf("failed to remove container %s: %w", id, err)
	}
	return nil
}
