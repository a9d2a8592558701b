// Package compose controls the deployed application's containers through the
// docker compose CLI: building the artifact, stopping and starting the stack,
// and the cutover that recreates services on the new build.
package compose

import (
	"encoding/json"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/kjanat/livedash-deploy/config"
)

type ContainerInfo struct {
	Service    string `json:"Service"`
	Name       string `json:"Name"`
	State      string `json:"State"`
	Status     string `json:"Status"`
	RunningFor string `json:"RunningFor"`
}

type StackStatus struct {
	Status     string
	Containers []ContainerInfo
	Uptime     string
}

// Service wraps docker compose invocations for one application stack.
type Service struct {
	// Name is the compose project name.
	Name string
	// WorkingDir is the directory containing the compose files.
	WorkingDir string
	// ComposeFiles is the list of compose files for the stack.
	ComposeFiles []string
	// Config holds docker command configuration and timeouts.
	Config *config.Config
}

func NewService(cfg *config.Config) *Service {
	return &Service{
		Name:         cfg.ServiceName,
		WorkingDir:   cfg.AppDir,
		ComposeFiles: cfg.ComposeFiles,
		Config:       cfg,
	}
}

// Build builds the stack's images from the current checkout.
func (s *Service) Build() error {
	cmd := s.prepareCommand("build", []string{"--quiet"})
	_, err := s.executeCommand(cmd, "docker_compose_build")
	return err
}

// Up creates and starts the stack, waiting until services report healthy.
// This is the cutover operation: with a new build present it recreates the
// running containers on the new artifact.
func (s *Service) Up() error {
	cmd := s.prepareCommand("up", []string{"--detach", "--wait", "--quiet-pull", "--no-color", "--remove-orphans"})
	_, err := s.executeCommand(cmd, "docker_compose_up")
	return err
}

// Stop stops the running containers without removing them.
func (s *Service) Stop() error {
	cmd := s.prepareCommand("stop", nil)
	_, err := s.executeCommand(cmd, "docker_compose_stop")
	return err
}

// Start starts previously stopped containers.
func (s *Service) Start() error {
	cmd := s.prepareCommand("start", nil)
	_, err := s.executeCommand(cmd, "docker_compose_start")
	return err
}

// Status reports the aggregate state of the stack's containers.
func (s *Service) Status() (*StackStatus, error) {
	cmd := s.prepareCommand("ps", []string{"--format", "json"})
	output, err := s.executeCommand(cmd, "docker_compose_ps")
	if err != nil {
		return nil, err
	}

	var containers []ContainerInfo
	lines := strings.Split(strings.TrimSpace(output), "\n")

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		var container ContainerInfo
		if err := json.Unmarshal([]byte(line), &container); err != nil {
			slog.Error("Failed to parse container JSON",
				"project_name", s.Name,
				"line", line,
				"error", err)
			continue
		}
		containers = append(containers, container)
	}

	// Determine overall stack status
	stackStatus := "stopped"
	uptime := ""
	if len(containers) > 0 {
		runningCount := 0
		for _, container := range containers {
			if container.State == "running" {
				runningCount++
				if uptime == "" {
					uptime = strings.TrimSuffix(container.RunningFor, " ago")
				}
			}
		}

		if runningCount == len(containers) {
			stackStatus = "running"
		} else if runningCount > 0 {
			stackStatus = "partial"
		}
	}

	return &StackStatus{
		Status:     stackStatus,
		Containers: containers,
		Uptime:     uptime,
	}, nil
}

func (s *Service) prepareCommand(command string, args []string) *exec.Cmd {
	// Build docker compose command
	commandArgs := []string{
		"--host", s.Config.DockerHost,
		"compose",
		"--project-name", s.Name,
	}

	// Add compose files to the command
	for _, file := range s.ComposeFiles {
		commandArgs = append(commandArgs, "--file", filepath.Join(s.WorkingDir, file))
	}

	// Add the specific command and its arguments
	commandArgs = append(commandArgs, command)
	commandArgs = append(commandArgs, args...)

	slog.Debug("Executing Docker Compose command",
		"command", s.Config.DockerCommand,
		"args", commandArgs,
		"working_dir", s.WorkingDir)

	cmd := exec.Command(s.Config.DockerCommand, commandArgs...)
	cmd.Dir = s.WorkingDir

	return cmd
}

func (s *Service) executeCommand(cmd *exec.Cmd, operation string) (string, error) {
	out, err := cmd.CombinedOutput()
	output := string(out)
	if err != nil {
		slog.Error("Service operation failed",
			"layer", "docker_compose",
			"operation", operation,
			"project_name", s.Name,
			"error", err,
			"output", output)
		return "", err
	}
	return output, nil
}
