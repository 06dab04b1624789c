package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/felixgeelhaar/lessonplay/internal/config"
	"github.com/spf13/cobra"
)

const (
	daemonBinary = "lessond"
	pidFile      = "lessond.pid"
)

func newDaemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Manage the lessond background daemon",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "start",
			Short: "Start lessond in the background",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return daemonStart(cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "stop",
			Short: "Stop the running daemon",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return daemonStop(cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show daemon status",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return daemonStatus(cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "logs",
			Short: "Show recent daemon logs",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return daemonLogs(cmd.OutOrStdout())
			},
		},
	)
	return cmd
}

// daemonURL returns the base URL of the configured daemon
func daemonURL() (string, error) {
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	return "http://" + cfg.Addr(), nil
}

func daemonStart(w io.Writer) error {
	base, err := daemonURL()
	if err != nil {
		return err
	}
	if isRunning(base) {
		fmt.Fprintln(w, "✓ Daemon is already running")
		return nil
	}

	dir, err := config.EnsureDir()
	if err != nil {
		return fmt.Errorf("setup lessonplay directory: %w", err)
	}

	binary, err := findDaemonBinary()
	if err != nil {
		return fmt.Errorf("find daemon binary: %w", err)
	}

	cmd := exec.Command(binary)
	cmd.Dir = dir
	detach(cmd, dir)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	fmt.Fprint(w, "Starting daemon...")
	for i := 0; i < 30; i++ {
		time.Sleep(100 * time.Millisecond)
		if isRunning(base) {
			fmt.Fprintln(w, " ✓")
			fmt.Fprintf(w, "Daemon running at %s\n", base)
			return nil
		}
		fmt.Fprint(w, ".")
	}

	fmt.Fprintln(w, " ✗")
	return fmt.Errorf("daemon failed to start (check logs with 'lesson daemon logs')")
}

func daemonStop(w io.Writer) error {
	base, err := daemonURL()
	if err != nil {
		return err
	}
	if !isRunning(base) {
		fmt.Fprintln(w, "Daemon is not running")
		return nil
	}

	pid, err := readPID()
	if err != nil {
		return err
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find process: %w", err)
	}

	fmt.Fprint(w, "Stopping daemon...")
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("send signal: %w", err)
	}

	for i := 0; i < 50; i++ {
		time.Sleep(100 * time.Millisecond)
		if !isRunning(base) {
			fmt.Fprintln(w, " ✓")
			return nil
		}
		fmt.Fprint(w, ".")
	}

	fmt.Fprintln(w, " ✗")
	return fmt.Errorf("daemon did not stop gracefully")
}

func daemonStatus(w io.Writer) error {
	base, err := daemonURL()
	if err != nil {
		return err
	}
	if !isRunning(base) {
		fmt.Fprintln(w, "Status: stopped")
		return nil
	}

	resp, err := http.Get(base + "/v1/status")
	if err != nil {
		return fmt.Errorf("get status: %w", err)
	}
	defer resp.Body.Close()

	var status struct {
		Status          string `json:"status"`
		Version         string `json:"version"`
		CatalogPath     string `json:"catalog_path"`
		ProgressBackend string `json:"progress_backend"`
		QueueEnabled    bool   `json:"queue_enabled"`
		Catalog         struct {
			LessonCount int      `json:"lesson_count"`
			Locales     []string `json:"locales"`
		} `json:"catalog"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("parse status: %w", err)
	}

	fmt.Fprintf(w, "Status:    %s\n", status.Status)
	fmt.Fprintf(w, "Version:   %s\n", status.Version)
	fmt.Fprintf(w, "Catalog:   %s (%d lessons; %s)\n", status.CatalogPath, status.Catalog.LessonCount, strings.Join(status.Catalog.Locales, ", "))
	fmt.Fprintf(w, "Progress:  %s\n", status.ProgressBackend)
	fmt.Fprintf(w, "Queue:     %v\n", status.QueueEnabled)
	fmt.Fprintf(w, "Address:   %s\n", base)
	return nil
}

// daemonLogs prints the last few KB of the daemon log
func daemonLogs(w io.Writer) error {
	dir, err := config.Dir()
	if err != nil {
		return err
	}

	logPath := filepath.Join(dir, "logs", "lessond.log")
	file, err := os.Open(logPath)
	if os.IsNotExist(err) {
		fmt.Fprintln(w, "No log file found. Start the daemon first.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat log file: %w", err)
	}
	offset := max(0, info.Size()-4096)
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("seek log file: %w", err)
	}

	reader := bufio.NewReader(file)
	if offset > 0 {
		// Skip the partial first line
		_, _ = reader.ReadString('\n')
	}
	_, err = io.Copy(w, reader)
	return err
}

func readPID() (int, error) {
	dir, err := config.Dir()
	if err != nil {
		return 0, err
	}
	data, err := os.ReadFile(filepath.Join(dir, pidFile))
	if err != nil {
		return 0, fmt.Errorf("read PID file: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse PID: %w", err)
	}
	return pid, nil
}

// isRunning checks the daemon's health endpoint
func isRunning(base string) bool {
	client := http.Client{Timeout: time.Second}
	resp, err := client.Get(base + "/v1/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// findDaemonBinary locates lessond on PATH or next to this binary
func findDaemonBinary() (string, error) {
	if path, err := exec.LookPath(daemonBinary); err == nil {
		return path, nil
	}

	if self, err := os.Executable(); err == nil {
		path := filepath.Join(filepath.Dir(self), daemonBinary)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("%s binary not found (build with 'go build ./cmd/lessond')", daemonBinary)
}
