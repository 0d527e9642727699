package workerproc

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/ridgeline-run/steprunner/pkg/logger"
	"github.com/ridgeline-run/steprunner/pkg/step"
)

// Dispatcher runs each dispatched step by re-executing the current binary
// with a hidden CLI subcommand, e.g. []string{"worker"} for
// `steprunner worker`.
type Dispatcher struct {
	// Executable is the path to re-exec. Defaults to os.Executable() if
	// empty.
	Executable string
	// Args are prepended to the re-exec invocation before the worker
	// envelope is streamed over stdin, e.g. []string{"worker"}.
	Args []string
	// Namespaces is the step-namespace list the worker rebuilds its own
	// catalog from; it must match what the coordinator planned against.
	Namespaces []string
	// Log receives a line per dispatch and per exit; NewDispatcher defaults it to a no-op
	// sink.
	Log logger.Sink
}

// NewDispatcher returns a Dispatcher that re-execs the current process
// (os.Executable()) with the given hidden subcommand args.
func NewDispatcher(subcommandArgs []string, namespaces []string, log logger.Sink) (*Dispatcher, error) {
	exePath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve own executable for worker re-exec: %w", err)
	}
	if log == nil {
		log = logger.NopSink{}
	}
	return &Dispatcher{Executable: exePath, Args: subcommandArgs, Namespaces: namespaces, Log: log}, nil
}

// Dispatch satisfies executor.Worker: it spawns a worker process, feeds it
// a Request over stdin, and parses its Response from stdout. A non-zero
// exit or a malformed Response is reported as a worker failure naming the
// class and, where the process started successfully, its PID.
func (d *Dispatcher) Dispatch(ctx context.Context, className string, args step.ConstructArgs) (time.Time, bool, map[string]interface{}, error) {
	req := NewRequest(className, d.Namespaces, args)
	payload, err := Encode(req)
	if err != nil {
		return time.Time{}, false, nil, fmt.Errorf("encode worker request for %s: %w", className, err)
	}

	cmd := exec.CommandContext(ctx, d.Executable, d.Args...)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return time.Time{}, false, nil, fmt.Errorf("start worker for %s: %w", className, err)
	}
	pid := cmd.Process.Pid
	d.Log.Info("dispatched %s to worker pid %d (dispatch %s)", className, pid, req.DispatchID)

	waitErr := cmd.Wait()
	d.Log.Info("worker pid %d for %s exited (dispatch %s)", pid, className, req.DispatchID)
	if waitErr != nil {
		return time.Time{}, false, nil, fmt.Errorf("child process %d failed for class %s: %w: %s", pid, className, waitErr, stderr.String())
	}

	resp, err := DecodeResponse(stdout.Bytes())
	if err != nil {
		return time.Time{}, false, nil, fmt.Errorf("child process %d for class %s returned an unparseable response: %w", pid, className, err)
	}
	if resp.Error != "" {
		return time.Time{}, false, nil, fmt.Errorf("class %s reported a run error: %s", className, resp.Error)
	}
	if err := CheckProtocol(resp.ProtocolVersion); err != nil {
		return time.Time{}, false, nil, fmt.Errorf("class %s: %w", className, err)
	}

	if resp.LastRunTime == nil {
		return time.Time{}, false, resp.Productions, nil
	}
	return *resp.LastRunTime, true, resp.Productions, nil
}
