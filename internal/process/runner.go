package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"
)

// OutputHandler receives every line a subprocess writes, tagged with the
// stream it came from.
type OutputHandler interface {
	HandleLine(source, line string)
}

// LogParser splits a raw subprocess line into a log level and message.
type LogParser func(line string) (level, msg string)

// Runner executes a single subprocess to completion. Cancelling the
// context sends SIGINT, waits out the graceful timeout, then escalates
// to SIGKILL. A Runner is single-use.
type Runner struct {
	id              string
	command         string
	cmdMu           sync.Mutex
	cmd             *exec.Cmd
	logger          *slog.Logger
	processLogger   *slog.Logger // sink for subprocess output, falls back to logger
	logParser       LogParser    // levels subprocess output, nil logs everything at info
	outputHandler   OutputHandler
	gracefulTimeout time.Duration // SIGINT to SIGKILL window
	killTimeout     time.Duration // wait after SIGKILL before giving up
}

// NewRunner creates a runner for one subprocess invocation.
func NewRunner(id, command string, logger *slog.Logger) *Runner {
	return &Runner{
		id:              id,
		command:         command,
		logger:          logger,
		gracefulTimeout: 5 * time.Second,
		killTimeout:     5 * time.Second,
	}
}

// Command returns the command string the runner was built with.
func (r *Runner) Command() string {
	return r.command
}

// SetLogParser routes subprocess output through logger, with parser
// deciding the level of each line.
func (r *Runner) SetLogParser(logger *slog.Logger, parser LogParser) {
	r.processLogger = logger
	r.logParser = parser
}

// SetOutputHandler registers a handler that receives every output line.
func (r *Runner) SetOutputHandler(handler OutputHandler) {
	r.outputHandler = handler
}

// procHandle follows a started subprocess.
type procHandle struct {
	exited  <-chan error  // delivers cmd.Wait's result once
	drained chan struct{} // closed after both output pipes finish

	readEnds  []*os.File // closed to unblock readers stalled on inherited pipes
	closeOnce sync.Once
}

// closeReadEnds forces EOF on any reader still blocked on the pipes.
func (p *procHandle) closeReadEnds() {
	p.closeOnce.Do(func() {
		for _, f := range p.readEnds {
			f.Close()
		}
	})
}

// start launches the subprocess and spins up its pipe readers.
func (r *Runner) start() (*procHandle, error) {
	args, err := parseCommand(r.command)
	if err == nil && len(args) == 0 {
		err = errors.New("empty command")
	}
	if err != nil {
		r.logger.Error("Bad command line", "error", err, "command", r.command)
		return nil, err
	}

	cmd := exec.Command(args[0], args[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	// The runner owns its pipes instead of using cmd.StdoutPipe: Wait
	// closes those as soon as the child exits, racing the readers out of
	// a short-lived process's last lines. With os.Pipe the readers drain
	// to EOF independently of Wait.
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		stdoutR.Close()
		stdoutW.Close()
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	if err := cmd.Start(); err != nil {
		stdoutR.Close()
		stdoutW.Close()
		stderrR.Close()
		stderrW.Close()
		r.logger.Error("Failed to start process", "error", err, "command", r.command)
		return nil, err
	}

	// The child holds its own copies of the write ends now. Dropping ours
	// means the readers see EOF once every writer is gone.
	stdoutW.Close()
	stderrW.Close()

	r.cmdMu.Lock()
	r.cmd = cmd
	r.cmdMu.Unlock()

	r.logger.Info("Process started", "id", r.id, "pid", cmd.Process.Pid, "command", r.command)

	var pipes sync.WaitGroup
	pipes.Add(2)
	go func() {
		defer pipes.Done()
		r.streamOutput(stdoutR, "stdout")
	}()
	go func() {
		defer pipes.Done()
		r.streamOutput(stderrR, "stderr")
	}()

	drained := make(chan struct{})
	go func() {
		pipes.Wait()
		close(drained)
	}()

	// Wait only reaps the process; the pipes are not its to close, so it
	// can run alongside the readers without racing them
	exited := make(chan error, 1)
	go func() {
		exited <- cmd.Wait()
	}()

	return &procHandle{
		exited:   exited,
		drained:  drained,
		readEnds: []*os.File{stdoutR, stderrR},
	}, nil
}

// exitCodeFromError maps a cmd.Wait result to a shell-style exit code.
func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}

// Run starts the subprocess and blocks until it exits or ctx is done.
// Returns the exit code of the subprocess.
func (r *Runner) Run(ctx context.Context) int {
	proc, err := r.start()
	if err != nil {
		return 1
	}
	// A backgrounded grandchild can inherit the write ends and outlive the
	// child, so the drain wait is bounded: past the window the read ends
	// are closed and the readers finish on their own.
	defer func() {
		select {
		case <-proc.drained:
		case <-time.After(r.killTimeout):
			r.logger.Warn("Output pipes still open after exit, closing them", "id", r.id)
			proc.closeReadEnds()
			<-proc.drained
		}
		proc.closeReadEnds()
	}()

	select {
	case <-ctx.Done():
		r.logger.Info("Context cancelled, stopping process", "id", r.id)
		r.sendStopSignal()
		return r.waitForExit(proc.exited, r.gracefulTimeout)
	case waitErr := <-proc.exited:
		code := exitCodeFromError(waitErr)
		if waitErr != nil && code == 1 {
			r.logger.Error("Process exited with error", "error", waitErr)
		}
		r.logger.Info("Process exited", "id", r.id, "exit_code", code)
		return code
	}
}

// currentCmd snapshots the running exec.Cmd.
func (r *Runner) currentCmd() *exec.Cmd {
	r.cmdMu.Lock()
	defer r.cmdMu.Unlock()
	return r.cmd
}

// sendStopSignal delivers SIGINT without waiting for the result.
func (r *Runner) sendStopSignal() {
	cmd := r.currentCmd()
	if cmd == nil || cmd.Process == nil {
		return
	}
	r.logger.Info("Sending SIGINT to process", "pid", cmd.Process.Pid)
	if err := cmd.Process.Signal(syscall.SIGINT); err != nil {
		r.logger.Warn("Failed to send SIGINT", "error", err)
	}
}

// kill force-kills the subprocess, tolerating one that already exited.
func (r *Runner) kill() {
	cmd := r.currentCmd()
	if cmd == nil || cmd.Process == nil {
		return
	}
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		r.logger.Error("Failed to kill process", "error", err)
	}
}

// waitForExit gives the process the graceful window, then force-kills it
// and reports the conventional SIGKILL exit code.
func (r *Runner) waitForExit(exited <-chan error, grace time.Duration) int {
	select {
	case waitErr := <-exited:
		return exitCodeFromError(waitErr)
	case <-time.After(grace):
	}

	r.logger.Warn("Graceful shutdown timeout, forcing kill", "timeout", grace)
	r.kill()

	select {
	case <-exited:
	case <-time.After(r.killTimeout):
		r.logger.Error("Process did not exit after kill signal")
	}
	return 137
}

// logAt routes one parsed output line to the matching slog level.
func logAt(logger *slog.Logger, level, msg string) {
	switch level {
	case "fatal", "error":
		logger.Error(msg)
	case "warning":
		logger.Warn(msg)
	case "debug", "trace":
		logger.Debug(msg)
	default:
		logger.Info(msg)
	}
}

// streamOutput scans one output pipe line by line until EOF, feeding the
// output handler and the process logger.
func (r *Runner) streamOutput(reader io.Reader, source string) {
	logger := r.processLogger
	if logger == nil {
		logger = r.logger
	}

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := scanner.Text()

		if r.outputHandler != nil {
			r.outputHandler.HandleLine(source, line)
		}

		if r.logParser == nil {
			logger.Info(line)
			continue
		}
		level, msg := r.logParser(line)
		logAt(logger, level, msg)
	}

	// A forced close of the read end ends the stream, not an error worth
	// reporting
	if err := scanner.Err(); err != nil && !errors.Is(err, os.ErrClosed) {
		r.logger.Warn("Error reading output", "source", source, "error", err)
	}
}

// parseCommand splits a shell-style command line into argv, honoring
// single and double quotes and backslash escapes.
func parseCommand(command string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		quote   rune
		escaped bool
	)

	flush := func() {
		if current.Len() > 0 {
			args = append(args, current.String())
			current.Reset()
		}
	}

	for _, r := range strings.TrimSpace(command) {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
		case r == ' ':
			flush()
		default:
			current.WriteRune(r)
		}
	}
	if escaped {
		// A trailing backslash escapes nothing, keep it literal
		current.WriteRune('\\')
	}
	flush()

	if quote != 0 {
		return nil, fmt.Errorf("unclosed quote in command")
	}
	return args, nil
}
