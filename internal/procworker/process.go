package procworker

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/tinylib/msgp/msgp"

	apperrors "github.com/agbru/taskbench/internal/errors"
	"github.com/agbru/taskbench/internal/workload"
)

// ErrClosed is returned by Do after the worker has been closed or has crashed.
var ErrClosed = errors.New("procworker: worker process is not running")

// Launcher builds the command that starts one worker process. The command's
// stdin, stdout and environment marker are set by Start.
type Launcher func() (*exec.Cmd, error)

// SelfLauncher re-executes the running binary.
func SelfLauncher() (*exec.Cmd, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, apperrors.WrapError(err, "locate executable")
	}
	return exec.Command(exe), nil
}

// Process is the parent-side handle of one worker process. It is not safe for
// concurrent use: a pool dedicates one goroutine to each Process.
type Process struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	w     *msgp.Writer
	r     *msgp.Reader

	mu      sync.Mutex
	dead    bool
	waitErr error
}

// Start launches a worker process and sends it the work unit spec.
func Start(launch Launcher, spec workload.Spec) (*Process, error) {
	if launch == nil {
		launch = SelfLauncher
	}
	cmd, err := launch()
	if err != nil {
		return nil, err
	}
	cmd.Env = append(cmd.Environ(), EnvWorker+"=1")
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, apperrors.WrapError(err, "worker stdin")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, apperrors.WrapError(err, "worker stdout")
	}
	if err := cmd.Start(); err != nil {
		return nil, apperrors.WrapError(err, "start worker")
	}

	p := &Process{
		cmd:   cmd,
		stdin: stdin,
		w:     msgp.NewWriter(stdin),
		r:     msgp.NewReader(stdout),
	}
	if err := send(p.w, &Hello{Spec: spec}); err != nil {
		p.Kill()
		return nil, apperrors.WrapError(err, "send hello")
	}
	return p, nil
}

// Pid returns the operating-system id of the worker process.
func (p *Process) Pid() int { return p.cmd.Process.Pid }

// Do sends one request and waits for its response. Any transport failure
// means the worker is gone: the process is reaped and the returned error
// carries its exit status.
func (p *Process) Do(req Request) (Response, error) {
	p.mu.Lock()
	dead := p.dead
	p.mu.Unlock()
	if dead {
		return Response{}, ErrClosed
	}

	if err := send(p.w, &req); err != nil {
		return Response{}, p.reap(err)
	}
	var resp Response
	if err := resp.DecodeMsg(p.r); err != nil {
		return Response{}, p.reap(err)
	}
	return resp, nil
}

// reap waits for a worker whose pipe broke and folds its exit status into err.
func (p *Process) reap(err error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.dead {
		p.dead = true
		_ = p.stdin.Close()
		p.waitErr = p.cmd.Wait()
	}
	if p.waitErr != nil {
		return apperrors.WrapError(p.waitErr, "worker process %d", p.cmd.Process.Pid)
	}
	return apperrors.WrapError(err, "worker process %d", p.cmd.Process.Pid)
}

// Close ends the worker gracefully by closing its input, then waits for it.
func (p *Process) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dead {
		return nil
	}
	p.dead = true
	if err := p.stdin.Close(); err != nil {
		_ = p.cmd.Process.Kill()
	}
	p.waitErr = p.cmd.Wait()
	return p.waitErr
}

// Kill terminates the worker immediately.
func (p *Process) Kill() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dead {
		return
	}
	p.dead = true
	_ = p.cmd.Process.Kill()
	_ = p.cmd.Wait()
}
