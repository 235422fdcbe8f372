package procworker

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/tinylib/msgp/msgp"

	apperrors "github.com/agbru/taskbench/internal/errors"
	"github.com/agbru/taskbench/internal/task"
	"github.com/agbru/taskbench/internal/workload"
)

// EnvWorker marks a process started as a pool worker.
const EnvWorker = "TASKBENCH_PROCESS_WORKER"

// IsWorker reports whether the current process was started as a pool worker.
func IsWorker() bool { return os.Getenv(EnvWorker) == "1" }

// ServeProcess serves the worker protocol on the process's stdin and stdout
// and returns the exit code the process should terminate with.
func ServeProcess() int {
	dieWithParent()
	if err := Serve(context.Background(), os.Stdin, os.Stdout); err != nil {
		os.Stderr.WriteString("procworker: " + err.Error() + "\n")
		return 1
	}
	return 0
}

// Serve reads a Hello frame, rebuilds the work unit it describes, then runs
// one task per Request frame until the input is closed.
func Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	r := msgp.NewReader(in)
	w := msgp.NewWriter(out)

	var hello Hello
	if err := hello.DecodeMsg(r); err != nil {
		return apperrors.WrapError(err, "read hello")
	}
	unit, err := workload.FromSpec(hello.Spec)
	if err != nil {
		return err
	}

	for {
		var req Request
		if err := req.DecodeMsg(r); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return apperrors.WrapError(err, "read request")
		}
		resp := run(ctx, unit, req)
		if err := send(w, &resp); err != nil {
			return apperrors.WrapError(err, "write response for task %d", req.TaskID)
		}
	}
}

func run(ctx context.Context, unit task.WorkUnit, req Request) (resp Response) {
	resp.TaskID = req.TaskID
	resp.TaskNum = req.TaskNum
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			resp.Value = 0
			resp.setErr(apperrors.PanicError{TaskID: req.TaskID, Value: r})
		}
		resp.Duration = time.Since(start)
	}()

	v, err := unit.Do(ctx, task.Blocking, req.TaskNum)
	if err != nil {
		resp.setErr(err)
		return resp
	}
	resp.Value = v
	return resp
}
