package procworker

import (
	"errors"
	"fmt"
	"time"

	"github.com/tinylib/msgp/msgp"

	apperrors "github.com/agbru/taskbench/internal/errors"
	"github.com/agbru/taskbench/internal/workload"
)

// Error kinds carried by a Response.
const (
	errKindNone  = ""
	errKindWork  = "work"
	errKindPanic = "panic"
	errKindOther = "other"
)

// Hello is the first frame a worker receives.
type Hello struct {
	Spec workload.Spec
}

// Request asks the worker to run one task.
type Request struct {
	TaskID  int
	TaskNum int
}

// Response carries the outcome of one Request.
type Response struct {
	TaskID   int
	TaskNum  int
	Value    int
	ErrKind  string
	ErrMsg   string
	ErrCtx   string
	Duration time.Duration
}

// Err rebuilds the error the work unit returned in the worker.
func (r Response) Err() error {
	switch r.ErrKind {
	case errKindNone:
		return nil
	case errKindWork:
		return apperrors.WorkError{TaskNum: r.TaskNum, Context: r.ErrCtx}
	case errKindPanic:
		return apperrors.PanicError{TaskID: r.TaskID, Value: r.ErrMsg}
	default:
		return errors.New(r.ErrMsg)
	}
}

// setErr classifies err into the response fields.
func (r *Response) setErr(err error) {
	if err == nil {
		return
	}
	var we apperrors.WorkError
	var pe apperrors.PanicError
	switch {
	case errors.As(err, &we):
		r.ErrKind, r.ErrCtx = errKindWork, we.Context
	case errors.As(err, &pe):
		r.ErrKind = errKindPanic
		r.ErrMsg = fmt.Sprint(pe.Value)
		return
	default:
		r.ErrKind = errKindOther
	}
	r.ErrMsg = err.Error()
}

// EncodeMsg implements msgp.Encodable.
func (h *Hello) EncodeMsg(w *msgp.Writer) error {
	s := h.Spec
	if err := w.WriteMapHeader(5); err != nil {
		return err
	}
	if err := writeKV(w, "kind", func() error { return w.WriteString(string(s.Kind)) }); err != nil {
		return err
	}
	if err := writeKV(w, "unit", func() error { return w.WriteInt64(int64(s.Unit)) }); err != nil {
		return err
	}
	if err := writeKV(w, "iterations", func() error { return w.WriteInt(s.Iterations) }); err != nil {
		return err
	}
	if err := writeKV(w, "fail_on", func() error { return writeInts(w, s.FailOn) }); err != nil {
		return err
	}
	return writeKV(w, "exit_on", func() error { return writeInts(w, s.ExitOn) })
}

// DecodeMsg implements msgp.Decodable.
func (h *Hello) DecodeMsg(r *msgp.Reader) error {
	n, err := r.ReadMapHeader()
	if err != nil {
		return err
	}
	for ; n > 0; n-- {
		key, err := r.ReadMapKeyPtr()
		if err != nil {
			return err
		}
		switch msgp.UnsafeString(key) {
		case "kind":
			var k string
			k, err = r.ReadString()
			h.Spec.Kind = workload.Kind(k)
		case "unit":
			var u int64
			u, err = r.ReadInt64()
			h.Spec.Unit = time.Duration(u)
		case "iterations":
			h.Spec.Iterations, err = r.ReadInt()
		case "fail_on":
			var ints []int
			ints, err = readInts(r)
			h.Spec.FailOn = workload.FailSet(ints)
		case "exit_on":
			h.Spec.ExitOn, err = readInts(r)
		default:
			err = r.Skip()
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// EncodeMsg implements msgp.Encodable.
func (q *Request) EncodeMsg(w *msgp.Writer) error {
	if err := w.WriteMapHeader(2); err != nil {
		return err
	}
	if err := writeKV(w, "id", func() error { return w.WriteInt(q.TaskID) }); err != nil {
		return err
	}
	return writeKV(w, "num", func() error { return w.WriteInt(q.TaskNum) })
}

// DecodeMsg implements msgp.Decodable.
func (q *Request) DecodeMsg(r *msgp.Reader) error {
	n, err := r.ReadMapHeader()
	if err != nil {
		return err
	}
	for ; n > 0; n-- {
		key, err := r.ReadMapKeyPtr()
		if err != nil {
			return err
		}
		switch msgp.UnsafeString(key) {
		case "id":
			q.TaskID, err = r.ReadInt()
		case "num":
			q.TaskNum, err = r.ReadInt()
		default:
			err = r.Skip()
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// EncodeMsg implements msgp.Encodable.
func (p *Response) EncodeMsg(w *msgp.Writer) error {
	if err := w.WriteMapHeader(7); err != nil {
		return err
	}
	fields := []struct {
		key   string
		write func() error
	}{
		{"id", func() error { return w.WriteInt(p.TaskID) }},
		{"num", func() error { return w.WriteInt(p.TaskNum) }},
		{"value", func() error { return w.WriteInt(p.Value) }},
		{"err_kind", func() error { return w.WriteString(p.ErrKind) }},
		{"err_msg", func() error { return w.WriteString(p.ErrMsg) }},
		{"err_ctx", func() error { return w.WriteString(p.ErrCtx) }},
		{"duration", func() error { return w.WriteInt64(int64(p.Duration)) }},
	}
	for _, f := range fields {
		if err := writeKV(w, f.key, f.write); err != nil {
			return err
		}
	}
	return nil
}

// DecodeMsg implements msgp.Decodable.
func (p *Response) DecodeMsg(r *msgp.Reader) error {
	n, err := r.ReadMapHeader()
	if err != nil {
		return err
	}
	for ; n > 0; n-- {
		key, err := r.ReadMapKeyPtr()
		if err != nil {
			return err
		}
		switch msgp.UnsafeString(key) {
		case "id":
			p.TaskID, err = r.ReadInt()
		case "num":
			p.TaskNum, err = r.ReadInt()
		case "value":
			p.Value, err = r.ReadInt()
		case "err_kind":
			p.ErrKind, err = r.ReadString()
		case "err_msg":
			p.ErrMsg, err = r.ReadString()
		case "err_ctx":
			p.ErrCtx, err = r.ReadString()
		case "duration":
			var d int64
			d, err = r.ReadInt64()
			p.Duration = time.Duration(d)
		default:
			err = r.Skip()
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func writeKV(w *msgp.Writer, key string, value func() error) error {
	if err := w.WriteString(key); err != nil {
		return err
	}
	return value()
}

func writeInts(w *msgp.Writer, ints []int) error {
	if err := w.WriteArrayHeader(uint32(len(ints))); err != nil {
		return err
	}
	for _, v := range ints {
		if err := w.WriteInt(v); err != nil {
			return err
		}
	}
	return nil
}

func readInts(r *msgp.Reader) ([]int, error) {
	n, err := r.ReadArrayHeader()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	out := make([]int, n)
	for i := range out {
		if out[i], err = r.ReadInt(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// send encodes one frame and flushes it to the pipe.
func send(w *msgp.Writer, e msgp.Encodable) error {
	if err := e.EncodeMsg(w); err != nil {
		return err
	}
	return w.Flush()
}
