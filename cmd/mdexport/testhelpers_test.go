package main

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	mdexport "github.com/alnah/go-mdexport"
)

// testEnv returns an Environment with captured output and a fixed
// environment map.
func testEnv(t *testing.T, vars map[string]string) (*Environment, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	env := &Environment{
		Now:    func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
		Stdout: &stdout,
		Stderr: &stderr,
		Getenv: func(k string) string { return vars[k] },
		Environ: func() []string {
			out := make([]string, 0, len(vars))
			for k, v := range vars {
				out = append(out, k+"="+v)
			}
			return out
		},
	}
	return env, &stdout, &stderr
}

// fakeConverter returns canned downloads or an error.
type fakeConverter struct {
	mu     sync.Mutex
	err    error
	inputs []mdexport.Input
}

func (f *fakeConverter) Convert(_ context.Context, in mdexport.Input) (*mdexport.Download, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, in)
	err := f.err
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return &mdexport.Download{Data: []byte("out:" + in.Markdown), Pages: 2}, nil
}

// fakePool hands out one shared fakeConverter.
type fakePool struct {
	conv       *fakeConverter
	size       int
	acquireErr error

	mu       sync.Mutex
	acquired int
	released int
}

func (p *fakePool) Acquire(context.Context) (CLIConverter, error) {
	if p.acquireErr != nil {
		return nil, p.acquireErr
	}
	p.mu.Lock()
	p.acquired++
	p.mu.Unlock()
	return p.conv, nil
}

func (p *fakePool) Release(CLIConverter) {
	p.mu.Lock()
	p.released++
	p.mu.Unlock()
}

func (p *fakePool) Size() int { return p.size }

var errBoom = errors.New("boom")
