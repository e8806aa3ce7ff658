package main

import (
	"context"
	"fmt"

	mdexport "github.com/alnah/go-mdexport"
)

// CLIConverter is the interface for the conversion service.
type CLIConverter interface {
	Convert(ctx context.Context, input mdexport.Input) (*mdexport.Download, error)
}

// Compile-time interface implementation check.
var _ CLIConverter = (*mdexport.Converter)(nil)

// Pool abstracts converter pool operations for testability.
type Pool interface {
	Acquire(ctx context.Context) (CLIConverter, error)
	Release(CLIConverter)
	Size() int
}

// poolAdapter exposes *mdexport.ConverterPool as a Pool.
type poolAdapter struct {
	pool *mdexport.ConverterPool
}

func (a *poolAdapter) Acquire(ctx context.Context) (CLIConverter, error) {
	c, err := a.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Release panics on converters the pool did not hand out.
func (a *poolAdapter) Release(c CLIConverter) {
	conv, ok := c.(*mdexport.Converter)
	if !ok {
		panic(fmt.Sprintf("poolAdapter.Release: unexpected type %T", c))
	}
	a.pool.Release(conv)
}

func (a *poolAdapter) Size() int {
	return a.pool.Size()
}
