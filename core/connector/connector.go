// Package connector defines the boundary between the reconcile engine and the
// systems entries are read from and written to.
package connector

import (
	"context"

	"dirsync/core/bean"
	"dirsync/core/reconcile"
)

// Source lists the entries of a synchronization source.
type Source interface {
	List(ctx context.Context) ([]*bean.Bean, error)
}

// Destination lists the entries of a destination and applies operations to it.
type Destination interface {
	Source
	reconcile.Applier
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) ([]*bean.Bean, error)

// List calls f(ctx).
func (f SourceFunc) List(ctx context.Context) ([]*bean.Bean, error) {
	return f(ctx)
}

// Pairs lists both sides and pairs them by pivot attributes.
func Pairs(ctx context.Context, src Source, dst Source, pivot []string) ([]reconcile.Pair, error) {
	sources, err := src.List(ctx)
	if err != nil {
		return nil, err
	}
	destinations, err := dst.List(ctx)
	if err != nil {
		return nil, err
	}
	return reconcile.PairEntries(sources, destinations, pivot)
}
