package mysequence

import (
	"context"

	"github.com/centralshop/storebackend/lib/myerrors"
	"github.com/centralshop/storebackend/lib/mystore"
)

// Sequence is the persisted counter behind a named monotonic sequence.
type Sequence struct {
	Name  string
	Value int64
}

//go:generate mockgen -source=sequence.go -package mysequence -destination allocator_mock.go Allocator
type Allocator interface {
	// Next returns the next value of the named sequence. Values start at 1
	// and strictly increase, also across process restarts.
	Next(c context.Context, name string) (int64, error)
}

type storeAllocator struct {
	store mystore.Store[Sequence]
}

func New(store mystore.Store[Sequence]) Allocator {
	return &storeAllocator{
		store: store,
	}
}

func (a *storeAllocator) Next(c context.Context, name string) (int64, error) {
	var next int64

	err := a.store.RunInTransaction(c, func(c context.Context) error {
		seq, _, err := a.store.Get(c, name)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		next = seq.Value + 1

		err = a.store.Put(c, name, Sequence{Name: name, Value: next})
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return next, nil
}
