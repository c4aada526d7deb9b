package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"todosync/internal/service"
	"todosync/internal/tasklist"
)

// snapshotTimeout bounds the wait for a subscription's first delivery.
const snapshotTimeout = 10 * time.Second

// firstSnapshot subscribes, takes the initial result set and tears the
// subscription down.
func firstSnapshot(ctx context.Context, s *tasklist.Sync, ownerID string) ([]service.Task, error) {
	v, err := s.Subscribe(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	defer v.Close()

	waitCtx, cancel := context.WithTimeout(ctx, snapshotTimeout)
	defer cancel()

	snap, err := v.Next(waitCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("timed out waiting for tasks: %w", err)
		}
		return nil, err
	}
	return snap.Tasks, nil
}

// lookupTask resolves ref against the owner's current tasks.
func lookupTask(ctx context.Context, s *tasklist.Sync, ownerID string, ref TaskRef) (service.Task, error) {
	tasks, err := firstSnapshot(ctx, s, ownerID)
	if err != nil {
		return service.Task{}, err
	}
	return ref.Resolve(tasks)
}

// awaitChange waits for a snapshot newer than seq and returns it. A view
// that stops or a timeout returns the last delivered tasks with the error.
func awaitChange(ctx context.Context, v *tasklist.View, seq uint64) ([]service.Task, error) {
	waitCtx, cancel := context.WithTimeout(ctx, snapshotTimeout)
	defer cancel()

	for {
		snap, err := v.Next(waitCtx)
		if err != nil {
			return v.Tasks(), err
		}
		if snap.Seq > seq {
			return snap.Tasks, nil
		}
	}
}
