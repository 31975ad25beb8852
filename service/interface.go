package service

import "context"

// Service defines the lifecycle interface for long-lived subsystems
// Services own goroutines or devices: the engine loop, audio output, input pumps, ingest readers
//
// Lifecycle:
//  1. Construction (configured by the caller)
//  2. Start(ctx) - launch background goroutines; ctx lives until shutdown
//  3. [runtime operation]
//  4. Stop() - halt goroutines, release resources
type Service interface {
	// Name returns the unique identifier for this service
	Name() string

	// Dependencies returns names of services that must Start before this one
	Dependencies() []string

	// Start begins service operation
	Start(ctx context.Context) error

	// Stop halts service operation and releases resources
	// Must be idempotent
	Stop() error
}

// Func adapts plain functions to Service; nil hooks are no-ops
type Func struct {
	ID      string
	Deps    []string
	OnStart func(ctx context.Context) error
	OnStop  func() error
}

func (f Func) Name() string           { return f.ID }
func (f Func) Dependencies() []string { return f.Deps }

func (f Func) Start(ctx context.Context) error {
	if f.OnStart == nil {
		return nil
	}
	return f.OnStart(ctx)
}

func (f Func) Stop() error {
	if f.OnStop == nil {
		return nil
	}
	return f.OnStop()
}
