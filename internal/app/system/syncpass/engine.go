// internal/app/system/syncpass/engine.go
package syncpass

import (
	"context"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Engine tracks whether the sync machinery is attached to a live store.
// The health monitor consults Ready and drives Attach through its
// reinitialize recovery action.
type Engine struct {
	client *mongo.Client
	log    *zap.Logger
	ready  atomic.Bool
}

// NewEngine builds an Engine over the app's mongo client. It starts
// detached; Attach must succeed before sync passes run.
func NewEngine(client *mongo.Client, logger *zap.Logger) *Engine {
	return &Engine{client: client, log: logger}
}

// Ready reports whether the engine is attached.
func (e *Engine) Ready() bool { return e.ready.Load() }

// Attach verifies the store is reachable and marks the engine ready.
// A failed ping leaves the engine detached.
func (e *Engine) Attach(ctx context.Context) error {
	if err := e.client.Ping(ctx, readpref.Primary()); err != nil {
		e.ready.Store(false)
		return err
	}
	e.ready.Store(true)
	e.log.Info("sync engine attached")
	return nil
}

// Detach marks the engine not ready; the next health check will route
// through the reinitialize recovery action.
func (e *Engine) Detach() {
	e.ready.Store(false)
}
