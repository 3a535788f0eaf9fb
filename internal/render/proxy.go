// Copyright 2024 CUE Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package render implements C6, the renderer proxy: a uniform
// update/purge/destroy protocol in front of an out-of-process
// renderer backend. It is grounded on internal/task/task.go's split
// between a Context (what the scheduler threads through) and a Runner
// (the backend-specific implementation plugged in by kind) — narrowed
// here to a Worker interface and a single queue-depth-1 channel per
// proxy instead of task.go's synchronous flow.Runner, since spec.md
// §4.6 requires an asynchronous, backpressured update protocol rather
// than task.go's blocking call-and-return.
package render

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"flitter.dev/flitter/internal/logging"
	"flitter.dev/flitter/internal/value"
)

// Update is one frame's worth of work for a proxy (spec.md §4.6
// "update(node, state, refs, **frame_vars)").
type Update struct {
	Node  *value.Node
	State []value.Entry
	Refs  map[string]interface{}
	Vars  map[string]value.Vector
}

// Worker is the backend-specific implementation a Proxy drives. A real
// worker owns a renderer running in a separate OS process (spec.md
// §4.6 "Each renderer backend runs in its own worker process"); this
// package only models the protocol, not the IPC transport.
type Worker interface {
	Update(ctx context.Context, u Update) error
	Purge()
	Destroy()
}

// Proxy fronts one Worker with a capacity-1 update queue, so that
// submission blocks the caller until the worker has picked up any
// previously queued update (spec.md §4.6 "at-most-one pending update
// per proxy... backpressure").
type Proxy struct {
	ID   uuid.UUID
	Kind string

	worker Worker
	queue  chan job

	logInterval time.Duration
	mu          sync.Mutex
	renderTime  time.Duration
	frameCount  int

	stop chan struct{}
	done chan struct{}
}

type job struct {
	update Update
	result chan error
}

// NewProxy starts a proxy driving worker, spawning its single
// consumer goroutine.
func NewProxy(kind string, worker Worker) *Proxy {
	p := &Proxy{
		ID:          uuid.New(),
		Kind:        kind,
		worker:      worker,
		queue:       make(chan job, 1),
		logInterval: 5 * time.Second,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *Proxy) run() {
	defer close(p.done)
	ticker := time.NewTicker(p.logInterval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case j := <-p.queue:
			start := time.Now()
			err := p.worker.Update(context.Background(), j.update)
			p.mu.Lock()
			p.renderTime += time.Since(start)
			p.frameCount++
			p.mu.Unlock()
			j.result <- err
		case <-ticker.C:
			p.mu.Lock()
			total, n := p.renderTime, p.frameCount
			p.renderTime, p.frameCount = 0, 0
			p.mu.Unlock()
			if n > 0 {
				logging.Infof("render: proxy %s (%s) rendered %d frames in %s", p.ID, p.Kind, n, total)
			}
		}
	}
}

// Update queues u for the worker, blocking until the queue has room
// (at most one pending update), and returns a channel that receives
// the worker's result once it has actually processed u. The returned
// channel is the "awaitable" of spec.md §4.6: the scheduler fans out
// updates across proxies and waits on every channel before advancing
// to the next frame.
func (p *Proxy) Update(u Update) <-chan error {
	result := make(chan error, 1)
	p.queue <- job{update: u, result: result}
	return result
}

// Purge is a best-effort, unqueued signal: it does not wait behind a
// pending update (spec.md §4.6 "purge() is a best-effort signal").
func (p *Proxy) Purge() { p.worker.Purge() }

// Destroy terminates the worker and joins its goroutine (spec.md §4.6
// "destroy() terminates and joins").
func (p *Proxy) Destroy() {
	close(p.stop)
	<-p.done
	p.worker.Destroy()
}
