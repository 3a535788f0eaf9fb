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

package render_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"flitter.dev/flitter/internal/render"
	"flitter.dev/flitter/internal/value"
)

type fakeWorker struct {
	updates   int32
	destroyed int32
	block     chan struct{}
}

func (w *fakeWorker) Update(ctx context.Context, u render.Update) error {
	if w.block != nil {
		<-w.block
	}
	atomic.AddInt32(&w.updates, 1)
	return nil
}
func (w *fakeWorker) Purge()   {}
func (w *fakeWorker) Destroy() { atomic.AddInt32(&w.destroyed, 1) }

func TestProxyUpdateBackpressure(t *testing.T) {
	w := &fakeWorker{block: make(chan struct{})}
	p := render.NewProxy("shader", w)
	defer p.Destroy()

	first := p.Update(render.Update{})
	// The worker picks first up and blocks in it, so second fits in the
	// capacity-1 queue once first has been taken.
	second := p.Update(render.Update{})

	var third <-chan error
	done := make(chan struct{})
	go func() {
		third = p.Update(render.Update{})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("third Update should block while first is in flight and second is still queued")
	case <-time.After(20 * time.Millisecond):
	}

	close(w.block)
	require.NoError(t, <-first)
	require.NoError(t, <-second)

	<-done
	require.NoError(t, <-third)
}

func TestProxyDestroyJoinsWorker(t *testing.T) {
	w := &fakeWorker{}
	p := render.NewProxy("shader", w)
	p.Destroy()
	require.EqualValues(t, 1, w.destroyed)
}

func TestRouterRoutesByKindAndAwaitsAll(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]int{}
	factory := func(kind string) render.Worker {
		return &countingWorker{kind: kind, mu: &mu, seen: seen}
	}
	r := render.NewRouter(factory)
	defer r.DestroyAll()

	shader := value.NewNode(value.Intern("shader"))
	video := value.NewNode(value.Intern("video"))
	errs := r.Route([]*value.Node{shader, video, shader}, nil, nil)
	require.Empty(t, errs)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 2, seen["shader"])
	require.Equal(t, 1, seen["video"])
}

type countingWorker struct {
	kind string
	mu   *sync.Mutex
	seen map[string]int
}

func (w *countingWorker) Update(ctx context.Context, u render.Update) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.seen[w.kind]++
	return nil
}
func (w *countingWorker) Purge()   {}
func (w *countingWorker) Destroy() {}
