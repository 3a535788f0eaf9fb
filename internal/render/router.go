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

package render

import (
	"sync"

	"flitter.dev/flitter/internal/value"
)

// WorkerFactory constructs a fresh Worker for one renderer-class
// instance of the given kind.
type WorkerFactory func(kind string) Worker

// Router implements the Route step of the frame scheduler (spec.md
// §4.7 step 4): partition graph.children by kind, reuse existing
// proxies in order, spawn new ones as needed, destroy surplus, and
// await every update in parallel.
type Router struct {
	mu      sync.Mutex
	proxies map[string][]*Proxy
	factory WorkerFactory
}

// NewRouter creates a Router that spawns workers via factory.
func NewRouter(factory WorkerFactory) *Router {
	return &Router{proxies: map[string][]*Proxy{}, factory: factory}
}

// Route partitions children by kind, and for each kind sends one
// Update per node to a proxy (reusing existing ones in order, spawning
// new ones as needed, destroying surplus), then awaits every update.
// state/vars are shared across every node of the frame, matching
// spec.md's "state.dirty" being a frame-wide concern, not a per-node
// one.
func (r *Router) Route(children []*value.Node, state []value.Entry, vars map[string]value.Vector) []error {
	byKind := map[string][]*value.Node{}
	var order []string
	for _, n := range children {
		k := n.Kind().String()
		if _, seen := byKind[k]; !seen {
			order = append(order, k)
		}
		byKind[k] = append(byKind[k], n)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var waiters []<-chan error

	for _, kind := range order {
		nodes := byKind[kind]
		proxies := r.ensureProxies(kind, len(nodes))
		for i, n := range nodes {
			ch := proxies[i].Update(Update{Node: n, State: state, Vars: vars})
			waiters = append(waiters, ch)
		}
	}

	var errs []error
	for _, ch := range waiters {
		if err := <-ch; err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// ensureProxies grows or shrinks the pool for kind to exactly n
// proxies, destroying surplus ones (spec.md §4.7 step 4 "destroy
// surplus").
func (r *Router) ensureProxies(kind string, n int) []*Proxy {
	pool := r.proxies[kind]
	for len(pool) < n {
		pool = append(pool, NewProxy(kind, r.factory(kind)))
	}
	if len(pool) > n {
		for _, p := range pool[n:] {
			p.Destroy()
		}
		pool = pool[:n]
	}
	r.proxies[kind] = pool
	return pool
}

// DestroyAll tears down every proxy across every kind, used at
// shutdown (spec.md §5 "calls destroy on every proxy").
func (r *Router) DestroyAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for kind, pool := range r.proxies {
		for _, p := range pool {
			p.Destroy()
		}
		delete(r.proxies, kind)
	}
}
