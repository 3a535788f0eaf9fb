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

// Package scheduler implements C7, the frame scheduler: the real-time
// driver that reloads source on mtime changes, re-simplifies on state
// stability, paces frames, and routes graph updates to renderer
// proxies. It is grounded on cmd/cue/cmd's orchestration style (a
// single-threaded driver loop composing independently testable
// stages) generalized from "run a CUE evaluation once" to
// "run flitter.dev/flitter/internal/lang's simplify/evaluate loop once
// per frame".
package scheduler

import (
	"time"

	"flitter.dev/flitter/internal/cache"
	"flitter.dev/flitter/internal/errors"
	"flitter.dev/flitter/internal/lang"
	"flitter.dev/flitter/internal/logging"
	"flitter.dev/flitter/internal/render"
	"flitter.dev/flitter/internal/statefile"
	"flitter.dev/flitter/internal/value"
)

// programStatus is the running-AST state machine of spec.md §4.7.
type programStatus int

const (
	statusNone programStatus = iota
	statusFresh
	statusSpecialized
)

// Config bundles the scheduler's tunables, corresponding to the CLI
// flags described in spec.md §6.
type Config struct {
	ProgramPath   string
	Defs          map[string]value.Vector
	Parser        cache.ProgramParser
	StateFilePath string
	Page          string

	TargetFPS       float64
	Realtime        bool
	StateEvalWait   time.Duration
	ResetOnSwitch   bool
	DisableSimplify bool
	CacheTTL        time.Duration
}

// Scheduler runs the per-frame algorithm of spec.md §4.7.
type Scheduler struct {
	cfg    Config
	cache  *cache.Cache
	router *render.Router
	state  *value.StateDict

	status  programStatus
	current *lang.Top // last successfully loaded AST
	run     *lang.Top // the (possibly re-specialized) AST actually evaluated

	stateTimestamp time.Time
	lastDump       time.Time
	frameTime      float64
	performance    float64

	prevErrors []string
	prevLogs   []string

	pendingPage string
	beat        float64
	clockStart  time.Time
}

// New creates a Scheduler with a fresh StateDict, loading any
// previously persisted state from cfg.StateFilePath.
func New(cfg Config, c *cache.Cache, router *render.Router) (*Scheduler, error) {
	s := &Scheduler{
		cfg:         cfg,
		cache:       c,
		router:      router,
		state:       value.NewStateDict(),
		performance: 1.0,
		clockStart:  wallNow(),
	}
	if cfg.StateFilePath != "" {
		pages, err := statefile.Load(cfg.StateFilePath)
		if err != nil {
			return nil, err
		}
		if entries, ok := pages[cfg.Page]; ok {
			s.state.Restore(entries)
		}
	}
	return s, nil
}

// wallNow is a seam so frame pacing can be tested with a fake clock.
var wallNow = time.Now

// Reload implements step 1: ask the cache for the current program,
// adopting it (and logging) if it's a new value.
func (s *Scheduler) Reload() {
	top, ok := s.cache.Program(s.cfg.ProgramPath, s.cfg.Defs, s.cfg.Parser)
	if !ok {
		logging.Warningf("scheduler: reload failed for %s, keeping previous program", s.cfg.ProgramPath)
		return
	}
	if s.current != nil && topEqual(s.current, top) {
		return
	}
	logging.Infof("scheduler: loaded %s", s.cfg.ProgramPath)
	s.current = top
	s.run = top
	s.status = statusFresh
}

// topEqual compares two loaded Tops for the purpose of detecting "a
// new value" in Reload; it reuses the simplifier's structural equality
// on the simplified Tops that the cache's Program returns.
func topEqual(a, b *lang.Top) bool {
	return lang.ExprEqual(a, b)
}

// Respecialize implements step 2: if enough time has passed since the
// last specialization and state hasn't gone dirty in the meantime,
// simplify the current AST again using state as input.
func (s *Scheduler) Respecialize(now time.Time) {
	if s.cfg.DisableSimplify || s.current == nil {
		return
	}
	if s.state.Dirty() {
		s.run = s.current
		s.stateTimestamp = now
		s.state.ClearDirty()
		s.status = statusFresh
		return
	}
	if s.cfg.StateEvalWait <= 0 {
		return
	}
	if s.stateTimestamp.IsZero() || now.Sub(s.stateTimestamp) < s.cfg.StateEvalWait {
		return
	}

	names := map[string]lang.NameEntry{}
	for name, v := range s.cfg.Defs {
		names[name] = lang.NameEntry{HasVector: true, Vector: v}
	}
	ctx := lang.NewContext(lang.NewEnv().Extend(names), s.state)
	simplified := lang.Simplify(s.current, ctx)
	if top, ok := simplified.(*lang.Top); ok {
		s.run = top
		s.status = statusSpecialized
	}
	s.stateTimestamp = now
}

// FrameResult is what one call to Frame produced, for a caller (a CLI
// loop, or a test) to inspect or log.
type FrameResult struct {
	Graph      *value.Node
	NewErrors  []string
	NewLogs    []string
	RouteErrs  []error
	Performance float64
}

// Frame runs steps 3-6 of the per-frame algorithm for one tick: call
// the evaluator with the given frame variables, diff errors/logs
// against the previous frame, route the graph to renderer proxies,
// persist state if warranted, and pace/update the performance scalar.
// vars should at minimum include beat/quantum/tempo/delta/clock/fps;
// Frame adds performance and realtime itself.
func (s *Scheduler) Frame(vars map[string]value.Vector, onTime bool) FrameResult {
	if s.run == nil {
		return FrameResult{Performance: s.performance}
	}

	vars = cloneVars(vars)
	vars["performance"] = value.Number(s.performance)
	vars["realtime"] = value.Bool(s.cfg.Realtime)

	names := map[string]lang.NameEntry{}
	for name, v := range s.cfg.Defs {
		names[name] = lang.NameEntry{HasVector: true, Vector: v}
	}
	for name, v := range vars {
		names[name] = lang.NameEntry{HasVector: true, Vector: v}
	}
	ctx := lang.NewContext(lang.NewEnv().Extend(names), s.state)
	ctx.Graph = value.NewNode(value.Intern("root"))

	lang.EvalTop(s.run, ctx)

	newErrors := diffMessages(s.prevErrors, errors.Strings(ctx.Errors()))
	newLogs := diffMessages(s.prevLogs, errors.Strings(ctx.Logs()))
	for _, m := range newErrors {
		logging.Errorf("%s", m)
	}
	for _, m := range newLogs {
		logging.Infof("%s", m)
	}
	s.prevErrors = errors.Strings(ctx.Errors())
	s.prevLogs = errors.Strings(ctx.Logs())

	routeErrs := s.router.Route(ctx.Graph.Children(), s.state.Snapshot(), vars)

	s.persist(wallNow())
	s.pace(onTime)

	return FrameResult{
		Graph:       ctx.Graph,
		NewErrors:   newErrors,
		NewLogs:     newLogs,
		RouteErrs:   routeErrs,
		Performance: s.performance,
	}
}

func cloneVars(vars map[string]value.Vector) map[string]value.Vector {
	out := make(map[string]value.Vector, len(vars)+2)
	for k, v := range vars {
		out[k] = v
	}
	return out
}

// diffMessages returns the entries of cur not present in prev, in
// order, implementing "emit only new ones" (spec.md §4.7 step 3).
func diffMessages(prev, cur []string) []string {
	seen := make(map[string]int, len(prev))
	for _, m := range prev {
		seen[m]++
	}
	var out []string
	for _, m := range cur {
		if seen[m] > 0 {
			seen[m]--
			continue
		}
		out = append(out, m)
	}
	return out
}

// persist implements step 5: serialize state to the state file if it
// was modified and at least 1s has elapsed since the last dump.
func (s *Scheduler) persist(now time.Time) {
	if s.cfg.StateFilePath == "" || !s.state.Dirty() {
		return
	}
	if !s.lastDump.IsZero() && now.Sub(s.lastDump) < time.Second {
		return
	}
	pages, err := statefile.Load(s.cfg.StateFilePath)
	if err != nil {
		pages = map[string][]value.Entry{}
	}
	pages[s.cfg.Page] = s.state.Snapshot()
	if err := statefile.Save(s.cfg.StateFilePath, pages); err != nil {
		logging.Warningf("scheduler: persist state: %v", err)
		return
	}
	s.lastDump = now
}

// pace implements step 6: advance frame_time and adjust the
// performance scalar, clamped to [0.5, 2.0].
func (s *Scheduler) pace(onTime bool) {
	if onTime {
		s.performance += 0.001
	} else {
		s.performance -= 0.01
	}
	if s.performance < 0.5 {
		s.performance = 0.5
	}
	if s.performance > 2.0 {
		s.performance = 2.0
	}
	if s.cfg.TargetFPS > 0 {
		s.frameTime += 1 / s.cfg.TargetFPS
	}
}

// FrameTime reports the accumulated scheduled wall-clock time (for a
// realtime caller to sleep against).
func (s *Scheduler) FrameTime() float64 { return s.frameTime }

// RequestPageSwitch schedules a page switch to take effect before the
// next Frame call (spec.md §4.7 step 7).
func (s *Scheduler) RequestPageSwitch(page string) { s.pendingPage = page }

// ApplySwitchedPage implements step 7: apply any pending page switch
// between frames, resetting per-page state and forcing a reload.
func (s *Scheduler) ApplySwitchedPage() bool {
	if s.pendingPage == "" {
		return false
	}
	s.cfg.Page = s.pendingPage
	s.pendingPage = ""
	if s.cfg.ResetOnSwitch {
		s.state = value.NewStateDict()
	} else if s.cfg.StateFilePath != "" {
		if pages, err := statefile.Load(s.cfg.StateFilePath); err == nil {
			if entries, ok := pages[s.cfg.Page]; ok {
				s.state.Restore(entries)
			}
		}
	}
	s.status = statusNone
	s.current = nil
	s.run = nil
	return true
}

// State exposes the scheduler's StateDict, e.g. for a control surface
// to mutate directly.
func (s *Scheduler) State() *value.StateDict { return s.state }
