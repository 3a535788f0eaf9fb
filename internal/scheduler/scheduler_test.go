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

package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"flitter.dev/flitter/internal/cache"
	"flitter.dev/flitter/internal/lang"
	"flitter.dev/flitter/internal/render"
	"flitter.dev/flitter/internal/statefile"
	"flitter.dev/flitter/internal/value"
)

// parseByContent is a fake cache.ProgramParser: the file's contents
// select one of two fixed Tops, standing in for "the external parser
// produced a different program" without needing a real grammar. The
// Pragma keeps the two distinct after the cache simplifies them (the
// unbound Name alone folds to a dropped null).
func parseByContent(path string) (*lang.Top, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	name := "undefined_one"
	if string(content) == "two" {
		name = "undefined_two"
	}
	return &lang.Top{Items: []lang.Expr{
		&lang.Pragma{Name: "variant", Expr: &lang.Literal{Value: value.SymbolOf(name)}},
		&lang.Name{Name: name},
	}}, nil
}

func newTestScheduler(t *testing.T, cfg Config) *Scheduler {
	t.Helper()
	c := cache.New()
	router := render.NewRouter(func(kind string) render.Worker { return fakeRenderWorker{} })
	s, err := New(cfg, c, router)
	require.NoError(t, err)
	return s
}

type fakeRenderWorker struct{}

func (fakeRenderWorker) Update(_ context.Context, _ render.Update) error { return nil }
func (fakeRenderWorker) Purge()                                         {}
func (fakeRenderWorker) Destroy()                                       {}

func TestReloadAdoptsNewProgramAndSkipsUnchanged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p.flr")
	require.NoError(t, os.WriteFile(path, []byte("one"), 0o644))

	s := newTestScheduler(t, Config{ProgramPath: path, Parser: parseByContent, TargetFPS: 30})

	s.Reload()
	require.NotNil(t, s.current)
	require.Equal(t, statusFresh, s.status)
	first := s.current

	// Reloading again with an unchanged file must not replace s.current
	// (Reload compares structurally via topEqual, not just by mtime).
	s.Reload()
	require.True(t, s.current == first, "Reload should keep the same *Top when the program hasn't changed")

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("two"), 0o644))
	s.Reload()
	require.True(t, s.current != first, "Reload should adopt a structurally different program")
	require.Equal(t, statusFresh, s.status)
}

func TestFrameDiffsErrorsAcrossCalls(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p.flr")
	require.NoError(t, os.WriteFile(path, []byte("one"), 0o644))

	s := newTestScheduler(t, Config{ProgramPath: path, Parser: parseByContent, TargetFPS: 30})
	s.Reload()

	vars := map[string]value.Vector{
		"beat": value.Number(0), "quantum": value.Number(4),
		"tempo": value.Number(120), "delta": value.Number(0),
		"clock": value.Number(0), "fps": value.Number(30),
	}

	first := s.Frame(vars, true)
	require.Len(t, first.NewErrors, 1)
	require.Contains(t, first.NewErrors[0], "undefined_one")

	second := s.Frame(vars, true)
	require.Empty(t, second.NewErrors, "the same unresolved name shouldn't be reported twice")

	require.NoError(t, os.WriteFile(path, []byte("two"), 0o644))
	time.Sleep(10 * time.Millisecond)
	s.Reload()
	third := s.Frame(vars, true)
	require.Len(t, third.NewErrors, 1)
	require.Contains(t, third.NewErrors[0], "undefined_two")
}

func TestRespecializeRevertsOnDirtyState(t *testing.T) {
	s := newTestScheduler(t, Config{TargetFPS: 30, StateEvalWait: time.Second})
	top := &lang.Top{Items: []lang.Expr{&lang.StoreGlobal{Bindings: []lang.PolyBinding{
		{Names: []string{"a"}, Expr: &lang.Literal{Value: value.Number(1)}},
	}}}}
	s.current = top
	s.run = nil
	s.status = statusFresh

	s.state.Set(value.SymbolOf("k"), value.Number(1))
	require.True(t, s.state.Dirty())

	now := time.Now()
	s.Respecialize(now)

	require.True(t, s.run == s.current, "a dirty state should revert to the unspecialized current Top")
	require.False(t, s.state.Dirty(), "Respecialize must clear the dirty flag once observed")
	require.Equal(t, statusFresh, s.status)
	require.Equal(t, now, s.stateTimestamp)
}

func TestRespecializeWaitsForQuietPeriodThenSpecializes(t *testing.T) {
	s := newTestScheduler(t, Config{TargetFPS: 30, StateEvalWait: 100 * time.Millisecond})
	top := &lang.Top{Items: []lang.Expr{&lang.StoreGlobal{Bindings: []lang.PolyBinding{
		{Names: []string{"a"}, Expr: &lang.Literal{Value: value.Number(1)}},
	}}}}
	s.current = top
	s.run = nil

	t0 := time.Now()
	s.state.Set(value.SymbolOf("k"), value.Number(1))
	s.Respecialize(t0) // dirty revert, starts the quiet-period clock
	require.Equal(t, statusFresh, s.status)

	// Not enough quiet time has passed yet: no re-simplification.
	s.Respecialize(t0.Add(50 * time.Millisecond))
	require.Equal(t, statusFresh, s.status)

	// Quiet period elapsed: re-simplify against the (clean) state.
	s.Respecialize(t0.Add(200 * time.Millisecond))
	require.Equal(t, statusSpecialized, s.status)
	require.NotNil(t, s.run)
}

func TestRespecializeDisabledBySimplifierFlag(t *testing.T) {
	s := newTestScheduler(t, Config{TargetFPS: 30, StateEvalWait: 0, DisableSimplify: true})
	top := &lang.Top{Items: []lang.Expr{}}
	s.current = top
	s.run = top
	s.status = statusFresh

	s.state.Set(value.SymbolOf("k"), value.Number(1))
	s.Respecialize(time.Now())

	require.Equal(t, statusFresh, s.status, "--no-simplifier must skip respecialization entirely")
	require.True(t, s.state.Dirty(), "a disabled respecializer shouldn't clear the dirty flag either")
}

func TestPaceClampsPerformance(t *testing.T) {
	s := newTestScheduler(t, Config{TargetFPS: 30})
	for i := 0; i < 1000; i++ {
		s.pace(false)
	}
	require.Equal(t, 0.5, s.performance)

	for i := 0; i < 2000; i++ {
		s.pace(true)
	}
	require.Equal(t, 2.0, s.performance)
}

func TestPersistDebouncesWithinOneSecond(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.yaml")
	s := newTestScheduler(t, Config{TargetFPS: 30, StateFilePath: statePath, Page: "default"})

	t0 := time.Now()
	s.state.Set(value.SymbolOf("k"), value.Number(1))
	s.persist(t0)

	pages, err := statefile.Load(statePath)
	require.NoError(t, err)
	require.Len(t, pages["default"], 1)
	require.True(t, s.state.Dirty(), "persist doesn't itself clear dirty -- only the frame loop's Respecialize/ClearDirty do")

	// A second change within 1s of the last dump must not be written yet.
	s.state.Set(value.SymbolOf("k"), value.Number(2))
	s.persist(t0.Add(500 * time.Millisecond))
	pages, err = statefile.Load(statePath)
	require.NoError(t, err)
	require.Equal(t, float64(1), pages["default"][0].Value.NumbersSlice()[0])

	// Once 1s has elapsed, the pending change is flushed.
	s.persist(t0.Add(1100 * time.Millisecond))
	pages, err = statefile.Load(statePath)
	require.NoError(t, err)
	require.Equal(t, float64(2), pages["default"][0].Value.NumbersSlice()[0])
}

func TestApplySwitchedPageResetsStateWhenConfigured(t *testing.T) {
	s := newTestScheduler(t, Config{TargetFPS: 30, ResetOnSwitch: true})
	s.current = &lang.Top{}
	s.run = &lang.Top{}
	s.status = statusSpecialized
	s.state.Set(value.SymbolOf("k"), value.Number(1))

	s.RequestPageSwitch("other")
	require.True(t, s.ApplySwitchedPage())

	require.Equal(t, "other", s.cfg.Page)
	require.Equal(t, 0, s.state.Len(), "reset-on-switch must discard page-local state")
	require.Nil(t, s.current)
	require.Nil(t, s.run)
	require.Equal(t, statusNone, s.status)
	require.False(t, s.ApplySwitchedPage(), "no pending switch should be a no-op")
}

func TestApplySwitchedPageRestoresSavedStateWhenNotReset(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.yaml")
	require.NoError(t, statefile.Save(statePath, map[string][]value.Entry{
		"other": {{Key: value.SymbolOf("k"), Value: value.Number(9)}},
	}))

	s := newTestScheduler(t, Config{TargetFPS: 30, StateFilePath: statePath, ResetOnSwitch: false})
	s.RequestPageSwitch("other")
	require.True(t, s.ApplySwitchedPage())

	v, ok := s.state.Get(value.SymbolOf("k"))
	require.True(t, ok)
	require.Equal(t, float64(9), v.NumbersSlice()[0])
}
