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

package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"

	"flitter.dev/flitter/internal/cache"
	"flitter.dev/flitter/internal/lang"
	"flitter.dev/flitter/internal/render"
	"flitter.dev/flitter/internal/scheduler"
)

// Flag names, grounded on cmd/cue/cmd/flags.go's flagName const block
// (one named constant per flag, added to exactly one FlagSet each so a
// flag can never be read without first being registered).
const (
	flagFPS           = "fps"
	flagState         = "state"
	flagPage          = "page"
	flagRealtime      = "realtime"
	flagResetOnSwitch = "reset-on-switch"
	flagNoSimplifier  = "no-simplifier"
	flagDefine        = "define"
	flagCacheTTL      = "cache-ttl"
	flagStateEvalWait = "state-eval-wait"
)

func newRootCommand() (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:           "flitter [program]",
		Short:         "run a flitter program's frame loop",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
	}

	addRunFlags(cmd.Flags())

	klogFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(klogFlags)
	cmd.Flags().AddGoFlagSet(klogFlags)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runMain(cmd, args[0])
	}

	return cmd, nil
}

func addRunFlags(f *pflag.FlagSet) {
	f.Float64(flagFPS, 30, "target frames per second")
	f.String(flagState, "", "path to a state file to load from and persist to (empty disables persistence)")
	f.String(flagPage, "default", "initial page name, used as the state file's top-level key")
	f.Bool(flagRealtime, true, "pace frames against the wall clock; false runs lockstep as fast as possible")
	f.Bool(flagResetOnSwitch, false, "discard page-local state on every page switch instead of restoring it from the state file")
	f.Bool(flagNoSimplifier, false, "disable re-specialization against accumulated state (run only the first simplify pass)")
	f.StringArray(flagDefine, nil, "define a top-level name, key=value[;value...] (repeatable)")
	f.Duration(flagCacheTTL, 60*time.Second, "evict a shared-cache entry after this long unused")
	f.Duration(flagStateEvalWait, 2*time.Second, "minimum quiet time before state.dirty triggers a re-specialization")
}

func runMain(cmd *cobra.Command, programPath string) error {
	f := cmd.Flags()

	fps, _ := f.GetFloat64(flagFPS)
	statePath, _ := f.GetString(flagState)
	page, _ := f.GetString(flagPage)
	realtime, _ := f.GetBool(flagRealtime)
	resetOnSwitch, _ := f.GetBool(flagResetOnSwitch)
	noSimplifier, _ := f.GetBool(flagNoSimplifier)
	defineArgs, _ := f.GetStringArray(flagDefine)
	cacheTTL, _ := f.GetDuration(flagCacheTTL)
	stateEvalWait, _ := f.GetDuration(flagStateEvalWait)

	defs, err := parseDefines(defineArgs)
	if err != nil {
		return fmt.Errorf("--define: %w", err)
	}

	c := cache.New()
	router := render.NewRouter(unimplementedWorkerFactory)

	sched, err := scheduler.New(scheduler.Config{
		ProgramPath:     programPath,
		Defs:            defs,
		Parser:          noParser,
		StateFilePath:   statePath,
		Page:            page,
		TargetFPS:       fps,
		Realtime:        realtime,
		StateEvalWait:   stateEvalWait,
		ResetOnSwitch:   resetOnSwitch,
		DisableSimplify: noSimplifier,
		CacheTTL:        cacheTTL,
	}, c, router)
	if err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer router.DestroyAll()

	go cleanCachePeriodically(c, cacheTTL)

	return runLoop(sched, realtime, fps)
}

func cleanCachePeriodically(c *cache.Cache, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()
	for range ticker.C {
		c.Clean(ttl)
	}
}

// noParser is the default cache.ProgramParser: this module ships no
// grammar (spec.md §1 scopes the lexer/parser out as an external
// collaborator), so every load without a grammar plugged in returns an
// error that explains why (the scheduler logs it as a failed reload
// each frame), rather than producing a nil-AST panic deeper in the
// scheduler.
func noParser(path string) (*lang.Top, error) {
	return nil, fmt.Errorf("no program parser registered; this build does not link a grammar for %s", path)
}

// unimplementedWorkerFactory is the default render.WorkerFactory: like
// noParser, this module defines the render.Worker contract but ships
// no concrete renderer backend (spec.md §1).
func unimplementedWorkerFactory(kind string) render.Worker {
	return &unimplementedWorker{kind: kind}
}

type unimplementedWorker struct{ kind string }

func (w *unimplementedWorker) Update(_ context.Context, _ render.Update) error {
	return fmt.Errorf("no renderer backend registered for kind %q", w.kind)
}
func (w *unimplementedWorker) Purge()   {}
func (w *unimplementedWorker) Destroy() {}
