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
	"os"
	"os/signal"
	"syscall"
	"time"

	"k8s.io/klog/v2"

	"flitter.dev/flitter/internal/scheduler"
	"flitter.dev/flitter/internal/value"
)

// runLoop drives the scheduler one frame at a time until interrupted,
// implementing the reload/respecialize/frame/pace cycle of spec.md
// §4.7 at the process level. beat/quantum/tempo follow a fixed 4/4 at
// 120 BPM since no control surface is wired in this build (spec.md §1
// scopes the control surface out); a real deployment drives these from
// OSCLink instead.
func runLoop(sched *scheduler.Scheduler, realtime bool, fps float64) error {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	const tempo = 120.0
	const quantum = 4.0

	start := time.Now()
	frameInterval := time.Duration(0)
	if fps > 0 {
		frameInterval = time.Duration(float64(time.Second) / fps)
	}

	frame := 0
	for {
		select {
		case <-sig:
			klog.Infof("flitter: shutting down")
			return nil
		default:
		}

		now := time.Now()
		sched.Reload()
		sched.Respecialize(now)
		sched.ApplySwitchedPage()

		clock := now.Sub(start).Seconds()
		beat := clock * tempo / 60

		deadline := start.Add(time.Duration(sched.FrameTime() * float64(time.Second)))
		onTime := !realtime || !now.After(deadline)

		vars := map[string]value.Vector{
			"beat":    value.Number(beat),
			"quantum": value.Number(quantum),
			"tempo":   value.Number(tempo),
			"delta":   value.Number(frameInterval.Seconds()),
			"clock":   value.Number(clock),
			"fps":     value.Number(fps),
		}

		result := sched.Frame(vars, onTime)
		for _, err := range result.RouteErrs {
			klog.Warningf("flitter: route: %v", err)
		}

		frame++

		if realtime && fps > 0 {
			sleepUntil := start.Add(time.Duration(sched.FrameTime() * float64(time.Second)))
			if d := time.Until(sleepUntil); d > 0 {
				time.Sleep(d)
			}
		}
	}
}
