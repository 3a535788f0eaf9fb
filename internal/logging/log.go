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

// Package logging is a thin, leveled wrapper shared by the cache,
// scheduler, and renderer proxy so that their diagnostics (§4.5, §4.6,
// §4.7 of the core spec) come out with consistent keys.
//
// It wraps k8s.io/klog/v2, which cuelang.org/go already carries as an
// indirect dependency; we promote it to direct rather than hand-roll a
// leveled logger.
package logging

import (
	"k8s.io/klog/v2"
)

// Debugf logs at verbosity level 2: per-frame detail (cache reads,
// proxy dispatch) that is noisy in normal operation.
func Debugf(format string, args ...interface{}) {
	klog.V(2).Infof(format, args...)
}

// Infof logs state transitions worth seeing by default: program
// (re)loads, page switches, proxy spawn/destroy.
func Infof(format string, args ...interface{}) {
	klog.Infof(format, args...)
}

// Warningf logs recoverable problems: a missing or malformed cache
// source, a proxy that failed to start.
func Warningf(format string, args ...interface{}) {
	klog.Warningf(format, args...)
}

// Errorf logs errors: the scheduler reports each new program error
// through it.
func Errorf(format string, args ...interface{}) {
	klog.Errorf(format, args...)
}

// Flush flushes buffered log entries.
func Flush() {
	klog.Flush()
}
