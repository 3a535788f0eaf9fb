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

// OSCMessage is one control-surface message: an address pattern plus
// its arguments (spec.md §6 lists the concrete address set this core
// sends and receives; the wire encoding itself is out of scope here).
type OSCMessage struct {
	Address string
	Args    []interface{}
}

// OSCLink is the control-surface transport the scheduler drives:
// Receive yields inbound messages (/tempo, /pad/.../touched, .../held,
// .../released, /encoder/n/turned, .../touched, .../released, .../reset,
// /page_left, /page_right, /hello, /reset), and Send emits the
// scheduler's replies (/tempo, /pad/.../state, /encoder/n/state,
// /page_left, /page_right). No concrete OSC socket ships in this
// module; a caller plugs in a transport that satisfies this interface.
type OSCLink interface {
	Send(OSCMessage) error
	Receive() (OSCMessage, error)
	Close() error
}

// ApplyOSC maps one inbound OSCMessage onto scheduler state: a
// /page_left or /page_right request becomes a pending page switch,
// applied at the next ApplySwitchedPage call; every other address is
// opaque to the core (spec.md §6: "these are opaque to the core
// design; only their triggering effect on the scheduler state machine
// matters") and is left for a higher layer to interpret.
func (s *Scheduler) ApplyOSC(msg OSCMessage) {
	switch msg.Address {
	case "/page_left", "/page_right":
		if len(msg.Args) == 1 {
			if page, ok := msg.Args[0].(string); ok {
				s.RequestPageSwitch(page)
			}
		}
	}
}
