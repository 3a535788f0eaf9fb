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

package cache

import "io"

// VideoFrame is one decoded frame: an opaque payload plus its
// timestamp in seconds, format-agnostic like Mesh.
type VideoFrame struct {
	Data      []byte
	Timestamp float64
}

// VideoDecoder streams frames forward from an arbitrary seek point.
// Implementations that hold an OS handle should also implement
// io.Closer; Clean/Purge call it on eviction.
type VideoDecoder interface {
	SeekTo(t float64) error
	NextFrame() (VideoFrame, error)
}

// VideoDecoderFactory opens path, returning a fresh decoder positioned
// at the start of the stream.
type VideoDecoderFactory func(path string) (VideoDecoder, error)

// videoWindow is the per-consumer rolling window (SPEC_FULL.md
// SUPPLEMENTED FEATURES, from original_source/flitter/cache.py): the
// decoder only reseeks when the requested position falls outside
// [before.Timestamp, after.Timestamp) or before the head, rather than
// on every access.
type videoWindow struct {
	decoder VideoDecoder
	before  VideoFrame
	after   VideoFrame
	loaded  bool
}

// VideoFrames implements the video_frames(consumer_id, position, loop)
// artifact (spec.md §4.5): returns the interpolation ratio between the
// straddling frames and the frames themselves. Each consumerID gets
// its own rolling window so that multiple renderer-side consumers of
// the same file can play at independent positions.
func (c *Cache) VideoFrames(path, consumerID string, position float64, loop bool, open VideoDecoderFactory) (ratio float64, before, after VideoFrame, ok bool) {
	key := Key{Path: path, Kind: KindVideoFrames, Params: consumerID}

	c.mu.Lock()
	e, has := c.entries[key]
	c.mu.Unlock()

	var win *videoWindow
	if has {
		if w, isWin := e.value.(*videoWindow); isWin {
			win = w
		}
	}

	if win == nil {
		dec, err := open(c.resolve(path))
		if err != nil {
			return 0, VideoFrame{}, VideoFrame{}, false
		}
		win = &videoWindow{decoder: dec}
		cleanup := func() {
			if closer, ok := dec.(io.Closer); ok {
				closer.Close()
			}
		}
		c.mu.Lock()
		c.entries[key] = &entry{value: win, touched: now(), cleanup: cleanup}
		c.mu.Unlock()
	} else {
		c.mu.Lock()
		e.touched = now()
		c.mu.Unlock()
	}

	if position < 0 && loop {
		position = 0
	}

	if !win.loaded || position < win.before.Timestamp || position >= win.after.Timestamp {
		if err := win.decoder.SeekTo(position); err != nil {
			return 0, VideoFrame{}, VideoFrame{}, false
		}
		first, err := win.decoder.NextFrame()
		if err != nil {
			return 0, VideoFrame{}, VideoFrame{}, false
		}
		second, err := win.decoder.NextFrame()
		if err != nil {
			second = first
		}
		win.before, win.after, win.loaded = first, second, true
	}

	span := win.after.Timestamp - win.before.Timestamp
	if span <= 0 {
		ratio = 0
	} else {
		ratio = (position - win.before.Timestamp) / span
		if ratio < 0 {
			ratio = 0
		}
		if ratio > 1 {
			ratio = 1
		}
	}
	return ratio, win.before, win.after, true
}
