// Copyright 2017 Pilosa Corp.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

// Package termstat provides a stats implementation which periodically writes
// counters to the given writer. It is meant for watching a run at the
// terminal in lieu of an external collector. Close writes a final summary
// which includes stage timings.
package termstat

import (
	"fmt"
	"io"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"
)

// Collector collects stats and prints them to the terminal.
type Collector struct {
	lock    sync.Mutex
	indexes map[string]int
	names   []string
	stats   []int64
	timings map[string]time.Duration
	changed bool
	out     io.Writer

	done chan struct{}
	wg   sync.WaitGroup
}

// NewCollector initializes and returns a new Collector which writes changed
// counters to out every interval. Interval zero disables periodic output.
func NewCollector(out io.Writer, interval time.Duration) *Collector {
	ts := &Collector{
		indexes: make(map[string]int),
		timings: make(map[string]time.Duration),
		out:     out,
		done:    make(chan struct{}),
	}
	if interval > 0 {
		ts.wg.Add(1)
		go func() {
			defer ts.wg.Done()
			tick := time.NewTicker(interval)
			defer tick.Stop()
			for {
				select {
				case <-tick.C:
					ts.write()
				case <-ts.done:
					return
				}
			}
		}()
	}
	return ts
}

// Count adds value to the named stat at the specified rate.
func (t *Collector) Count(name string, value int64, rate float64, tags ...string) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.changed = true

	idx, ok := t.indexes[name]
	if !ok {
		idx = len(t.stats)
		t.stats = append(t.stats, 0)
		t.names = append(t.names, name)
		t.indexes[name] = idx
	}
	if rate < 1 {
		if rand.Float64() > rate {
			return
		}
	}
	t.stats[idx] += value
}

func (t *Collector) write() {
	t.lock.Lock()
	defer t.lock.Unlock()
	if !t.changed {
		return
	}
	sb := strings.Builder{}
	for i := 0; i < len(t.stats); i++ {
		_, _ = sb.WriteString(fmt.Sprintf("%s: %d ", t.names[i], t.stats[i]))
	}
	t.changed = false
	fmt.Fprint(t.out, "\r"+sb.String())
}

// Close stops periodic output and writes every counter and timing, one per
// line, in name order.
func (t *Collector) Close() error {
	close(t.done)
	t.wg.Wait()

	t.lock.Lock()
	defer t.lock.Unlock()
	lines := make([]string, 0, len(t.names)+len(t.timings))
	for i, name := range t.names {
		lines = append(lines, fmt.Sprintf("%s: %d", name, t.stats[i]))
	}
	for name, d := range t.timings {
		lines = append(lines, fmt.Sprintf("%s: %v", name, d))
	}
	sort.Strings(lines)
	_, err := fmt.Fprintf(t.out, "\n%s\n", strings.Join(lines, "\n"))
	return err
}

// Gauge does nothing.
func (t *Collector) Gauge(name string, value float64, rate float64, tags ...string) {}

// Histogram does nothing.
func (t *Collector) Histogram(name string, value float64, rate float64, tags ...string) {}

// Set does nothing.
func (t *Collector) Set(name string, value string, rate float64, tags ...string) {}

// Timing accumulates the named duration.
func (t *Collector) Timing(name string, value time.Duration, rate float64, tags ...string) {
	t.lock.Lock()
	t.timings[name] += value
	t.lock.Unlock()
}
