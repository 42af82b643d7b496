// Package async implements the channel-based event-flow pipeline
// (§4.8): the same abstract node/link contract as pipeline/sync, backed
// by bounded channels, fan-out multiplexers, and two reusable Process
// shapes (alts and parallel-per-input).
//
// Grounded on internal/bus/queue.go's channel-owning worker loop from
// the retrieval pack; goroutine lifecycle is managed with
// golang.org/x/sync/errgroup rather than a bare sync.WaitGroup, per the
// rest of the retrieval pack's concurrency idiom.
package async

import (
	"reflect"

	"golang.org/x/sync/errgroup"
)

// Output is one (port, event) pair a ProcessFunc emits.
type Output struct {
	Port  string
	Event any
}

// ProcessFunc is the async analogue of pipeline/sync's Node.Process: it
// is invoked once per received input event and returns zero or more
// outputs to route.
type ProcessFunc func(inputPort string, event any) []Output

// Process is a running node instance (§4.8): its input/output channel
// maps and a synchronous Shutdown.
type Process struct {
	Inputs  map[string]chan any
	Outputs map[string]chan any
	Shutdown func()
}

func makeChannels(ports []string, bufSize int) map[string]chan any {
	m := make(map[string]chan any, len(ports))
	for _, p := range ports {
		m[p] = make(chan any, bufSize)
	}
	return m
}

func closeAll(channels map[string]chan any) {
	for _, ch := range channels {
		close(ch)
	}
}

// NewAltsProcess builds the "alts" shape (§4.8): one cooperative task
// selects across all input channels, invokes fn, and writes outputs.
// Per-task ordering is preserved; fairness across ports is not
// guaranteed (reflect.Select picks pseudo-randomly among ready cases).
func NewAltsProcess(inputPorts, outputPorts []string, bufSize int, fn ProcessFunc) *Process {
	inputs := makeChannels(inputPorts, bufSize)
	outputs := makeChannels(outputPorts, bufSize)

	cases := make([]reflect.SelectCase, 0, len(inputs))
	ports := make([]string, 0, len(inputs))
	for port, ch := range inputs {
		cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ch)})
		ports = append(ports, port)
	}

	var eg errgroup.Group
	eg.Go(func() error {
		remaining := len(cases)
		for remaining > 0 {
			chosen, value, ok := reflect.Select(cases)
			if !ok {
				// A nil channel is never ready; parking a closed case's
				// slot on one permanently disables it without shrinking
				// the case list mid-select.
				cases[chosen].Chan = reflect.ValueOf((chan any)(nil))
				remaining--
				continue
			}
			for _, out := range fn(ports[chosen], value.Interface()) {
				if ch, ok := outputs[out.Port]; ok {
					ch <- out.Event
				}
			}
		}
		return nil
	})

	// Closing the outputs is driven by the worker draining, not by
	// Shutdown directly: a Multiplexer closing this node's inputs from
	// upstream must still cascade to this node's outputs (§8).
	done := make(chan struct{})
	go func() {
		_ = eg.Wait()
		closeAll(outputs)
		close(done)
	}()

	return &Process{
		Inputs:  inputs,
		Outputs: outputs,
		Shutdown: func() {
			closeAll(inputs)
			<-done
		},
	}
}

// NewParallelProcess builds the "parallel-per-input" shape (§4.8): one
// task per input channel. Per-input FIFO order is preserved;
// cross-input ordering is not.
func NewParallelProcess(inputPorts, outputPorts []string, bufSize int, fn ProcessFunc) *Process {
	inputs := makeChannels(inputPorts, bufSize)
	outputs := makeChannels(outputPorts, bufSize)

	var eg errgroup.Group
	for port, ch := range inputs {
		port, ch := port, ch
		eg.Go(func() error {
			for event := range ch {
				for _, out := range fn(port, event) {
					if oc, ok := outputs[out.Port]; ok {
						oc <- out.Event
					}
				}
			}
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = eg.Wait()
		closeAll(outputs)
		close(done)
	}()

	return &Process{
		Inputs:  inputs,
		Outputs: outputs,
		Shutdown: func() {
			closeAll(inputs)
			<-done
		},
	}
}
