package utils

import (
	"errors"
	"fmt"
	"sync"
)

var ErrInputClosed = errors.New("input channel is closed")

// DynamicFanOut copies every input value into all currently spawned outputs.
// Outputs are closed when input gets closed.
type DynamicFanOut[T any] struct {
	input    <-chan T
	inputCap int

	mutex   sync.Mutex
	closed  bool
	nextID  int64
	outputs map[int64]chan T
	done    chan struct{}
}

func NewDynamicFanOut[T any](input <-chan T) *DynamicFanOut[T] {
	f := &DynamicFanOut[T]{
		input:    input,
		inputCap: cap(input),
		outputs:  make(map[int64]chan T),
		done:     make(chan struct{}),
	}
	go f.run()
	return f
}

func (f *DynamicFanOut[T]) run() {
	for e := range f.input {
		f.mutex.Lock()
		for _, o := range f.outputs {
			o <- e
		}
		f.mutex.Unlock()
	}

	f.mutex.Lock()
	f.closed = true
	for id, o := range f.outputs {
		close(o)
		delete(f.outputs, id)
	}
	f.mutex.Unlock()
	close(f.done)
}

// Done is closed after input is drained and all outputs are closed.
func (f *DynamicFanOut[T]) Done() <-chan struct{} {
	return f.done
}

// SpawnOutput creates new output channel and its ID for later despawning.
// Output channel has size of input channel, output chanel will always be buffered with at least size 1.
func (f *DynamicFanOut[T]) SpawnOutput() (int64, <-chan T, error) {
	ocap := f.inputCap
	if ocap == 0 {
		ocap = 1
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.closed {
		return 0, nil, ErrInputClosed
	}

	id := f.nextID
	f.nextID++
	newChan := make(chan T, ocap)
	f.outputs[id] = newChan
	return id, newChan, nil
}

// DespawnOutput removes output channel with given ID
func (f *DynamicFanOut[T]) DespawnOutput(id int64) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	c, ok := f.outputs[id]
	if !ok {
		return fmt.Errorf("output id %d not found", id)
	}
	close(c)
	delete(f.outputs, id)

	return nil
}
