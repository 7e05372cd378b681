package rt

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"time"
)

const (
	gateBusy   int32 = 1 << 0
	gateClosed int32 = 1 << 1
)

var (
	// ErrGateClosed is returned by Enter once Close has been called.
	ErrGateClosed = errors.New("rt: gate closed")
	// ErrGateBusy is returned by Enter while another block is in flight.
	ErrGateBusy = errors.New("rt: block already in flight")
)

// Gate admits one processing block at a time and lets the control side
// shut the door and wait for the block in flight to finish.
type Gate struct {
	state atomic.Int32
}

// Enter claims the gate for one block.
func (g *Gate) Enter() error {
	for {
		s := g.state.Load()
		if s&gateClosed != 0 {
			return ErrGateClosed
		}
		if s&gateBusy != 0 {
			return ErrGateBusy
		}
		if g.state.CompareAndSwap(s, s|gateBusy) {
			return nil
		}
	}
}

// Exit releases the gate after a block.
func (g *Gate) Exit() {
	g.state.And(^gateBusy)
}

// Close stops new blocks and waits until the block in flight exits. If ctx
// ends first the gate is reopened and ctx's error returned.
func (g *Gate) Close(ctx context.Context) error {
	g.state.Or(gateClosed)
	spins := 0
	for g.state.Load()&gateBusy != 0 {
		if err := ctx.Err(); err != nil {
			g.Open()
			return err
		}
		spins++
		if spins < 64 {
			runtime.Gosched()
		} else {
			time.Sleep(50 * time.Microsecond)
		}
	}
	return nil
}

// Open admits blocks again.
func (g *Gate) Open() {
	g.state.And(^gateClosed)
}

// Closed reports whether the gate is closed.
func (g *Gate) Closed() bool {
	return g.state.Load()&gateClosed != 0
}

// InFlight reports whether a block is running.
func (g *Gate) InFlight() bool {
	return g.state.Load()&gateBusy != 0
}
