package position

import (
	"fmt"
	"sync"

	"github.com/bryanlew/algocrypto/pkg/types"
)

// slotState holds the open positions of one symbol. In one-way mode at most
// the net slot is occupied; in hedge mode the long and short slots are
// occupied independently and net stays nil. The two shapes never mix within
// one ledger.
type slotState struct {
	net   *Position
	long  *Position
	short *Position
}

func (s *slotState) empty() bool {
	return s.net == nil && s.long == nil && s.short == nil
}

// Ledger is the in-memory record of open positions, keyed by symbol.
// Mutation happens only through the manager and exit monitor so the ledger
// can never disagree with the orders the bot actually placed. A position
// mode change migrates the slot shape through ConvertMode.
type Ledger struct {
	mu    sync.RWMutex
	mode  types.PositionMode
	slots map[string]*slotState
}

// NewLedger creates an empty ledger operating in the given position mode.
func NewLedger(mode types.PositionMode) *Ledger {
	return &Ledger{
		mode:  mode,
		slots: make(map[string]*slotState),
	}
}

// Mode returns the position mode the ledger currently operates in.
func (l *Ledger) Mode() types.PositionMode {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.mode
}

// ConvertMode migrates every slot to the other shape when the configured
// mode changes. One-way to hedge moves each net position into its side's
// slot. Hedge to one-way keeps the long side when both are held and returns
// the dropped positions: they are still open on the exchange and the caller
// must surface them. Converting to the current mode is a no-op.
func (l *Ledger) ConvertMode(mode types.PositionMode) []Position {
	l.mu.Lock()
	defer l.mu.Unlock()

	if mode == l.mode {
		return nil
	}

	var dropped []Position
	for _, state := range l.slots {
		if mode == types.ModeHedge {
			if state.net != nil {
				if state.net.Side == types.SideLong {
					state.long = state.net
				} else {
					state.short = state.net
				}
				state.net = nil
			}
			continue
		}

		switch {
		case state.long != nil:
			state.net = state.long
			if state.short != nil {
				dropped = append(dropped, *state.short)
			}
		case state.short != nil:
			state.net = state.short
		}
		state.long = nil
		state.short = nil
	}
	l.mode = mode
	return dropped
}

// Get returns the open position for a symbol and side. In one-way mode the
// side must match the held net position; in hedge mode it addresses that
// side's slot.
func (l *Ledger) Get(symbol string, side types.Side) (Position, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	p := l.lookup(symbol, side)
	if p == nil {
		return Position{}, false
	}
	return *p, true
}

// Net returns the single open position for a symbol in one-way mode,
// whatever its side.
func (l *Ledger) Net(symbol string) (Position, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	state, ok := l.slots[symbol]
	if !ok || state.net == nil {
		return Position{}, false
	}
	return *state.net, true
}

// Positions returns all open positions for a symbol.
func (l *Ledger) Positions(symbol string) []Position {
	l.mu.RLock()
	defer l.mu.RUnlock()

	state, ok := l.slots[symbol]
	if !ok {
		return nil
	}

	var out []Position
	for _, p := range []*Position{state.net, state.long, state.short} {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out
}

// All returns every open position across all symbols.
func (l *Ledger) All() []Position {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Position
	for _, state := range l.slots {
		for _, p := range []*Position{state.net, state.long, state.short} {
			if p != nil {
				out = append(out, *p)
			}
		}
	}
	return out
}

// OpenSlots returns the number of occupied position slots. In hedge mode a
// symbol holding both a long and a short counts as two.
func (l *Ledger) OpenSlots() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	count := 0
	for _, state := range l.slots {
		for _, p := range []*Position{state.net, state.long, state.short} {
			if p != nil {
				count++
			}
		}
	}
	return count
}

func (l *Ledger) lookup(symbol string, side types.Side) *Position {
	state, ok := l.slots[symbol]
	if !ok {
		return nil
	}
	if l.mode == types.ModeOneWay {
		if state.net != nil && state.net.Side == side {
			return state.net
		}
		return nil
	}
	if side == types.SideLong {
		return state.long
	}
	return state.short
}

// open records a new position. The target slot must be empty.
func (l *Ledger) open(p Position) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.slots[p.Symbol]
	if !ok {
		state = &slotState{}
		l.slots[p.Symbol] = state
	}

	if l.mode == types.ModeOneWay {
		if state.net != nil {
			return fmt.Errorf("%s already holds a %s position", p.Symbol, state.net.Side)
		}
		state.net = &p
		return nil
	}

	if p.Side == types.SideLong {
		if state.long != nil {
			return fmt.Errorf("%s already holds a long position", p.Symbol)
		}
		state.long = &p
	} else {
		if state.short != nil {
			return fmt.Errorf("%s already holds a short position", p.Symbol)
		}
		state.short = &p
	}
	return nil
}

// remove clears the slot holding the given symbol and side and returns the
// position that was there.
func (l *Ledger) remove(symbol string, side types.Side) (Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.slots[symbol]
	if !ok {
		return Position{}, false
	}

	var removed *Position
	if l.mode == types.ModeOneWay {
		if state.net != nil && state.net.Side == side {
			removed = state.net
			state.net = nil
		}
	} else if side == types.SideLong {
		removed = state.long
		state.long = nil
	} else {
		removed = state.short
		state.short = nil
	}

	if state.empty() {
		delete(l.slots, symbol)
	}
	if removed == nil {
		return Position{}, false
	}
	return *removed, true
}
