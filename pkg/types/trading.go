package types

// Side represents the direction of a position.
type Side int

const (
	SideLong Side = iota
	SideShort
)

func (s Side) String() string {
	switch s {
	case SideLong:
		return "LONG"
	case SideShort:
		return "SHORT"
	default:
		return "UNKNOWN"
	}
}

// Opposite returns the reverse direction.
func (s Side) Opposite() Side {
	if s == SideLong {
		return SideShort
	}
	return SideLong
}

// Signal is a strategy's directional call for the most recent bar.
type Signal int

const (
	SignalFlat Signal = iota
	SignalLong
	SignalShort
)

func (s Signal) String() string {
	switch s {
	case SignalLong:
		return "LONG"
	case SignalShort:
		return "SHORT"
	case SignalFlat:
		return "FLAT"
	default:
		return "UNKNOWN"
	}
}

// Side maps a directional signal to a position side. The second return
// value is false for a flat signal.
func (s Signal) Side() (Side, bool) {
	switch s {
	case SignalLong:
		return SideLong, true
	case SignalShort:
		return SideShort, true
	default:
		return SideLong, false
	}
}

// PositionMode selects between one net position per symbol and independent
// long/short positions on the same symbol.
type PositionMode int

const (
	ModeOneWay PositionMode = iota
	ModeHedge
)

func (m PositionMode) String() string {
	if m == ModeHedge {
		return "hedge"
	}
	return "one-way"
}
