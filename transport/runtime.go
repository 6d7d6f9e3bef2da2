package transport

import "fmt"

// Runtime selects the I/O backend a Stream is built on.
type Runtime int

const (
	// RuntimeNet uses the net package and the Go netpoller.
	RuntimeNet Runtime = iota
	// RuntimeIOURing uses io_uring through iceber/iouring-go.
	RuntimeIOURing
	// RuntimeURingV2 uses io_uring through godzie44/go-uring.
	RuntimeURingV2
)

func (r Runtime) String() string {
	switch r {
	case RuntimeNet:
		return "net"
	case RuntimeIOURing:
		return "iouring"
	case RuntimeURingV2:
		return "uring-v2"
	default:
		return fmt.Sprintf("runtime(%d)", int(r))
	}
}

// Dialer returns the dial function for the runtime.
func (r Runtime) Dialer() Dialer {
	switch r {
	case RuntimeIOURing:
		return DialURing
	case RuntimeURingV2:
		return DialURingV2
	default:
		return DialUnix
	}
}

// ParseRuntime maps a runtime name as printed by String back to a Runtime.
func ParseRuntime(name string) (Runtime, error) {
	for _, r := range []Runtime{RuntimeNet, RuntimeIOURing, RuntimeURingV2} {
		if r.String() == name {
			return r, nil
		}
	}
	return RuntimeNet, fmt.Errorf("unknown runtime %q", name)
}
