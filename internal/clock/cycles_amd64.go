//go:build amd64

package clock

const cyclesSupported = true

// rdtscp is implemented in cycles_amd64.s.
func rdtscp() uint64

func readCycles() uint64 { return rdtscp() }
