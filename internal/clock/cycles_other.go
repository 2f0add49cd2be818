//go:build !amd64

package clock

const cyclesSupported = false

func readCycles() uint64 { return 0 }
