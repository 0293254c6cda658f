package bitword

import "math/bits"

// kernelPopcount counts set bits across words. It defaults to the portable
// SWAR kernel; platform init files switch to the hardware-backed one.
var (
	kernelPopcount = popcountSWAR
	kernelName     = "swar"
)

// Kernel returns the name of the active popcount kernel.
func Kernel() string {
	return kernelName
}

func useHardwarePopcount(name string) {
	kernelPopcount = popcountHardware
	kernelName = name
}

// popcountHardware relies on math/bits, which the compiler lowers to
// POPCNT / CNT when the CPU has it.
func popcountHardware(words []uint32) int {
	n := 0
	i := 0
	for ; i+1 < len(words); i += 2 {
		n += bits.OnesCount64(uint64(words[i]) | uint64(words[i+1])<<32)
	}
	if i < len(words) {
		n += bits.OnesCount32(words[i])
	}
	return n
}

func popcountSWAR(words []uint32) int {
	n := 0
	i := 0
	for ; i+1 < len(words); i += 2 {
		n += swar64(uint64(words[i]) | uint64(words[i+1])<<32)
	}
	if i < len(words) {
		n += swar64(uint64(words[i]))
	}
	return n
}

func swar64(x uint64) int {
	const (
		m1  = 0x5555555555555555
		m2  = 0x3333333333333333
		m4  = 0x0f0f0f0f0f0f0f0f
		h01 = 0x0101010101010101
	)
	x -= (x >> 1) & m1
	x = (x & m2) + ((x >> 2) & m2)
	x = (x + (x >> 4)) & m4
	return int((x * h01) >> 56)
}
