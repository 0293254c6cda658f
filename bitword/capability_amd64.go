//go:build amd64

package bitword

import "golang.org/x/sys/cpu"

func init() {
	if cpu.X86.HasPOPCNT {
		useHardwarePopcount("popcnt")
	}
}
