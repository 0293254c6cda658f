//go:build arm64

package bitword

import "golang.org/x/sys/cpu"

func init() {
	if cpu.ARM64.HasASIMD {
		useHardwarePopcount("neon")
	}
}
