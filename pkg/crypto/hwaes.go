package crypto

import "golang.org/x/sys/cpu"

// HasHardwareAES reports whether the CPU can run AES-GCM in constant time
// at full speed. On hosts without these instructions ChaCha20-Poly1305 is
// the faster and safer choice.
func HasHardwareAES() bool {
	if cpu.X86.HasAES && cpu.X86.HasPCLMULQDQ {
		return true
	}
	if cpu.ARM64.HasAES && cpu.ARM64.HasPMULL {
		return true
	}
	return cpu.S390X.HasAESGCM
}
