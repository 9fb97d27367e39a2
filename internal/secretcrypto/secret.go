package secretcrypto

import (
	"runtime"
	"sync"
)

// Secret wraps sensitive byte slices (mnemonics, passwords, PINs, SSS
// shares, decrypted blobs). It zeroises on Destroy and on GC finalization,
// and its String/GoString never render the payload — spec §9's
// cross-cutting zeroising/redaction requirement.
type Secret struct {
	mu   sync.Mutex
	data []byte
}

// NewSecret copies data into a Secret-owned buffer.
func NewSecret(data []byte) *Secret {
	s := &Secret{data: append([]byte{}, data...)}
	runtime.SetFinalizer(s, (*Secret).Destroy)
	return s
}

// SecretFromString is a convenience constructor for string-typed secrets
// (mnemonics, PINs, passwords) coming from the host application.
func SecretFromString(s string) *Secret {
	return NewSecret([]byte(s))
}

// Bytes returns the underlying buffer. Callers must not retain it past
// the Secret's lifetime.
func (s *Secret) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

// String returns the fixed text "Secret(redacted)" — never the payload
// or its length.
func (s *Secret) String() string {
	return "Secret(redacted)"
}

// GoString matches String so %#v never leaks the payload either.
func (s *Secret) GoString() string {
	return s.String()
}

// Destroy zeroes the buffer. Safe to call more than once.
func (s *Secret) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.data {
		s.data[i] = 0
	}
	s.data = nil
	runtime.SetFinalizer(s, nil)
}

// ZeroBytes scrubs an arbitrary slice in place — used at call sites that
// receive raw []byte secrets (e.g. a decrypted share or seed) rather than
// a Secret, matching the teacher's wallet.ZeroBytes helper.
func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
