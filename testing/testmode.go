// Package testing flips the binaries into test mode when imported for side
// effects from a test.
package testing

import (
	"os"
	"sync"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("PULSEBOARD_TEST_MODE", "1")
	})
}

func init() {
	ensureTestMode()
}
