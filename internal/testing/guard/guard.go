// Package guard forces test mode before any package init that might
// reach for external services. Blank-import it from tests that touch
// runtime wiring.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("TILLWARD_TEST_MODE") == "" {
			_ = os.Setenv("TILLWARD_TEST_MODE", "1")
		}
	})
}
