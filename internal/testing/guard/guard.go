package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("WAYFARER_TEST_MODE") == "" {
			_ = os.Setenv("WAYFARER_TEST_MODE", "1")
		}
	})
}
