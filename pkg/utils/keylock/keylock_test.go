package keylock_test

import (
	"sync"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/taskdesk/taskdesk/pkg/utils/keylock"
)

func TestMap(t *testing.T) {
	t.Run("serializes work on the same key", func(t *testing.T) {
		locks := keylock.New()
		var wg sync.WaitGroup
		var order []int
		var mu sync.Mutex
		counter := 0

		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock := locks.Lock("session")
				defer unlock()

				v := counter
				counter = v + 1

				mu.Lock()
				order = append(order, v)
				mu.Unlock()
			}()
		}
		wg.Wait()

		gt.Value(t, counter).Equal(50)
		gt.Array(t, order).Length(50)
		gt.Value(t, locks.Len()).Equal(0)
	})

	t.Run("different keys do not block each other", func(t *testing.T) {
		locks := keylock.New()
		unlockA := locks.Lock("a")
		unlockB := locks.Lock("b")
		gt.Value(t, locks.Len()).Equal(2)
		unlockA()
		unlockB()
		gt.Value(t, locks.Len()).Equal(0)
	})
}
