package supersede

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type state struct {
	loading bool
	result  string
}

func TestSlot_LatestWins(t *testing.T) {
	var s Slot[state]

	first := s.Issue(func(v *state) { v.loading = true })
	second := s.Issue(func(v *state) { v.loading = true })
	assert.Greater(t, second, first)

	applied := s.Apply(second, func(v *state) {
		v.loading = false
		v.result = "second"
	})
	assert.True(t, applied)

	applied = s.Apply(first, func(v *state) { v.result = "first" })
	assert.False(t, applied, "older generation must be discarded")

	assert.Equal(t, state{result: "second"}, s.Load())
}

func TestSlot_IssueInvalidatesWithoutResult(t *testing.T) {
	var s Slot[state]

	gen := s.Issue(nil)
	s.Issue(func(v *state) { *v = state{} })

	assert.False(t, s.Apply(gen, func(v *state) { v.result = "late" }))
	assert.Equal(t, "", s.Load().result)
	assert.Equal(t, uint64(2), s.Latest())
}

func TestSlot_Update(t *testing.T) {
	var s Slot[state]
	gen := s.Issue(nil)

	s.Update(func(v *state) { v.result = "cleared" })
	assert.Equal(t, "cleared", s.Load().result)
	assert.True(t, s.Apply(gen, func(v *state) {}), "Update does not advance the generation")
}

func TestSlot_ConcurrentIssue(t *testing.T) {
	var s Slot[int]
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			gen := s.Issue(nil)
			s.Apply(gen, func(v *int) { *v++ })
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(50), s.Latest())
	assert.LessOrEqual(t, s.Load(), 50)
}
