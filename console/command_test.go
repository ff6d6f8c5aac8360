package console

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterAndDispatch(t *testing.T) {
	r := NewRegistry()
	var got []string
	id := r.Register("echo", "<word>", "Echo a word", func(args []string) error {
		got = args
		return nil
	})

	assert.Equal(t, uint16(0), id)
	assert.Equal(t, 1, r.Count())
	require.NoError(t, r.Dispatch("echo", []string{"hi"}))
	assert.Equal(t, []string{"hi"}, got)

	cmd, ok := r.Lookup("echo")
	require.True(t, ok)
	assert.Equal(t, "<word>", cmd.Format)
}

func TestRegistryDuplicateKeepsFirst(t *testing.T) {
	r := NewRegistry()
	first := errors.New("first")
	id1 := r.Register("x", "", "", func([]string) error { return first })
	id2 := r.Register("x", "", "", func([]string) error { return nil })

	assert.Equal(t, id1, id2)
	assert.Equal(t, 1, r.Count())
	assert.ErrorIs(t, r.Dispatch("x", nil), first)
}

func TestRegistryUnknownCommand(t *testing.T) {
	r := NewRegistry()
	err := r.Dispatch("nope", nil)
	assert.ErrorIs(t, err, ErrUnknownCommand)
	assert.EqualError(t, err, "unknown command: nope")
}

func TestRegistryDictionaryOrder(t *testing.T) {
	r := NewRegistry()
	r.Register("zeta", "", "Last alphabetically", func([]string) error { return nil })
	r.Register("alpha", "<n>", "First alphabetically", func([]string) error { return nil })

	assert.Equal(t,
		"  zeta                   - Last alphabetically\n"+
			"  alpha <n>              - First alphabetically\n",
		r.Dictionary())
}
