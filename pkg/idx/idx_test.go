package idx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/tollgate/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestNewAndParse(t *testing.T) {
	id := idx.New()
	require.Len(t, id.String(), 26)

	parsed, err := idx.Parse(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)
}

func TestParseRejects(t *testing.T) {
	for _, s := range []string{
		"",
		"not-a-ulid",
		"01HQ7T3Z1MZ0JQ3M6MZQ1FQ3Z",   // 25 chars
		" 01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZX", // padded
		"01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZU",  // U is not in the alphabet
	} {
		_, err := idx.Parse(s)
		require.ErrorIs(t, err, idx.ErrInvalid, "input %q", s)
	}
}

func TestSortsInCreationOrder(t *testing.T) {
	at := time.Unix(1700000000, 0)
	a := idx.NewAt(at)
	b := idx.NewAt(at)
	c := idx.NewAt(at.Add(time.Millisecond))

	require.Less(t, a.String(), b.String())
	require.Less(t, b.String(), c.String())
}
