package ulid

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_MonotonicWithinMillisecond(t *testing.T) {
	fixed := time.UnixMilli(1700000000123)
	g := NewGenerator(func() time.Time { return fixed })

	ids := make([]string, 50)
	for i := range ids {
		ids[i] = g.Next()
	}
	assert.True(t, sort.StringsAreSorted(ids))

	ts, err := Time(ids[0])
	require.NoError(t, err)
	assert.True(t, ts.Equal(fixed))
}

func TestNew(t *testing.T) {
	a, b := New(), New()
	assert.Len(t, a, 26)
	assert.NotEqual(t, a, b)
	assert.NoError(t, Validate(a))
}

func TestValidate(t *testing.T) {
	assert.Error(t, Validate(""))
	assert.Error(t, Validate("not-a-ulid"))
	assert.Error(t, Validate("01HZZZZZZZZZZZZZZZZZZZZZZU"))
}
