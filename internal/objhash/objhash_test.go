package objhash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullIsZeroValue(t *testing.T) {
	var id ObjectId
	assert.True(t, id.IsNull())
	assert.Equal(t, Null, id)
}

func TestStringParseRoundTrip(t *testing.T) {
	id := Sum([]byte("hello world"))
	s := id.String()
	assert.Len(t, s, Size*2)

	parsed, err := Parse(s)
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestParseRejectsWrongLength(t *testing.T) {
	_, err := Parse("abcd")
	assert.ErrorIs(t, err, ErrInvalidHex)
}

func TestParseRejectsNonHex(t *testing.T) {
	bad := make([]byte, Size*2)
	for i := range bad {
		bad[i] = 'z'
	}
	_, err := Parse(string(bad))
	assert.ErrorIs(t, err, ErrInvalidHex)
}

func TestMustParsePanicsOnError(t *testing.T) {
	assert.Panics(t, func() {
		MustParse("not-valid-hex")
	})
}

func TestSumIsDeterministic(t *testing.T) {
	a := Sum([]byte("same input"))
	b := Sum([]byte("same input"))
	assert.Equal(t, a, b)
}

func TestSumChangesWithInput(t *testing.T) {
	a := Sum([]byte("input one"))
	b := Sum([]byte("input two"))
	assert.NotEqual(t, a, b)
}

func TestCompareOrdering(t *testing.T) {
	low := ObjectId{0x01}
	high := ObjectId{0x02}
	assert.Equal(t, -1, low.Compare(high))
	assert.Equal(t, 1, high.Compare(low))
	assert.Equal(t, 0, low.Compare(low))
}
