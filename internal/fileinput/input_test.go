package fileinput

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLines(t *testing.T) {
	src, err := ReadLines("prog", strings.NewReader("1 2 +\n\"hi\" write\n"))
	require.NoError(t, err)
	assert.Equal(t, "prog", src.Name)
	assert.Equal(t, []string{"1 2 +", `"hi" write`}, src.Lines)
	assert.Equal(t, "prog:2", src.Location(1).String())
}

func TestReadLines_unnamed(t *testing.T) {
	src, err := ReadLines("", strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, "<unnamed *strings.Reader>", src.Name)
	assert.Empty(t, src.Lines)
}
