package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkInts(t *testing.T) {
	assert.Nil(t, ChunkInts(nil, 3))
	assert.Nil(t, ChunkInts([]int{1}, 0))
	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, ChunkInts([]int{1, 2, 3, 4, 5}, 2))
	assert.Equal(t, [][]int{{1, 2, 3}}, ChunkInts([]int{1, 2, 3}, 10))
}

func TestStringInSlice(t *testing.T) {
	assert.True(t, StringInSlice("b", []string{"a", "b"}))
	assert.False(t, StringInSlice("c", []string{"a", "b"}))
}

func TestJoinNonEmpty(t *testing.T) {
	assert.Equal(t, "a, b", JoinNonEmpty([]string{"a", "", "b"}, ", "))
	assert.Equal(t, "", JoinNonEmpty(nil, ", "))
}
