package maputil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type decodeTarget struct {
	Name    string        `json:"name"`
	Count   int           `json:"count"`
	Enabled bool          `json:"enabled"`
	Delay   time.Duration `json:"delay"`
}

func TestDecode(t *testing.T) {
	input := map[string]any{
		"name":    "nf-data-crawler",
		"count":   "42", // weakly typed: string -> int
		"enabled": 1,    // weakly typed: int -> bool
		"delay":   "3s",
		"unknown": "ignored",
	}

	result, err := Decode[decodeTarget](input)
	require.NoError(t, err)

	assert.Equal(t, "nf-data-crawler", result.Name)
	assert.Equal(t, 42, result.Count)
	assert.True(t, result.Enabled)
	assert.Equal(t, 3*time.Second, result.Delay)
}

func TestDecode_ErrorUnused(t *testing.T) {
	input := map[string]any{
		"name":    "app",
		"unknown": "value",
	}

	_, err := Decode[decodeTarget](input, WithErrorUnused(true))
	assert.Error(t, err)
}

func TestDecodeTo_Merge(t *testing.T) {
	// 기존 값이 있는 구조체에 디코딩하면 입력에 없는 필드는 유지됩니다.
	target := decodeTarget{Name: "original", Count: 10}

	err := DecodeTo(map[string]any{"count": 20}, &target)
	require.NoError(t, err)

	assert.Equal(t, "original", target.Name)
	assert.Equal(t, 20, target.Count)
}

func TestDecodeTo_NilOutput(t *testing.T) {
	var target *decodeTarget
	err := DecodeTo(map[string]any{"name": "x"}, target)
	assert.Error(t, err)
}
