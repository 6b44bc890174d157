package graph

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_PreservesIdentifiersAcrossGaps(t *testing.T) {
	input := `{
		"kmer_size": 3,
		"nodes": [
			{"id": 4, "sequence": "ACGTA", "coverage": 7},
			{"id": 1, "sequence": "TTACG", "coverage": 2.5}
		],
		"arcs": [{"from": 1, "to": -4, "coverage": 1}]
	}`

	g, err := Decode(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 4, g.NumNodes())
	assert.Equal(t, 2, g.NumValidNodes())
	assert.False(t, g.Node(2).Valid())
	assert.Equal(t, "ACGTA", g.Node(4).Sequence())
	_, ok := g.Node(4).OutArc(-1)
	assert.True(t, ok)
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"negative id", `{"kmer_size": 3, "nodes": [{"id": -1, "sequence": "ACG"}]}`},
		{"repeated id", `{"kmer_size": 3, "nodes": [{"id": 1, "sequence": "ACG"}, {"id": 1, "sequence": "ACG"}]}`},
		{"dangling arc", `{"kmer_size": 3, "nodes": [{"id": 1, "sequence": "ACG"}], "arcs": [{"from": 1, "to": 2}]}`},
		{"negative k", `{"kmer_size": -1}`},
		{"id far beyond node count", `{"kmer_size": 3, "nodes": [{"id": 9000000000000, "sequence": "ACG"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, ErrMalformedGraph)
		})
	}
}

func TestEncode_DropsRemovedNodes(t *testing.T) {
	g, _, b, _, _ := diamond(t)
	g.RemoveNode(b)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, g))

	back, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 3, back.NumValidNodes())
	assert.Len(t, back.Arcs(), 2)
	assert.False(t, back.Node(b).Valid())
}

func TestReadWriteFile(t *testing.T) {
	g, _, _, _, _ := diamond(t)
	path := filepath.Join(t.TempDir(), "graph.json")

	require.NoError(t, WriteFile(path, g))
	back, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, g.KmerSize(), back.KmerSize())
	assert.Equal(t, g.Arcs(), back.Arcs())

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
