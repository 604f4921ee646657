package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadHands(t *testing.T) {
	csv := `chat_id,command,input
42,score,"2 crabs, 3 shells"
42,color-bonus,"1 mermaid, 4 blue"
43,dance,"1 crab"
44,score,
45
`
	hands, skipped, err := readHands(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 3, skipped)
	assert.Equal(t, []HandImport{
		{ChatID: "42", Command: "score", Input: "2 crabs, 3 shells"},
		{ChatID: "42", Command: "color_bonus", Input: "1 mermaid, 4 blue"},
	}, hands)
}

func TestReadHands_NoHeader(t *testing.T) {
	hands, skipped, err := readHands(strings.NewReader("7,score,10 shells\n"))
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, hands, 1)
	assert.Equal(t, "7", hands[0].ChatID)
}

func TestEvaluateHand(t *testing.T) {
	rec := evaluateHand(HandImport{ChatID: "1", Command: "score", Input: "2 crabs, 3 shells"})
	assert.Equal(t, "SCORED", rec.Outcome)
	assert.Equal(t, 5, rec.Total)
	assert.Equal(t, map[string]int{"crab": 2, "shell": 3}, rec.Tally)

	rec = evaluateHand(HandImport{ChatID: "1", Command: "color_bonus", Input: "2 blue"})
	assert.Equal(t, "NEED_UNLOCK", rec.Outcome)
	assert.Zero(t, rec.Total)
	assert.Nil(t, rec.Tally)
}
