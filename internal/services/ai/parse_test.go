package ai

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseScreen(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []int64
	}{
		{name: "plain object", raw: `{"selected": [1, 2, 3]}`, want: []int64{1, 2, 3}},
		{name: "fenced", raw: "```json\n{\"selected\": [7]}\n```", want: []int64{7}},
		{name: "string and float ids", raw: `{"selected": ["12", 13.0, " 14 "]}`, want: []int64{12, 13, 14}},
		{name: "stray braces in prose", raw: `I think {maybe} these: {"selected": [4, 5]}`, want: []int64{4, 5}},
		{name: "empty list", raw: `{"selected": []}`, want: []int64{}},
		{name: "large integral float", raw: `{"selected": [1e18]}`, want: []int64{1000000000000000000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseScreen(tt.raw)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseScreenMalformed(t *testing.T) {
	for _, raw := range []string{
		"",
		"no json at all",
		`{"picked": [1]}`,
		`{"selected": [1.5]}`,
		`{"selected": [1e30]}`,
		`{"selected": ["-1e19"]}`,
		`{"selected": [9223372036854775808]}`,
		`{"selected": [1, 2`,
	} {
		_, err := ParseScreen(raw)
		require.Error(t, err, raw)

		var malformedErr *MalformedOutputError
		require.True(t, errors.As(err, &malformedErr), raw)
		require.Equal(t, StageScreen, malformedErr.Stage)
		require.Equal(t, raw, malformedErr.Raw)
	}
}

func TestParseRankSplitsExplanation(t *testing.T) {
	ids, explanation, err := ParseRank("Some text here\n{\"matches\": [5,6]}")
	require.NoError(t, err)
	require.Equal(t, []int64{5, 6}, ids)
	require.Equal(t, "Some text here", explanation)
}

func TestParseRankUsesLastDecodableObject(t *testing.T) {
	raw := "Она любит {горы} и книги, а он тоже {\"note\": 1}.\n```json\n{\"matches\": [\"8\", 9]}\n```"

	ids, explanation, err := ParseRank(raw)
	require.NoError(t, err)
	require.Equal(t, []int64{8, 9}, ids)
	require.False(t, strings.Contains(explanation, "```"))
	require.True(t, strings.HasPrefix(explanation, "Она любит"))
}

func TestParseRankBracesInsideStrings(t *testing.T) {
	ids, _, err := ParseRank(`Ok {"matches": [1], "comment": "a } tricky { value"}`)
	require.NoError(t, err)
	require.Equal(t, []int64{1}, ids)
}

func TestParseRankMalformed(t *testing.T) {
	_, _, err := ParseRank(`Nice people. {"selected": [1]}`)

	var malformedErr *MalformedOutputError
	require.ErrorAs(t, err, &malformedErr)
	require.Equal(t, StageRank, malformedErr.Stage)
	require.ErrorIs(t, err, errMissingKey)
}
