package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_BasicVTT(t *testing.T) {
	t.Parallel()

	doc := "WEBVTT\n\n00:00:05.000 --> 00:00:07.000\nThe Gospel of the Lord.\n\n00:00:08.000 --> 00:00:20.000\nBrothers and sisters...\n"
	res, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)

	require.Len(t, res.Cues, 2)
	assert.Equal(t, 5.0, res.Cues[0].Start)
	assert.Equal(t, 7.0, res.Cues[0].End)
	assert.Equal(t, "The Gospel of the Lord.", res.Cues[0].Text)
	assert.Equal(t, "Brothers and sisters...", res.Cues[1].Text)
	assert.Zero(t, res.InvalidTimestamps)
}

func TestParse_SRT(t *testing.T) {
	t.Parallel()

	doc := "1\n00:00:05,000 --> 00:00:07,250\nThe Gospel of the Lord.\n\n2\n00:00:08,000 --> 00:00:20,000\nBrothers and sisters...\n\n3\n00:00:21,000 --> 00:00:25,000\nPsalm\n40\n"
	res, err := ParseBytes([]byte(doc))
	require.NoError(t, err)

	require.Len(t, res.Cues, 3)
	assert.Equal(t, 5.0, res.Cues[0].Start)
	assert.Equal(t, 7.25, res.Cues[0].End)
	assert.Equal(t, "The Gospel of the Lord.", res.Cues[0].Text)
	assert.Equal(t, "Brothers and sisters...", res.Cues[1].Text)
	assert.Equal(t, "Psalm 40", res.Cues[2].Text)
	assert.Zero(t, res.InvalidTimestamps)
}

func TestParse_MergesContinuationLines(t *testing.T) {
	t.Parallel()

	doc := "00:00:01.000 --> 00:00:04.000\n  first line\nsecond line \n\nthird line\n"
	res, err := ParseBytes([]byte(doc))
	require.NoError(t, err)

	require.Len(t, res.Cues, 1)
	assert.Equal(t, "first line second line third line", res.Cues[0].Text)
}

func TestParse_DiscardsLinesBeforeFirstSeparator(t *testing.T) {
	t.Parallel()

	doc := "WEBVTT\nKind: captions\nNOTE generated\n\n00:01.000 --> 00:02.000\nhello\n"
	res, err := ParseBytes([]byte(doc))
	require.NoError(t, err)

	require.Len(t, res.Cues, 1)
	assert.Equal(t, "hello", res.Cues[0].Text)
	assert.Equal(t, 1.0, res.Cues[0].Start)
}

func TestParse_InvalidSeparatorCountedAndIgnored(t *testing.T) {
	t.Parallel()

	doc := strings.Join([]string{
		"00:00:01.000 --> 00:00:02.000",
		"alpha",
		"00:xx:03.000 --> 00:00:04.000",
		"beta",
		"00:00:05.000 --> 00:00:06.000",
		"gamma",
	}, "\n")
	res, err := ParseBytes([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, 1, res.InvalidTimestamps)
	require.Len(t, res.Cues, 2)
	// The invalid separator neither opened a cue nor closed the previous one.
	assert.Equal(t, "alpha beta", res.Cues[0].Text)
	assert.Equal(t, "gamma", res.Cues[1].Text)
}

func TestParse_SkipsEmptyCues(t *testing.T) {
	t.Parallel()

	doc := "00:00:01.000 --> 00:00:02.000\n\n00:00:03.000 --> 00:00:04.000\nspoken\n"
	res, err := ParseBytes([]byte(doc))
	require.NoError(t, err)

	require.Len(t, res.Cues, 1)
	assert.Equal(t, 3.0, res.Cues[0].Start)
}

func TestParse_EmptyInput(t *testing.T) {
	t.Parallel()

	res, err := ParseBytes(nil)
	require.NoError(t, err)
	assert.Empty(t, res.Cues)
	_, ok := res.Last()
	assert.False(t, ok)
}

func TestParse_PreservesInputOrder(t *testing.T) {
	t.Parallel()

	doc := "00:00:30.000 --> 00:00:31.000\nlate\n00:00:10.000 --> 00:00:11.000\nearly\n00:00:20.000 --> 00:00:21.000\nmiddle\n"
	res, err := ParseBytes([]byte(doc))
	require.NoError(t, err)

	starts := make([]float64, len(res.Cues))
	for i, c := range res.Cues {
		starts[i] = c.Start
	}
	assert.Equal(t, []float64{30, 10, 20}, starts)
}

func TestParse_CueSettingsAndShortForm(t *testing.T) {
	t.Parallel()

	doc := "01:05.250 --> 01:07.000 align:start position:0%\nsettings ignored\n"
	res, err := ParseBytes([]byte(doc))
	require.NoError(t, err)

	require.Len(t, res.Cues, 1)
	assert.InDelta(t, 65.25, res.Cues[0].Start, 1e-9)
	assert.InDelta(t, 67.0, res.Cues[0].End, 1e-9)
}

func TestParse_EndBeforeStartNormalised(t *testing.T) {
	t.Parallel()

	res, err := ParseBytes([]byte("00:00:09.000 --> 00:00:03.000\nbackwards\n"))
	require.NoError(t, err)

	require.Len(t, res.Cues, 1)
	assert.LessOrEqual(t, res.Cues[0].Start, res.Cues[0].End)
}

func TestResult_Suspect(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	for i := 0; i < 6; i++ {
		b.WriteString("bad --> worse\n")
	}
	res, err := ParseBytes([]byte(b.String()))
	require.NoError(t, err)

	assert.Equal(t, 6, res.InvalidTimestamps)
	assert.True(t, res.Suspect(DefaultInvalidThreshold))
	assert.False(t, res.Suspect(6))
}
