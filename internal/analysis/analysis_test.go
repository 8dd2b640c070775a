package analysis

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/homilyd/internal/apperr"
	"github.com/starford/homilyd/internal/grouping"
)

func TestCheckTranscript(t *testing.T) {
	t.Parallel()

	varied := strings.Repeat("the kingdom of heaven is like a mustard seed that grows ", 10)
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{"blank", "   ", true},
		{"short", "Amen.", true},
		{"short but fine", "Brothers and sisters, peace.", false},
		{"varied long", varied, false},
		{"tiny vocabulary", strings.Repeat("la di da ", 30), true},
		{"one word dominates", strings.Repeat("you ", 40) + varied[:120], true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckTranscript(tt.text)
			if tt.wantErr {
				require.ErrorIs(t, err, apperr.ErrTranscriptUnusable)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestReadTranscript(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := ReadTranscript(filepath.Join(dir, "Mass-missing.txt"))
	var ue *UnusableError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "Transcript file is missing.", ue.Reason)

	short := filepath.Join(dir, "Mass-short.txt")
	require.NoError(t, os.WriteFile(short, []byte("hi"), 0o644))
	_, err = ReadTranscript(short)
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, short, ue.Path)

	bad := filepath.Join(dir, "Mass-bad.txt")
	require.NoError(t, os.WriteFile(bad, []byte{0xff, 0xfe, 'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h', 'i', 'j'}, 0o644))
	_, err = ReadTranscript(bad)
	require.ErrorIs(t, err, apperr.ErrTranscriptUnusable)

	good := filepath.Join(dir, "Mass-good.txt")
	require.NoError(t, os.WriteFile(good, []byte("  Today we hear about the good shepherd.\n"), 0o644))
	text, err := ReadTranscript(good)
	require.NoError(t, err)
	assert.Equal(t, "Today we hear about the good shepherd.", text)
}

type fakeAnalyzer struct {
	out   Analysis
	err   error
	calls int
}

func (f *fakeAnalyzer) Analyze(context.Context, string) (Analysis, error) {
	f.calls++
	return f.out, f.err
}

func TestService_Summarize(t *testing.T) {
	t.Parallel()

	fa := &fakeAnalyzer{out: Analysis{
		Title:          " The Good Shepherd ",
		Description:    "Jesus knows his sheep.",
		Special:        "First communion",
		LiturgicalDay:  "Fourth Sunday of Easter",
		LiturgicalYear: "C",
	}}
	svc := NewService(fa, grouping.DefaultRule(time.UTC))

	recorded := time.Date(2025, 5, 10, 17, 0, 0, 0, time.UTC) // Saturday vigil
	s, err := svc.Summarize(context.Background(), "Mass-20250510.mp3", "Today we hear about the good shepherd.", recorded)
	require.NoError(t, err)

	assert.Equal(t, "2025-05-11", s.GroupKey)
	assert.Equal(t, "The Good Shepherd", s.Title)
	assert.Equal(t, "First communion", s.SpecialContext)
	assert.Equal(t, "C", s.LiturgicalYearCycle)
	assert.Equal(t, recorded, s.RecordedAt)
}

func TestService_SummarizeRejectsBeforeAnalyzer(t *testing.T) {
	t.Parallel()

	fa := &fakeAnalyzer{}
	svc := NewService(fa, grouping.DefaultRule(time.UTC))

	_, err := svc.Summarize(context.Background(), "Mass-1.mp3", "", time.Now())
	require.ErrorIs(t, err, apperr.ErrTranscriptUnusable)
	assert.Zero(t, fa.calls)
}

func TestService_SummarizeAnalyzerError(t *testing.T) {
	t.Parallel()

	boom := errors.New("model unavailable")
	svc := NewService(&fakeAnalyzer{err: boom}, grouping.DefaultRule(time.UTC))

	_, err := svc.Summarize(context.Background(), "Mass-1.mp3", "A reasonable transcript body.", time.Now())
	require.ErrorIs(t, err, boom)
}
