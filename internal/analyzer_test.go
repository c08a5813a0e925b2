package internal

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	response string
	err      error
	system   string
	user     string
}

func (f *fakeCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	f.system = system
	f.user = user
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func newTestAnalyzer(t *testing.T, completer Completer) *Analyzer {
	t.Helper()
	config := newTestConfig(t)
	prompts := NewPromptManager(config.ConfigDir, "Select {{.MinClips}} to {{.MaxClips}} clips of {{.MinSeconds}}-{{.MaxSeconds}} seconds in {{.Language}}.")
	return NewAnalyzer(completer, prompts, config, NewLogger(false))
}

const validClipJSON = `[
  {"id": 1, "title": "The reveal", "start": 42, "end": 88,
   "reason": "strong emotional payoff", "highlight_quote": "I never expected this",
   "hook_text": "Wait for it", "social_caption": "You won't believe this"},
  {"id": 2, "title": "Hot take", "start": 120, "end": 150,
   "reason": "controversial opinion", "highlight_quote": "Everyone is wrong",
   "hook_text": "Unpopular opinion", "social_caption": "Agree or disagree?"}
]`

func TestAnalyzeParsesRawArray(t *testing.T) {
	completer := &fakeCompleter{response: validClipJSON}
	analyzer := newTestAnalyzer(t, completer)

	clips := analyzer.Analyze(context.Background(), "a transcript")

	require.Len(t, clips, 2)
	assert.Equal(t, 1, clips[0].ID)
	assert.Equal(t, "The reveal", clips[0].Title)
	assert.Equal(t, 42, clips[0].Start)
	assert.Equal(t, 88, clips[0].End)
	assert.Equal(t, 46, clips[0].Duration())
	assert.Equal(t, "Agree or disagree?", clips[1].SocialCaption)
}

func TestAnalyzeStripsMarkdownFences(t *testing.T) {
	completer := &fakeCompleter{response: "```json\n" + validClipJSON + "\n```"}
	analyzer := newTestAnalyzer(t, completer)

	clips := analyzer.Analyze(context.Background(), "a transcript")

	require.Len(t, clips, 2)
	assert.Equal(t, "Hot take", clips[1].Title)
}

func TestAnalyzeDiscardsSurroundingProse(t *testing.T) {
	completer := &fakeCompleter{
		response: "Here are the clips you asked for:\n" + validClipJSON + "\nLet me know if you need more.",
	}
	analyzer := newTestAnalyzer(t, completer)

	clips := analyzer.Analyze(context.Background(), "a transcript")
	require.Len(t, clips, 2)
}

func TestAnalyzeMalformedResponseFallsBack(t *testing.T) {
	completer := &fakeCompleter{response: "I cannot produce JSON today, sorry."}
	analyzer := newTestAnalyzer(t, completer)

	clips := analyzer.Analyze(context.Background(), "a transcript")

	require.Len(t, clips, 1)
	assert.Equal(t, 0, clips[0].ID)
	assert.Equal(t, 0, clips[0].Start)
	assert.Equal(t, 10, clips[0].End)
	assert.NotEmpty(t, clips[0].Reason)
}

func TestAnalyzeCompleterErrorFallsBack(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("model unavailable")}
	analyzer := newTestAnalyzer(t, completer)

	clips := analyzer.Analyze(context.Background(), "a transcript")

	require.Len(t, clips, 1)
	assert.Equal(t, 0, clips[0].ID)
	assert.Contains(t, clips[0].Reason, "model unavailable")
}

func TestAnalyzeTruncatesTranscriptToBudget(t *testing.T) {
	completer := &fakeCompleter{response: validClipJSON}
	analyzer := newTestAnalyzer(t, completer)
	budget := analyzer.config.TranscriptBudget

	long := strings.Repeat("ä", budget+5000)
	analyzer.Analyze(context.Background(), long)

	assert.Equal(t, budget, len([]rune(completer.user)))
}

func TestAnalyzeShortTranscriptNotPadded(t *testing.T) {
	completer := &fakeCompleter{response: validClipJSON}
	analyzer := newTestAnalyzer(t, completer)

	analyzer.Analyze(context.Background(), "short transcript")
	assert.Equal(t, "short transcript", completer.user)
}

func TestAnalyzeRendersPromptConstraints(t *testing.T) {
	completer := &fakeCompleter{response: validClipJSON}
	analyzer := newTestAnalyzer(t, completer)

	analyzer.Analyze(context.Background(), "a transcript")

	assert.Contains(t, completer.system, "3 to 5 clips")
	assert.Contains(t, completer.system, "15-60 seconds")
	assert.Contains(t, completer.system, "English")
}

func TestParseClipsEmptyArray(t *testing.T) {
	clips, err := parseClips("[]")
	require.NoError(t, err)
	assert.Empty(t, clips)
}
