package internal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time checks that the real implementations satisfy the pipeline
// interfaces the fakes stand in for.
var (
	_ MediaFetcher = (*Fetcher)(nil)
	_ SpeechToText = (*AI)(nil)
	_ ClipRanker   = (*Analyzer)(nil)
	_ ClipCutter   = (*Video)(nil)
	_ Completer    = (*AI)(nil)
)

func newTestConfig(t *testing.T) *Config {
	t.Helper()
	base := t.TempDir()
	return &Config{
		Port:              0,
		CORSOrigins:       "*",
		ClipModel:         "gpt-4o-mini",
		WhisperModel:      "whisper-1",
		ClipLanguage:      "English",
		MinClips:          3,
		MaxClips:          5,
		MinClipSeconds:    15,
		MaxClipSeconds:    60,
		TranscriptBudget:  15000,
		AcquireTimeout:    time.Minute,
		TranscribeTimeout: time.Minute,
		AnalyzeTimeout:    time.Minute,
		ConfigDir:         filepath.Join(base, "config"),
		DataDir:           filepath.Join(base, "data"),
		CacheDir:          filepath.Join(base, "cache"),
		MediaDir:          filepath.Join(base, "media"),
		MetaDir:           filepath.Join(base, "meta"),
		TempDir:           filepath.Join(base, "temp"),
	}
}

type fakeFetcher struct {
	audioCalls  int32
	masterCalls int32
	audioErr    error
	masterErr   error
	metaErr     error
	title       string
}

func (f *fakeFetcher) Metadata(ctx context.Context, sourceURL string) (*VideoMetadata, error) {
	if f.metaErr != nil {
		return nil, f.metaErr
	}
	title := f.title
	if title == "" {
		title = "Test Video"
	}
	return &VideoMetadata{Title: title, Duration: 300}, nil
}

func (f *fakeFetcher) DownloadAudio(ctx context.Context, sourceURL, dst string) error {
	atomic.AddInt32(&f.audioCalls, 1)
	if f.audioErr != nil {
		return f.audioErr
	}
	return os.WriteFile(dst, []byte("audio"), 0644)
}

func (f *fakeFetcher) DownloadMaster(ctx context.Context, sourceURL, dst string) error {
	atomic.AddInt32(&f.masterCalls, 1)
	if f.masterErr != nil {
		return f.masterErr
	}
	return os.WriteFile(dst, []byte("master"), 0644)
}

type fakeSpeech struct {
	transcript string
	err        error
}

func (f *fakeSpeech) Transcribe(ctx context.Context, audioFile string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.transcript, nil
}

type fakeRanker struct {
	clips []Clip
}

func (f *fakeRanker) Analyze(ctx context.Context, transcript string) []Clip {
	return f.clips
}

type fakeCutter struct {
	cutCalls int32
	duration float64
	cutErr   error
	durErr   error
}

func (f *fakeCutter) Cut(ctx context.Context, src string, start, end int, dst string) error {
	atomic.AddInt32(&f.cutCalls, 1)
	if f.cutErr != nil {
		return f.cutErr
	}
	return os.WriteFile(dst, []byte("clip"), 0644)
}

func (f *fakeCutter) Duration(ctx context.Context, src string) (float64, error) {
	if f.durErr != nil {
		return 0, f.durErr
	}
	return f.duration, nil
}

func newTestApp(t *testing.T, fetcher *fakeFetcher, speech *fakeSpeech, ranker *fakeRanker, cutter *fakeCutter) *App {
	t.Helper()
	config := newTestConfig(t)
	return NewApp(config,
		WithFetcher(fetcher),
		WithSpeech(speech),
		WithAnalyzer(ranker),
		WithCutter(cutter),
	)
}

func TestAnalyzePipeline(t *testing.T) {
	fetcher := &fakeFetcher{title: "How I Built It"}
	speech := &fakeSpeech{transcript: "hello world, this is the transcript"}
	ranker := &fakeRanker{clips: []Clip{{ID: 1, Title: "Intro", Start: 0, End: 30}}}
	app := newTestApp(t, fetcher, speech, ranker, &fakeCutter{duration: 300})

	result, err := app.Analyze(context.Background(), "https://example.com/watch?v=abc")
	require.NoError(t, err)

	assert.Len(t, result.VideoID, 8)
	assert.Equal(t, "How I Built It", result.VideoTitle)
	assert.Equal(t, "hello world, this is the transcript", result.FullTextPreview)
	require.Len(t, result.Clips, 1)
	assert.Equal(t, "Intro", result.Clips[0].Title)

	// Session must be resolvable for later downloads.
	url, err := app.Sessions().Resolve(result.VideoID)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/watch?v=abc", url)

	// Audio artifact is deleted once transcribed.
	assert.False(t, app.store.Exists(AudioKey(result.VideoID)))
	assert.Equal(t, int32(1), atomic.LoadInt32(&fetcher.audioCalls))
}

func TestAnalyzeLongTranscriptPreview(t *testing.T) {
	long := ""
	for range 50 {
		long += "transcript "
	}
	app := newTestApp(t, &fakeFetcher{}, &fakeSpeech{transcript: long}, &fakeRanker{}, &fakeCutter{})

	result, err := app.Analyze(context.Background(), "https://example.com/v")
	require.NoError(t, err)

	assert.Len(t, []rune(result.FullTextPreview), transcriptPreviewLen+3)
	assert.True(t, len(result.FullTextPreview) < len(long))
}

func TestAnalyzeReusesCachedTranscript(t *testing.T) {
	fetcher := &fakeFetcher{}
	app := newTestApp(t, fetcher, &fakeSpeech{transcript: "the transcript"}, &fakeRanker{}, &fakeCutter{})

	first, err := app.Analyze(context.Background(), "https://example.com/v")
	require.NoError(t, err)

	second, err := app.Analyze(context.Background(), "https://example.com/v")
	require.NoError(t, err)

	// The second run gets a fresh session but skips download and transcription.
	assert.NotEqual(t, first.VideoID, second.VideoID)
	assert.Equal(t, first.FullTextPreview, second.FullTextPreview)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fetcher.audioCalls))
}

func TestAnalyzeRejectsBadURL(t *testing.T) {
	app := newTestApp(t, &fakeFetcher{}, &fakeSpeech{}, &fakeRanker{}, &fakeCutter{})

	_, err := app.Analyze(context.Background(), "not a url")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAcquisitionFailed))
}

func TestAnalyzeAcquisitionFailure(t *testing.T) {
	fetcher := &fakeFetcher{audioErr: errors.New("video unavailable")}
	app := newTestApp(t, fetcher, &fakeSpeech{}, &fakeRanker{}, &fakeCutter{})

	_, err := app.Analyze(context.Background(), "https://example.com/v")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAcquisitionFailed))
	assert.Contains(t, err.Error(), "video unavailable")
}

func TestAnalyzeTranscriptionFailure(t *testing.T) {
	speech := &fakeSpeech{err: errors.New("whisper overloaded")}
	app := newTestApp(t, &fakeFetcher{}, speech, &fakeRanker{}, &fakeCutter{})

	_, err := app.Analyze(context.Background(), "https://example.com/v")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTranscriptionFailed))
}

func TestAnalyzeMetadataFailureIsNonFatal(t *testing.T) {
	fetcher := &fakeFetcher{metaErr: errors.New("metadata blocked")}
	app := newTestApp(t, fetcher, &fakeSpeech{transcript: "text"}, &fakeRanker{}, &fakeCutter{})

	result, err := app.Analyze(context.Background(), "https://example.com/v")
	require.NoError(t, err)
	assert.Equal(t, "Unknown Video", result.VideoTitle)
}

func TestExtractCutsAndCaches(t *testing.T) {
	fetcher := &fakeFetcher{}
	cutter := &fakeCutter{duration: 300}
	app := newTestApp(t, fetcher, &fakeSpeech{}, &fakeRanker{}, cutter)

	sessionID := app.Sessions().Create("https://example.com/v")

	clipPath, err := app.Extract(context.Background(), sessionID, 10, 40)
	require.NoError(t, err)
	assert.Equal(t, app.store.Path(ClipKey(sessionID, 10, 40)), clipPath)
	assert.True(t, FileExists(clipPath))
	assert.Equal(t, int32(1), atomic.LoadInt32(&fetcher.masterCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&cutter.cutCalls))

	// Same range again: everything is served from cache.
	clipPath2, err := app.Extract(context.Background(), sessionID, 10, 40)
	require.NoError(t, err)
	assert.Equal(t, clipPath, clipPath2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fetcher.masterCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&cutter.cutCalls))

	// Different range: new cut, but the master is reused.
	clipPath3, err := app.Extract(context.Background(), sessionID, 60, 90)
	require.NoError(t, err)
	assert.NotEqual(t, clipPath, clipPath3)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fetcher.masterCalls))
	assert.Equal(t, int32(2), atomic.LoadInt32(&cutter.cutCalls))
}

func TestExtractUnknownSession(t *testing.T) {
	app := newTestApp(t, &fakeFetcher{}, &fakeSpeech{}, &fakeRanker{}, &fakeCutter{})

	_, err := app.Extract(context.Background(), "nope1234", 0, 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSessionNotFound))
}

func TestExtractInvalidRanges(t *testing.T) {
	cutter := &fakeCutter{duration: 100}
	app := newTestApp(t, &fakeFetcher{}, &fakeSpeech{}, &fakeRanker{}, cutter)
	sessionID := app.Sessions().Create("https://example.com/v")

	cases := []struct {
		name       string
		start, end int
	}{
		{"negative start", -1, 10},
		{"empty range", 20, 20},
		{"inverted range", 30, 10},
		{"start beyond duration", 150, 200},
		{"end beyond duration", 50, 150},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := app.Extract(context.Background(), sessionID, tc.start, tc.end)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidRange))
		})
	}

	assert.Equal(t, int32(0), atomic.LoadInt32(&cutter.cutCalls))
}

func TestExtractDurationProbeFailureStillCuts(t *testing.T) {
	cutter := &fakeCutter{durErr: errors.New("ffprobe missing")}
	app := newTestApp(t, &fakeFetcher{}, &fakeSpeech{}, &fakeRanker{}, cutter)
	sessionID := app.Sessions().Create("https://example.com/v")

	clipPath, err := app.Extract(context.Background(), sessionID, 0, 10)
	require.NoError(t, err)
	assert.True(t, FileExists(clipPath))
}

func TestExtractMasterFetchFailure(t *testing.T) {
	fetcher := &fakeFetcher{masterErr: errors.New("geo blocked")}
	app := newTestApp(t, fetcher, &fakeSpeech{}, &fakeRanker{}, &fakeCutter{duration: 100})
	sessionID := app.Sessions().Create("https://example.com/v")

	_, err := app.Extract(context.Background(), sessionID, 0, 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAcquisitionFailed))
}

func TestExtractCutFailure(t *testing.T) {
	cutter := &fakeCutter{duration: 100, cutErr: errors.New("corrupt stream")}
	app := newTestApp(t, &fakeFetcher{}, &fakeSpeech{}, &fakeRanker{}, cutter)
	sessionID := app.Sessions().Create("https://example.com/v")

	_, err := app.Extract(context.Background(), sessionID, 0, 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExtractionFailed))
}
