package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// MediaFetcher downloads source media. Implemented by Fetcher; replaced in
// tests.
type MediaFetcher interface {
	Metadata(ctx context.Context, sourceURL string) (*VideoMetadata, error)
	DownloadAudio(ctx context.Context, sourceURL, dst string) error
	DownloadMaster(ctx context.Context, sourceURL, dst string) error
}

// SpeechToText turns an audio file into a transcript.
type SpeechToText interface {
	Transcribe(ctx context.Context, audioFile string) (string, error)
}

// ClipRanker selects clip candidates from a transcript.
type ClipRanker interface {
	Analyze(ctx context.Context, transcript string) []Clip
}

// ClipCutter cuts spans out of a media file and probes durations.
type ClipCutter interface {
	Cut(ctx context.Context, src string, start, end int, dst string) error
	Duration(ctx context.Context, src string) (float64, error)
}

// transcriptPreviewLen is how much of the transcript analysis responses echo
// back to the caller.
const transcriptPreviewLen = 200

// App holds the application state and dependencies
type App struct {
	sessions *SessionRegistry
	store    *MediaStore
	fetcher  MediaFetcher
	speech   SpeechToText
	analyzer ClipRanker
	video    ClipCutter
	config   *Config
	logger   *slog.Logger
	ui       UIManager
}

// NewApp initializes the application
func NewApp(config *Config, options ...AppOption) *App {
	cmdRunner := &DefaultCommandRunner{}
	logger := NewLogger(config.Verbose)

	promptManager := NewPromptManager(config.ConfigDir, config.Prompt)
	audio := NewAudio(cmdRunner, config.TempDir)
	ai := NewAIWithKey(audio, config)

	app := &App{
		sessions: NewSessionRegistry(),
		store:    NewMediaStore(config.MediaDir),
		fetcher:  NewFetcher(config.ConfigDir, config.MetaDir, config.YouTubeCookies, logger),
		speech:   ai,
		analyzer: NewAnalyzer(ai, promptManager, config, logger),
		video:    NewVideo(cmdRunner),
		config:   config,
		logger:   logger,
		ui:       NewUIManager(config.Verbose),
	}

	// Apply any custom options
	for _, option := range options {
		option(app)
	}

	return app
}

// AppOption customizes App creation
type AppOption func(*App)

// WithFetcher sets a custom media fetcher
func WithFetcher(fetcher MediaFetcher) AppOption {
	return func(a *App) {
		a.fetcher = fetcher
	}
}

// WithSpeech sets a custom speech-to-text backend
func WithSpeech(speech SpeechToText) AppOption {
	return func(a *App) {
		a.speech = speech
	}
}

// WithAnalyzer sets a custom clip ranker
func WithAnalyzer(analyzer ClipRanker) AppOption {
	return func(a *App) {
		a.analyzer = analyzer
	}
}

// WithCutter sets a custom clip cutter
func WithCutter(video ClipCutter) AppOption {
	return func(a *App) {
		a.video = video
	}
}

// WithStore sets a custom media store
func WithStore(store *MediaStore) AppOption {
	return func(a *App) {
		a.store = store
	}
}

// SetPromptManager replaces the prompt manager backing the clip analyzer.
func (app *App) SetPromptManager(pm *PromptManager) {
	if analyzer, ok := app.analyzer.(*Analyzer); ok {
		analyzer.prompts = pm
	}
}

// Sessions exposes the session registry.
func (app *App) Sessions() *SessionRegistry {
	return app.sessions
}

// Metadata fetches video metadata for a URL.
func (app *App) Metadata(ctx context.Context, sourceURL string) (*VideoMetadata, error) {
	if err := ValidateSourceURL(sourceURL); err != nil {
		return nil, err
	}
	if err := EnsureDirs(app.config.MetaDir); err != nil {
		return nil, fmt.Errorf("creating metadata directory: %w", err)
	}
	return app.fetcher.Metadata(ctx, sourceURL)
}

// Analyze runs the full analysis pipeline for a video URL: register a
// session, fetch the audio track, transcribe it, and rank clip candidates.
// The audio artifact is deleted once the transcript exists; the master video
// is not fetched until a clip download asks for it.
func (app *App) Analyze(ctx context.Context, sourceURL string) (*AnalysisResult, error) {
	return app.AnalyzeWithStatus(ctx, sourceURL, false)
}

// AnalyzeWithStatus runs Analyze with an optional status spinner for
// interactive use.
func (app *App) AnalyzeWithStatus(ctx context.Context, sourceURL string, showStatus bool) (*AnalysisResult, error) {
	if err := ValidateSourceURL(sourceURL); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAcquisitionFailed, err)
	}
	if err := EnsureDirs(app.config.MediaDir, app.config.MetaDir); err != nil {
		return nil, fmt.Errorf("creating media directories: %w", err)
	}

	sessionID := app.sessions.Create(sourceURL)
	app.logger.Info("session created", "session", sessionID, "url", sourceURL)

	var spinner ProgressBar
	if showStatus {
		spinner = app.ui.NewSpinner("Downloading audio...")
	}

	transcript, cached := app.cachedTranscript(sourceURL)
	if cached {
		app.logger.Info("using cached transcript", "session", sessionID)
		if spinner != nil {
			spinner.Describe("Found cached transcript")
		}
	} else {
		acquireCtx, cancel := context.WithTimeout(ctx, app.config.AcquireTimeout)
		audioPath, err := app.store.Ensure(acquireCtx, AudioKey(sessionID), func(ctx context.Context, dst string) error {
			return app.fetcher.DownloadAudio(ctx, sourceURL, dst)
		})
		cancel()
		if err != nil {
			finishSpinner(spinner)
			if !errors.Is(err, ErrAcquisitionFailed) {
				err = fmt.Errorf("%w: %w", ErrAcquisitionFailed, err)
			}
			return nil, err
		}

		if spinner != nil {
			spinner.Describe("Transcribing audio...")
			spinner.Advance()
		}

		transcript, err = app.speech.Transcribe(ctx, audioPath)
		if err != nil {
			finishSpinner(spinner)
			if !errors.Is(err, ErrTranscriptionFailed) {
				err = fmt.Errorf("%w: %w", ErrTranscriptionFailed, err)
			}
			return nil, err
		}

		// The audio has served its purpose; failing to delete it only costs disk.
		if err := app.store.Remove(AudioKey(sessionID)); err != nil {
			app.logger.Warn("removing audio artifact failed", "session", sessionID, "error", err)
		}

		if err := SaveTranscript(URLCacheKey(sourceURL), transcript, app.config.MetaDir); err != nil {
			app.logger.Warn("caching transcript failed", "session", sessionID, "error", err)
		}
	}

	title := "Unknown Video"
	if meta, err := app.fetcher.Metadata(ctx, sourceURL); err == nil && meta.Title != "" {
		title = meta.Title
	} else if err != nil {
		app.logger.Warn("metadata lookup failed", "session", sessionID, "error", err)
	}

	if spinner != nil {
		spinner.Describe("Ranking clip candidates...")
		spinner.Advance()
	}

	clips := app.analyzer.Analyze(ctx, transcript)
	finishSpinner(spinner)

	app.logger.Info("analysis complete", "session", sessionID, "clips", len(clips))

	return &AnalysisResult{
		VideoID:         sessionID,
		VideoTitle:      title,
		FullTextPreview: PreviewText(transcript, transcriptPreviewLen),
		Clips:           clips,
	}, nil
}

// Extract produces the clip covering [start, end) seconds for a session and
// returns its path. The master video is fetched on first use and reused for
// every later extraction; repeated calls with the same range return the
// cached clip without touching yt-dlp or ffmpeg again.
func (app *App) Extract(ctx context.Context, sessionID string, start, end int) (string, error) {
	sourceURL, err := app.sessions.Resolve(sessionID)
	if err != nil {
		return "", err
	}

	if start < 0 || end <= start {
		return "", fmt.Errorf("%w: start=%d end=%d", ErrInvalidRange, start, end)
	}

	if err := EnsureDirs(app.config.MediaDir); err != nil {
		return "", fmt.Errorf("%w: creating media directory: %w", ErrExtractionFailed, err)
	}

	acquireCtx, cancel := context.WithTimeout(ctx, app.config.AcquireTimeout)
	masterPath, err := app.store.Ensure(acquireCtx, MasterKey(sessionID), func(ctx context.Context, dst string) error {
		return app.fetcher.DownloadMaster(ctx, sourceURL, dst)
	})
	cancel()
	if err != nil {
		if !errors.Is(err, ErrAcquisitionFailed) {
			err = fmt.Errorf("%w: %w", ErrAcquisitionFailed, err)
		}
		return "", err
	}

	// Bounds can only be checked against the real duration once the master
	// exists. A failed probe skips the check rather than blocking the cut.
	if duration, err := app.video.Duration(ctx, masterPath); err == nil {
		if float64(start) >= duration {
			return "", fmt.Errorf("%w: start %ds is beyond video duration %.1fs", ErrInvalidRange, start, duration)
		}
		if float64(end) > duration+1 {
			return "", fmt.Errorf("%w: end %ds is beyond video duration %.1fs", ErrInvalidRange, end, duration)
		}
	} else {
		app.logger.Warn("duration probe failed", "session", sessionID, "error", err)
	}

	clipPath, err := app.store.Ensure(ctx, ClipKey(sessionID, start, end), func(ctx context.Context, dst string) error {
		return app.video.Cut(ctx, masterPath, start, end, dst)
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	app.logger.Info("clip ready", "session", sessionID, "start", start, "end", end, "path", clipPath)
	return clipPath, nil
}

// cachedTranscript returns a previously saved transcript for the URL, if
// any. Transcription is the expensive step, so repeat analyses of the same
// video reuse it instead of downloading and transcribing again.
func (app *App) cachedTranscript(sourceURL string) (string, bool) {
	path := filepath.Join(app.config.MetaDir, URLCacheKey(sourceURL)+".txt")
	if !FileExists(path) {
		return "", false
	}
	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 {
		return "", false
	}
	return string(data), true
}

func finishSpinner(spinner ProgressBar) {
	if spinner != nil {
		spinner.Finish()
	}
}
