package internal

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lrstanley/go-ytdlp"
)

// Some hosts throttle or block default client strings, so downloads always
// present a desktop browser user agent.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Fetcher downloads media and metadata through yt-dlp. It knows nothing about
// sessions or caching; callers decide where files land and whether a download
// is needed at all.
type Fetcher struct {
	configDir string
	metaDir   string
	// base64-encoded cookies.txt, usually injected through the environment
	cookieBlob string
	logger     *slog.Logger
}

// NewFetcher creates a fetcher. cookieBlob may be empty, in which case a
// local cookies.txt is used when present and downloads are anonymous
// otherwise.
func NewFetcher(configDir, metaDir, cookieBlob string, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		configDir:  configDir,
		metaDir:    metaDir,
		cookieBlob: cookieBlob,
		logger:     logger,
	}
}

// resolveCookieFile prepares a cookies.txt path for yt-dlp. An encoded blob
// from the environment wins, then a pre-existing local cookies.txt; an empty
// return means anonymous access. Resolved per download so rotated cookies are
// picked up without a restart.
func (f *Fetcher) resolveCookieFile() string {
	if f.cookieBlob != "" {
		decoded, err := base64.StdEncoding.DecodeString(f.cookieBlob)
		if err != nil {
			f.logger.Warn("ignoring undecodable cookie blob", "error", err)
		} else {
			path := filepath.Join(f.configDir, "cookies.txt")
			if err := EnsureDirs(f.configDir); err != nil {
				f.logger.Warn("cookie setup failed", "error", err)
				return ""
			}
			if err := os.WriteFile(path, decoded, 0600); err != nil {
				f.logger.Warn("cookie setup failed", "error", err)
				return ""
			}
			return path
		}
	}

	for _, path := range []string{filepath.Join(f.configDir, "cookies.txt"), "cookies.txt"} {
		if FileExists(path) {
			return path
		}
	}
	return ""
}

func (f *Fetcher) newCommand() *ytdlp.Command {
	dl := ytdlp.New().
		NoPlaylist().
		NoCheckCertificates().
		UserAgent(browserUserAgent)
	if cookies := f.resolveCookieFile(); cookies != "" {
		dl = dl.Cookies(cookies)
	}
	return dl
}

// Metadata fetches video details, using a cached copy keyed by the source URL
// when one exists.
func (f *Fetcher) Metadata(ctx context.Context, sourceURL string) (*VideoMetadata, error) {
	cacheKey := URLCacheKey(sourceURL)
	if cached, err := LoadCachedMetadata(cacheKey, f.metaDir); err == nil {
		f.logger.Debug("metadata cache hit", "url", sourceURL)
		return cached, nil
	}

	dl := f.newCommand().
		DumpSingleJSON().
		SkipDownload()

	result, err := dl.Run(ctx, sourceURL)
	if err != nil {
		if result != nil {
			f.logger.Debug("metadata extraction failed", "stderr", result.Stderr)
		}
		return nil, fmt.Errorf("extracting video metadata: %w", err)
	}

	var metadata VideoMetadata
	if err := json.Unmarshal([]byte(result.Stdout), &metadata); err != nil {
		return nil, fmt.Errorf("parsing video metadata: %w", err)
	}

	if err := EnsureDirs(f.metaDir); err == nil {
		if err := SaveMetadata(cacheKey, &metadata, f.metaDir); err != nil {
			f.logger.Warn("caching metadata failed", "error", err)
		}
	}

	return &metadata, nil
}

// DownloadAudio extracts the best audio track as mp3 and writes it to dst.
func (f *Fetcher) DownloadAudio(ctx context.Context, sourceURL, dst string) error {
	f.logger.Debug("downloading audio", "url", sourceURL)

	// yt-dlp appends the postprocessed extension itself.
	outputPath := strings.TrimSuffix(dst, ".mp3")

	dl := f.newCommand().
		Format("bestaudio").
		ExtractAudio().
		AudioFormat("mp3").
		AudioQuality("192K").
		Output(outputPath)

	result, err := dl.Run(ctx, sourceURL)
	if err != nil {
		stderr := ""
		if result != nil {
			stderr = result.Stderr
		}
		return fmt.Errorf("%w: downloading audio: %w\nOutput: %s", ErrAcquisitionFailed, err, stderr)
	}

	if !FileExists(dst) {
		return fmt.Errorf("%w: audio file missing after download", ErrAcquisitionFailed)
	}
	return nil
}

// DownloadMaster fetches the full-resolution video with audio merged into a
// single mp4 and writes it to dst.
func (f *Fetcher) DownloadMaster(ctx context.Context, sourceURL, dst string) error {
	f.logger.Debug("downloading master video", "url", sourceURL)

	outputPath := strings.TrimSuffix(dst, ".mp4") + ".%(ext)s"

	dl := f.newCommand().
		Format("bestvideo+bestaudio/best").
		MergeOutputFormat("mp4").
		Output(outputPath)

	result, err := dl.Run(ctx, sourceURL)
	if err != nil {
		stderr := ""
		if result != nil {
			stderr = result.Stderr
		}
		return fmt.Errorf("%w: downloading video: %w\nOutput: %s", ErrAcquisitionFailed, err, stderr)
	}

	if !FileExists(dst) {
		return fmt.Errorf("%w: video file missing after download", ErrAcquisitionFailed)
	}
	return nil
}
