package internal

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
)

// Completer produces a chat completion for a system/user prompt pair.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Analyzer asks the clip model to rank transcript segments. It never returns
// an error: when the model call fails or its output cannot be parsed, the
// result degrades to a single placeholder clip that carries the failure
// reason, so an analysis run always produces a usable response.
type Analyzer struct {
	completer Completer
	prompts   *PromptManager
	config    *Config
	logger    *slog.Logger
}

// NewAnalyzer creates an analyzer using the given completer for model calls.
func NewAnalyzer(completer Completer, prompts *PromptManager, config *Config, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		completer: completer,
		prompts:   prompts,
		config:    config,
		logger:    logger,
	}
}

// Analyze ranks clip candidates for the transcript. Long transcripts are cut
// to the configured character budget before being sent to the model.
func (a *Analyzer) Analyze(ctx context.Context, transcript string) []Clip {
	system, err := a.prompts.SystemPrompt(PromptData{
		Language:   a.config.ClipLanguage,
		MinClips:   a.config.MinClips,
		MaxClips:   a.config.MaxClips,
		MinSeconds: a.config.MinClipSeconds,
		MaxSeconds: a.config.MaxClipSeconds,
	})
	if err != nil {
		a.logger.Error("building clip prompt failed", "error", err)
		return fallbackClips(err)
	}

	user := TruncateRunes(transcript, a.config.TranscriptBudget)

	content, err := a.completer.Complete(ctx, system, user)
	if err != nil {
		a.logger.Error("clip ranking failed", "error", err)
		return fallbackClips(err)
	}

	clips, err := parseClips(content)
	if err != nil {
		a.logger.Error("clip response unparsable", "error", err, "content", PreviewText(content, 200))
		return fallbackClips(err)
	}

	return clips
}

// parseClips extracts a JSON clip array from model output. Models sometimes
// wrap the array in markdown fences or surrounding prose despite the prompt,
// so everything outside the outermost brackets is discarded first.
func parseClips(content string) ([]Clip, error) {
	cleaned := strings.ReplaceAll(content, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	if start := strings.Index(cleaned, "["); start >= 0 {
		if end := strings.LastIndex(cleaned, "]"); end > start {
			cleaned = cleaned[start : end+1]
		}
	}

	var clips []Clip
	if err := json.Unmarshal([]byte(cleaned), &clips); err != nil {
		return nil, err
	}
	return clips, nil
}

// fallbackClips is the degraded result returned when analysis fails.
func fallbackClips(cause error) []Clip {
	return []Clip{{
		ID:             0,
		Title:          "AI analysis failed",
		Start:          0,
		End:            10,
		Reason:         cause.Error(),
		HighlightQuote: "-",
		HookText:       "Error",
		SocialCaption:  "Error",
	}}
}
