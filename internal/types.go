package internal

import "fmt"

// Clip is a single model-suggested segment of the source video, with the
// promotional copy the model generated for it. Start and End are offsets in
// whole seconds from the beginning of the video; the span covered is
// [Start, End).
type Clip struct {
	ID             int    `json:"id"`
	Title          string `json:"title"`
	Start          int    `json:"start"`
	End            int    `json:"end"`
	Reason         string `json:"reason"`
	HighlightQuote string `json:"highlight_quote"`
	HookText       string `json:"hook_text"`
	SocialCaption  string `json:"social_caption"`
}

// Duration returns the clip length in seconds.
func (c Clip) Duration() int {
	return c.End - c.Start
}

// String returns a compact representation for logs and CLI output.
func (c Clip) String() string {
	return fmt.Sprintf("clip %d [%ds-%ds] %q", c.ID, c.Start, c.End, c.Title)
}

// AnalysisResult is the outcome of a full analysis run: the session handle
// for later clip downloads, the video title, a short transcript preview, and
// the ranked clip suggestions.
type AnalysisResult struct {
	VideoID         string `json:"video_id"`
	VideoTitle      string `json:"video_title"`
	FullTextPreview string `json:"full_text_preview"`
	Clips           []Clip `json:"clips"`
}

// VideoMetadata holds the subset of yt-dlp metadata the pipeline uses.
type VideoMetadata struct {
	Title       string  `json:"title"`
	Uploader    string  `json:"uploader"`
	Channel     string  `json:"channel"`
	Duration    float64 `json:"duration"`
	Description string  `json:"description"`
}
