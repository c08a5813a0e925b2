package internal

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/lrstanley/go-ytdlp"
	"github.com/spf13/viper"
)

// CommandRunner executes external commands
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// DefaultCommandRunner implements CommandRunner
type DefaultCommandRunner struct{}

func (r *DefaultCommandRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

// Config holds application settings
type Config struct {
	// User configurable settings
	Port              int
	CORSOrigins       string
	ClipModel         string
	WhisperModel      string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	YouTubeCookies    string
	ClipLanguage      string
	MinClips          int
	MaxClips          int
	MinClipSeconds    int
	MaxClipSeconds    int
	TranscriptBudget  int
	AcquireTimeout    time.Duration
	TranscribeTimeout time.Duration
	AnalyzeTimeout    time.Duration
	Verbose           bool
	MCPLogEnabled     bool
	Prompt            string

	// Fixed XDG paths (not configurable)
	ConfigDir string
	DataDir   string
	CacheDir  string
	MediaDir  string
	MetaDir   string
	TempDir   string
}

//go:embed config.toml prompt.txt
var defaultFS embed.FS

// WhisperLimit is the maximum file size accepted by OpenAI's Whisper API (25 MiB)
const WhisperLimit int64 = 25 << 20

// ensureDefaultFile checks if a file exists in the specified directory
// and creates it from the embedded default if it doesn't exist
func ensureDefaultFile(configDir, embedFilename, description string) error {
	filePath := filepath.Join(configDir, embedFilename)

	if FileExists(filePath) {
		return nil
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	defaultContent, err := defaultFS.ReadFile(embedFilename)
	if err != nil {
		return fmt.Errorf("reading embedded default %s: %w", description, err)
	}

	if err := os.WriteFile(filePath, defaultContent, 0644); err != nil {
		return fmt.Errorf("writing default %s: %w", description, err)
	}

	fmt.Printf("Created default %s at %s\n", description, filePath)
	return nil
}

// EnsureDefaultConfig checks if a config file exists in the XDG config directory
// and creates it from the embedded default if it doesn't exist
func EnsureDefaultConfig(configDir string) error {
	return ensureDefaultFile(configDir, "config.toml", "configuration")
}

// EnsureDefaultPrompt checks if a prompt.txt file exists in the XDG config directory
// and creates it from the embedded default if it doesn't exist
func EnsureDefaultPrompt(configDir string) error {
	return ensureDefaultFile(configDir, "prompt.txt", "prompt template")
}

// NewLogger builds the process-wide structured logger. Verbose mode lowers
// the level to debug.
func NewLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// InitConfig initializes Viper and loads configuration
func InitConfig() *Config {
	// Ensure yt-dlp is installed
	ytdlp.MustInstall(context.Background(), nil)

	// XDG standard directories
	configDir := filepath.Join(xdg.ConfigHome, "clipd")
	dataDir := filepath.Join(xdg.DataHome, "clipd")
	cacheDir := filepath.Join(xdg.CacheHome, "clipd")

	// directories for media artifacts, metadata and temp files
	mediaDir := filepath.Join(cacheDir, "media")
	metaDir := filepath.Join(dataDir, "metadata")
	tempDir := filepath.Join(cacheDir, "temp")

	// Initialize viper
	v := viper.New()

	// Set default values for configurable settings
	v.SetDefault("port", 8080)
	v.SetDefault("cors_origins", "*")
	v.SetDefault("clip_model", "gpt-4o-mini")
	v.SetDefault("whisper_model", "whisper-1")
	v.SetDefault("openai_base_url", "") // if empty uses the OpenAI default
	v.SetDefault("clip_language", "English")
	v.SetDefault("min_clips", 3)
	v.SetDefault("max_clips", 5)
	v.SetDefault("min_clip_seconds", 15)
	v.SetDefault("max_clip_seconds", 60)
	v.SetDefault("transcript_budget", 15000)
	v.SetDefault("acquire_timeout", 10*time.Minute)
	v.SetDefault("transcribe_timeout", 10*time.Minute)
	v.SetDefault("analyze_timeout", 2*time.Minute)
	v.SetDefault("verbose", false)
	v.SetDefault("mcp_log", false)
	v.SetDefault("prompt", "") // if empty will use default prompt template

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	// Environment variables
	v.SetEnvPrefix("CLIPD")
	v.AutomaticEnv()

	// Keys that follow other tools' conventions rather than the CLIPD prefix
	_ = v.BindEnv("openai_api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("openai_base_url", "OPENAI_BASE_URL")
	_ = v.BindEnv("youtube_cookies", "YOUTUBE_COOKIES")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Warning: Error reading config file: %v\n", err)
		}
	}

	// Create config struct from viper
	config := &Config{
		// User configurable settings
		Port:              v.GetInt("port"),
		CORSOrigins:       v.GetString("cors_origins"),
		ClipModel:         v.GetString("clip_model"),
		WhisperModel:      v.GetString("whisper_model"),
		OpenAIAPIKey:      v.GetString("openai_api_key"),
		OpenAIBaseURL:     v.GetString("openai_base_url"),
		YouTubeCookies:    v.GetString("youtube_cookies"),
		ClipLanguage:      v.GetString("clip_language"),
		MinClips:          v.GetInt("min_clips"),
		MaxClips:          v.GetInt("max_clips"),
		MinClipSeconds:    v.GetInt("min_clip_seconds"),
		MaxClipSeconds:    v.GetInt("max_clip_seconds"),
		TranscriptBudget:  v.GetInt("transcript_budget"),
		AcquireTimeout:    v.GetDuration("acquire_timeout"),
		TranscribeTimeout: v.GetDuration("transcribe_timeout"),
		AnalyzeTimeout:    v.GetDuration("analyze_timeout"),
		Verbose:           v.GetBool("verbose"),
		MCPLogEnabled:     v.GetBool("mcp_log"),
		Prompt:            v.GetString("prompt"),

		// Fixed XDG paths
		ConfigDir: configDir,
		DataDir:   dataDir,
		CacheDir:  cacheDir,
		MediaDir:  mediaDir,
		MetaDir:   metaDir,
		TempDir:   tempDir,
	}

	if config.Verbose {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	return config
}
