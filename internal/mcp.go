package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// MCPServer wraps the MCP server and application dependencies
type MCPServer struct {
	app       *App
	mcpServer *server.MCPServer
}

// NewMCPServer creates a new MCP server instance
func NewMCPServer(app *App) *MCPServer {
	mcpServer := server.NewMCPServer(
		"clipd-server",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s := &MCPServer{
		app:       app,
		mcpServer: mcpServer,
	}

	// Register tools
	s.registerTools()

	return s
}

// registerTools registers all available MCP tools
func (s *MCPServer) registerTools() {
	// get_video_metadata tool
	s.mcpServer.AddTool(mcp.NewTool("get_video_metadata",
		mcp.WithDescription("Fetch video metadata (title, channel, duration, description) for a video URL without downloading the video."),
		mcp.WithString("url",
			mcp.Description("Video URL"),
			mcp.Required(),
		),
	), s.handleGetMetadata)

	// analyze_video tool
	s.mcpServer.AddTool(mcp.NewTool("analyze_video",
		mcp.WithDescription("Download a video's audio, transcribe it with Whisper (PAID - requires OPENAI_API_KEY) and return ranked viral clip candidates as JSON. The returned video_id is needed for extract_clip."),
		mcp.WithString("url",
			mcp.Description("Video URL"),
			mcp.Required(),
		),
	), s.handleAnalyzeVideo)

	// extract_clip tool
	s.mcpServer.AddTool(mcp.NewTool("extract_clip",
		mcp.WithDescription("Cut a clip from a previously analyzed video. Takes the video_id returned by analyze_video plus start and end offsets in seconds, and returns the path of the finished mp4. The first extraction downloads the full video and may take a while."),
		mcp.WithString("video_id",
			mcp.Description("Session id returned by analyze_video"),
			mcp.Required(),
		),
		mcp.WithNumber("start",
			mcp.Description("Clip start in seconds"),
			mcp.Required(),
		),
		mcp.WithNumber("end",
			mcp.Description("Clip end in seconds (exclusive)"),
			mcp.Required(),
		),
	), s.handleExtractClip)
}

// handleGetMetadata implements the get_video_metadata tool
func (s *MCPServer) handleGetMetadata(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("url parameter is required and must be a string"), nil
	}

	MCPLogInfo("get_video_metadata: %s", url)

	metadata, err := s.app.fetcher.Metadata(ctx, url)
	if err != nil {
		MCPLogError("metadata error: %v", err)
		return mcp.NewToolResultErrorFromErr("metadata error", err), nil
	}

	var buf strings.Builder
	buf.WriteString(fmt.Sprintf("Title: %s\n", metadata.Title))
	buf.WriteString(fmt.Sprintf("Channel: %s\n", metadata.Channel))
	buf.WriteString(fmt.Sprintf("Uploader: %s\n", metadata.Uploader))
	buf.WriteString(fmt.Sprintf("Duration: %.0f seconds\n", metadata.Duration))
	buf.WriteString(fmt.Sprintf("Description: %s\n", metadata.Description))

	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(buf.String())},
	}, nil
}

// handleAnalyzeVideo implements the analyze_video tool
func (s *MCPServer) handleAnalyzeVideo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("url parameter is required and must be a string"), nil
	}

	MCPLogInfo("analyze_video: %s", url)

	result, err := s.app.Analyze(ctx, url)
	if err != nil {
		MCPLogError("analysis failed: %v", err)
		return mcp.NewToolResultErrorFromErr("analysis failed", err), nil
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return mcp.NewToolResultErrorFromErr("encoding result", err), nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(data))},
	}, nil
}

// handleExtractClip implements the extract_clip tool
func (s *MCPServer) handleExtractClip(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	videoID, err := request.RequireString("video_id")
	if err != nil {
		return mcp.NewToolResultError("video_id parameter is required and must be a string"), nil
	}
	start, err := request.RequireInt("start")
	if err != nil {
		return mcp.NewToolResultError("start parameter is required and must be an integer"), nil
	}
	end, err := request.RequireInt("end")
	if err != nil {
		return mcp.NewToolResultError("end parameter is required and must be an integer"), nil
	}

	MCPLogInfo("extract_clip: session=%s start=%d end=%d", videoID, start, end)

	clipPath, err := s.app.Extract(ctx, videoID, start, end)
	if err != nil {
		MCPLogError("extraction failed: %v", err)
		return mcp.NewToolResultErrorFromErr("extraction failed", err), nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(fmt.Sprintf("Clip ready: %s", clipPath))},
	}, nil
}

// Start starts the MCP server using the specified transport
func (s *MCPServer) Start(ctx context.Context, transport string, port int) error {
	if transport == "http" {
		httpServer := server.NewStreamableHTTPServer(s.mcpServer)
		addr := fmt.Sprintf(":%d", port)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return httpServer.Start(addr)
	}

	// Default to stdio transport
	return server.ServeStdio(s.mcpServer)
}

// GetServer returns the underlying MCP server for advanced configuration
func (s *MCPServer) GetServer() *server.MCPServer {
	return s.mcpServer
}
