package internal

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRunner struct {
	name   string
	args   []string
	output []byte
	err    error
}

func (r *recordingRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.name = name
	r.args = args
	return r.output, r.err
}

func TestVideoCutArgs(t *testing.T) {
	runner := &recordingRunner{}
	video := NewVideo(runner)

	err := video.Cut(context.Background(), "/media/full.mp4", 30, 75, "/media/out.mp4")
	require.NoError(t, err)

	assert.Equal(t, "ffmpeg", runner.name)
	assert.Equal(t, []string{
		"-v", "error",
		"-i", "/media/full.mp4",
		"-ss", "30",
		"-t", "45",
		"-map", "0",
		"-c", "copy",
		"-y", "/media/out.mp4",
	}, runner.args)
}

func TestVideoCutFailure(t *testing.T) {
	runner := &recordingRunner{output: []byte("moov atom not found"), err: errors.New("exit status 1")}
	video := NewVideo(runner)

	err := video.Cut(context.Background(), "in.mp4", 0, 10, "out.mp4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "moov atom not found")
}

func TestVideoDuration(t *testing.T) {
	runner := &recordingRunner{output: []byte("123.456\n")}
	video := NewVideo(runner)

	duration, err := video.Duration(context.Background(), "full.mp4")
	require.NoError(t, err)
	assert.InDelta(t, 123.456, duration, 0.001)
	assert.Equal(t, "ffprobe", runner.name)
}

func TestVideoDurationUnparsable(t *testing.T) {
	runner := &recordingRunner{output: []byte("N/A")}
	video := NewVideo(runner)

	_, err := video.Duration(context.Background(), "full.mp4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing duration")
}

func TestAudioChunkArgs(t *testing.T) {
	runner := &recordingRunner{}
	audio := NewAudio(runner, t.TempDir())

	err := audio.Chunk(context.Background(), "long.mp3", 60, 30, "chunk.mp3")
	require.NoError(t, err)

	assert.Equal(t, "ffmpeg", runner.name)
	assert.Contains(t, runner.args, "-ss")
	assert.Contains(t, runner.args, "60")
	assert.Contains(t, runner.args, "-t")
	assert.Contains(t, runner.args, "30")
	assert.Contains(t, runner.args, "chunk.mp3")
}
