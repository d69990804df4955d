package biz

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/coursemind/internal/pkg/course"
)

// Transcriber 为缺失转写文件的视频生成转写结果。
type Transcriber interface {
	Transcribe(ctx context.Context, video course.Video, outPath string) error
}

// CommandTranscriber 调用外部命令完成转写，等待时间有上限。
// Command 中的 {audio} 和 {output} 会被替换为音频文件和输出文件路径。
type CommandTranscriber struct {
	Command  string
	AudioDir string
	Timeout  time.Duration
}

var _ Transcriber = (*CommandTranscriber)(nil)

// Transcribe 运行转写命令，超时后终止进程。
func (t *CommandTranscriber) Transcribe(ctx context.Context, video course.Video, outPath string) error {
	audio := filepath.Join(t.AudioDir, video.AudioFilename)
	if _, err := os.Stat(audio); err != nil {
		return fmt.Errorf("audio for video %d: %w", video.Number, err)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create transcript dir: %w", err)
	}

	args := strings.Fields(t.Command)
	if len(args) == 0 {
		return fmt.Errorf("transcribe command is empty")
	}
	for i, a := range args {
		a = strings.ReplaceAll(a, "{audio}", audio)
		args[i] = strings.ReplaceAll(a, "{output}", outPath)
	}

	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	start := time.Now()
	logger.Infow("transcribing video", "video_number", video.Number, "audio", audio, "timeout", t.Timeout)

	out, err := exec.CommandContext(ctx, args[0], args[1:]...).CombinedOutput()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("transcription of video %d exceeded %s", video.Number, t.Timeout)
		}
		return fmt.Errorf("transcribe video %d: %w: %s", video.Number, err, strings.TrimSpace(string(out)))
	}
	if _, err := os.Stat(outPath); err != nil {
		return fmt.Errorf("transcriber produced no output for video %d: %w", video.Number, err)
	}

	logger.Infow("transcription finished", "video_number", video.Number, "duration", time.Since(start))
	return nil
}
