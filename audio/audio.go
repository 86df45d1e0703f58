// Package audio provides voice input and output by shelling out to the
// platform tools the machine already has: a TTS engine for speaking and a
// recorder plus whisper transcription for listening. Everything is
// context-aware so Ctrl-C cuts playback or recording immediately.
package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Engine drives speech in both directions. A zero-value voice mode is off;
// callers fall back to text only.
type Engine struct {
	speakCommand  string
	recordSeconds int
	whisperModel  string
	logger        *slog.Logger
}

// Options configures the engine. Empty fields pick platform defaults.
type Options struct {
	SpeakCommand  string
	RecordSeconds int
	WhisperModel  string
	Logger        *slog.Logger
}

// New builds an engine. Available reports whether the selected tools exist
// on this machine.
func New(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.SpeakCommand == "" {
		if runtime.GOOS == "darwin" {
			opts.SpeakCommand = "say"
		} else {
			opts.SpeakCommand = "espeak"
		}
	}
	if opts.RecordSeconds <= 0 {
		opts.RecordSeconds = 5
	}
	return &Engine{
		speakCommand:  opts.SpeakCommand,
		recordSeconds: opts.RecordSeconds,
		whisperModel:  opts.WhisperModel,
		logger:        opts.Logger,
	}
}

// Available reports whether text-to-speech can run here.
func (e *Engine) Available() bool {
	_, err := exec.LookPath(e.speakCommand)
	return err == nil
}

// Speak reads text aloud. Cancelling ctx kills the TTS process, so an
// interrupted answer stops talking right away.
func (e *Engine) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	cmd := exec.CommandContext(ctx, e.speakCommand, text)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("speech synthesis failed: %w", err)
	}
	return nil
}

// Listen records a short clip from the default microphone and transcribes
// it with whisper-cli. Returns the recognized text.
func (e *Engine) Listen(ctx context.Context) (string, error) {
	wav := filepath.Join(os.TempDir(), "jarvis_listen.wav")
	defer os.Remove(wav)

	if err := e.record(ctx, wav); err != nil {
		return "", err
	}
	return e.transcribe(ctx, wav)
}

func (e *Engine) record(ctx context.Context, wav string) error {
	var cmd *exec.Cmd
	duration := fmt.Sprint(e.recordSeconds)

	if runtime.GOOS == "darwin" {
		cmd = exec.CommandContext(ctx, "sox", "-d", "-r", "16000", "-c", "1", wav, "trim", "0", duration)
	} else {
		cmd = exec.CommandContext(ctx, "arecord", "-f", "S16_LE", "-r", "16000", "-c", "1", "-d", duration, wav)
	}

	e.logger.Debug("recording", "seconds", e.recordSeconds, "file", wav)

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("recording failed: %w", err)
	}
	return nil
}

func (e *Engine) transcribe(ctx context.Context, wav string) (string, error) {
	args := []string{"-nt", "-f", wav}
	if e.whisperModel != "" {
		args = append(args, "-m", e.whisperModel)
	}

	out, err := exec.CommandContext(ctx, "whisper-cli", args...).Output()
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("transcription failed: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}
