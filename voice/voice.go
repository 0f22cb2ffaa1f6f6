// Package voice provides the speech passthroughs: audio transcription and
// text synthesis against the OpenAI audio APIs. Both are independent
// request/response calls with hard size caps; nothing here touches the
// orchestration core.
package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/unipath-ai/unipath/logging"
)

const (
	// MaxAudioBytes caps uploaded audio at the Whisper API limit.
	MaxAudioBytes = 25 << 20
	// MaxSpeechChars caps synthesized text after markdown stripping.
	MaxSpeechChars = 5000
)

// ErrAudioTooLarge is returned when an upload exceeds MaxAudioBytes.
var ErrAudioTooLarge = errors.New("voice: audio file too large (max 25MB)")

// ErrEmptyText is returned when there is nothing to synthesize.
var ErrEmptyText = errors.New("voice: no text to synthesize")

// Options configure the voice service.
type Options struct {
	TranscribeModel openai.AudioModel
	SpeechModel     openai.SpeechModel
	Voice           openai.AudioSpeechNewParamsVoice
	APIKey          string
	Logger          logging.Logger
}

// Service wraps the OpenAI audio endpoints.
type Service struct {
	client *openai.Client
	opts   Options
}

func defaultOptions() Options {
	return Options{
		TranscribeModel: openai.AudioModelWhisper1,
		SpeechModel:     openai.SpeechModelTTS1,
		Voice:           openai.AudioSpeechNewParamsVoiceAlloy,
		Logger:          logging.NoOpLogger{},
	}
}

// NewService creates a voice service with its own client.
func NewService(optFns ...func(o *Options)) *Service {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := openai.NewClient(clientOpts...)
	return &Service{client: &client, opts: opts}
}

// NewServiceFromClient creates a voice service from an existing client.
func NewServiceFromClient(client *openai.Client, optFns ...func(o *Options)) *Service {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Service{client: client, opts: opts}
}

// Transcribe converts the uploaded audio to text. Uploads above MaxAudioBytes
// fail with ErrAudioTooLarge before any provider call.
func (s *Service) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	data, err := io.ReadAll(io.LimitReader(audio, MaxAudioBytes+1))
	if err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}
	if len(data) > MaxAudioBytes {
		return "", ErrAudioTooLarge
	}
	if filename == "" {
		filename = "audio.webm"
	}

	resp, err := s.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: s.opts.TranscribeModel,
		File:  openai.File(strings.NewReader(string(data)), filename, "application/octet-stream"),
	})
	if err != nil {
		s.opts.Logger.Error("transcription failed", "error", err)
		return "", fmt.Errorf("transcribe audio: %w", err)
	}
	s.opts.Logger.Debug("transcription complete", "chars", len(resp.Text))
	return resp.Text, nil
}

// Synthesize converts text to speech and returns the audio stream. Markdown
// decoration is stripped first so it is not read aloud; the cleaned text is
// truncated at MaxSpeechChars.
func (s *Service) Synthesize(ctx context.Context, text string) (io.ReadCloser, error) {
	clean := CleanForSpeech(text)
	if clean == "" {
		return nil, ErrEmptyText
	}
	clean = truncateForSpeech(clean, MaxSpeechChars)

	resp, err := s.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model: s.opts.SpeechModel,
		Voice: s.opts.Voice,
		Input: clean,
	})
	if err != nil {
		s.opts.Logger.Error("speech synthesis failed", "error", err)
		return nil, fmt.Errorf("synthesize speech: %w", err)
	}
	return streamBody(resp), nil
}

func streamBody(resp *http.Response) io.ReadCloser {
	if resp == nil {
		return io.NopCloser(strings.NewReader(""))
	}
	return resp.Body
}

// truncateForSpeech caps the text at max bytes without splitting a UTF-8
// sequence. Truncated text gets a trailing ellipsis.
func truncateForSpeech(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}

// CleanForSpeech strips markdown decoration that would otherwise be read
// aloud: emphasis markers, code ticks, headings, and bullet dashes.
func CleanForSpeech(text string) string {
	clean := strings.ReplaceAll(text, "**", "")
	clean = strings.ReplaceAll(clean, "*", "")
	clean = strings.ReplaceAll(clean, "`", "")
	clean = strings.ReplaceAll(clean, "#", "")
	clean = strings.ReplaceAll(clean, "- ", ", ")
	return strings.TrimSpace(clean)
}
