package stt

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/spf13/afero"

	"voxdesk/pkg/audioconv"
)

type OpenAIConfig struct {
	APIKey   string
	BaseURL  string // empty = api.openai.com
	Language string // ISO-639-1, empty = detect
}

// OpenAI uploads each phrase as WAV to the transcription endpoint.
type OpenAI struct {
	client   openai.Client
	language string
	scratch  afero.Fs
}

func NewOpenAI(httpClient *http.Client, cfg OpenAIConfig) *OpenAI {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAI{
		client:   openai.NewClient(opts...),
		language: cfg.Language,
		scratch:  afero.NewMemMapFs(),
	}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Close() error { return nil }

func (o *OpenAI) Transcribe(ctx context.Context, pcm16k []float32) (string, error) {
	if len(pcm16k) == 0 {
		return "", ErrNoAudio
	}

	f, err := o.scratch.Create("utterance.wav")
	if err != nil {
		return "", err
	}
	defer o.scratch.Remove("utterance.wav")
	defer f.Close()

	if err := audioconv.EncodeWAV(f, pcm16k, audioconv.TargetRate); err != nil {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(f, "utterance.wav", "audio/wav"),
		Model: openai.AudioModelWhisper1,
	}
	if o.language != "" {
		params.Language = openai.String(o.language)
	}

	resp, err := o.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}

	return strings.TrimSpace(resp.Text), nil
}
