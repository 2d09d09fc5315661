package media

import (
	"context"
	"fmt"
	"io"

	"github.com/chris/flightai/internal/tools"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

type Speaker interface {
	SynthesizeSpeech(ctx context.Context, text string) (*tools.Artifact, error)
}

type OpenAISpeech struct {
	client openai.Client
	model  string
	voice  string
}

func NewOpenAISpeech(apiKey, model, voice string) *OpenAISpeech {
	if model == "" {
		model = "tts-1"
	}
	if voice == "" {
		voice = "alloy"
	}
	return &OpenAISpeech{client: openai.NewClient(option.WithAPIKey(apiKey)), model: model, voice: voice}
}

// SynthesizeSpeech returns the reply read aloud as mp3.
func (s *OpenAISpeech) SynthesizeSpeech(ctx context.Context, text string) (*tools.Artifact, error) {
	res, err := s.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModel(s.model),
		Voice:          openai.AudioSpeechNewParamsVoice(s.voice),
		Input:          text,
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return nil, fmt.Errorf("openai speech: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("reading speech: %w", err)
	}
	return &tools.Artifact{Kind: "audio", MIMEType: "audio/mpeg", Data: data}, nil
}
