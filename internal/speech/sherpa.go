package speech

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	sherpa "github.com/k2-fsa/sherpa-onnx-go/sherpa_onnx"
	"github.com/rs/zerolog"
)

const (
	vadWindowSize    = 512
	vadBufferSeconds = 30
	featureDim       = 80
)

// SherpaConfig locates an offline transducer model and a Silero VAD model.
type SherpaConfig struct {
	ModelDir   string
	VADModel   string
	SampleRate int
	NumThreads int
	// WavPath is the recording to transcribe.
	WavPath string
}

// transducerFiles are resolved inside ModelDir.
type transducerFiles struct {
	encoder, decoder, joiner, tokens string
}

// SherpaRecognizer transcribes a WAV recording offline. Each speech region
// found by the VAD is decoded and emitted as one final segment.
type SherpaRecognizer struct {
	cfg SherpaConfig
	log zerolog.Logger
}

// NewSherpaRecognizer returns a recognizer for cfg.
func NewSherpaRecognizer(cfg SherpaConfig, log zerolog.Logger) *SherpaRecognizer {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.NumThreads <= 0 {
		cfg.NumThreads = 2
	}
	return &SherpaRecognizer{cfg: cfg, log: log.With().Str("component", "sherpa").Logger()}
}

// Listen implements Recognizer. Missing models yield ErrUnsupported and an
// unreadable recording yields ErrPermissionDenied.
func (r *SherpaRecognizer) Listen(ctx context.Context) (Stream, error) {
	files, err := r.resolve()
	if err != nil {
		return nil, err
	}
	f, err := os.Open(r.cfg.WavPath)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return nil, fmt.Errorf("%s: %w", r.cfg.WavPath, ErrPermissionDenied)
		}
		return nil, fmt.Errorf("failed to open recording: %w", err)
	}
	if cerr := f.Close(); cerr != nil {
		// Best-effort close; the file is read again by the decoder.
		_ = cerr
	}

	ctx, cancel := context.WithCancel(ctx)
	st := &sherpaStream{events: make(chan Event), cancel: cancel}
	go st.run(ctx, r, files)
	return st, nil
}

func (r *SherpaRecognizer) resolve() (transducerFiles, error) {
	var files transducerFiles
	if r.cfg.ModelDir == "" || r.cfg.VADModel == "" {
		return files, fmt.Errorf("no model configured: %w", ErrUnsupported)
	}
	if _, err := os.Stat(r.cfg.VADModel); err != nil {
		return files, fmt.Errorf("vad model %s: %w", r.cfg.VADModel, ErrUnsupported)
	}
	for _, part := range []struct {
		pattern string
		dst     *string
	}{
		{"encoder*.onnx", &files.encoder},
		{"decoder*.onnx", &files.decoder},
		{"joiner*.onnx", &files.joiner},
		{"tokens.txt", &files.tokens},
	} {
		matches, err := filepath.Glob(filepath.Join(r.cfg.ModelDir, part.pattern))
		if err != nil || len(matches) == 0 {
			return files, fmt.Errorf("model file %s not found in %s: %w", part.pattern, r.cfg.ModelDir, ErrUnsupported)
		}
		*part.dst = matches[0]
	}
	return files, nil
}

// checkSampleRate rejects a recording whose rate differs from the one the
// VAD runs at.
func checkSampleRate(got, want int) error {
	if got != want {
		return Transient(fmt.Errorf("recording is %d Hz but the recognizer expects %d Hz; resample it first", got, want))
	}
	return nil
}

type sherpaStream struct {
	events chan Event
	cancel context.CancelFunc
	once   sync.Once
}

func (s *sherpaStream) Events() <-chan Event {
	return s.events
}

func (s *sherpaStream) Stop() error {
	s.once.Do(s.cancel)
	return nil
}

func (s *sherpaStream) emit(ctx context.Context, ev Event) bool {
	select {
	case <-ctx.Done():
		return false
	case s.events <- ev:
		return true
	}
}

func (s *sherpaStream) run(ctx context.Context, r *SherpaRecognizer, files transducerFiles) {
	defer close(s.events)
	cfg := r.cfg

	recCfg := sherpa.OfflineRecognizerConfig{
		FeatConfig: sherpa.FeatureConfig{
			SampleRate: cfg.SampleRate,
			FeatureDim: featureDim,
		},
		ModelConfig: sherpa.OfflineModelConfig{
			Transducer: sherpa.OfflineTransducerModelConfig{
				Encoder: files.encoder,
				Decoder: files.decoder,
				Joiner:  files.joiner,
			},
			Tokens:     files.tokens,
			NumThreads: cfg.NumThreads,
		},
	}
	recognizer := sherpa.NewOfflineRecognizer(&recCfg)
	if recognizer == nil {
		s.emit(ctx, Event{Err: fmt.Errorf("failed to create offline recognizer: %w", ErrUnsupported)})
		return
	}
	defer sherpa.DeleteOfflineRecognizer(recognizer)

	vadCfg := sherpa.VadModelConfig{
		SileroVad: sherpa.SileroVadModelConfig{
			Model:              cfg.VADModel,
			Threshold:          0.5,
			MinSilenceDuration: 0.5,
			MinSpeechDuration:  0.25,
			WindowSize:         vadWindowSize,
		},
		SampleRate: cfg.SampleRate,
		NumThreads: 1,
	}
	vad := sherpa.NewVoiceActivityDetector(&vadCfg, vadBufferSeconds)
	if vad == nil {
		s.emit(ctx, Event{Err: fmt.Errorf("failed to create vad: %w", ErrUnsupported)})
		return
	}
	defer sherpa.DeleteVoiceActivityDetector(vad)

	wave := sherpa.ReadWave(cfg.WavPath)
	if wave == nil || len(wave.Samples) == 0 {
		s.emit(ctx, Event{Err: Transient(errors.New("no audio in recording"))})
		return
	}
	if err := checkSampleRate(wave.SampleRate, cfg.SampleRate); err != nil {
		s.emit(ctx, Event{Err: err})
		return
	}
	r.log.Debug().Str("wav", cfg.WavPath).Int("samples", len(wave.Samples)).Int("rate", wave.SampleRate).Msg("decoding recording")

	segments := 0
	decodeReady := func() bool {
		for !vad.IsEmpty() {
			speech := vad.Front()
			vad.Pop()
			stream := sherpa.NewOfflineStream(recognizer)
			stream.AcceptWaveform(wave.SampleRate, speech.Samples)
			recognizer.Decode(stream)
			text := stream.GetResult().Text
			sherpa.DeleteOfflineStream(stream)
			if text == "" {
				continue
			}
			segments++
			if !s.emit(ctx, Event{Segments: []Segment{{Text: text, Final: true}}}) {
				return false
			}
		}
		return true
	}

	for start := 0; start < len(wave.Samples); start += vadWindowSize {
		if ctx.Err() != nil {
			return
		}
		end := min(start+vadWindowSize, len(wave.Samples))
		vad.AcceptWaveform(wave.Samples[start:end])
		if !decodeReady() {
			return
		}
	}
	vad.Flush()
	if !decodeReady() {
		return
	}
	if segments == 0 {
		s.emit(ctx, Event{Err: Transient(errors.New("no speech detected"))})
	}
}
