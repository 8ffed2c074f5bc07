package speech

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{nil, KindNone},
		{fmt.Errorf("wrapped: %w", ErrUnsupported), KindUnsupported},
		{ErrPermissionDenied, KindPermission},
		{&os.PathError{Op: "open", Path: "x", Err: os.ErrPermission}, KindPermission},
		{Transient(errors.New("no speech")), KindTransient},
		{errors.New("anything else"), KindTransient},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Classify(tc.err), "err=%v", tc.err)
	}
	require.True(t, KindTransient.Recoverable())
	require.False(t, KindPermission.Recoverable())
	require.NotEmpty(t, KindUnsupported.Message())
	require.Empty(t, KindNone.Message())
}

func TestTransientUnwraps(t *testing.T) {
	base := errors.New("network down")
	err := Transient(base)
	require.ErrorIs(t, err, base)
	var te *TransientError
	require.ErrorAs(t, err, &te)
	require.Nil(t, Transient(nil))
}

func TestManualStream(t *testing.T) {
	m := NewManualStream()
	require.True(t, m.Interim("hel"))
	require.True(t, m.Final("hello"))
	require.True(t, m.Fail(Transient(errors.New("x"))))
	require.NoError(t, m.Stop())
	require.NoError(t, m.Stop())
	require.False(t, m.Final("late"))

	var got []Event
	for ev := range m.Events() {
		got = append(got, ev)
	}
	require.Len(t, got, 3)
	require.Equal(t, Segment{Text: "hel"}, got[0].Segments[0])
	require.Equal(t, Segment{Text: "hello", Final: true}, got[1].Segments[0])
	require.Error(t, got[2].Err)
}

func drain(t *testing.T, st Stream) []Event {
	t.Helper()
	var got []Event
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-st.Events():
			if !ok {
				return got
			}
			got = append(got, ev)
		case <-timeout:
			t.Fatalf("stream did not close")
		}
	}
}

func TestScriptRecognizer(t *testing.T) {
	script := "~the\nthe cat\n\n  ~sat  \n!no speech\nsat on the mat\n"
	st, err := NewScriptRecognizer(strings.NewReader(script)).Listen(context.Background())
	require.NoError(t, err)

	got := drain(t, st)
	require.Len(t, got, 5)
	require.Equal(t, []Segment{{Text: "the"}}, got[0].Segments)
	require.Equal(t, []Segment{{Text: "the cat", Final: true}}, got[1].Segments)
	require.Equal(t, []Segment{{Text: "sat"}}, got[2].Segments)
	require.Equal(t, KindTransient, Classify(got[3].Err))
	require.Equal(t, []Segment{{Text: "sat on the mat", Final: true}}, got[4].Segments)
	require.NoError(t, st.Stop())
}

func TestScriptRecognizerStop(t *testing.T) {
	rec := NewScriptRecognizer(strings.NewReader("one\ntwo\nthree\n")).WithDelay(time.Hour)
	st, err := rec.Listen(context.Background())
	require.NoError(t, err)
	require.NoError(t, st.Stop())
	require.NoError(t, st.Stop())
	require.Empty(t, drain(t, st))
}

func TestScriptFileRecognizerMissingFile(t *testing.T) {
	_, err := NewScriptFileRecognizer(filepath.Join(t.TempDir(), "missing.txt")).Listen(context.Background())
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestRecognizerFunc(t *testing.T) {
	m := NewManualStream()
	var rec Recognizer = RecognizerFunc(func(context.Context) (Stream, error) { return m, nil })
	st, err := rec.Listen(context.Background())
	require.NoError(t, err)
	require.Same(t, m, st)
}

func TestSherpaMissingModelsUnsupported(t *testing.T) {
	dir := t.TempDir()
	rec := NewSherpaRecognizer(SherpaConfig{}, zerolog.Nop())
	_, err := rec.Listen(context.Background())
	require.ErrorIs(t, err, ErrUnsupported)

	vad := filepath.Join(dir, "silero_vad.onnx")
	require.NoError(t, os.WriteFile(vad, []byte("x"), 0o644))
	rec = NewSherpaRecognizer(SherpaConfig{ModelDir: dir, VADModel: vad}, zerolog.Nop())
	_, err = rec.Listen(context.Background())
	require.ErrorIs(t, err, ErrUnsupported)
	require.Equal(t, KindUnsupported, Classify(err))
}

func TestSherpaResolvesModelFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"encoder-epoch-99-avg-1.onnx", "decoder-epoch-99-avg-1.onnx", "joiner-epoch-99-avg-1.onnx", "tokens.txt", "vad.onnx"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	rec := NewSherpaRecognizer(SherpaConfig{ModelDir: dir, VADModel: filepath.Join(dir, "vad.onnx")}, zerolog.Nop())
	files, err := rec.resolve()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "joiner-epoch-99-avg-1.onnx"), files.joiner)
	require.Equal(t, filepath.Join(dir, "tokens.txt"), files.tokens)

	_, err = rec.Listen(context.Background())
	require.Error(t, err, "missing recording must fail before decoding")
}

func TestCheckSampleRate(t *testing.T) {
	require.NoError(t, checkSampleRate(16000, 16000))
	err := checkSampleRate(44100, 16000)
	require.Error(t, err)
	require.Equal(t, KindTransient, Classify(err))
	require.Contains(t, err.Error(), "44100 Hz")
}
