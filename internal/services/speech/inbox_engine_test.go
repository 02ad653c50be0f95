package speech

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTranscriber struct {
	text string
	err  error
	path string
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	f.path = audioPath
	return f.text, f.err
}

func TestInboxEngineTranscribesSubmittedRecording(t *testing.T) {
	tr := &fakeTranscriber{text: "where is the museum"}
	engine := NewInboxEngine(tr)
	r := NewRecognizer(engine, nopLogger{})

	require.NoError(t, engine.Submit("/tmp/rec-1.m4a"))
	text, err := r.Listen(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "where is the museum", text)
	assert.Equal(t, "/tmp/rec-1.m4a", tr.path)
}

func TestInboxEngineStopWithoutRecording(t *testing.T) {
	engine := NewInboxEngine(&fakeTranscriber{})
	r := NewRecognizer(engine, nopLogger{})

	out := listenAsync(r, context.Background())
	require.Eventually(t, func() bool {
		return r.Listening() && engine.current() != nil
	}, time.Second, time.Millisecond)
	r.Stop()

	res := <-out
	var recErr *RecognitionError
	require.ErrorAs(t, res.err, &recErr)
	assert.Equal(t, ErrorNoMatch, recErr.Code)
}

func TestInboxEngineTranscriptionFailure(t *testing.T) {
	engine := NewInboxEngine(&fakeTranscriber{err: errors.New("whisper down")})
	r := NewRecognizer(engine, nopLogger{})

	require.NoError(t, engine.Submit("/tmp/rec-2.m4a"))
	_, err := r.Listen(context.Background())

	var recErr *RecognitionError
	require.ErrorAs(t, err, &recErr)
	assert.Equal(t, ErrorServer, recErr.Code)
}

func TestInboxEngineSingleWaitingRecording(t *testing.T) {
	engine := NewInboxEngine(&fakeTranscriber{})
	require.NoError(t, engine.Submit("a"))
	assert.Error(t, engine.Submit("b"))
	engine.Destroy()
	assert.NoError(t, engine.Submit("c"))
}

func TestRemovingTranscriberDeletesRecording(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.m4a")
	require.NoError(t, os.WriteFile(path, []byte("audio"), 0o600))

	tr := RemovingTranscriber(&fakeTranscriber{text: "ciao"})
	text, err := tr.Transcribe(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, "ciao", text)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
