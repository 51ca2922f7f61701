package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/riffhouse/riffhouse/pkg/internal/models"
)

const probeVideoOutput = `{
	"format": {"duration": "120.500000", "bit_rate": "2500000"},
	"streams": [
		{"codec_type": "video", "codec_name": "h264", "width": 1280, "height": 720, "r_frame_rate": "30000/1001"},
		{"codec_type": "audio", "codec_name": "aac"}
	]
}`

const probeAudioOutput = `{
	"format": {"duration": "60.000000", "bit_rate": "128000"},
	"streams": [
		{"codec_type": "audio", "codec_name": "opus"}
	]
}`

type runnerCall struct {
	Name string
	Args []string
}

// fakeRunner replaces the ffmpeg/ffprobe shell-outs with canned responses so
// the pipeline logic runs without the toolchain installed.
type fakeRunner struct {
	mu    sync.Mutex
	calls []runnerCall

	probeOutput []byte
	probeErr    error
	ffmpegErr   error
}

func newFakeRunner(probeOutput string) *fakeRunner {
	return &fakeRunner{probeOutput: []byte(probeOutput)}
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.mu.Lock()
	r.calls = append(r.calls, runnerCall{Name: name, Args: args})
	r.mu.Unlock()

	switch name {
	case "ffprobe":
		return r.probeOutput, r.probeErr
	case "ffmpeg":
		return nil, r.ffmpegErr
	}
	return nil, nil
}

func (r *fakeRunner) callsOf(name string) []runnerCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []runnerCall
	for _, call := range r.calls {
		if call.Name == name {
			out = append(out, call)
		}
	}
	return out
}

// argValue returns the argument following the given flag, or "" when absent.
func argValue(args []string, flag string) string {
	for idx, arg := range args {
		if arg == flag && idx+1 < len(args) {
			return args[idx+1]
		}
	}
	return ""
}

// fakeBlobs records object operations in memory.
type fakeBlobs struct {
	mu      sync.Mutex
	puts    []string
	gets    []string
	deletes []string

	getErr error
	putErr error
}

func (b *fakeBlobs) Put(ctx context.Context, ref string, src io.Reader, size int64, contentType string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.putErr != nil {
		return b.putErr
	}
	b.puts = append(b.puts, ref)
	return nil
}

func (b *fakeBlobs) PutFile(ctx context.Context, ref string, localPath string, contentType string) error {
	return b.Put(ctx, ref, bytes.NewReader(nil), 0, contentType)
}

func (b *fakeBlobs) GetFile(ctx context.Context, ref string, localPath string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.getErr != nil {
		return b.getErr
	}
	b.gets = append(b.gets, ref)
	return nil
}

func (b *fakeBlobs) Get(ctx context.Context, ref string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(nil)), nil
}

func (b *fakeBlobs) Delete(ctx context.Context, ref string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deletes = append(b.deletes, ref)
	return nil
}

// recordingStore is the in-memory DataStore for the pipeline tests; only the
// session and recording surface is exercised here.
type recordingStore struct {
	mu         sync.Mutex
	nextID     uint
	sessions   map[uint]models.Session
	recordings map[uint]models.Recording
}

func newRecordingStore() *recordingStore {
	return &recordingStore{
		sessions:   make(map[uint]models.Session),
		recordings: make(map[uint]models.Recording),
	}
}

func (s *recordingStore) GetSession(id uint) (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return session, errors.New("session not found")
	}
	return session, nil
}

func (s *recordingStore) SaveSession(session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session.ID == 0 {
		s.nextID++
		session.ID = s.nextID
	}
	s.sessions[session.ID] = *session
	return nil
}

func (s *recordingStore) ListSessions(take, offset int) ([]models.Session, error) {
	return nil, nil
}

func (s *recordingStore) GetActiveParticipant(sessionId uint, accountId uint) (models.Participant, error) {
	return models.Participant{}, errors.New("not tracked here")
}

func (s *recordingStore) SaveParticipant(participant *models.Participant) error {
	return nil
}

func (s *recordingStore) ListActiveParticipants(sessionId uint) ([]models.Participant, error) {
	return nil, nil
}

func (s *recordingStore) SaveMessage(message *models.ChatMessage) error {
	return nil
}

func (s *recordingStore) ListMessages(sessionId uint, take, offset int) ([]models.ChatMessage, error) {
	return nil, nil
}

func (s *recordingStore) GetRecording(id uint) (models.Recording, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recording, ok := s.recordings[id]
	if !ok {
		return recording, errors.New("recording not found")
	}
	return recording, nil
}

func (s *recordingStore) SaveRecording(recording *models.Recording) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if recording.ID == 0 {
		s.nextID++
		recording.ID = s.nextID
		recording.CreatedAt = time.Now()
	}
	s.recordings[recording.ID] = *recording
	return nil
}

func (s *recordingStore) ListRecordings(sessionId uint) ([]models.Recording, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Recording
	for _, recording := range s.recordings {
		if recording.SessionID == sessionId {
			out = append(out, recording)
		}
	}
	return out, nil
}

func (s *recordingStore) ListRecordingsByStatus(sessionId uint, status models.RecordingStatus) ([]models.Recording, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Recording
	for _, recording := range s.recordings {
		if recording.SessionID == sessionId && recording.Status == status {
			out = append(out, recording)
		}
	}
	return out, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *fakeNotifier) Notify(accountId uint, event string, data map[string]any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

type fakeTranscriber struct {
	mu          sync.Mutex
	submissions [][]uint
}

func (t *fakeTranscriber) Submit(ctx context.Context, sessionId uint, recordingIds []uint) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.submissions = append(t.submissions, recordingIds)
	return nil
}
