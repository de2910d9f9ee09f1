package usecase

import (
	"errors"
	"testing"
	"time"

	"notedeck/internal/domain"
)

func TestPumpAudioChunksReportsSendError(t *testing.T) {
	t.Parallel()

	audio := &fakeAudioSession{chunks: [][]byte{[]byte("abc")}}
	speech := &sendErrSpeechSession{err: errors.New("send failed")}
	events := &fakeEventSink{}
	done := make(chan struct{})

	go pumpAudioChunks(audio, speech, 256, events, done)
	<-done

	errs := events.snapshotErrors()
	if len(errs) == 0 || errs[0].code != domain.ErrorCodeCaptureStream {
		t.Fatalf("expected capture stream error")
	}
}

func TestPumpAudioChunksReportsReadError(t *testing.T) {
	t.Parallel()

	audio := &errorAudioSession{err: errors.New("read failed")}
	speech := &sendErrSpeechSession{}
	events := &fakeEventSink{}
	done := make(chan struct{})

	go pumpAudioChunks(audio, speech, 256, events, done)
	<-done

	errs := events.snapshotErrors()
	if len(errs) == 0 || errs[0].code != domain.ErrorCodeCaptureStream {
		t.Fatalf("expected capture stream error")
	}
}

func TestPumpAudioChunksSilentOnEOF(t *testing.T) {
	t.Parallel()

	audio := &fakeAudioSession{chunks: [][]byte{[]byte("abc")}}
	speech := &sendErrSpeechSession{}
	events := &fakeEventSink{}
	done := make(chan struct{})

	go pumpAudioChunks(audio, speech, 256, events, done)
	<-done

	if errs := events.snapshotErrors(); len(errs) != 0 {
		t.Fatalf("EOF should not raise errors, got %+v", errs)
	}
}

func TestWaitForSessionTimeoutClosesSession(t *testing.T) {
	t.Parallel()

	speech := &blockingWaitSession{done: make(chan struct{}), waitErr: errors.New("closed")}
	err := waitForSession(speech, 10*time.Millisecond)
	if err == nil || err.Error() != "closed" {
		t.Fatalf("expected closed error, got %v", err)
	}
	if speech.closeCalls == 0 {
		t.Fatalf("expected close to be called on timeout")
	}
}

type sendErrSpeechSession struct {
	err error
}

func (s *sendErrSpeechSession) SendAudio(_ []byte) error { return s.err }
func (s *sendErrSpeechSession) CloseSend() error         { return nil }
func (s *sendErrSpeechSession) Events() <-chan domain.SpeechEvent {
	ch := make(chan domain.SpeechEvent)
	close(ch)
	return ch
}
func (s *sendErrSpeechSession) Wait() error  { return nil }
func (s *sendErrSpeechSession) Close() error { return nil }

type errorAudioSession struct {
	err error
}

func (s *errorAudioSession) Read(_ []byte) (int, error) { return 0, s.err }
func (s *errorAudioSession) Close() error               { return nil }
func (s *errorAudioSession) Stop() error                { return nil }

type blockingWaitSession struct {
	done       chan struct{}
	waitErr    error
	closeCalls int
}

func (s *blockingWaitSession) SendAudio(_ []byte) error { return nil }
func (s *blockingWaitSession) CloseSend() error         { return nil }
func (s *blockingWaitSession) Events() <-chan domain.SpeechEvent {
	ch := make(chan domain.SpeechEvent)
	close(ch)
	return ch
}
func (s *blockingWaitSession) Wait() error {
	<-s.done
	return s.waitErr
}
func (s *blockingWaitSession) Close() error {
	s.closeCalls++
	close(s.done)
	return nil
}
