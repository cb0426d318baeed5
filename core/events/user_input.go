package events

const (
	// KindRecordingStarted identifies the start of input capture.
	KindRecordingStarted Kind = "user_input.recording_started"
	// KindRecordingStopped identifies the end of input capture.
	KindRecordingStopped Kind = "user_input.recording_stopped"
	// KindUserTranscriptInterimUpdated identifies a mutable transcript snapshot.
	KindUserTranscriptInterimUpdated Kind = "user_input.transcript_interim_updated"
	// KindUserTranscriptFinal identifies the finalized recording transcript.
	KindUserTranscriptFinal Kind = "user_input.transcript_final"
)

// RecordingStarted marks the start of input capture.
type RecordingStarted struct{ Base }

// NewRecordingStarted creates a recording started event.
func NewRecordingStarted() RecordingStarted {
	return RecordingStarted{Base: NewBase(KindRecordingStarted)}
}

// RecordingStopped marks the end of input capture.
type RecordingStopped struct{ Base }

// NewRecordingStopped creates a recording stopped event.
func NewRecordingStopped() RecordingStopped {
	return RecordingStopped{Base: NewBase(KindRecordingStopped)}
}

// UserTranscriptInterimUpdated carries the running transcript, including
// words that may still change.
type UserTranscriptInterimUpdated struct {
	Base
	Transcript string
}

// NewUserTranscriptInterimUpdated creates an interim transcript event.
func NewUserTranscriptInterimUpdated(transcript string) UserTranscriptInterimUpdated {
	return UserTranscriptInterimUpdated{Base: NewBase(KindUserTranscriptInterimUpdated), Transcript: transcript}
}

// UserTranscriptFinal carries the transcript submitted when recording stops.
type UserTranscriptFinal struct {
	Base
	Transcript string
}

// NewUserTranscriptFinal creates a final transcript event.
func NewUserTranscriptFinal(transcript string) UserTranscriptFinal {
	return UserTranscriptFinal{Base: NewBase(KindUserTranscriptFinal), Transcript: transcript}
}
