package portaudio

import "testing"

func TestSplitFrames(t *testing.T) {
	frames := splitFrames([]byte{1, 2, 3, 4, 5, 6, 7}, 4)

	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	if len(frames[0]) != 4 || len(frames[1]) != 2 {
		t.Fatalf("expected frame sizes 4 and 2, got %d and %d", len(frames[0]), len(frames[1]))
	}
}

func TestSplitFramesEmpty(t *testing.T) {
	if frames := splitFrames(nil, 4); frames != nil {
		t.Fatalf("expected no frames, got %v", frames)
	}
}
