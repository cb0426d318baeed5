package audio

import (
	"testing"
	"time"
)

func TestDurationForLinear16(t *testing.T) {
	info := EncodingInfo{SampleRate: 16000, Format: EncodingLinear16}

	if got := info.Duration(32000); got != time.Second {
		t.Fatalf("expected 1s, got %v", got)
	}
}

func TestDurationForUnknownFormatIsZero(t *testing.T) {
	info := EncodingInfo{SampleRate: 16000, Format: encodingFormat("opus")}

	if got := info.Duration(32000); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
}

func TestParseFormat(t *testing.T) {
	if format, ok := ParseFormat("mulaw"); !ok || format != EncodingMulaw {
		t.Fatalf("expected mulaw to parse, got %q (%v)", format, ok)
	}
	if _, ok := ParseFormat("mp3"); ok {
		t.Fatalf("expected mp3 to be rejected")
	}
}

func TestSilenceValue(t *testing.T) {
	if got := (EncodingInfo{Format: EncodingMulaw}).SilenceValue(); got != 0xFF {
		t.Fatalf("expected 0xFF for mulaw, got %#x", got)
	}
	if got := (EncodingInfo{Format: EncodingLinear16}).SilenceValue(); got != 0 {
		t.Fatalf("expected 0 for linear16, got %#x", got)
	}
}
