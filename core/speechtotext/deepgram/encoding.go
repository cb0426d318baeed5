package deepgram

import (
	"errors"
	"fmt"

	"github.com/koscakluka/ema-talk/core/audio"
)

var ErrUnsupportedEncoding = errors.New("unsupported encoding")

type listenEncoding struct {
	SampleRate int
	Name       string
}

// convertEncoding maps capture encoding onto the subset deepgram accepts for
// raw (containerless) audio.
func convertEncoding(encoding audio.EncodingInfo) (listenEncoding, error) {
	switch encoding.SampleRate {
	case 8000, 16000, 24000, 32000, 48000:
	default:
		return listenEncoding{}, fmt.Errorf("%w: sample rate %d", ErrUnsupportedEncoding, encoding.SampleRate)
	}

	switch encoding.Format {
	case audio.EncodingLinear16:
	case audio.EncodingALaw, audio.EncodingMulaw:
		if encoding.SampleRate != 8000 {
			return listenEncoding{}, fmt.Errorf("%w: %s requires 8000Hz", ErrUnsupportedEncoding, encoding.Format.Name())
		}
	default:
		return listenEncoding{}, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, encoding.Format.Name())
	}

	return listenEncoding{SampleRate: encoding.SampleRate, Name: encoding.Format.Name()}, nil
}
