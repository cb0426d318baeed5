package deepgram

import (
	"slices"
	"strings"
)

type deepgramVoice string

const defaultVoice deepgramVoice = "aura-2-thalia-en"

var availableVoices = []deepgramVoice{
	"aura-2-thalia-en",
	"aura-2-andromeda-en",
	"aura-2-helena-en",
	"aura-2-apollo-en",
	"aura-2-arcas-en",
	"aura-2-aries-en",
	"aura-2-asteria-en",
	"aura-2-luna-en",
	"aura-2-orion-en",
	"aura-2-zeus-en",
	"aura-2-celeste-es",
	"aura-2-estrella-es",
	"aura-2-nestor-es",
	"aura-2-sirio-es",
	"aura-2-agustina-es",
	"aura-2-rhea-nl",
	"aura-2-lars-nl",
	"aura-2-agathe-fr",
	"aura-2-hector-fr",
	"aura-2-viktoria-de",
	"aura-2-julius-de",
	"aura-2-livia-it",
	"aura-2-dionisio-it",
	"aura-2-fujin-ja",
	"aura-2-izanami-ja",
}

func GetAvailableVoices() []deepgramVoice {
	return slices.Clone(availableVoices)
}

func (v deepgramVoice) language() string {
	if i := strings.LastIndexByte(string(v), '-'); i >= 0 {
		return string(v)[i+1:]
	}
	return ""
}

// voiceForLocale picks the first available voice speaking the language of a
// BCP 47 locale such as "es-ES".
func voiceForLocale(locale string) (deepgramVoice, bool) {
	language := languageOf(locale)
	if language == "" {
		return "", false
	}

	for _, voice := range availableVoices {
		if voice.language() == language {
			return voice, true
		}
	}
	return "", false
}
