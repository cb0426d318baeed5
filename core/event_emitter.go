package orchestration

import "github.com/koscakluka/ema-talk/core/events"

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

func newCallbackEventEmitter(callbacks sessionCallbacks, handlers ...func(events.Event)) eventEmitter {
	return func(event events.Event) {
		switch typedEvent := event.(type) {
		case events.StatusChanged:
			if callbacks.onStatusChanged != nil {
				callbacks.onStatusChanged(Status(typedEvent.Status))
			}
		case events.PlaybackStateChanged:
			if callbacks.onPlaybackStateChanged != nil {
				callbacks.onPlaybackStateChanged(PlaybackState(typedEvent.State), VisualizerParams{
					Speed:     typedEvent.Speed,
					Amplitude: typedEvent.Amplitude,
				})
			}
		case events.SubtitleChanged:
			if callbacks.onSubtitleChanged != nil {
				callbacks.onSubtitleChanged(typedEvent.Subtitle)
			}
		case events.AssistantResponseUpdated:
			if callbacks.onResponse != nil {
				callbacks.onResponse(typedEvent.MessageID, typedEvent.Text)
			}
		case events.MessagesChanged:
			if callbacks.onMessagesChanged != nil {
				callbacks.onMessagesChanged()
			}
		case events.UserTranscriptInterimUpdated:
			if callbacks.onInterimTranscription != nil {
				callbacks.onInterimTranscription(typedEvent.Transcript)
			}
		case events.UserTranscriptFinal:
			if callbacks.onTranscription != nil {
				callbacks.onTranscription(typedEvent.Transcript)
			}
		case events.TurnFailed:
			if callbacks.onError != nil {
				callbacks.onError(typedEvent.Err)
			}
		case events.AssistantSpeechFailed:
			if callbacks.onError != nil {
				callbacks.onError(typedEvent.Err)
			}
		}

		for _, handler := range handlers {
			handler(event)
		}
	}
}
