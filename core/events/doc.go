// Package events defines the typed events a session emits.
//
// Kinds are grouped by namespace:
//
//   - user_input.*: recording and transcription of spoken input.
//   - turn_state.*: lifecycle of a single request/response exchange.
//   - assistant_response.*: the streamed response text.
//   - assistant_speech.*: statements cut from the response and their
//     synthesis.
//   - assistant_playback.*: audible playback of synthesized statements.
//   - session.*: observable session state such as status, subtitle and
//     talk mode.
//
// Updated events carry a full snapshot that replaces the previous one;
// Final events carry the terminal value for the current turn.
package events
