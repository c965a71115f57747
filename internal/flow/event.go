// Package flow implements the multi-step conversation engine driving the
// check, add, edit, tag and transfer operations. The engine is transport
// independent: the Telegram layer decodes updates into Events, and the
// engine answers with Replies.
package flow

// EventKind tags what the operator's update means to the active flow.
type EventKind int

const (
	// EventText is a free-text answer to the current prompt. While a flow
	// awaits the PIN, the text is interpreted as a PIN entry.
	EventText EventKind = iota
	// EventPhoto carries downloaded attachment bytes.
	EventPhoto
	// EventSkip skips the current optional field.
	EventSkip
	// EventQuit abandons the active flow.
	EventQuit
)

// Photo is an attachment already fetched from the transport. The engine
// never talks to the chat API itself; it only forwards bytes to object
// storage.
type Photo struct {
	Data        []byte
	ContentType string
}

// Event is one decoded operator update. Exactly one payload field is
// meaningful for a given Kind.
type Event struct {
	Kind  EventKind
	Text  string
	Photo *Photo
}

// Reply is what the engine wants said back to the operator. Options, when
// present, are offered as one-tap answers but never restrict free input.
type Reply struct {
	Text    string
	Options []string
}
