package models

import "encoding/json"

// MessageType represents the type of a signaling or media message
type MessageType string

const (
	MessageTypeOffer       MessageType = "offer"
	MessageTypeAnswer      MessageType = "answer"
	MessageTypeCandidate   MessageType = "candidate"
	MessageTypeCallerVideo MessageType = "callerVideo"
	MessageTypeCalleeVideo MessageType = "calleeVideo"
	MessageTypeCallerAudio MessageType = "callerAudio"
	MessageTypeCalleeAudio MessageType = "calleeAudio"
	MessageTypeHangup      MessageType = "hangup"
	MessageTypeCallID      MessageType = "callId"
)

// Directory names media files are grouped under.
const (
	MediaDirVideo = "Video"
	MediaDirAudio = "Audio"
)

// MediaTypes lists the four recordable message types.
var MediaTypes = []MessageType{
	MessageTypeCallerVideo,
	MessageTypeCalleeVideo,
	MessageTypeCallerAudio,
	MessageTypeCalleeAudio,
}

// IsMedia reports whether messages of this type carry recordable media.
func (t MessageType) IsMedia() bool {
	switch t {
	case MessageTypeCallerVideo, MessageTypeCalleeVideo, MessageTypeCallerAudio, MessageTypeCalleeAudio:
		return true
	}
	return false
}

func (t MessageType) IsVideo() bool {
	return t == MessageTypeCallerVideo || t == MessageTypeCalleeVideo
}

// MediaDir returns the directory a media type is written to, or "" for
// non-media types.
func (t MessageType) MediaDir() string {
	switch {
	case t.IsVideo():
		return MediaDirVideo
	case t.IsMedia():
		return MediaDirAudio
	}
	return ""
}

// SignalingMessage is one parsed message received from a peer.
type SignalingMessage struct {
	Type      MessageType     `json:"type"`
	ID        string          `json:"id,omitempty"`
	CallID    string          `json:"callId,omitempty"`
	Data      *string         `json:"data,omitempty"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`

	// HasSignal is set when any of the offer, answer or candidate keys
	// were present, regardless of their value.
	HasSignal bool `json:"-"`
}

// AnnouncedCallID returns the call id a callId announcement carries.
func (m *SignalingMessage) AnnouncedCallID() string {
	if m.CallID != "" {
		return m.CallID
	}
	return m.ID
}
