package hub

import (
	"encoding/json"
	"log"

	"github.com/adchub/hub/internal/session"
	"github.com/adchub/hub/internal/status"
)

// ProtocolVersion is the only version clients may log in with.
const ProtocolVersion = 1

type MessageType string

const (
	// client -> hub
	MsgLogin  MessageType = "login"
	MsgUpdate MessageType = "update"
	MsgChat   MessageType = "chat"

	// hub -> client
	MsgHello  MessageType = "hello"
	MsgRoster MessageType = "roster"
	MsgInfo   MessageType = "info"
	MsgQuit   MessageType = "quit"
	MsgStatus MessageType = "status"
	MsgMOTD   MessageType = "motd"
	MsgRules  MessageType = "rules"
)

// Message is the envelope for everything the hub sends.
type Message struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
}

// inbound is the envelope for everything a client sends.
type inbound struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type LoginPayload struct {
	Version  int    `json:"version"`
	CID      string `json:"cid"`
	Nick     string `json:"nick"`
	Agent    string `json:"agent"`
	Password string `json:"password,omitempty"`
}

type UpdatePayload struct {
	Nick string `json:"nick,omitempty"`
}

type ChatPayload struct {
	Text string `json:"text"`
}

type HelloPayload struct {
	SID         string `json:"sid"`
	HubName     string `json:"hubName"`
	Description string `json:"description,omitempty"`
	Version     int    `json:"version"`
}

type RosterPayload struct {
	Users []session.Info `json:"users"`
}

type InfoPayload struct {
	User session.Info `json:"user"`
}

type QuitPayload struct {
	SID    string `json:"sid"`
	Reason string `json:"reason"`
}

type StatusPayload struct {
	Code    status.Code  `json:"code"`
	Level   status.Level `json:"level"`
	Message string       `json:"message"`
}

type TextPayload struct {
	Text string `json:"text"`
}

type ChatMessagePayload struct {
	From string `json:"from"`
	Nick string `json:"nick"`
	Text string `json:"text"`
}

func encode(t MessageType, payload interface{}) []byte {
	data, err := json.Marshal(Message{Type: t, Payload: payload})
	if err != nil {
		log.Printf("encode %s: %v", t, err)
		return nil
	}
	return data
}
