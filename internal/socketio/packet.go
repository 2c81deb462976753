package socketio

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/BWStearns/rusty-ws-starwars-search/internal/errors"
)

// EngineIOVersion is the Engine.IO protocol revision spoken by this package.
const EngineIOVersion = "4"

// DefaultNamespace is the namespace joined when none is given.
const DefaultNamespace = "/"

// EnginePacketType is the leading digit of an Engine.IO packet.
type EnginePacketType byte

// Engine.IO packet types.
const (
	EngineOpen    EnginePacketType = '0'
	EngineClose   EnginePacketType = '1'
	EnginePing    EnginePacketType = '2'
	EnginePong    EnginePacketType = '3'
	EngineMessage EnginePacketType = '4'
	EngineUpgrade EnginePacketType = '5'
	EngineNoop    EnginePacketType = '6'
)

func (t EnginePacketType) String() string {
	switch t {
	case EngineOpen:
		return "open"
	case EngineClose:
		return "close"
	case EnginePing:
		return "ping"
	case EnginePong:
		return "pong"
	case EngineMessage:
		return "message"
	case EngineUpgrade:
		return "upgrade"
	case EngineNoop:
		return "noop"
	default:
		return fmt.Sprintf("engine(%q)", byte(t))
	}
}

// EnginePacket is one Engine.IO text frame.
type EnginePacket struct {
	Type EnginePacketType
	Data string
}

// Encode renders the packet as a text frame.
func (p EnginePacket) Encode() string {
	return string(p.Type) + p.Data
}

// DecodeEngine parses an Engine.IO text frame.
func DecodeEngine(frame string) (EnginePacket, error) {
	if frame == "" {
		return EnginePacket{}, &errors.ProtocolError{Packet: frame, Err: fmt.Errorf("empty frame")}
	}

	t := EnginePacketType(frame[0])
	if t < EngineOpen || t > EngineNoop {
		return EnginePacket{}, &errors.ProtocolError{
			Packet: frame,
			Err:    fmt.Errorf("unknown engine packet type %q", frame[0]),
		}
	}

	return EnginePacket{Type: t, Data: frame[1:]}, nil
}

// OpenPayload is the handshake data of an Engine.IO open packet.
// Intervals are in milliseconds.
type OpenPayload struct {
	SID          string   `json:"sid"`
	Upgrades     []string `json:"upgrades"`
	PingInterval int      `json:"pingInterval"`
	PingTimeout  int      `json:"pingTimeout"`
	MaxPayload   int      `json:"maxPayload"`
}

// ParseOpen decodes the data of an open packet.
func ParseOpen(p EnginePacket) (*OpenPayload, error) {
	if p.Type != EngineOpen {
		return nil, &errors.ProtocolError{
			Packet: p.Encode(),
			Err:    fmt.Errorf("expected open packet, got %s", p.Type),
		}
	}

	var open OpenPayload
	if err := json.Unmarshal([]byte(p.Data), &open); err != nil {
		return nil, &errors.ProtocolError{Packet: p.Encode(), Err: fmt.Errorf("open payload: %w", err)}
	}

	return &open, nil
}

// PacketType is the leading digit of a Socket.IO packet.
type PacketType byte

// Socket.IO packet types.
const (
	Connect      PacketType = '0'
	Disconnect   PacketType = '1'
	Event        PacketType = '2'
	Ack          PacketType = '3'
	ConnectError PacketType = '4'
	BinaryEvent  PacketType = '5'
	BinaryAck    PacketType = '6'
)

func (t PacketType) String() string {
	switch t {
	case Connect:
		return "CONNECT"
	case Disconnect:
		return "DISCONNECT"
	case Event:
		return "EVENT"
	case Ack:
		return "ACK"
	case ConnectError:
		return "CONNECT_ERROR"
	case BinaryEvent:
		return "BINARY_EVENT"
	case BinaryAck:
		return "BINARY_ACK"
	default:
		return fmt.Sprintf("PACKET(%q)", byte(t))
	}
}

// isBinary reports whether packets of this type announce attachments.
func (t PacketType) isBinary() bool {
	return t == BinaryEvent || t == BinaryAck
}

// Packet is one Socket.IO packet carried inside an Engine.IO message.
//
// Wire format: <type>[<attachments>-][<namespace>,][<ack id>][<json data>]
type Packet struct {
	Type        PacketType
	Attachments int
	Namespace   string
	// ID is the acknowledgement id, or -1 when none was requested.
	ID   int64
	Data json.RawMessage
}

// NewPacket returns a packet without acknowledgement id.
func NewPacket(t PacketType, namespace string, data json.RawMessage) *Packet {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	return &Packet{Type: t, Namespace: namespace, ID: -1, Data: data}
}

// NewEvent returns an EVENT packet for name carrying args.
func NewEvent(namespace, name string, args ...any) (*Packet, error) {
	items := make([]any, 0, len(args)+1)
	items = append(items, name)
	items = append(items, args...)

	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal %q event: %w", name, err)
	}

	return NewPacket(Event, namespace, data), nil
}

// Encode renders the packet as the data of an Engine.IO message.
func (p *Packet) Encode() string {
	var b strings.Builder

	b.WriteByte(byte(p.Type))

	if p.Type.isBinary() {
		b.WriteString(strconv.Itoa(p.Attachments))
		b.WriteByte('-')
	}

	if p.Namespace != "" && p.Namespace != DefaultNamespace {
		b.WriteString(p.Namespace)
		b.WriteByte(',')
	}

	if p.ID >= 0 {
		b.WriteString(strconv.FormatInt(p.ID, 10))
	}

	b.Write(p.Data)

	return b.String()
}

// Decode parses the data of an Engine.IO message as a Socket.IO packet.
func Decode(s string) (*Packet, error) {
	fail := func(format string, args ...any) (*Packet, error) {
		return nil, &errors.ProtocolError{Packet: s, Err: fmt.Errorf(format, args...)}
	}

	if s == "" {
		return fail("empty packet")
	}

	p := &Packet{Type: PacketType(s[0]), Namespace: DefaultNamespace, ID: -1}
	if p.Type < Connect || p.Type > BinaryAck {
		return fail("unknown packet type %q", s[0])
	}

	rest := s[1:]

	if p.Type.isBinary() {
		n, tail, ok := strings.Cut(rest, "-")
		if !ok {
			return fail("missing attachment count")
		}

		count, err := strconv.Atoi(n)
		if err != nil || count < 0 {
			return fail("invalid attachment count %q", n)
		}

		p.Attachments = count
		rest = tail
	}

	if strings.HasPrefix(rest, "/") {
		nsp, tail, ok := strings.Cut(rest, ",")
		if !ok {
			// A namespace with no payload is allowed to omit the separator.
			nsp, tail = rest, ""
		}

		p.Namespace = nsp
		rest = tail
	}

	digits := 0
	for digits < len(rest) && rest[digits] >= '0' && rest[digits] <= '9' {
		digits++
	}

	if digits > 0 {
		id, err := strconv.ParseInt(rest[:digits], 10, 64)
		if err != nil {
			return fail("invalid ack id %q", rest[:digits])
		}

		p.ID = id
		rest = rest[digits:]
	}

	if rest != "" {
		if !json.Valid([]byte(rest)) {
			return fail("invalid JSON payload")
		}

		p.Data = json.RawMessage(rest)
	}

	return p, nil
}

// Event splits an EVENT or BINARY_EVENT packet into its name and arguments.
func (p *Packet) Event() (string, []json.RawMessage, error) {
	if p.Type != Event && p.Type != BinaryEvent {
		return "", nil, &errors.ProtocolError{
			Packet: p.Encode(),
			Err:    fmt.Errorf("expected event packet, got %s", p.Type),
		}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(p.Data, &items); err != nil || len(items) == 0 {
		return "", nil, &errors.ProtocolError{Packet: p.Encode(), Err: fmt.Errorf("event payload is not a non-empty array")}
	}

	var name string
	if err := json.Unmarshal(items[0], &name); err != nil {
		return "", nil, &errors.ProtocolError{Packet: p.Encode(), Err: fmt.Errorf("event name is not a string")}
	}

	return name, items[1:], nil
}

// ErrorMessage extracts the message of a CONNECT_ERROR packet.
func (p *Packet) ErrorMessage() string {
	var body struct {
		Message string `json:"message"`
	}

	if err := json.Unmarshal(p.Data, &body); err == nil && body.Message != "" {
		return body.Message
	}

	var text string
	if err := json.Unmarshal(p.Data, &text); err == nil {
		return text
	}

	return string(p.Data)
}
