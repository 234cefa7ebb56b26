// Package transport implements the binary and JSON envelope framing
// described in spec.md §6: a correlation id, a UTF-8 command/response
// type name, and a payload, length-prefixed at the message boundary.
// The binary wire format is grounded on vi-fighter's
// network/protocol.go Message.Encode/Decode (fixed header + length-
// prefixed payload), generalized from that protocol's uint8 type code
// to spec.md's string type name.
package transport

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// MaxPayloadSize is the 10 MiB per-message cap spec.md §6 names.
const MaxPayloadSize = 10 * 1024 * 1024

// MaxTypeLen bounds the type-name length field (uint16).
const MaxTypeLen = 65535

// ParseError marks a decode failure that consumed a complete framed
// message but could not interpret its contents (e.g. malformed JSON):
// the connection is still healthy, unlike an io error from a dropped
// or truncated stream, so the caller should report the error back to
// the client rather than close the connection (spec.md §8 S6).
type ParseError struct {
	err error
}

func (e *ParseError) Error() string { return e.err.Error() }
func (e *ParseError) Unwrap() error { return e.err }

// Envelope is the correlation-id + named-type + payload triple every
// command/response crosses the wire as.
type Envelope struct {
	ID      uint64
	Type    string
	Payload []byte
}

// Encode writes the binary wire format: uint64 id (LE), uint16 type_len,
// type bytes, uint32 payload_len, payload bytes.
func (e *Envelope) Encode(w io.Writer) error {
	if len(e.Type) > MaxTypeLen {
		return errors.Errorf("envelope type name exceeds %d bytes", MaxTypeLen)
	}
	if len(e.Payload) > MaxPayloadSize {
		return errors.Errorf("envelope payload exceeds %d bytes", MaxPayloadSize)
	}

	var buf bytes.Buffer
	buf.Grow(8 + 2 + len(e.Type) + 4 + len(e.Payload))

	var idBuf [8]byte
	binary.LittleEndian.PutUint64(idBuf[:], e.ID)
	buf.Write(idBuf[:])

	var typeLenBuf [2]byte
	binary.LittleEndian.PutUint16(typeLenBuf[:], uint16(len(e.Type)))
	buf.Write(typeLenBuf[:])
	buf.WriteString(e.Type)

	var payloadLenBuf [4]byte
	binary.LittleEndian.PutUint32(payloadLenBuf[:], uint32(len(e.Payload)))
	buf.Write(payloadLenBuf[:])
	buf.Write(e.Payload)

	_, err := w.Write(buf.Bytes())
	return err
}

// DecodeEnvelope reads one binary envelope from r.
func DecodeEnvelope(r io.Reader) (*Envelope, error) {
	var idBuf [8]byte
	if _, err := io.ReadFull(r, idBuf[:]); err != nil {
		return nil, err
	}
	id := binary.LittleEndian.Uint64(idBuf[:])

	var typeLenBuf [2]byte
	if _, err := io.ReadFull(r, typeLenBuf[:]); err != nil {
		return nil, err
	}
	typeLen := binary.LittleEndian.Uint16(typeLenBuf[:])
	typeBytes := make([]byte, typeLen)
	if typeLen > 0 {
		if _, err := io.ReadFull(r, typeBytes); err != nil {
			return nil, err
		}
	}

	var payloadLenBuf [4]byte
	if _, err := io.ReadFull(r, payloadLenBuf[:]); err != nil {
		return nil, err
	}
	payloadLen := binary.LittleEndian.Uint32(payloadLenBuf[:])
	if payloadLen > MaxPayloadSize {
		return nil, fmt.Errorf("envelope payload of %d bytes exceeds the %d byte cap", payloadLen, MaxPayloadSize)
	}
	payload := make([]byte, payloadLen)
	if payloadLen > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, err
		}
	}

	return &Envelope{ID: id, Type: string(typeBytes), Payload: payload}, nil
}

// JSONEnvelope is the JSON-alternative wire shape (spec.md §6): an
// object with id, a command-or-response_type name, an optional error
// string, and the payload's fields flattened to the top level.
type JSONEnvelope struct {
	ID      uint64
	Command string // request name, empty on a response
	Type    string // response_type, empty on a request
	Error   string
	Fields  map[string]json.RawMessage // payload fields, merged at the top level
}

// MarshalJSON flattens ID, the command-or-response_type key, Error (if
// set) and Fields into one JSON object, per spec.md §6.
func (e *JSONEnvelope) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(e.Fields)+3)
	for k, v := range e.Fields {
		out[k] = v
	}
	idBytes, err := json.Marshal(e.ID)
	if err != nil {
		return nil, err
	}
	out["id"] = idBytes
	if e.Command != "" {
		b, err := json.Marshal(e.Command)
		if err != nil {
			return nil, err
		}
		out["command"] = b
	}
	if e.Type != "" {
		b, err := json.Marshal(e.Type)
		if err != nil {
			return nil, err
		}
		out["response_type"] = b
	}
	if e.Error != "" {
		b, err := json.Marshal(e.Error)
		if err != nil {
			return nil, err
		}
		out["error"] = b
	}
	return json.Marshal(out)
}

// UnmarshalJSON splits the flattened object back into ID/Command/Type/
// Error plus the remaining Fields.
func (e *JSONEnvelope) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "JSON parse error")
	}
	e.Fields = make(map[string]json.RawMessage, len(raw))
	for k, v := range raw {
		switch k {
		case "id":
			if err := json.Unmarshal(v, &e.ID); err != nil {
				return errors.Wrap(err, "JSON parse error")
			}
		case "command":
			json.Unmarshal(v, &e.Command)
		case "response_type":
			json.Unmarshal(v, &e.Type)
		case "error":
			json.Unmarshal(v, &e.Error)
		default:
			e.Fields[k] = v
		}
	}
	return nil
}

// toJSONEnvelope converts an Envelope into the flattened JSONEnvelope,
// treating Payload as the JSON-encoded fields object and splitting Type
// into Command or response Type by the "_response" suffix convention
// (spec.md §4.4: "<name>_response").
func (e *Envelope) toJSONEnvelope() (*JSONEnvelope, error) {
	fields := make(map[string]json.RawMessage)
	if len(e.Payload) > 0 {
		if err := json.Unmarshal(e.Payload, &fields); err != nil {
			return nil, err
		}
	}
	je := &JSONEnvelope{ID: e.ID, Fields: fields}
	if len(e.Type) > len("_response") && e.Type[len(e.Type)-len("_response"):] == "_response" {
		je.Type = e.Type
	} else {
		je.Command = e.Type
	}
	return je, nil
}

// fromJSONEnvelope converts a decoded JSONEnvelope back into the
// uniform Envelope shape the dispatcher operates on.
func fromJSONEnvelope(je *JSONEnvelope) (*Envelope, error) {
	name := je.Command
	if name == "" {
		name = je.Type
	}
	payload, err := json.Marshal(je.Fields)
	if err != nil {
		return nil, err
	}
	return &Envelope{ID: je.ID, Type: name, Payload: payload}, nil
}

// EncodeJSONMessage writes env as a length-prefixed JSON object: uint32
// LE byte length, then the JSON bytes (spec.md §6's "length-prefixed at
// the message boundary").
func EncodeJSONMessage(w io.Writer, env *Envelope) error {
	je, err := env.toJSONEnvelope()
	if err != nil {
		return err
	}
	data, err := json.Marshal(je)
	if err != nil {
		return err
	}
	if len(data) > MaxPayloadSize {
		return errors.Errorf("JSON message exceeds %d bytes", MaxPayloadSize)
	}
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(data)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// DecodeJSONMessage reads one length-prefixed JSON message and converts
// it to the uniform Envelope shape.
func DecodeJSONMessage(r io.Reader) (*Envelope, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	if n > MaxPayloadSize {
		return nil, fmt.Errorf("JSON message of %d bytes exceeds the %d byte cap", n, MaxPayloadSize)
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	// Call UnmarshalJSON directly: json.Unmarshal would reject invalid
	// bytes with its own syntax error before UnmarshalJSON could add the
	// "JSON parse error" prefix.
	var je JSONEnvelope
	if err := je.UnmarshalJSON(data); err != nil {
		return nil, &ParseError{err: err}
	}
	return fromJSONEnvelope(&je)
}
