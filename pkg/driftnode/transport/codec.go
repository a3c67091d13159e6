package transport

import (
	"encoding/binary"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/driftlab/driftnode/pkg/driftnode/buffer"
)

// Wire format: a 4-byte little-endian header length, the JSON header,
// then the raw payload bytes in native element layout.
const headerLenSize = 4

// maxHeaderLen bounds the declared header size on decode.
const maxHeaderLen = 1 << 20

type wireHeader struct {
	Kind     string `json:"kind"`
	ID       string `json:"id,omitempty"`
	Type     string `json:"type,omitempty"`
	Message  string `json:"message,omitempty"`
	Node     string `json:"node,omitempty"`
	Dataflow string `json:"dataflow,omitempty"`
	Token    string `json:"token,omitempty"`
}

func kindFromName(s string) (Kind, error) {
	switch s {
	case "hello":
		return KindHello, nil
	case "input":
		return KindInput, nil
	case "input_closed":
		return KindInputClosed, nil
	case "stop":
		return KindStop, nil
	case "output":
		return KindOutput, nil
	case "error":
		return KindError, nil
	default:
		return 0, fmt.Errorf("transport: unknown frame kind %q", s)
	}
}

// EncodeFrame serializes a frame into a single wire message.
func EncodeFrame(f *Frame) ([]byte, error) {
	hdr := wireHeader{
		Kind:     f.Kind.String(),
		ID:       f.ID,
		Message:  f.Message,
		Node:     f.Node,
		Dataflow: f.Dataflow,
		Token:    f.Token,
	}
	if f.Kind == KindInput || f.Kind == KindOutput {
		hdr.Type = f.Type.String()
	}
	hb, err := json.Marshal(hdr)
	if err != nil {
		return nil, fmt.Errorf("transport: encode header: %w", err)
	}
	msg := make([]byte, headerLenSize+len(hb)+len(f.Data))
	binary.LittleEndian.PutUint32(msg, uint32(len(hb)))
	copy(msg[headerLenSize:], hb)
	copy(msg[headerLenSize+len(hb):], f.Data)
	return msg, nil
}

// DecodeFrame parses a wire message. The payload is copied into a
// buffer from pool, so the input slice may be reused by the caller.
func DecodeFrame(msg []byte, pool *Pool) (*Frame, error) {
	if len(msg) < headerLenSize {
		return nil, fmt.Errorf("transport: message too short (%d bytes)", len(msg))
	}
	hlen := int(binary.LittleEndian.Uint32(msg))
	if hlen > maxHeaderLen || headerLenSize+hlen > len(msg) {
		return nil, fmt.Errorf("transport: invalid header length %d", hlen)
	}
	var hdr wireHeader
	if err := json.Unmarshal(msg[headerLenSize:headerLenSize+hlen], &hdr); err != nil {
		return nil, fmt.Errorf("transport: decode header: %w", err)
	}
	kind, err := kindFromName(hdr.Kind)
	if err != nil {
		return nil, err
	}
	f := &Frame{
		Kind:     kind,
		ID:       hdr.ID,
		Message:  hdr.Message,
		Node:     hdr.Node,
		Dataflow: hdr.Dataflow,
		Token:    hdr.Token,
	}
	if kind == KindInput || kind == KindOutput {
		typ, err := buffer.ParseElementType(hdr.Type)
		if err != nil {
			return nil, fmt.Errorf("transport: %w", err)
		}
		f.Type = typ
	}
	payload := msg[headerLenSize+hlen:]
	f.Data = pool.Get(len(payload))
	copy(f.Data, payload)
	return f, nil
}
