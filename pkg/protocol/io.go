package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/flate"
)

// Envelope header layout, little-endian:
//
//	[0]    message type
//	[1]    flags
//	[2:10] server timestamp, unix millis
//	[10:]  CBOR payload, deflate-compressed when flagCompressed is set
const headerSize = 10

const flagCompressed uint8 = 1 << 0

// Snapshots smaller than this are not worth deflating.
const compressThreshold = 512

type Envelope struct {
	Type            MessageType
	ServerTimestamp int64
	payload         []byte
}

// Encode packs a message into an envelope. Only snapshot payloads are ever
// compressed; everything else is small enough that deflate would be overhead.
func Encode(t MessageType, serverTimestamp int64, message interface{}) ([]byte, error) {
	payload, err := cbor.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("could not encode %s payload: %w", t, err)
	}

	var flags uint8
	if t == SnapshotOp && len(payload) > compressThreshold {
		var compressed bytes.Buffer
		w, err := flate.NewWriter(&compressed, flate.BestSpeed)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(payload); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		if compressed.Len() < len(payload) {
			payload = compressed.Bytes()
			flags |= flagCompressed
		}
	}

	data := make([]byte, headerSize+len(payload))
	data[0] = byte(t)
	data[1] = flags
	binary.LittleEndian.PutUint64(data[2:], uint64(serverTimestamp))
	copy(data[headerSize:], payload)
	return data, nil
}

// Decode splits an envelope off the wire. The payload is not unmarshaled
// until the caller knows what to do with the type.
func Decode(data []byte) (*Envelope, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("envelope too short: %d bytes", len(data))
	}

	t := MessageType(data[0])
	if t > ErrorOp {
		return nil, fmt.Errorf("unknown message type %d", data[0])
	}

	flags := data[1]
	payload := data[headerSize:]

	if flags&flagCompressed != 0 {
		r := flate.NewReader(bytes.NewReader(payload))
		decompressed, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			return nil, fmt.Errorf("could not inflate payload: %w", err)
		}
		payload = decompressed
	}

	return &Envelope{
		Type:            t,
		ServerTimestamp: int64(binary.LittleEndian.Uint64(data[2:])),
		payload:         payload,
	}, nil
}

// Unmarshal decodes the envelope's payload into message.
func (e *Envelope) Unmarshal(message interface{}) error {
	if err := cbor.Unmarshal(e.payload, message); err != nil {
		return fmt.Errorf("malformed %s payload: %w", e.Type, err)
	}
	return nil
}
