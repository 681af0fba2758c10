package protocol

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAppendFrameAck(t *testing.T) {
	frame, err := AppendFrame(nil, MessageDest, nil)
	if err != nil {
		t.Fatalf("AppendFrame failed: %v", err)
	}
	want := []byte{0x05, 0x10, 0x9E, 0x81, MessageValueSync}
	if diff := cmp.Diff(want, frame); diff != "" {
		t.Errorf("ACK frame mismatch (-want +got):\n%s", diff)
	}
}

func TestAppendFrameTooLong(t *testing.T) {
	if _, err := AppendFrame(nil, MessageDest, make([]byte, MessagePayloadMax)); err != nil {
		t.Errorf("max payload rejected: %v", err)
	}
	if _, err := AppendFrame(nil, MessageDest, make([]byte, MessagePayloadMax+1)); err != ErrFrameTooLong {
		t.Errorf("Expected ErrFrameTooLong, got %v", err)
	}
}

func TestFrameDecoderRoundTrip(t *testing.T) {
	payload := NewCommand(12).Uint(3).Bytes([]byte{0xDE, 0xAD}).Payload()

	stream, _ := AppendFrame(nil, 0x13, payload)
	stream, _ = AppendFrame(stream, 0x14, nil)

	dec := NewFrameDecoder(256)
	msgs := dec.Feed(stream)
	if len(msgs) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Sequence != 0x13 || msgs[0].IsAck() {
		t.Errorf("unexpected first message %+v", msgs[0])
	}
	if diff := cmp.Diff(payload, msgs[0].Payload); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
	if !msgs[1].IsAck() || msgs[1].Sequence != 0x14 {
		t.Errorf("unexpected second message %+v", msgs[1])
	}
}

func TestFrameDecoderPartial(t *testing.T) {
	frame, _ := AppendFrame(nil, MessageDest, []byte{1, 2, 3})
	dec := NewFrameDecoder(256)

	for i := 0; i < len(frame)-1; i++ {
		if msgs := dec.Feed(frame[i : i+1]); len(msgs) != 0 {
			t.Fatalf("frame completed early at byte %d", i)
		}
	}
	msgs := dec.Feed(frame[len(frame)-1:])
	if len(msgs) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(msgs))
	}
}

func TestFrameDecoderResync(t *testing.T) {
	good, _ := AppendFrame(nil, MessageDest, []byte{0x42})
	bad := append([]byte(nil), good...)
	bad[2] ^= 0xFF // corrupt payload, CRC no longer matches

	stream := append([]byte{0x00, 0x99}, bad...)
	stream = append(stream, good...)

	dec := NewFrameDecoder(256)
	msgs := dec.Feed(stream)
	if len(msgs) != 1 {
		t.Fatalf("Expected 1 valid message, got %d", len(msgs))
	}
	if diff := cmp.Diff([]byte{0x42}, msgs[0].Payload); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
	if dec.Dropped == 0 {
		t.Error("corrupted input not counted")
	}
}

func TestArgs(t *testing.T) {
	payload := NewCommand(7).Uint(300).Int(-5).Bytes([]byte("hi")).Payload()

	args := NewArgs(payload)
	if id := args.ID(); id != 7 {
		t.Errorf("Expected id 7, got %d", id)
	}
	if v := args.Uint(); v != 300 {
		t.Errorf("Expected 300, got %d", v)
	}
	if v := args.Int(); v != -5 {
		t.Errorf("Expected -5, got %d", v)
	}
	if v := string(args.Bytes()); v != "hi" {
		t.Errorf("Expected hi, got %q", v)
	}
	if args.Err() != nil || args.Remaining() != 0 {
		t.Errorf("unexpected state err=%v remaining=%d", args.Err(), args.Remaining())
	}

	// Reading past the end sticks the error.
	if args.Uint(); args.Err() != ErrBufferTooSmall {
		t.Errorf("Expected ErrBufferTooSmall, got %v", args.Err())
	}
	if b := args.Bytes(); b != nil {
		t.Errorf("Expected nil after error, got %v", b)
	}
}

func TestNextSequence(t *testing.T) {
	if got := NextSequence(0x10); got != 0x11 {
		t.Errorf("NextSequence(0x10) = 0x%02x", got)
	}
	if got := NextSequence(0x1F); got != 0x10 {
		t.Errorf("NextSequence(0x1F) = 0x%02x", got)
	}
}
