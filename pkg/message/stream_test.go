package message

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
)

func TestStreamRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewStreamWriter(&buf)
	r := NewStreamReader(&buf)

	frames := [][]byte{
		{0x01},
		[]byte("hello"),
		bytes.Repeat([]byte{0xAB}, 4096),
	}
	for _, f := range frames {
		if err := w.WriteFrame(f); err != nil {
			t.Fatalf("WriteFrame failed: %v", err)
		}
	}
	for i, want := range frames {
		got, err := r.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame %d failed: %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("frame %d mismatch", i)
		}
	}

	if _, err := r.ReadFrame(); err != io.EOF {
		t.Errorf("ReadFrame at end: got %v, want io.EOF", err)
	}
}

func TestWriteFrameLimits(t *testing.T) {
	w := NewStreamWriter(&bytes.Buffer{})

	if err := w.WriteFrame(nil); err != ErrInvalidLength {
		t.Errorf("empty frame: %v", err)
	}
	if err := w.WriteFrame(make([]byte, MaxFrameSize+1)); err != ErrFrameTooLong {
		t.Errorf("oversize frame: %v", err)
	}
}

func TestReadFrameRejectsBadPrefix(t *testing.T) {
	zero := make([]byte, LengthPrefixSize)
	if _, err := NewStreamReader(bytes.NewReader(zero)).ReadFrame(); err != ErrInvalidLength {
		t.Errorf("zero length: %v", err)
	}

	huge := make([]byte, LengthPrefixSize)
	binary.BigEndian.PutUint32(huge, MaxFrameSize+1)
	if _, err := NewStreamReader(bytes.NewReader(huge)).ReadFrame(); err != ErrFrameTooLong {
		t.Errorf("oversize length: %v", err)
	}

	truncated := []byte{0x00, 0x00, 0x00, 0x05, 0x01}
	if _, err := NewStreamReader(bytes.NewReader(truncated)).ReadFrame(); err != io.ErrUnexpectedEOF {
		t.Errorf("truncated frame: %v", err)
	}
}
