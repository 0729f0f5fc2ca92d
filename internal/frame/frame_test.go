package frame_test

import (
	"bytes"
	"testing"

	"github.com/nikshvein/personhub/internal/frame"
)

func TestFeedOneShotVersusByteAtATime(t *testing.T) {
	payloads := [][]byte{
		[]byte("hello"),
		[]byte(""),
		[]byte("a slightly longer payload to exercise multiple copies"),
	}

	var stream []byte
	for _, p := range payloads {
		stream = append(stream, frame.Encode(p)...)
	}

	oneShot := frame.NewDecoder()
	got, err := oneShot.Feed(stream)
	if err != nil {
		t.Fatalf("one-shot feed: %v", err)
	}
	if len(got) != len(payloads) {
		t.Fatalf("one-shot: got %d payloads, want %d", len(got), len(payloads))
	}

	byteAtATime := frame.NewDecoder()
	var gotIncremental [][]byte
	for _, b := range stream {
		chunk, err := byteAtATime.Feed([]byte{b})
		if err != nil {
			t.Fatalf("incremental feed: %v", err)
		}
		gotIncremental = append(gotIncremental, chunk...)
	}

	if len(gotIncremental) != len(payloads) {
		t.Fatalf("incremental: got %d payloads, want %d", len(gotIncremental), len(payloads))
	}

	for i := range payloads {
		if !bytes.Equal(got[i], payloads[i]) {
			t.Errorf("one-shot payload %d = %q, want %q", i, got[i], payloads[i])
		}
		if !bytes.Equal(gotIncremental[i], payloads[i]) {
			t.Errorf("incremental payload %d = %q, want %q", i, gotIncremental[i], payloads[i])
		}
	}
}

func TestFeedRejectsOversizedLength(t *testing.T) {
	d := frame.NewDecoder()
	var lenBuf [4]byte
	lenBuf[0] = 0xFF // well above MaxPayloadLen
	if _, err := d.Feed(lenBuf[:]); err == nil {
		t.Fatal("expected framing error for oversized length prefix")
	}
}

func TestFeedBuffersPartialFrame(t *testing.T) {
	d := frame.NewDecoder()
	full := frame.Encode([]byte("partial"))

	got, err := d.Feed(full[:3])
	if err != nil {
		t.Fatalf("feed partial: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no complete payloads yet, got %d", len(got))
	}
	if d.AtMessageBoundary() {
		t.Fatal("decoder should not report a clean boundary mid-frame")
	}

	got, err = d.Feed(full[3:])
	if err != nil {
		t.Fatalf("feed remainder: %v", err)
	}
	if len(got) != 1 || string(got[0]) != "partial" {
		t.Fatalf("got %v, want one payload %q", got, "partial")
	}
	if !d.AtMessageBoundary() {
		t.Fatal("decoder should be at a clean boundary after a complete frame")
	}
}
