package lsp

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestJSONRPCFramingMultipleMessages(t *testing.T) {
	var buf bytes.Buffer
	msg1 := []byte(`{"jsonrpc":"2.0","method":"one"}`)
	msg2 := []byte(`{"jsonrpc":"2.0","method":"twö"}`)

	if err := writeMessage(&buf, msg1); err != nil {
		t.Fatalf("write message 1: %v", err)
	}
	if err := writeMessage(&buf, msg2); err != nil {
		t.Fatalf("write message 2: %v", err)
	}

	reader := bufio.NewReader(bytes.NewReader(buf.Bytes()))
	got1, err := readMessage(reader)
	if err != nil {
		t.Fatalf("read message 1: %v", err)
	}
	got2, err := readMessage(reader)
	if err != nil {
		t.Fatalf("read message 2: %v", err)
	}
	if string(got1) != string(msg1) || string(got2) != string(msg2) {
		t.Fatalf("unexpected messages: %s / %s", got1, got2)
	}
}

func TestJSONRPCIgnoresOtherHeaders(t *testing.T) {
	raw := "Content-Type: application/vscode-jsonrpc; charset=utf-8\r\ncontent-length: 2\r\n\r\n{}"
	got, err := readMessage(bufio.NewReader(strings.NewReader(raw)))
	if err != nil || string(got) != "{}" {
		t.Fatalf("got %q, %v", got, err)
	}
}

func TestJSONRPCRejectsBadHeaders(t *testing.T) {
	_, err := readMessage(bufio.NewReader(strings.NewReader("X: y\r\n\r\n{}")))
	if !errors.Is(err, errMissingLength) {
		t.Fatalf("expected missing length error, got %v", err)
	}
	if _, err := readMessage(bufio.NewReader(strings.NewReader("Content-Length: -4\r\n\r\n"))); err == nil {
		t.Fatal("negative length accepted")
	}
}
