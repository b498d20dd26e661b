package wire

import (
	"io"
	"net"
	"strings"
	"testing"
	"time"
)

func pipeWithData(t *testing.T, data string) (net.Conn, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	go func() {
		io.Copy(client, strings.NewReader(data))
		client.Close()
	}()
	return server, client
}

func TestReadLineCRLF(t *testing.T) {
	server, _ := pipeWithData(t, "GET /ping HTTP/1.1\r\n")
	r := NewReader(server, DefaultLimits())
	line, err := r.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	if line != "GET /ping HTTP/1.1" {
		t.Fatalf("ReadLine = %q", line)
	}
}

func TestReadLineBareLF(t *testing.T) {
	server, _ := pipeWithData(t, "GET /ping HTTP/1.1\n")
	r := NewReader(server, DefaultLimits())
	line, err := r.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	if line != "GET /ping HTTP/1.1" {
		t.Fatalf("ReadLine = %q", line)
	}
}

func TestReadLineTooLong(t *testing.T) {
	server, _ := pipeWithData(t, strings.Repeat("a", 100)+"\r\n")
	limits := DefaultLimits()
	limits.MaxLineLength = 10
	r := NewReader(server, limits)
	_, err := r.ReadLine()
	if err != ErrLineTooLong {
		t.Fatalf("ReadLine err = %v, want ErrLineTooLong", err)
	}
}

func TestReadExactBytes(t *testing.T) {
	server, _ := pipeWithData(t, "hello world")
	r := NewReader(server, DefaultLimits())
	got, err := r.Read(5)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("Read = %q", got)
	}
}

func TestReadTimeout(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	limits := DefaultLimits()
	limits.IdleTimeout = 10 * time.Millisecond
	r := NewReader(server, limits)
	_, err := r.ReadLine()
	if err != ErrTimeout {
		t.Fatalf("ReadLine err = %v, want ErrTimeout", err)
	}
}
