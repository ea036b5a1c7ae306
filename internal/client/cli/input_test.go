package cli

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
)

func TestGetSimpleText(t *testing.T) {
	out := &bytes.Buffer{}
	r := bufio.NewReader(strings.NewReader("  hello world  \n"))

	got, err := GetSimpleText(r, "Say something", out)
	if err != nil {
		t.Fatalf("GetSimpleText err: %v", err)
	}
	if got != "hello world" {
		t.Fatalf("want trimmed input, got %q", got)
	}
	if !strings.Contains(out.String(), "Say something") {
		t.Fatalf("prompt not printed: %q", out.String())
	}
}

func TestGetSimpleText_PartialLineOnEOF(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("no newline"))

	got, err := GetSimpleText(r, "p", &bytes.Buffer{})
	if err != nil {
		t.Fatalf("GetSimpleText err: %v", err)
	}
	if got != "no newline" {
		t.Fatalf("partial line lost: %q", got)
	}
}

func TestGetOptionalText(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("\nvalue\n"))

	_, ok, err := GetOptionalText(r, "p", &bytes.Buffer{})
	if err != nil || ok {
		t.Fatalf("empty answer must report ok=false, got ok=%v err=%v", ok, err)
	}

	got, ok, err := GetOptionalText(r, "p", &bytes.Buffer{})
	if err != nil || !ok || got != "value" {
		t.Fatalf("want (value, true), got (%q, %v, %v)", got, ok, err)
	}
}

func TestGetPassword_UsesSeam(t *testing.T) {
	orig := readPassword
	readPassword = func(int) ([]byte, error) { return []byte("s3cret"), nil }
	defer func() { readPassword = orig }()

	out := &bytes.Buffer{}
	got, err := GetPassword("Enter password", out)
	if err != nil {
		t.Fatalf("GetPassword err: %v", err)
	}
	if got != "s3cret" {
		t.Fatalf("password mismatch: %q", got)
	}
	if !strings.Contains(out.String(), "Enter password: ") {
		t.Fatalf("prompt not printed: %q", out.String())
	}
}
