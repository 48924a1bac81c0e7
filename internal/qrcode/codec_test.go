package qrcode

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"qrattend/internal/model"
)

var alice = model.Student{
	ID:         "student-001",
	Name:       "Alice Johnson",
	RollNumber: "CS001",
	Email:      "alice.johnson@university.edu",
	Course:     "Computer Science",
}

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewCodec(Options{})
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	return c
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := newTestCodec(t)
	img, err := c.Encode(alice)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.HasPrefix(img, []byte("\x89PNG")) {
		t.Fatal("encode did not produce a PNG")
	}

	text, err := c.Decode(img)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	p, ok := ParsePayload(text)
	if !ok {
		t.Fatalf("decoded text is not a payload: %q", text)
	}
	if p != PayloadFor(alice) {
		t.Fatalf("payload = %+v, want %+v", p, PayloadFor(alice))
	}
	if strings.Contains(text, alice.Email) {
		t.Error("payload should not carry the email address")
	}
}

func TestEncodeTextRoundTrip(t *testing.T) {
	c := newTestCodec(t)
	img, err := c.EncodeText("CS001")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	text, err := c.Decode(img)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if text != "CS001" {
		t.Fatalf("text = %q", text)
	}
}

func TestDecodeBlankFrame(t *testing.T) {
	blank := image.NewGray(image.Rect(0, 0, 120, 120))
	for i := range blank.Pix {
		blank.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, blank); err != nil {
		t.Fatal(err)
	}
	_, err := newTestCodec(t).Decode(buf.Bytes())
	if !errors.Is(err, ErrNoCode) {
		t.Fatalf("err = %v, want ErrNoCode", err)
	}
}

func TestDecodeGarbage(t *testing.T) {
	_, err := newTestCodec(t).Decode([]byte("not an image"))
	if !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("err = %v, want ErrInvalidImage", err)
	}
}

func TestParsePayload(t *testing.T) {
	tests := []struct {
		name string
		text string
		ok   bool
	}{
		{"full", `{"id":"student-001","name":"Alice","rollNumber":"CS001","course":"CS"}`, true},
		{"roll only", `{"rollNumber":"CS001"}`, true},
		{"padded", "  {\"id\":\"student-001\"}\n", true},
		{"bare id", "student-001", false},
		{"json without identity", `{"name":"Alice"}`, false},
		{"json array", `["student-001"]`, false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := ParsePayload(tt.text); ok != tt.ok {
				t.Errorf("ParsePayload(%q) ok = %v, want %v", tt.text, ok, tt.ok)
			}
		})
	}
}

func TestFileName(t *testing.T) {
	st := model.Student{Name: "Mary  Ann Lee", RollNumber: "EE010"}
	if got, want := FileName(st), "EE010_Mary_Ann_Lee_QR.png"; got != want {
		t.Errorf("FileName = %q, want %q", got, want)
	}
}

func TestNewCodecRejectsBadColour(t *testing.T) {
	if _, err := NewCodec(Options{Foreground: "blue"}); err == nil {
		t.Fatal("expected error for non-hex colour")
	}
	c, err := NewCodec(Options{Foreground: "#000000", Background: "ffffff"})
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	if c.fg != (color.RGBA{A: 0xff}) {
		t.Errorf("fg = %v", c.fg)
	}
}

func TestRenderSheet(t *testing.T) {
	c := newTestCodec(t)
	img, err := c.Encode(alice)
	if err != nil {
		t.Fatal(err)
	}
	evil := model.Student{Name: "<script>x</script>", RollNumber: "X1", Course: "Hacking"}

	var buf bytes.Buffer
	if err := RenderSheet(&buf, []SheetEntry{{Student: alice, PNG: img}, {Student: evil, PNG: img}}); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Alice Johnson", "CS001", "Computer Science", "data:image/png;base64,", "&lt;script&gt;"} {
		if !strings.Contains(out, want) {
			t.Errorf("sheet missing %q", want)
		}
	}
	if strings.Contains(out, "<script>x</script>") {
		t.Error("sheet does not escape student names")
	}
	if n := strings.Count(out, `class="qr-card"`); n != 2 {
		t.Errorf("cards = %d, want 2", n)
	}
}
