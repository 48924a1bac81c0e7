package qrcode

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"regexp"
	"strconv"
	"strings"

	"github.com/makiuchi-d/gozxing"
	zxqrcode "github.com/makiuchi-d/gozxing/qrcode"
	goqrcode "github.com/skip2/go-qrcode"

	"qrattend/internal/model"
)

var (
	// ErrNoCode means the image holds no readable QR code. During continuous
	// scanning this is the normal result for most frames.
	ErrNoCode = errors.New("no qr code found")
	// ErrInvalidImage means the bytes are not a decodable image.
	ErrInvalidImage = errors.New("invalid image")
)

// Payload is the identity record embedded in each student's code.
type Payload struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	RollNumber string `json:"rollNumber"`
	Course     string `json:"course"`
}

// PayloadFor builds the payload for a student.
func PayloadFor(st model.Student) Payload {
	return Payload{ID: st.ID, Name: st.Name, RollNumber: st.RollNumber, Course: st.Course}
}

// ParsePayload interprets scanned text as a structured identity record. It
// reports false when the text is not a JSON object naming a student.
func ParsePayload(text string) (Payload, bool) {
	var p Payload
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &p); err != nil {
		return Payload{}, false
	}
	if p.ID == "" && p.RollNumber == "" {
		return Payload{}, false
	}
	return p, true
}

// Options controls the rendered image.
type Options struct {
	Size       int
	Foreground string
	Background string
}

// Codec renders and reads student QR codes.
type Codec struct {
	size int
	fg   color.Color
	bg   color.Color
}

// NewCodec validates opts; zero values fall back to a 256px dark blue code on white.
func NewCodec(opts Options) (*Codec, error) {
	if opts.Size <= 0 {
		opts.Size = 256
	}
	if opts.Foreground == "" {
		opts.Foreground = "#1e40af"
	}
	if opts.Background == "" {
		opts.Background = "#ffffff"
	}
	fg, err := parseHexColor(opts.Foreground)
	if err != nil {
		return nil, fmt.Errorf("foreground: %w", err)
	}
	bg, err := parseHexColor(opts.Background)
	if err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}
	return &Codec{size: opts.Size, fg: fg, bg: bg}, nil
}

// Encode serializes the student's identity fields and renders them as a PNG.
func (c *Codec) Encode(st model.Student) ([]byte, error) {
	data, err := json.Marshal(PayloadFor(st))
	if err != nil {
		return nil, err
	}
	return c.EncodeText(string(data))
}

// EncodeText renders arbitrary text, e.g. a bare roll number.
func (c *Codec) EncodeText(text string) ([]byte, error) {
	q, err := goqrcode.New(text, goqrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("qr encode: %w", err)
	}
	q.ForegroundColor = c.fg
	q.BackgroundColor = c.bg
	png, err := q.PNG(c.size)
	if err != nil {
		return nil, fmt.Errorf("qr render: %w", err)
	}
	return png, nil
}

// Decode returns the raw text of the code in a PNG or JPEG image.
// Interpreting that text is left to the caller.
func (c *Codec) Decode(data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return DecodeImage(img)
}

// DecodeImage reads the code from an already decoded frame.
func DecodeImage(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	res, err := zxqrcode.NewQRCodeReader().Decode(bmp, hints)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoCode, err)
	}
	return res.GetText(), nil
}

var whitespace = regexp.MustCompile(`\s+`)

// FileName is the download name for a student's code.
func FileName(st model.Student) string {
	return st.RollNumber + "_" + whitespace.ReplaceAllString(st.Name, "_") + "_QR.png"
}

func parseHexColor(s string) (color.Color, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return nil, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid colour %q", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
