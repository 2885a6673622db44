package conversation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/m3rciful/superbot/internal/aiimage"
	"github.com/m3rciful/superbot/internal/speech"
	"github.com/m3rciful/superbot/internal/upstream"
)

type sent struct {
	kind string
	text string
	data []byte
}

type fakeConv struct {
	id       int64
	text     string
	hasImage bool
	name     string
	photo    []byte
	dlErr    error

	mu      sync.Mutex
	replies []sent
}

func (f *fakeConv) ID() int64           { return f.id }
func (f *fakeConv) Text() string        { return f.text }
func (f *fakeConv) HasImage() bool      { return f.hasImage }
func (f *fakeConv) DisplayName() string { return f.name }

func (f *fakeConv) record(s sent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, s)
	return nil
}

func (f *fakeConv) Reply(_ context.Context, text string) error {
	return f.record(sent{kind: "md", text: text})
}

func (f *fakeConv) ReplyText(_ context.Context, text string) error {
	return f.record(sent{kind: "text", text: text})
}

func (f *fakeConv) ReplyImage(_ context.Context, data []byte, contentType string) error {
	return f.record(sent{kind: "image", text: contentType, data: data})
}

func (f *fakeConv) ReplySticker(_ context.Context, webp []byte) error {
	return f.record(sent{kind: "sticker", data: webp})
}

func (f *fakeConv) ReplyVoice(_ context.Context, data []byte, contentType string) error {
	return f.record(sent{kind: "voice", text: contentType, data: data})
}

func (f *fakeConv) DownloadImage(context.Context) ([]byte, error) {
	return f.photo, f.dlErr
}

func (f *fakeConv) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.replies))
	for _, r := range f.replies {
		out = append(out, r.text)
	}
	return out
}

type fakeChat struct {
	mu      sync.Mutex
	prompts []string
	answer  string
	err     error
}

func (f *fakeChat) Chat(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.answer, f.err
}

type fakeImage struct {
	prompts []string
	err     error
}

func (f *fakeImage) Generate(_ context.Context, prompt string) (aiimage.Image, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return aiimage.Image{}, f.err
	}
	return aiimage.Image{Data: []byte("png"), ContentType: "image/png"}, nil
}

type fakeWeather struct {
	cities []string
	err    error
}

func (f *fakeWeather) Lookup(_ context.Context, city string) (string, error) {
	f.cities = append(f.cities, city)
	if f.err != nil {
		return "", f.err
	}
	return "*Cuaca di " + city + " saat ini:*", nil
}

type fakeSpeech struct {
	calls [][2]string
}

func (f *fakeSpeech) Synthesize(_ context.Context, lang, text string) (speech.Audio, error) {
	f.calls = append(f.calls, [2]string{lang, text})
	return speech.Audio{Data: []byte("mp3"), ContentType: "audio/mpeg"}, nil
}

type fakeSticker struct {
	inputs [][]byte
	err    error
}

func (f *fakeSticker) Make(_ context.Context, photo []byte) ([]byte, error) {
	f.inputs = append(f.inputs, photo)
	if f.err != nil {
		return nil, f.err
	}
	return []byte("sticker"), nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var errUpstream = upstream.Fail("aichat", 503, "Error OpenRouter: overloaded", errors.New("503"))
