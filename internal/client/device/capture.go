// Package device is the client's access to media sources: recorded audio
// and picked files.
package device

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/duet/internal/filex"
)

// ErrCancelled is returned when the user declined to provide media.
var ErrCancelled = errors.New("capture cancelled")

// MaxMediaSize bounds a single picked file or recording.
const MaxMediaSize = 20 << 20

// audio formats recorders produce; the builtin MIME table only knows
// web formats.
var extraTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".webm": "audio/webm",
	".heic": "image/heic",
}

func init() {
	for ext, typ := range extraTypes {
		_ = mime.AddExtensionType(ext, typ)
	}
}

// Media is captured content plus the file name it came from.
type Media struct {
	Name string
	Data []byte
}

// Ext returns the lowercased extension of the media name without the dot.
func (m Media) Ext() string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(m.Name), "."))
}

// Capture provides media to screen controllers.
type Capture interface {
	// CaptureAudio returns a voice recording.
	CaptureAudio(ctx context.Context) (Media, error)
	// PickFile returns a file whose MIME type matches accept, e.g. "image/*".
	// An empty accept allows any file.
	PickFile(ctx context.Context, accept string) (Media, error)
}

// AskFunc prompts the user and returns the typed answer.
type AskFunc func(prompt string) (string, error)

// FileCapture asks for paths of existing files. Terminal clients have no
// recorder, so a recording is an audio file on disk.
type FileCapture struct {
	Ask   AskFunc
	Limit int64
}

var _ Capture = (*FileCapture)(nil)

func NewFileCapture(ask AskFunc) *FileCapture {
	return &FileCapture{Ask: ask, Limit: MaxMediaSize}
}

func (c *FileCapture) CaptureAudio(ctx context.Context) (Media, error) {
	return c.pick(ctx, "Path to a voice recording (empty to skip)", "audio/*")
}

func (c *FileCapture) PickFile(ctx context.Context, accept string) (Media, error) {
	return c.pick(ctx, "Path to file (empty to cancel)", accept)
}

func (c *FileCapture) pick(ctx context.Context, prompt, accept string) (Media, error) {
	if err := ctx.Err(); err != nil {
		return Media{}, err
	}

	answer, err := c.Ask(prompt)
	if err != nil {
		return Media{}, err
	}
	path, err := filex.ExpandPath(answer)
	if err != nil {
		return Media{}, err
	}
	if path == "" {
		return Media{}, ErrCancelled
	}

	if !Accepts(accept, path) {
		return Media{}, fmt.Errorf("%s: not a %s file", filepath.Base(path), accept)
	}

	limit := c.Limit
	if limit <= 0 {
		limit = MaxMediaSize
	}
	data, err := filex.ReadLimited(path, limit)
	if err != nil {
		return Media{}, err
	}
	return Media{Name: filepath.Base(path), Data: data}, nil
}

// Accepts reports whether the file name matches an accept pattern such
// as "image/*" or "audio/mpeg", judged by its extension.
func Accepts(accept, name string) bool {
	if accept == "" || accept == "*/*" {
		return true
	}
	typ := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if typ == "" {
		return false
	}
	if i := strings.IndexByte(typ, ';'); i >= 0 {
		typ = typ[:i]
	}
	if prefix, ok := strings.CutSuffix(accept, "/*"); ok {
		return strings.HasPrefix(typ, prefix+"/")
	}
	return typ == accept
}
