// Package analysis talks to the remote analysis endpoint.
package analysis

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrEmptySubmission = errors.New("nothing to submit")

type Channel string

const (
	ChannelFile     Channel = "file"
	ChannelImageURL Channel = "image_url"
	ChannelText     Channel = "text"
)

type File struct {
	Name    string
	Content []byte
}

// FileFromPath reads a local file for upload.
func FileFromPath(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", path, err)
	}
	return &File{Name: filepath.Base(path), Content: data}, nil
}

// Payload carries exactly one of the three request fields.
type Payload struct {
	Channel  Channel
	Text     string
	ImageURL string
	File     *File
}

// SelectPayload picks the request channel: an attached file first, then a
// URL typed as text, then plain text.
func SelectPayload(text string, file *File) (Payload, error) {
	text = strings.TrimSpace(text)
	switch {
	case file != nil:
		return Payload{Channel: ChannelFile, File: file}, nil
	case IsURL(text):
		return Payload{Channel: ChannelImageURL, ImageURL: text}, nil
	case text != "":
		return Payload{Channel: ChannelText, Text: text}, nil
	default:
		return Payload{}, ErrEmptySubmission
	}
}

func IsURL(text string) bool {
	return strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://")
}

// Describe is the text shown for the user's turn.
func (p Payload) Describe() string {
	switch p.Channel {
	case ChannelFile:
		if p.File == nil {
			return "Uploaded file"
		}
		return "Uploaded file: " + p.File.Name
	case ChannelImageURL:
		return p.ImageURL
	default:
		return p.Text
	}
}
