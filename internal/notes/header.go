package notes

import (
	"bytes"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Header holds the parsed header block of a note file.
type Header struct {
	Title   string
	Created time.Time
	Tags    []string
}

// ParseHeader separates the delimited header block (between leading ---
// fences) from the note body. Files without a header, or with one that does
// not parse, yield a nil Header and the full content as body.
func ParseHeader(data []byte) (*Header, string) {
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(headerDelim)) {
		return nil, string(data)
	}

	rest := trimmed[len(headerDelim):]
	idx := bytes.Index(rest, []byte("\n"+headerDelim))
	if idx < 0 {
		// No closing delimiter, treat everything as body.
		return nil, string(data)
	}

	block := rest[:idx]
	afterDelim := rest[idx+1+len(headerDelim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var raw struct {
		Title   string `yaml:"title"`
		Created string `yaml:"created"`
		Tags    string `yaml:"tags"`
	}
	if err := yaml.Unmarshal(block, &raw); err != nil {
		return nil, string(data)
	}

	h := &Header{Title: raw.Title}
	if t, err := time.Parse(time.RFC3339, raw.Created); err == nil {
		h.Created = t
	}
	for _, tag := range strings.Split(raw.Tags, ",") {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			h.Tags = append(h.Tags, tag)
		}
	}
	return h, body
}
