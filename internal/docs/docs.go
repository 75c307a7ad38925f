package docs

import (
	"embed"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
)

//go:embed content/*.md
var contentFS embed.FS

func Topics() []string {
	entries, err := fs.Glob(contentFS, "content/*.md")
	if err != nil {
		return []string{}
	}
	var topics []string
	for _, path := range entries {
		base := filepath.Base(path)
		topic := strings.TrimSuffix(base, filepath.Ext(base))
		if topic != "" {
			topics = append(topics, topic)
		}
	}
	sort.Strings(topics)
	return topics
}

func Get(topic string) (string, bool) {
	topic = strings.ToLower(strings.TrimSpace(topic))
	if topic == "" {
		return "", false
	}
	b, err := contentFS.ReadFile("content/" + topic + ".md")
	if err != nil {
		return "", false
	}
	return string(b), true
}

// Render formats markdown for a terminal. style is a glamour standard style
// ("dark", "light", "notty", ...). Auto style is avoided since it can block on
// terminal queries.
func Render(md string, width int, style string) (string, error) {
	if width < 20 {
		width = 20
	}
	if style == "" {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	out, err := r.Render(md)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n") + "\n", nil
}
