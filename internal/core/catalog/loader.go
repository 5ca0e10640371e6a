package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"code.sajari.com/docconv"
	"go.uber.org/zap"

	"github.com/markdave123-py/alemana-chat/internal/core"
)

// Source names where the catalog lives. Path wins over Key when both are set.
type Source struct {
	Path   string
	Bucket string
	Key    string
}

func (s Source) empty() bool {
	return s.Path == "" && s.Key == ""
}

// Loader reads a catalog from disk or object storage and flattens it to text.
type Loader struct {
	objects   core.ObjectClient
	extractor core.DocumentExtractor
	log       *zap.Logger
}

// NewLoader builds a Loader. objects may be nil when only local files are used.
func NewLoader(objects core.ObjectClient, extractor core.DocumentExtractor, logger *zap.Logger) *Loader {
	return &Loader{objects: objects, extractor: extractor, log: logger}
}

// Load returns "" without error when no source is configured.
func (l *Loader) Load(ctx context.Context, src Source) (string, error) {
	if src.empty() {
		return "", nil
	}

	name, data, err := l.read(ctx, src)
	if err != nil {
		return "", err
	}

	var text string
	switch ext := strings.ToLower(path.Ext(name)); ext {
	case ".txt", ".md", ".markdown", "":
		text = string(data)
	default:
		text, err = l.extractor.ExtractText(ctx, bytes.NewReader(data), docconv.MimeTypeByExtension(name))
		if err != nil {
			return "", fmt.Errorf("extract catalog %s: %w", name, err)
		}
	}

	text = normalize(text)
	l.log.Info("catalog loaded", zap.String("source", name), zap.Int("chars", len(text)))
	return text, nil
}

func (l *Loader) read(ctx context.Context, src Source) (string, []byte, error) {
	if src.Path != "" {
		data, err := os.ReadFile(src.Path)
		if err != nil {
			return "", nil, fmt.Errorf("read catalog: %w", err)
		}
		return src.Path, data, nil
	}

	if l.objects == nil {
		return "", nil, fmt.Errorf("catalog key %q set but no object storage configured", src.Key)
	}
	rc, err := l.objects.GetObjectReader(ctx, src.Bucket, src.Key)
	if err != nil {
		return "", nil, fmt.Errorf("fetch catalog: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", nil, fmt.Errorf("read catalog object: %w", err)
	}
	return src.Key, data, nil
}

// normalize trims every line and drops the blank ones.
func normalize(text string) string {
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	return b.String()
}
