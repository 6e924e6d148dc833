package render

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/golang/freetype/truetype"
)

// Font is a TrueType font file that parsed successfully.
type Font struct {
	Path string
	Name string
	Data []byte
}

// ResolveFont returns the first candidate that exists and parses as a
// TrueType font. It returns nil when none qualifies; callers then use a
// built-in core font.
func ResolveFont(candidates []string, logger *slog.Logger) *Font {
	if logger == nil {
		logger = slog.Default()
	}
	for _, path := range candidates {
		font, err := loadFont(path)
		if err != nil {
			logger.Debug("font candidate skipped", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		logger.Info("document font resolved", slog.String("path", path), slog.String("name", font.Name))
		return font
	}
	logger.Warn("no font candidate usable, falling back to core font", slog.String("font", coreFont))
	return nil
}

func loadFont(path string) (*Font, error) {
	if path == "" {
		return nil, fmt.Errorf("empty font path")
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}
	parsed, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	return &Font{
		Path: path,
		Name: parsed.Name(truetype.NameIDFontFullName),
		Data: data,
	}, nil
}
