package textextract

import (
	"context"
	"fmt"
	"regexp"
)

var reBoxNoise = regexp.MustCompile(`[|¦]{2,}`)

// tesseractOCR runs the local engine against an image file.
func (e *Extractor) tesseractOCR(ctx context.Context, path, langs string) (string, error) {
	args := []string{path, "stdout", "-l", langs}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}

	// tesseract <file> stdout -l <lang>
	out, _, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}

	// minor cleanup of obvious line noise
	return reBoxNoise.ReplaceAllString(string(out), ""), nil
}
