// Package dictation pastes recognized text into the focused
// application. The clipboard is the transport: save what the user had,
// put the transcript there, send the paste chord, then put the original
// content back if nobody else touched the clipboard in between.
package dictation

import (
	"fmt"
	"runtime"
	"time"

	"github.com/go-vgo/robotgo"
)

// Config holds paster configuration
type Config struct {
	RestoreDelay  time.Duration // wait before restoring the clipboard
	SplitSize     int           // maximum characters per paste
	SplitInterval time.Duration // pause between chunk pastes
}

// DefaultConfig returns the default paster configuration
func DefaultConfig() Config {
	return Config{
		RestoreDelay:  500 * time.Millisecond,
		SplitSize:     500,
		SplitInterval: 50 * time.Millisecond,
	}
}

// Paster types transcripts into whatever application has focus.
type Paster struct {
	restoreDelay  time.Duration
	splitSize     int
	splitInterval time.Duration
}

// New creates a paster. Non-positive sizes and intervals fall back to
// the defaults.
func New(config Config) *Paster {
	def := DefaultConfig()
	if config.SplitSize <= 0 {
		config.SplitSize = def.SplitSize
	}
	if config.RestoreDelay <= 0 {
		config.RestoreDelay = def.RestoreDelay
	}
	if config.SplitInterval <= 0 {
		config.SplitInterval = def.SplitInterval
	}
	return &Paster{
		restoreDelay:  config.RestoreDelay,
		splitSize:     config.SplitSize,
		splitInterval: config.SplitInterval,
	}
}

// Paste puts text into the focused application. Long texts go in
// chunks so target apps with small input buffers keep up.
func (p *Paster) Paste(text string) error {
	if text == "" {
		return nil
	}

	chunks := p.splitText(text)
	for i, chunk := range chunks {
		if err := p.pasteChunk(chunk); err != nil {
			return fmt.Errorf("failed to paste chunk %d: %w", i, err)
		}
		if i < len(chunks)-1 {
			time.Sleep(p.splitInterval)
		}
	}
	return nil
}

// pasteChunk runs one clipboard round trip for a single chunk.
func (p *Paster) pasteChunk(chunk string) error {
	saved, err := robotgo.ReadAll()
	if err != nil {
		// An unreadable clipboard just means there is nothing to
		// put back afterwards.
		saved = ""
	}

	if err := robotgo.WriteAll(chunk); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}

	// The clipboard needs a moment to settle before the paste chord.
	time.Sleep(10 * time.Millisecond)

	sendPasteChord()

	time.Sleep(p.restoreDelay)

	// Restore only while the clipboard still holds our chunk. Anything
	// else means the user copied something during the paste.
	current, err := robotgo.ReadAll()
	if err == nil && current == chunk {
		robotgo.WriteAll(saved)
	}

	return nil
}

// sendPasteChord taps the platform paste shortcut.
func sendPasteChord() {
	if runtime.GOOS == "darwin" {
		robotgo.KeyTap("v", "cmd")
		return
	}
	robotgo.KeyTap("v", "ctrl")
}

// boundaryLookback is how far back from a hard cut splitText searches
// for a sentence boundary.
const boundaryLookback = 50

// splitText cuts text into chunks of at most splitSize runes,
// preferring a sentence boundary near the cut over a mid-word split.
func (p *Paster) splitText(text string) []string {
	runes := []rune(text)
	if len(runes) <= p.splitSize {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + p.splitSize
		if end > len(runes) {
			end = len(runes)
		}

		if end < len(runes) {
			searchStart := end - boundaryLookback
			if searchStart < start {
				searchStart = start
			}
			for i := end - 1; i >= searchStart; i-- {
				if isBoundary(runes[i]) {
					end = i + 1
					break
				}
			}
		}

		chunks = append(chunks, string(runes[start:end]))
		start = end
	}

	return chunks
}

// isBoundary reports sentence-ish break characters. The danda ends
// Hindi sentences the way the full stop ends English ones.
func isBoundary(ch rune) bool {
	switch ch {
	case '।', '॥', '.', ',', '?', '!', '\n':
		return true
	}
	return false
}
