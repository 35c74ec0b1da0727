// Package labels holds the external label vocabulary predictions are looked
// up against: one name per line, 1001 entries for ImageNet with the
// background entry at index 0.
package labels

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

const Background = "background"

type Vocabulary struct {
	names []string
}

// Load reads a vocabulary file, one label per line. Blank lines are skipped.
func Load(path string) (*Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open labels file: %w", err)
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read labels file: %w", err)
	}
	return &Vocabulary{names: names}, nil
}

// Name returns the label for a class index. A nil vocabulary or an index
// outside the loaded range falls back to a numeric placeholder so display
// never fails on a missing labels file.
func (v *Vocabulary) Name(index int) string {
	if v == nil || index < 0 || index >= len(v.names) {
		return fmt.Sprintf("class %d", index)
	}
	return v.names[index]
}

func (v *Vocabulary) Len() int {
	if v == nil {
		return 0
	}
	return len(v.names)
}
