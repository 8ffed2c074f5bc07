package practice

import (
	"strings"

	"github.com/verte-zerg/lexiread/internal/speech"
)

// transcript accumulates committed finals plus the latest interim tail.
type transcript struct {
	finals  []string
	interim string
}

// apply folds segments in order and reports whether any was final. The
// interim segments after the event's last final join into the new tail,
// replacing the previous one.
func (t *transcript) apply(segments []speech.Segment) bool {
	sawFinal, sawInterim := false, false
	var tail []string
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if seg.Final {
			if text != "" {
				t.finals = append(t.finals, text)
			}
			t.interim = ""
			tail, sawInterim = nil, false
			sawFinal = true
			continue
		}
		sawInterim = true
		if text != "" {
			tail = append(tail, text)
		}
	}
	if sawInterim {
		t.interim = strings.Join(tail, " ")
	}
	return sawFinal
}

// live is the finals followed by the interim tail.
func (t *transcript) live() string {
	if t.interim == "" {
		return t.final()
	}
	return strings.TrimSpace(t.final() + " " + t.interim)
}

func (t *transcript) final() string {
	return strings.Join(t.finals, " ")
}

func (t *transcript) dropInterim() {
	t.interim = ""
}

func (t *transcript) reset() {
	t.finals = nil
	t.interim = ""
}
