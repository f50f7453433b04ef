package task

import (
	"fmt"
	"strings"
)

// VoiceNoteLabelPrefix starts the generated text of voice-only notes.
const VoiceNoteLabelPrefix = "recording."

// NextVoiceNoteLabel returns the label for a new voice-only note: the
// prefix followed by one more than the number of voice notes in tasks
// already labeled, zero-padded to two digits.
//
// Labels are for display only and may repeat after deletions.
func NextVoiceNoteLabel(tasks []Task) string {
	count := 0
	for _, t := range tasks {
		if t.HasAudio() && strings.HasPrefix(t.Text, VoiceNoteLabelPrefix) {
			count++
		}
	}
	return fmt.Sprintf("%s%02d", VoiceNoteLabelPrefix, count+1)
}
