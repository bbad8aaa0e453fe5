package sms

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSegmentCount(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		segments int
	}{
		{"empty", "", 0},
		{"short gsm", "Red Line delayed 20 min", 1},
		{"exactly 160 gsm", strings.Repeat("a", 160), 1},
		{"161 gsm spills to two", strings.Repeat("a", 161), 2},
		{"two full multipart segments", strings.Repeat("a", 306), 2},
		{"307 gsm needs three", strings.Repeat("a", 307), 3},
		{"short unicode", "Ruta desviada por obras: estación cerrada", 1},
		{"exactly 70 unicode", strings.Repeat("ü", 70), 1},
		{"71 unicode spills to two", strings.Repeat("ü", 71), 2},
		{"unicode multipart at 67", strings.Repeat("ü", 135), 3},
		{"single emoji forces unicode", strings.Repeat("a", 100) + "🚇", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.segments, SegmentCount(tt.content))
		})
	}
}
