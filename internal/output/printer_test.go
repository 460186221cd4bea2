package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrinterLines(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out, nil)

	p.Line("plain")
	p.Linef("value: %d", 7)
	assert.Contains(t, out.String(), "plain\n")
	assert.Contains(t, out.String(), "value: 7\n")
}

func TestConfirmAnswers(t *testing.T) {
	tests := []struct {
		answer string
		want   bool
	}{
		{"y\n", true},
		{"yes\n", true},
		{"Y\n", true},
		{"n\n", false},
		{"no\n", false},
		{"\n", false},
		{"whatever\n", false},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.answer), func(t *testing.T) {
			var out bytes.Buffer
			p := NewPrinter(&out, strings.NewReader(tt.answer))
			assert.Equal(t, tt.want, p.Confirm("Proceed?"))
			assert.Contains(t, out.String(), "Proceed? [y/n]: ")
		})
	}
}

func TestConfirmWithoutInputFailsClosed(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out, nil)
	assert.False(t, p.Confirm("Proceed?"))
}

func TestAskTrims(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out, strings.NewReader("  answer  \n"))
	assert.Equal(t, "answer", p.Ask("Name: "))
}

func TestAskWithoutNewlineAtEOF(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out, strings.NewReader("final"))
	assert.Equal(t, "final", p.Ask("Name: "))
}
