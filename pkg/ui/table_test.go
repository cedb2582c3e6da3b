package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestTableRender(t *testing.T) {
	table := NewTable([]TableColumn{
		{Header: "ID", Align: AlignRight},
		{Header: "NAME"},
		{Header: "PRICE", Align: AlignRight},
	})
	table.AddRow("1", "Old couch", "199.99")
	table.AddRow("12", "Elegant bookcase", "499.99")

	lines := strings.Split(strings.TrimRight(table.Render(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("Expected header, separator and 2 rows, got %d lines", len(lines))
	}

	width := lipgloss.Width(lines[0])
	for i, line := range lines {
		if lipgloss.Width(line) != width {
			t.Errorf("Line %d has width %d, expected %d", i, lipgloss.Width(line), width)
		}
	}
	if !strings.Contains(lines[2], " 1  Old couch") {
		t.Errorf("Expected right-aligned id, got %q", lines[2])
	}
}

func TestPad(t *testing.T) {
	tests := []struct {
		in       string
		width    int
		align    Align
		expected string
	}{
		{in: "ab", width: 4, align: AlignLeft, expected: "ab  "},
		{in: "ab", width: 4, align: AlignRight, expected: "  ab"},
		{in: "abcdef", width: 4, align: AlignLeft, expected: "abcdef"},
		{in: "─", width: 2, align: AlignLeft, expected: "─ "},
	}
	for _, tt := range tests {
		if got := pad(tt.in, tt.width, tt.align); got != tt.expected {
			t.Errorf("pad(%q, %d) = %q, expected %q", tt.in, tt.width, got, tt.expected)
		}
	}
}

func TestEmptyTable(t *testing.T) {
	if out := NewTable(nil).Render(); out != "" {
		t.Errorf("Expected empty render, got %q", out)
	}
}
