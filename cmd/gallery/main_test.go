package main

import (
	"testing"

	"github.com/spf13/cobra"

	"gallery-go/internal/gallery"
)

func TestOperationName(t *testing.T) {
	tests := []struct {
		verb string
		kind gallery.Kind
		want string
	}{
		{verb: "Add", kind: gallery.KindVideo, want: "AddVideo"},
		{verb: "Clear", kind: gallery.KindImage, want: "ClearImage"},
	}
	for _, tt := range tests {
		if got := operationName(tt.verb, tt.kind); got != tt.want {
			t.Errorf("operationName(%q, %q) = %q, want %q", tt.verb, tt.kind, got, tt.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{n: 0, want: "0 B"},
		{n: 1023, want: "1023 B"},
		{n: 1024, want: "1.0 KiB"},
		{n: 1536, want: "1.5 KiB"},
		{n: 100 * 1024 * 1024, want: "100.0 MiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{in: "short", n: 10, want: "short"},
		{in: "a cat\non a mat", n: 20, want: "a cat on a mat"},
		{in: "abcdefghij", n: 5, want: "abcd…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestParamsFromFlags(t *testing.T) {
	find := func(t *testing.T, kind gallery.Kind) *cobra.Command {
		t.Helper()
		cmd, _, err := newKindCmd(kind).Find([]string{"add"})
		if err != nil {
			t.Fatalf("finding add command: %v", err)
		}
		return cmd
	}

	t.Run("video flags", func(t *testing.T) {
		cmd := find(t, gallery.KindVideo)
		if err := cmd.ParseFlags([]string{"--model", "sora-2", "--duration", "8"}); err != nil {
			t.Fatalf("ParseFlags() error = %v", err)
		}
		p := paramsFromFlags(cmd, gallery.KindVideo)
		if p.Model.OrElse("") != "sora-2" || p.Duration.OrElse(0) != 8 {
			t.Errorf("params = %+v", p)
		}
		if p.Resolution.IsSet() || p.Quality.IsSet() {
			t.Errorf("unset flags should stay absent: %+v", p)
		}
	})

	t.Run("image flags", func(t *testing.T) {
		cmd := find(t, gallery.KindImage)
		if err := cmd.ParseFlags([]string{"--quality", "high", "--resolution", "1024x1024"}); err != nil {
			t.Fatalf("ParseFlags() error = %v", err)
		}
		p := paramsFromFlags(cmd, gallery.KindImage)
		if p.Quality.OrElse("") != "high" || p.Resolution.OrElse("") != "1024x1024" {
			t.Errorf("params = %+v", p)
		}
		if p.Model.IsSet() || p.Duration.IsSet() {
			t.Errorf("unset flags should stay absent: %+v", p)
		}
	})
}
