package proxy

import (
	"errors"
	"testing"
)

func TestExtractPodID(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{
			name: "simple pod path",
			path: "/alpha/state/latest",
			want: "alpha",
		},
		{
			name: "pod id only",
			path: "/alpha",
			want: "alpha",
		},
		{
			name: "pod id with trailing slash",
			path: "/alpha/",
			want: "alpha",
		},
		{
			name: "leading double slash",
			path: "//alpha/state",
			want: "alpha",
		},
		{
			name: "many empty segments",
			path: "///alpha",
			want: "alpha",
		},
		{
			name: "pod id is an opaque token",
			path: "/saturn-7_a.b/x",
			want: "saturn-7_a.b",
		},
		{
			name: "uuid pod id",
			path: "/550e8400-e29b-41d4-a716-446655440000/ws",
			want: "550e8400-e29b-41d4-a716-446655440000",
		},
		{
			name:    "root path",
			path:    "/",
			wantErr: true,
		},
		{
			name:    "empty path",
			path:    "",
			wantErr: true,
		},
		{
			name:    "only slashes",
			path:    "///",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractPodID(tt.path)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("ExtractPodID(%q) expected error, got %q", tt.path, got)
				}
				if !errors.Is(err, ErrNoPodID) {
					t.Errorf("Expected ErrNoPodID, got %v", err)
				}

				var npErr *NoPodIDError
				if !errors.As(err, &npErr) {
					t.Fatalf("Expected *NoPodIDError, got %T", err)
				}
				if npErr.Path != tt.path {
					t.Errorf("NoPodIDError path = %q, want %q", npErr.Path, tt.path)
				}
				return
			}

			if err != nil {
				t.Fatalf("ExtractPodID(%q) returned error: %v", tt.path, err)
			}
			if got != tt.want {
				t.Errorf("ExtractPodID(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func BenchmarkExtractPodID(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = ExtractPodID("/alpha/state/latest")
	}
}
