package storage

import (
	"net/url"
	"testing"
)

func TestRewriteHost(t *testing.T) {
	presigned, _ := url.Parse("http://minio:9000/transcripts/transcripts/abc.txt?X-Amz-Signature=sig")

	tests := []struct {
		name      string
		publicURL string
		want      string
	}{
		{"no public url", "", "http://minio:9000/transcripts/transcripts/abc.txt?X-Amz-Signature=sig"},
		{"public host", "https://files.example.com", "https://files.example.com/transcripts/transcripts/abc.txt?X-Amz-Signature=sig"},
		{"public host with prefix", "https://example.com/s3/", "https://example.com/s3/transcripts/transcripts/abc.txt?X-Amz-Signature=sig"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rewriteHost(presigned, tt.publicURL)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}
