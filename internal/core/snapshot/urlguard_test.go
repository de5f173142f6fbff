package snapshot

import "testing"

func TestValidateTargetURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"public https", "https://example.com/page", false},
		{"public http", "http://example.com", false},
		{"public ip literal", "https://93.184.216.34/page", false},
		{"file scheme", "file:///etc/passwd", true},
		{"ftp scheme", "ftp://example.com/x", true},
		{"missing host", "https://", true},
		{"localhost", "http://localhost:8082/health", true},
		{"localhost subdomain", "http://app.localhost/x", true},
		{"cloud metadata hostname", "http://metadata.google.internal/computeMetadata/v1/", true},
		{"loopback v4", "http://127.0.0.1/x", true},
		{"loopback v4 alt", "http://127.8.8.8/x", true},
		{"loopback v6", "http://[::1]/x", true},
		{"private 10", "http://10.0.0.5/x", true},
		{"private 172", "http://172.16.0.1/x", true},
		{"private 192", "http://192.168.1.1/x", true},
		{"link local", "http://169.254.169.254/latest/meta-data/", true},
		{"unspecified", "http://0.0.0.0/x", true},
		{"hostname containing digits", "https://10best.example.com/x", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTargetURL(tt.url)
			if tt.wantErr && err == nil {
				t.Errorf("ValidateTargetURL(%q) = nil, want error", tt.url)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateTargetURL(%q) = %v, want nil", tt.url, err)
			}
		})
	}
}
