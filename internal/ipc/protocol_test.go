package ipc

import (
	"strings"
	"testing"
)

func TestParseRequest(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    CommandType
		wantErr string
	}{
		{"status", `{"command":"GET_STATUS"}`, CommandGetStatus, ""},
		{"with payload", `{"command":"RESYNC","payload":{}}`, CommandResync, ""},
		{"garbage", `not json`, "", "failed to parse request"},
		{"no command", `{}`, "", "missing command"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseRequest([]byte(tt.line))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("ParseRequest() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRequest() error: %v", err)
			}
			if req.Command != tt.want {
				t.Fatalf("Command = %q, want %q", req.Command, tt.want)
			}
		})
	}
}

func TestNewOKResponse(t *testing.T) {
	resp, err := NewOKResponse(nil)
	if err != nil || resp.Status != StatusOK || resp.Data != nil {
		t.Fatalf("NewOKResponse(nil) = %+v, %v", resp, err)
	}

	resp, err = NewOKResponse(ResyncData{Windows: 3})
	if err != nil {
		t.Fatalf("NewOKResponse() error: %v", err)
	}
	if string(resp.Data) != `{"windows":3}` {
		t.Fatalf("Data = %s", resp.Data)
	}
}
