package call

import (
	"errors"
	"fmt"
	"testing"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"in_process", ModeInProcess, false},
		{"in-process", ModeInProcess, false},
		{"InProcess", ModeInProcess, false},
		{"http", ModeHTTP, false},
		{"HTTP", ModeHTTP, false},
		{"auto", ModeAuto, false},
		{"", ModeAuto, false},
		{"  auto  ", ModeAuto, false},
		{"grpc", "", true},
		{"local", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMode(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseMode(%q) = %q, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMode(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestModeConcrete(t *testing.T) {
	if !ModeInProcess.Concrete() {
		t.Error("ModeInProcess should be concrete")
	}
	if !ModeHTTP.Concrete() {
		t.Error("ModeHTTP should be concrete")
	}
	if ModeAuto.Concrete() {
		t.Error("ModeAuto should not be concrete")
	}
}

func TestFailureError(t *testing.T) {
	f := NewFailure(KindOperationNotFound, "operation %q not found", "frobnicate")
	want := `operation_not_found: operation "frobnicate" not found`
	if f.Error() != want {
		t.Errorf("Error() = %q, want %q", f.Error(), want)
	}

	cause := errors.New("connection refused")
	wrapped := WrapFailure(KindTransport, cause, "POST /api/ocr/extract_text")
	if !errors.Is(wrapped, cause) {
		t.Error("wrapped failure should match its cause with errors.Is")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"plain error", errors.New("boom"), ""},
		{"failure", NewFailure(KindTransport, "timeout"), KindTransport},
		{"wrapped failure", fmt.Errorf("invoke: %w", NewFailure(KindMalformedResponse, "not json")), KindMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsConfiguration(t *testing.T) {
	if !IsConfiguration(NewFailure(KindConfiguration, "no local surface")) {
		t.Error("configuration failure not detected")
	}
	if IsConfiguration(NewFailure(KindTransport, "timeout")) {
		t.Error("transport failure misclassified as configuration")
	}
	if IsConfiguration(nil) {
		t.Error("nil misclassified as configuration")
	}
}
