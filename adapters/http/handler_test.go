package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/avinashfc/agentic-visionxtract/core/registry"
	"github.com/avinashfc/agentic-visionxtract/domain/call"
	"github.com/avinashfc/agentic-visionxtract/ports"
	"github.com/rs/zerolog"
)

// testSurface serves a fixed handler set.
type testSurface struct {
	name     string
	handlers map[string]ports.Handler
}

func (s testSurface) Module() string { return s.name }

func (s testSurface) Operation(name string) (ports.Handler, bool) {
	h, ok := s.handlers[name]
	return h, ok
}

func (s testSurface) Operations() []string {
	out := make([]string, 0, len(s.handlers))
	for name := range s.handlers {
		out = append(out, name)
	}
	return out
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	reg := registry.New()
	err := reg.RegisterSurface(testSurface{
		name: "llm_judge",
		handlers: map[string]ports.Handler{
			"evaluate": func(ctx context.Context, payload map[string]any) (map[string]any, error) {
				return map[string]any{
					"score":          1.0,
					"correlation_id": call.CorrelationID(ctx),
					"payload":        payload,
				}, nil
			},
			"fail_typed": func(ctx context.Context, payload map[string]any) (map[string]any, error) {
				return nil, call.NewFailure(call.KindApplication, "judge rejected the content")
			},
			"fail_plain": func(ctx context.Context, payload map[string]any) (map[string]any, error) {
				return nil, errors.New("boom")
			},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	server := httptest.NewServer(NewHandler(reg, zerolog.Nop()).Router())
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()

	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, decoded
}

func TestHandleCallSuccess(t *testing.T) {
	server := newTestServer(t)

	resp, body := postJSON(t, server.URL+"/api/llm-judge/evaluate", `{"content":"hello"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["score"] != 1.0 {
		t.Errorf("score = %v, want 1.0", body["score"])
	}
	if want := (map[string]any{"content": "hello"}); !reflect.DeepEqual(body["payload"], want) {
		t.Errorf("payload = %v, want %v", body["payload"], want)
	}
}

func TestHandleCallCorrelationHeader(t *testing.T) {
	server := newTestServer(t)

	req, err := http.NewRequest(http.MethodPost, server.URL+"/api/llm-judge/evaluate", strings.NewReader(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set(call.CorrelationHeader, "corr-7")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["correlation_id"] != "corr-7" {
		t.Errorf("correlation_id = %v, want corr-7", body["correlation_id"])
	}
}

func TestHandleCallModuleUnavailable(t *testing.T) {
	server := newTestServer(t)

	resp, body := postJSON(t, server.URL+"/api/face-extraction/extract_faces", `{}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	assertErrorKind(t, body, call.KindModuleUnavailable)
}

func TestHandleCallOperationNotFound(t *testing.T) {
	server := newTestServer(t)

	resp, body := postJSON(t, server.URL+"/api/llm-judge/nonexistent_op", `{}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	assertErrorKind(t, body, call.KindOperationNotFound)
}

func TestHandleCallFailures(t *testing.T) {
	server := newTestServer(t)

	tests := []struct {
		op         string
		wantStatus int
	}{
		{"fail_typed", http.StatusInternalServerError},
		{"fail_plain", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			resp, body := postJSON(t, server.URL+"/api/llm-judge/"+tt.op, `{}`)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			assertErrorKind(t, body, call.KindApplication)
		})
	}
}

func TestHandleCallInvalidBody(t *testing.T) {
	server := newTestServer(t)

	resp, body := postJSON(t, server.URL+"/api/llm-judge/evaluate", `not json at all`)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
	assertErrorKind(t, body, call.KindApplication)
}

func TestHandleCallEmptyBody(t *testing.T) {
	server := newTestServer(t)

	resp, body := postJSON(t, server.URL+"/api/llm-judge/evaluate", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["payload"] != nil {
		t.Errorf("payload = %v, want nil for empty body", body["payload"])
	}
}

func TestHealthz(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestStatusForKind(t *testing.T) {
	tests := []struct {
		kind call.Kind
		want int
	}{
		{call.KindModuleUnavailable, 404},
		{call.KindOperationNotFound, 404},
		{call.KindTransport, 502},
		{call.KindMalformedResponse, 502},
		{call.KindApplication, 500},
		{call.KindConfiguration, 500},
	}

	for _, tt := range tests {
		if got := statusForKind(tt.kind); got != tt.want {
			t.Errorf("statusForKind(%q) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func assertErrorKind(t *testing.T, body map[string]any, want call.Kind) {
	t.Helper()

	errObj, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("response %v has no error object", body)
	}
	if errObj["kind"] != string(want) {
		t.Errorf("error kind = %v, want %q", errObj["kind"], want)
	}
}
