package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

type pokemon struct {
	Name    string `json:"name"`
	Sprites struct {
		FrontDefault string `json:"front_default"`
	} `json:"sprites"`
}

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (r *recordingLogger) Info(format string, args ...any) { r.add("INFO " + fmt.Sprintf(format, args...)) }
func (r *recordingLogger) Warn(format string, args ...any) { r.add("WARN " + fmt.Sprintf(format, args...)) }

func (r *recordingLogger) add(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
}

func TestGetDecodesBody(t *testing.T) {
	var gotAccept, gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		gotAgent = r.Header.Get("User-Agent")
		fmt.Fprint(w, `{"name":"bulbasaur","sprites":{"front_default":"https://img/1.png"}}`)
	}))
	defer srv.Close()

	log := &recordingLogger{}
	c := NewClient(WithLogger(log), WithUserAgent("cards-test"), WithAttemptIDs(func() string { return "attempt-0001-abcd" }))
	got, err := Get[pokemon](context.Background(), c, srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "bulbasaur" {
		t.Fatalf("name = %q, want bulbasaur", got.Name)
	}
	if got.Sprites.FrontDefault != "https://img/1.png" {
		t.Fatalf("unexpected sprite %q", got.Sprites.FrontDefault)
	}
	if gotAccept != "application/json" || gotAgent != "cards-test" {
		t.Fatalf("unexpected headers accept=%q ua=%q", gotAccept, gotAgent)
	}
	if len(log.lines) != 2 || !strings.Contains(log.lines[0], "attempt-") || !strings.Contains(log.lines[1], "ok in") {
		t.Fatalf("unexpected log lines: %v", log.lines)
	}
}

func TestGetStatusFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := Get[pokemon](context.Background(), NewClient(), srv.URL)
	if err == nil {
		t.Fatalf("expected error for 404")
	}
	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if fe.Kind != KindHTTPStatus || fe.StatusCode != http.StatusNotFound {
		t.Fatalf("unexpected error %+v", fe)
	}
	if got := MessageOf(err); got != "Error: 404" {
		t.Fatalf("message = %q, want %q", got, "Error: 404")
	}
}

func TestGetDecodeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>not json</html>")
	}))
	defer srv.Close()

	_, err := Get[pokemon](context.Background(), NewClient(), srv.URL)
	if KindOf(err) != KindDecode {
		t.Fatalf("kind = %s, want decode (err=%v)", KindOf(err), err)
	}
	if MessageOf(err) == "" {
		t.Fatalf("decode failure should carry a message")
	}
}

func TestGetRejectsTrailingData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"bulbasaur"} <html>oops</html>`)
	}))
	defer srv.Close()

	got, err := Get[pokemon](context.Background(), NewClient(), srv.URL)
	if KindOf(err) != KindDecode {
		t.Fatalf("kind = %s, want decode (name=%q err=%v)", KindOf(err), got.Name, err)
	}
}

func TestGetRejectsSecondValue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"bulbasaur"}{"name":"ivysaur"}`)
	}))
	defer srv.Close()

	_, err := Get[pokemon](context.Background(), NewClient(), srv.URL)
	if KindOf(err) != KindDecode {
		t.Fatalf("kind = %s, want decode (err=%v)", KindOf(err), err)
	}
	if !errors.Is(err, errTrailingData) {
		t.Fatalf("err = %v, want trailing data", err)
	}
}

func TestGetAllowsTrailingWhitespace(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "{\"name\":\"bulbasaur\"}\n\n")
	}))
	defer srv.Close()

	got, err := Get[pokemon](context.Background(), NewClient(), srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "bulbasaur" {
		t.Fatalf("name = %q", got.Name)
	}
}

func TestGetRejectsNullBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, " null ")
	}))
	defer srv.Close()

	_, err := Get[pokemon](context.Background(), NewClient(), srv.URL)
	if KindOf(err) != KindDecode {
		t.Fatalf("kind = %s, want decode (err=%v)", KindOf(err), err)
	}
	if got := MessageOf(err); got != "response body is null" {
		t.Fatalf("message = %q", got)
	}
}

func TestGetEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := Get[pokemon](context.Background(), NewClient(), srv.URL)
	if KindOf(err) != KindDecode {
		t.Fatalf("kind = %s, want decode", KindOf(err))
	}
	if got := MessageOf(err); got != "empty response body" {
		t.Fatalf("message = %q", got)
	}
}

func TestGetNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := Get[pokemon](context.Background(), NewClient(), url)
	if KindOf(err) != KindNetwork {
		t.Fatalf("kind = %s, want network (err=%v)", KindOf(err), err)
	}
	if strings.Contains(MessageOf(err), url) {
		t.Fatalf("network message should not repeat the URL: %q", MessageOf(err))
	}
}

func TestGetCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Get[pokemon](ctx, NewClient(), srv.URL)
	if KindOf(err) != KindNetwork {
		t.Fatalf("kind = %s, want network", KindOf(err))
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled in chain, got %v", err)
	}
}

func TestAsErrorWrapsForeignErrors(t *testing.T) {
	if AsError(nil) != nil {
		t.Fatalf("nil error should stay nil")
	}
	fe := AsError(errors.New("boom"))
	if fe.Kind != KindNetwork || fe.Message() != "boom" {
		t.Fatalf("unexpected wrapped error %+v", fe)
	}
	wrapped := fmt.Errorf("outer: %w", &Error{Kind: KindHTTPStatus, StatusCode: 500})
	if got := MessageOf(wrapped); got != "Error: 500" {
		t.Fatalf("message = %q", got)
	}
}
