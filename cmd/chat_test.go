package cmd

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/samsaffron/jarvis/internal/commands"
	"github.com/samsaffron/jarvis/internal/signal"
	"github.com/samsaffron/jarvis/internal/ui"
)

func TestReplCtrlCCancelsOnlyTheStreamingQuery(t *testing.T) {
	var chats atomic.Int32
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			fmt.Fprint(w, `{"models":[{"name":"dolphin-llama3:8b"}]}`)
		case "/api/chat":
			if chats.Add(1) == 1 {
				fmt.Fprintln(w, `{"message":{"role":"assistant","content":"Thinking"},"done":false}`)
				w.(http.Flusher).Flush()
				close(started)
				<-r.Context().Done()
				return
			}
			fmt.Fprintln(w, `{"message":{"role":"assistant","content":"Second answer."},"done":false}`)
			fmt.Fprintln(w, `{"done":true}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx, stop := signal.TerminateContext()
	defer stop()

	engine := newEngine(testConfig(srv.URL), nil, nil)
	var out bytes.Buffer
	styles := ui.NewStyles(&out)
	r := &repl{
		engine:     engine,
		dispatcher: commands.NewDispatcher(engine, &out, styles, "dolphin-llama3:8b"),
		out:        &out,
		styles:     styles,
	}

	pr, pw := io.Pipe()
	defer pw.Close()
	done := make(chan error, 1)
	go func() { done <- r.run(ctx, pr) }()

	fmt.Fprintln(pw, "hello")
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatalf("first query never reached the backend")
	}
	if err := syscall.Kill(syscall.Getpid(), syscall.SIGINT); err != nil {
		t.Fatalf("kill: %v", err)
	}
	fmt.Fprintln(pw, "second question")
	fmt.Fprintln(pw, "exit")

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("repl did not finish")
	}

	if err := ctx.Err(); err != nil {
		t.Fatalf("session ctx.Err()=%v, want nil", err)
	}
	if n := chats.Load(); n != 2 {
		t.Fatalf("chat requests=%d, want 2", n)
	}
	got := out.String()
	for _, want := range []string{"[interrupted]", "Second answer.", "Goodbye"} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}
	history := engine.History()
	if len(history) != 3 || history[2].Content != "Second answer." {
		t.Fatalf("history=%+v", history)
	}
}
