package session

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BWStearns/rusty-ws-starwars-search/internal/config"
	"github.com/BWStearns/rusty-ws-starwars-search/internal/errors"
)

const (
	vaderPage1 = `{"films":"A New Hope, The Empire Strikes Back","name":"Darth Vader","page":1,"resultCount":3}`
	vaderPage2 = `{"films":"Return of the Jedi","name":"Darth Vader","page":2,"resultCount":3}`
	vaderPage3 = `{"films":"Revenge of the Sith","name":"Darth Vader","page":3,"resultCount":3}`
	notFound   = `{"error":"No results found","page":-1,"resultCount":-1}`
)

// step is one event the mock server delivers after the query is emitted.
type step struct {
	event   string
	payload config.Payload
}

func searchStep(text string) step {
	return step{event: config.SearchEvent, payload: config.TextPayload(text)}
}

type emitted struct {
	event string
	data  any
}

// mockTransport implements config.Transport for testing.
// Emitting the search event plays the script from a separate goroutine,
// the way a real transport dispatches from its reader.
type mockTransport struct {
	script          []step
	dropAfterScript bool
	connectErr      error
	emitErr         error

	mu          sync.Mutex
	handlers    config.EventHandlers
	emitted     []emitted
	connected   bool
	disconnects int

	wg       sync.WaitGroup
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	doneOnce sync.Once
}

func newMockTransport(script ...step) *mockTransport {
	return &mockTransport{
		script: script,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (m *mockTransport) Connect(_ context.Context, handlers config.EventHandlers) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connectErr != nil {
		return m.connectErr
	}

	m.handlers = handlers
	m.connected = true

	return nil
}

func (m *mockTransport) Emit(_ context.Context, event string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.emitErr != nil {
		return m.emitErr
	}

	m.emitted = append(m.emitted, emitted{event: event, data: data})
	handlers := m.handlers

	m.wg.Go(func() {
		for _, s := range m.script {
			select {
			case <-m.stop:
				return
			default:
			}

			if h, ok := handlers[s.event]; ok {
				h(s.payload)
			}
		}

		if m.dropAfterScript {
			m.closeDone()
		}
	})

	return nil
}

func (m *mockTransport) Disconnect() error {
	m.mu.Lock()
	m.disconnects++
	m.connected = false
	m.mu.Unlock()

	m.stopOnce.Do(func() { close(m.stop) })
	m.wg.Wait()
	m.closeDone()

	return nil
}

func (m *mockTransport) Done() <-chan struct{} {
	return m.done
}

func (m *mockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.connected
}

func (m *mockTransport) closeDone() {
	m.doneOnce.Do(func() { close(m.done) })
}

// mockFactory hands out queued transports, one per session.
type mockFactory struct {
	mu      sync.Mutex
	queue   []*mockTransport
	created []*mockTransport
}

func (f *mockFactory) New(_ *config.Options) config.Transport {
	f.mu.Lock()
	defer f.mu.Unlock()

	t := newMockTransport()
	if len(f.queue) > 0 {
		t = f.queue[0]
		f.queue = f.queue[1:]
	}

	f.created = append(f.created, t)

	return t
}

type testRunner struct {
	*Runner
	stdout  *bytes.Buffer
	stderr  *bytes.Buffer
	factory *mockFactory
}

func newTestRunner(input string, configure func(*config.Options), transports ...*mockTransport) *testRunner {
	factory := &mockFactory{queue: transports}
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	opts := &config.Options{
		Stdin:        strings.NewReader(input),
		Stdout:       stdout,
		Stderr:       stderr,
		NewTransport: factory.New,
	}

	if configure != nil {
		configure(opts)
	}

	return &testRunner{
		Runner:  New(opts),
		stdout:  stdout,
		stderr:  stderr,
		factory: factory,
	}
}

func TestSearch_StreamsPagesUntilLastPage(t *testing.T) {
	transport := newMockTransport(searchStep(vaderPage1), searchStep(vaderPage2), searchStep(vaderPage3))
	r := newTestRunner("", nil, transport)

	outcome, err := r.Search(context.Background(), "vader")
	require.NoError(t, err)

	assert.Equal(t, &Outcome{Reason: ReasonLastPage, Pages: 3}, outcome)
	assert.Equal(t,
		"(1/3) Darth Vader - [A New Hope, The Empire Strikes Back]\n"+
			"(2/3) Darth Vader - [Return of the Jedi]\n"+
			"(3/3) Darth Vader - [Revenge of the Sith]\n",
		r.stdout.String())

	require.Len(t, transport.emitted, 1)
	assert.Equal(t, config.SearchEvent, transport.emitted[0].event)
	assert.Equal(t, searchRequest{Query: "vader"}, transport.emitted[0].data)
	assert.Equal(t, 1, transport.disconnects)
	assert.False(t, transport.IsConnected())
}

func TestSearch_SearchErrorCompletes(t *testing.T) {
	transport := newMockTransport(searchStep(notFound))
	r := newTestRunner("", nil, transport)

	outcome, err := r.Search(context.Background(), "jar jar")
	require.NoError(t, err)

	assert.Equal(t, &Outcome{Reason: ReasonSearchError}, outcome)
	assert.Equal(t, "No results found\n", r.stdout.String())
	assert.Equal(t, 1, transport.disconnects)
}

func TestSearch_MalformedResponseCompletes(t *testing.T) {
	transport := newMockTransport(searchStep(`{"films":"A New Hope","name":"Luke`))
	r := newTestRunner("", nil, transport)

	outcome, err := r.Search(context.Background(), "luke")
	require.NoError(t, err)

	assert.Equal(t, ReasonMalformed, outcome.Reason)
	assert.True(t, strings.HasPrefix(r.stdout.String(), "Error parsing response: "), r.stdout.String())
	assert.Contains(t, r.stdout.String(), string(errors.ParseErrorIncomplete))
}

func TestSearch_BinaryPayloadCompletes(t *testing.T) {
	transport := newMockTransport(step{event: config.SearchEvent, payload: config.BinaryPayload([]byte{1, 2, 3})})
	r := newTestRunner("", nil, transport)

	outcome, err := r.Search(context.Background(), "r2")
	require.NoError(t, err)

	assert.Equal(t, ReasonUnexpectedPayload, outcome.Reason)
	assert.Equal(t, "Unexpectedly got bytes: [1 2 3]\n", r.stdout.String())
}

func TestSearch_NonFinalPageDoesNotComplete(t *testing.T) {
	transport := newMockTransport(searchStep(vaderPage1))
	r := newTestRunner("", func(o *config.Options) {
		o.ResponseTimeout = 50 * time.Millisecond
	}, transport)

	outcome, err := r.Search(context.Background(), "vader")
	require.Error(t, err)
	assert.Nil(t, outcome)

	timeoutErr, ok := stderrors.AsType[*errors.ResponseTimeoutError](err)
	require.True(t, ok, "expected ResponseTimeoutError, got %T", err)
	assert.Equal(t, 1, timeoutErr.Pages)
	assert.Equal(t, 50*time.Millisecond, timeoutErr.Timeout)
	assert.Equal(t, "(1/3) Darth Vader - [A New Hope, The Empire Strikes Back]\n", r.stdout.String())
	assert.Equal(t, 1, transport.disconnects)
}

func TestSearch_DropsPayloadsAfterCompletion(t *testing.T) {
	transport := newMockTransport(searchStep(notFound), searchStep(vaderPage3), searchStep(`garbage`))
	r := newTestRunner("", nil, transport)

	outcome, err := r.Search(context.Background(), "nobody")
	require.NoError(t, err)

	assert.Equal(t, ReasonSearchError, outcome.Reason)
	assert.Equal(t, "No results found\n", r.stdout.String())
}

func TestSearch_ErrorEventIsReportedButDoesNotComplete(t *testing.T) {
	transport := newMockTransport(
		step{event: config.ErrorEvent, payload: config.TextPayload("boom")},
		searchStep(`{"films":"A New Hope","name":"Leia Organa","page":1,"resultCount":1}`),
	)
	r := newTestRunner("", nil, transport)

	outcome, err := r.Search(context.Background(), "leia")
	require.NoError(t, err)

	assert.Equal(t, &Outcome{Reason: ReasonLastPage, Pages: 1}, outcome)
	assert.Equal(t, "Error: boom\n", r.stderr.String())
	assert.Equal(t, "(1/1) Leia Organa - [A New Hope]\n", r.stdout.String())
}

func TestSearch_ConnectionLost(t *testing.T) {
	transport := newMockTransport(searchStep(vaderPage1))
	transport.dropAfterScript = true
	r := newTestRunner("", nil, transport)

	_, err := r.Search(context.Background(), "vader")
	require.Error(t, err)

	assert.ErrorIs(t, err, errors.ErrConnectionLost)

	_, ok := stderrors.AsType[*errors.ConnectionError](err)
	assert.True(t, ok)
	assert.False(t, IsFatal(err, false))
	assert.Equal(t, 1, transport.disconnects)
}

func TestSearch_LastPageBeforeConnectionLost(t *testing.T) {
	transport := newMockTransport(searchStep(`{"films":"A New Hope","name":"Han Solo","page":1,"resultCount":1}`))
	transport.dropAfterScript = true
	r := newTestRunner("", nil, transport)

	outcome, err := r.Search(context.Background(), "han")
	require.NoError(t, err)
	assert.Equal(t, ReasonLastPage, outcome.Reason)
}

func TestSearch_ConnectFailure(t *testing.T) {
	transport := newMockTransport()
	transport.connectErr = stderrors.New("connection refused")
	r := newTestRunner("", nil, transport)

	_, err := r.Search(context.Background(), "vader")
	require.Error(t, err)

	connErr, ok := stderrors.AsType[*errors.ConnectionError](err)
	require.True(t, ok, "expected ConnectionError, got %T", err)
	assert.Equal(t, config.DefaultServerURL, connErr.URL)
	assert.Contains(t, err.Error(), "connection refused")
	assert.True(t, IsFatal(err, false))
	assert.False(t, IsFatal(err, true))
}

func TestSearch_KeepsTransportConnectionError(t *testing.T) {
	transport := newMockTransport()
	transport.connectErr = &errors.ConnectionError{URL: "ws://example.test/socket.io/", Err: stderrors.New("refused")}
	r := newTestRunner("", nil, transport)

	_, err := r.Search(context.Background(), "vader")

	connErr, ok := stderrors.AsType[*errors.ConnectionError](err)
	require.True(t, ok)
	assert.Equal(t, "ws://example.test/socket.io/", connErr.URL)
}

func TestSearch_EmitFailureDisconnects(t *testing.T) {
	transport := newMockTransport()
	transport.emitErr = errors.ErrTransportNotConnected
	r := newTestRunner("", nil, transport)

	_, err := r.Search(context.Background(), "vader")
	require.Error(t, err)

	sendErr, ok := stderrors.AsType[*errors.SendError](err)
	require.True(t, ok, "expected SendError, got %T", err)
	assert.Equal(t, config.SearchEvent, sendErr.Event)
	assert.ErrorIs(t, err, errors.ErrTransportNotConnected)
	assert.Equal(t, 1, transport.disconnects)
}

func TestSearch_ContextCanceledWhileWaiting(t *testing.T) {
	transport := newMockTransport()
	r := newTestRunner("", nil, transport)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := r.Search(ctx, "vader")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, transport.disconnects)
}

func TestSearch_FreshTransportPerSession(t *testing.T) {
	first := newMockTransport(searchStep(notFound))
	second := newMockTransport(searchStep(notFound))
	r := newTestRunner("", nil, first, second)

	_, err := r.Search(context.Background(), "a")
	require.NoError(t, err)

	_, err = r.Search(context.Background(), "b")
	require.NoError(t, err)

	require.Len(t, r.factory.created, 2)
	assert.NotSame(t, r.factory.created[0], r.factory.created[1])
	assert.Equal(t, searchRequest{Query: "b"}, second.emitted[0].data)
}

func TestRun_ProcessesQueriesUntilEOF(t *testing.T) {
	r := newTestRunner("vader\n  luke  \n", nil,
		newMockTransport(searchStep(vaderPage1), searchStep(vaderPage2), searchStep(vaderPage3)),
		newMockTransport(searchStep(`{"films":"A New Hope","name":"Luke Skywalker","page":1,"resultCount":1}`)),
	)

	err := r.Run(context.Background())
	require.ErrorIs(t, err, errors.ErrInputClosed)

	require.Len(t, r.factory.created, 2)
	assert.Equal(t, searchRequest{Query: "vader"}, r.factory.created[0].emitted[0].data)
	assert.Equal(t, searchRequest{Query: "luke"}, r.factory.created[1].emitted[0].data)

	assert.Equal(t,
		"(1/3) Darth Vader - [A New Hope, The Empire Strikes Back]\n"+
			"(2/3) Darth Vader - [Return of the Jedi]\n"+
			"(3/3) Darth Vader - [Revenge of the Sith]\n"+
			"(1/1) Luke Skywalker - [A New Hope]\n",
		r.stdout.String())
	assert.Equal(t, 3, strings.Count(r.stderr.String(), config.DefaultPrompt))
}

func TestRun_FinalLineWithoutNewline(t *testing.T) {
	r := newTestRunner("yoda", nil, newMockTransport(searchStep(notFound)))

	err := r.Run(context.Background())
	require.ErrorIs(t, err, errors.ErrInputClosed)

	require.Len(t, r.factory.created, 1)
	assert.Equal(t, searchRequest{Query: "yoda"}, r.factory.created[0].emitted[0].data)
}

func TestRun_EmptyQueryIsSent(t *testing.T) {
	r := newTestRunner("\n", nil, newMockTransport(searchStep(notFound)))

	err := r.Run(context.Background())
	require.ErrorIs(t, err, errors.ErrInputClosed)

	require.Len(t, r.factory.created, 1)
	assert.Equal(t, searchRequest{Query: ""}, r.factory.created[0].emitted[0].data)
}

func TestRun_ConnectFailureIsFatal(t *testing.T) {
	failing := newMockTransport()
	failing.connectErr = stderrors.New("connection refused")
	r := newTestRunner("vader\nluke\n", nil, failing)

	err := r.Run(context.Background())
	require.Error(t, err)

	_, ok := stderrors.AsType[*errors.ConnectionError](err)
	assert.True(t, ok)
	assert.Len(t, r.factory.created, 1)
}

func TestRun_RecoversTransportErrorsWhenEnabled(t *testing.T) {
	failing := newMockTransport()
	failing.connectErr = stderrors.New("connection refused")
	r := newTestRunner("vader\nluke\n", func(o *config.Options) {
		o.RecoverTransportErrors = true
	}, failing, newMockTransport(searchStep(notFound)))

	err := r.Run(context.Background())
	require.ErrorIs(t, err, errors.ErrInputClosed)

	assert.Len(t, r.factory.created, 2)
	assert.Contains(t, r.stderr.String(), "Error: failed to connect to "+config.DefaultServerURL)
	assert.Equal(t, "No results found\n", r.stdout.String())
}

func TestRun_TimeoutContinuesLoop(t *testing.T) {
	r := newTestRunner("vader\nluke\n", func(o *config.Options) {
		o.ResponseTimeout = 30 * time.Millisecond
	}, newMockTransport(searchStep(vaderPage1)), newMockTransport(searchStep(notFound)))

	err := r.Run(context.Background())
	require.ErrorIs(t, err, errors.ErrInputClosed)

	assert.Len(t, r.factory.created, 2)
	assert.Contains(t, r.stderr.String(), "Error: no terminal response within 30ms (1 pages received)")
}

func TestRun_InputErrorIsFatal(t *testing.T) {
	readErr := stderrors.New("device unplugged")
	r := newTestRunner("", func(o *config.Options) {
		o.Stdin = iotest.ErrReader(readErr)
	})

	err := r.Run(context.Background())
	require.ErrorIs(t, err, readErr)

	_, ok := stderrors.AsType[*errors.InputError](err)
	assert.True(t, ok)
	assert.Empty(t, r.factory.created)
}

func TestRun_CanceledContext(t *testing.T) {
	r := newTestRunner("vader\n", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, r.factory.created)
	assert.Empty(t, r.stderr.String())
}

func TestCompletion_FiresOnce(t *testing.T) {
	c := newCompletion()

	assert.True(t, c.fire(Outcome{Reason: ReasonSearchError}))
	assert.False(t, c.fire(Outcome{Reason: ReasonLastPage}))

	select {
	case o := <-c.wait():
		assert.Equal(t, ReasonSearchError, o.Reason)
	default:
		t.Fatal("expected an outcome")
	}

	select {
	case o := <-c.wait():
		t.Fatalf("unexpected second outcome %v", o)
	default:
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name             string
		err              error
		recoverTransport bool
		want             bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "input closed", err: errors.ErrInputClosed, want: true},
		{name: "input error", err: &errors.InputError{Err: stderrors.New("x")}, want: true},
		{name: "connect", err: &errors.ConnectionError{URL: "u", Err: stderrors.New("x")}, want: true},
		{name: "connect recovered", err: &errors.ConnectionError{URL: "u", Err: stderrors.New("x")}, recoverTransport: true, want: false},
		{name: "connection lost", err: &errors.ConnectionError{URL: "u", Err: errors.ErrConnectionLost}, want: false},
		{name: "send", err: &errors.SendError{Event: "search", Err: stderrors.New("x")}, want: true},
		{name: "send recovered", err: &errors.SendError{Event: "search", Err: stderrors.New("x")}, recoverTransport: true, want: false},
		{name: "timeout", err: &errors.ResponseTimeoutError{Timeout: time.Second}, want: false},
		{name: "parse", err: &errors.MessageParseError{Kind: errors.ParseErrorSyntax, Err: stderrors.New("x")}, want: false},
		{name: "unknown", err: stderrors.New("x"), recoverTransport: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsFatal(tt.err, tt.recoverTransport))
		})
	}
}

func TestReason_String(t *testing.T) {
	assert.Equal(t, "last_page", ReasonLastPage.String())
	assert.Equal(t, "search_error", ReasonSearchError.String())
	assert.Equal(t, "malformed", ReasonMalformed.String())
	assert.Equal(t, "unexpected_payload", ReasonUnexpectedPayload.String())
	assert.Equal(t, "unknown", Reason(0).String())
}
