package action

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"adkplatform/internal/credential"
)

func TestFailure_IsMatchesKindSentinel(t *testing.T) {
	tests := []struct {
		kind     FailureKind
		sentinel error
	}{
		{KindRateLimited, ErrRateLimited},
		{KindUnauthorized, ErrUnauthorized},
		{KindEmptyResponse, ErrEmptyResponse},
		{KindTransport, ErrTransport},
		{KindStreamInterrupted, ErrStreamInterrupted},
		{KindMalformedResponse, ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := fmt.Errorf("task: %w", NewFailure(tt.kind, CapabilityText, errors.New("boom")))

			assert.ErrorIs(t, err, tt.sentinel)
			kind, ok := KindOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.kind, kind)
			assert.Contains(t, err.Error(), "boom")
		})
	}
}

func TestFailure_DistinctKindsDoNotMatch(t *testing.T) {
	err := NewFailure(KindRateLimited, CapabilityText, nil)
	assert.False(t, errors.Is(err, ErrUnauthorized))
	assert.Equal(t, "text: rate limited", err.Error())
}

func TestKindOf(t *testing.T) {
	_, ok := KindOf(nil)
	assert.False(t, ok)

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)

	kind, ok := KindOf(context.DeadlineExceeded)
	assert.True(t, ok)
	assert.Equal(t, KindTransport, kind)

	kind, ok = KindOf(fmt.Errorf("wrapped: %w", ErrEmptyResponse))
	assert.True(t, ok)
	assert.Equal(t, KindEmptyResponse, kind)
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "429 is rate limited", err: genai.APIError{Code: 429, Message: "quota"}, want: ErrRateLimited},
		{name: "401 is unauthorized", err: genai.APIError{Code: 401}, want: ErrUnauthorized},
		{name: "403 is unauthorized", err: genai.APIError{Code: 403}, want: ErrUnauthorized},
		{name: "500 is transport", err: genai.APIError{Code: 500}, want: ErrTransport},
		{name: "network error is transport", err: errors.New("connection reset"), want: ErrTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classifyError(CapabilityText, tt.err), tt.want)
		})
	}
}

func TestModels_ModelFor(t *testing.T) {
	m := Models{Text: "text-model", Image: "image-model", ImagePremium: "premium-model", ImageEdit: "edit-model"}

	assert.Equal(t, "text-model", m.ModelFor(Request{Capability: CapabilityStreamingText}))
	assert.Equal(t, "image-model", m.ModelFor(Request{Capability: CapabilityImage}))
	assert.Equal(t, "premium-model", m.ModelFor(Request{Capability: CapabilityImage, Privileged: true}))
	assert.Equal(t, "edit-model", m.ModelFor(Request{Capability: CapabilityImageEdit}))
	assert.Equal(t, "override", m.ModelFor(Request{Capability: CapabilityText, Model: "override"}))
}

func TestGated(t *testing.T) {
	tests := []struct {
		name       string
		gate       credential.Gate
		privileged bool
		wantErr    error
		wantCalls  int
	}{
		{name: "unprivileged passes through", gate: &credential.StaticGate{}, wantCalls: 1},
		{name: "privileged with capability passes", gate: &credential.StaticGate{Allowed: true}, privileged: true, wantCalls: 1},
		{name: "privileged without capability is unauthorized", gate: &credential.StaticGate{}, privileged: true, wantErr: ErrUnauthorized},
		{name: "privileged with nil gate is unauthorized", gate: nil, privileged: true, wantErr: ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockExecutor{}
			g := NewGated(mock, tt.gate)

			_, err := g.Execute(context.Background(), Request{Capability: CapabilityImage, Privileged: tt.privileged})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, credential.ErrPrivilegeRequired)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, mock.Calls(), "executor must not be invoked when the precondition fails")
		})
	}
}

func TestLogged_LogsFailureKind(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	mock := &MockExecutor{Default: MockResponse{Err: NewFailure(KindRateLimited, CapabilityText, nil)}}

	_, err := NewLogged(mock, log).Execute(context.Background(), Request{Capability: CapabilityText})

	require.ErrorIs(t, err, ErrRateLimited)
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, KindRateLimited, entry.Data["kind"])
}

func TestStreamBuffer(t *testing.T) {
	var seen []string
	buf := NewStreamBuffer(func(chunk string) { seen = append(seen, chunk) })

	buf.Append("Hello")
	buf.Append("")
	buf.Append(", world")
	marker := buf.Interrupt(errors.New("socket closed"))
	buf.Append("late")

	assert.Equal(t, 2, buf.Chunks())
	assert.True(t, buf.Interrupted())
	assert.Contains(t, marker, InterruptedMarker)
	assert.Equal(t, "Hello, world"+marker, buf.String())
	assert.Equal(t, []string{"Hello", ", world", marker}, seen, "chunks must be delivered append-only in order")
	assert.Empty(t, buf.Interrupt(errors.New("again")), "second interrupt is a no-op")
}

func TestSimulatedExecutor(t *testing.T) {
	sim := NewSimulatedExecutor(time.Millisecond)

	var chunks []string
	res, err := sim.Execute(context.Background(), Request{
		Prompt:     "write logs",
		Capability: CapabilityStreamingText,
		OnChunk:    func(c string) { chunks = append(chunks, c) },
	})
	require.NoError(t, err)
	assert.NotEmpty(t, chunks)
	assert.Equal(t, res.Text, joinChunks(chunks))

	res, err = sim.Execute(context.Background(), Request{Capability: CapabilityStructuredText})
	require.NoError(t, err)
	assert.Equal(t, "[]", res.Text)

	res, err = sim.Execute(context.Background(), Request{Capability: CapabilityImage})
	require.NoError(t, err)
	require.NotNil(t, res.Image)
	assert.Equal(t, "image/png", res.Image.MIMEType)
}

func TestSimulatedExecutor_Cancelled(t *testing.T) {
	sim := NewSimulatedExecutor(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sim.Execute(ctx, Request{Capability: CapabilityText})

	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMockExecutor_ScriptedResponses(t *testing.T) {
	mock := &MockExecutor{
		Responses: []MockResponse{
			{Result: &Result{Text: "first"}},
			{Err: NewFailure(KindEmptyResponse, CapabilityText, nil)},
		},
		Default: MockResponse{Result: &Result{Text: "default"}},
	}

	res, err := mock.Execute(context.Background(), Request{Prompt: "a"})
	require.NoError(t, err)
	assert.Equal(t, "first", res.Text)

	_, err = mock.Execute(context.Background(), Request{Prompt: "b"})
	assert.ErrorIs(t, err, ErrEmptyResponse)

	res, err = mock.Execute(context.Background(), Request{Prompt: "c"})
	require.NoError(t, err)
	assert.Equal(t, "default", res.Text)

	assert.Equal(t, []string{"a", "b", "c"}, mock.Prompts())
}

func joinChunks(chunks []string) string {
	var s string
	for _, c := range chunks {
		s += c
	}
	return s
}

func TestTimeout(t *testing.T) {
	mock := &MockExecutor{Delay: time.Second}

	_, err := NewTimeout(mock, 20*time.Millisecond).Execute(context.Background(), Request{Capability: CapabilityText})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestTimeout_NonPositiveIsPassThrough(t *testing.T) {
	mock := &MockExecutor{}

	assert.Same(t, mock, NewTimeout(mock, 0))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "short text unchanged", in: "hello", max: 10, want: "hello"},
		{name: "ascii cut", in: "abcdefghij", max: 6, want: "abc..."},
		{name: "multibyte cut on rune boundary", in: "日本語のテキストです", max: 6, want: "日本語..."},
		{name: "exact rune length unchanged", in: "héllo", max: 5, want: "héllo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.max)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestSimulatedExecutor_MultibytePromptStaysValidUTF8(t *testing.T) {
	sim := NewSimulatedExecutor(0)
	prompt := strings.Repeat("é", 100)

	res, err := sim.Execute(context.Background(), Request{Prompt: prompt, Capability: CapabilityText})

	require.NoError(t, err)
	assert.True(t, utf8.ValidString(res.Text))
	assert.True(t, strings.HasSuffix(res.Text, "..."))
}
