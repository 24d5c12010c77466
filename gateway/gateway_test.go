package gateway

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llm_code_deployer/generator"
	"llm_code_deployer/publisher"
)

const testSecret = "s3cret"

type stubGenerator struct {
	doc   generator.Document
	err   error
	calls int32
	block chan struct{}
}

func (s *stubGenerator) Generate(ctx context.Context, brief string) (generator.Document, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.block != nil {
		<-s.block
	}
	return s.doc, s.err
}

// stubRepos is a repository client recording every call.
type stubRepos struct {
	mu      sync.Mutex
	exists  map[string]bool
	creates int
	pushes  int
	enables int
	pushed  []publisher.SiteFile
}

func (s *stubRepos) Lookup(_ context.Context, owner, name string) (*publisher.Repository, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.exists[owner+"/"+name] {
		return nil, nil
	}
	return &publisher.Repository{Owner: owner, Name: name, FullName: owner + "/" + name}, nil
}

func (s *stubRepos) Create(_ context.Context, owner, name, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	s.exists[owner+"/"+name] = true
	return nil
}

func (s *stubRepos) PushContent(_ context.Context, _, _, _, _ string, files []publisher.SiteFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pushes++
	s.pushed = append(s.pushed, files...)
	return nil
}

func (s *stubRepos) EnablePages(context.Context, string, string, string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enables++
	return true, nil
}

func newTestGateway(t *testing.T, llmReply string) (*Gateway, *stubRepos) {
	t.Helper()
	agent, err := generator.NewAgent(replyLLM(llmReply), zerolog.Nop())
	require.NoError(t, err)

	repos := &stubRepos{exists: map[string]bool{}}
	pub, err := publisher.New(repos, publisher.Options{}, zerolog.Nop())
	require.NoError(t, err)

	gw, err := New(agent, pub, Options{Secret: testSecret, Owner: "octo"}, zerolog.Nop())
	require.NoError(t, err)
	return gw, repos
}

type replyLLM string

func (r replyLLM) Complete(context.Context, generator.Prompt) (string, error) {
	return string(r), nil
}

func TestBuild_EndToEnd(t *testing.T) {
	gw, repos := newTestGateway(t, "Here you go:\n```html\n<html><body>Todo</body></html>\n```")

	res, err := gw.Build(context.Background(), BuildRequest{Student: "alice", Brief: "a todo list app", Secret: testSecret})
	require.NoError(t, err)

	name := RepoName("alice", "a todo list app")
	assert.Equal(t, "deployed", res.Status)
	assert.Equal(t, name, res.Repo)
	assert.Equal(t, "https://octo.github.io/"+name+"/", res.PagesURL)

	assert.Equal(t, 1, repos.creates)
	assert.Equal(t, 1, repos.pushes)
	assert.Equal(t, 1, repos.enables)
	require.Len(t, repos.pushed, 1)
	assert.Equal(t, "index.html", repos.pushed[0].Path)
	assert.Equal(t, "<html><body>Todo</body></html>", repos.pushed[0].Content)
}

func TestBuild_SecretMismatch(t *testing.T) {
	gen := &stubGenerator{}
	repos := &stubRepos{exists: map[string]bool{}}
	pub, err := publisher.New(repos, publisher.Options{}, zerolog.Nop())
	require.NoError(t, err)
	gw, err := New(gen, pub, Options{Secret: testSecret, Owner: "octo"}, zerolog.Nop())
	require.NoError(t, err)

	for _, secret := range []string{"", "wrong", testSecret + " ", strings.ToUpper(testSecret)} {
		_, err := gw.Build(context.Background(), BuildRequest{Student: "alice", Brief: "a todo list app", Secret: secret})
		var authErr *AuthorizationError
		assert.ErrorAs(t, err, &authErr, "secret %q", secret)
	}

	assert.Equal(t, int32(0), atomic.LoadInt32(&gen.calls))
	assert.Equal(t, 0, repos.creates+repos.pushes+repos.enables)
}

func TestBuild_SecretCheckedBeforeValidation(t *testing.T) {
	gw, _ := newTestGateway(t, "<html></html>")

	_, err := gw.Build(context.Background(), BuildRequest{Secret: "wrong"})
	var authErr *AuthorizationError
	assert.ErrorAs(t, err, &authErr)
}

func TestBuild_EmptyConfiguredSecretRejectsAll(t *testing.T) {
	gen := &stubGenerator{}
	gw, err := New(gen, &publisher.Publisher{}, Options{Owner: "octo"}, zerolog.Nop())
	require.NoError(t, err)

	_, err = gw.Build(context.Background(), BuildRequest{Student: "alice", Brief: "x", Secret: ""})
	var authErr *AuthorizationError
	assert.ErrorAs(t, err, &authErr)
	assert.Equal(t, int32(0), gen.calls)
}

func TestBuild_Validation(t *testing.T) {
	tests := []struct {
		name      string
		req       BuildRequest
		wantField string
	}{
		{name: "empty brief", req: BuildRequest{Student: "alice", Brief: ""}, wantField: "brief"},
		{name: "blank brief", req: BuildRequest{Student: "alice", Brief: " \n\t"}, wantField: "brief"},
		{name: "empty student", req: BuildRequest{Student: "  ", Brief: "a todo list app"}, wantField: "student"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &stubGenerator{}
			repos := &stubRepos{exists: map[string]bool{}}
			pub, err := publisher.New(repos, publisher.Options{}, zerolog.Nop())
			require.NoError(t, err)
			gw, err := New(gen, pub, Options{Secret: testSecret, Owner: "octo"}, zerolog.Nop())
			require.NoError(t, err)

			tt.req.Secret = testSecret
			_, err = gw.Build(context.Background(), tt.req)

			var valErr *ValidationError
			require.ErrorAs(t, err, &valErr)
			assert.Equal(t, tt.wantField, valErr.Field)
			assert.Equal(t, "must not be empty", valErr.Message)
			assert.Equal(t, int32(0), gen.calls)
			assert.Equal(t, 0, repos.creates+repos.pushes+repos.enables)
		})
	}
}

func TestBuild_StageFailuresAreWrapped(t *testing.T) {
	upstream := errors.New("model overloaded")
	gen := &stubGenerator{err: &generator.GenerationError{Reason: "completion call failed", Err: upstream}}
	repos := &stubRepos{exists: map[string]bool{}}
	pub, err := publisher.New(repos, publisher.Options{}, zerolog.Nop())
	require.NoError(t, err)
	gw, err := New(gen, pub, Options{Secret: testSecret, Owner: "octo"}, zerolog.Nop())
	require.NoError(t, err)

	_, err = gw.Build(context.Background(), BuildRequest{Student: "alice", Brief: "a todo list app", Secret: testSecret})

	var genErr *generator.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.ErrorIs(t, err, upstream)
	assert.Contains(t, err.Error(), "build "+RepoName("alice", "a todo list app"))
	assert.Contains(t, err.Error(), "model overloaded")
	assert.Equal(t, 0, repos.creates)
}

func TestDeploy_WaitsForSlot(t *testing.T) {
	gen := &stubGenerator{doc: generator.Document{HTML: "<html></html>"}, block: make(chan struct{})}
	repos := &stubRepos{exists: map[string]bool{}}
	pub, err := publisher.New(repos, publisher.Options{}, zerolog.Nop())
	require.NoError(t, err)
	gw, err := New(gen, pub, Options{Secret: testSecret, Owner: "octo", MaxConcurrent: 1}, zerolog.Nop())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := gw.Deploy(context.Background(), "alice", "first")
		done <- err
	}()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&gen.calls) == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = gw.Deploy(ctx, "bob", "second")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), atomic.LoadInt32(&gen.calls))

	close(gen.block)
	require.NoError(t, <-done)
}

func TestDeploy_DetachedFromCallerCancel(t *testing.T) {
	gw, repos := newTestGateway(t, "<html><body>ok</body></html>")

	ctx, cancel := context.WithCancel(context.Background())
	gw.gen = cancellingGenerator{cancel: cancel, next: gw.gen}

	_, err := gw.Deploy(ctx, "alice", "a todo list app")
	require.NoError(t, err)
	assert.Equal(t, 1, repos.pushes)
}

// cancellingGenerator cancels the caller context mid-pipeline.
type cancellingGenerator struct {
	cancel context.CancelFunc
	next   Generator
}

func (c cancellingGenerator) Generate(ctx context.Context, brief string) (generator.Document, error) {
	c.cancel()
	if err := ctx.Err(); err != nil {
		return generator.Document{}, err
	}
	return c.next.Generate(ctx, brief)
}

func TestNew_Requirements(t *testing.T) {
	_, err := New(nil, &publisher.Publisher{}, Options{Owner: "octo"}, zerolog.Nop())
	assert.Error(t, err)
	_, err = New(&stubGenerator{}, &publisher.Publisher{}, Options{}, zerolog.Nop())
	assert.Error(t, err)
}
