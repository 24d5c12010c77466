package publisher

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const (
	DefaultGitHubAPIURL = "https://api.github.com"
	githubAPIVersion    = "2022-11-28"
)

// APIError is a non-2xx answer from the GitHub REST API.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("github %s %s: %d %s", e.Method, e.Path, e.Status, msg)
}

type githubErrorResp struct {
	Message string `json:"message"`
	Errors  []struct {
		Message string `json:"message"`
		Code    string `json:"code"`
		Field   string `json:"field"`
	} `json:"errors"`
}

type githubRepoResp struct {
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Private       bool   `json:"private"`
	HTMLURL       string `json:"html_url"`
	DefaultBranch string `json:"default_branch"`
	Owner         struct {
		Login string `json:"login"`
	} `json:"owner"`
}

type createRepoPayload struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Private     bool   `json:"private"`
	AutoInit    bool   `json:"auto_init"`
}

type contentResp struct {
	SHA      string `json:"sha"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

type putContentPayload struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch,omitempty"`
	SHA     string `json:"sha,omitempty"`
}

type pagesSource struct {
	Branch string `json:"branch"`
	Path   string `json:"path"`
}

type pagesPayload struct {
	BuildType string      `json:"build_type,omitempty"`
	Source    pagesSource `json:"source"`
}

type pagesResp struct {
	BuildType string       `json:"build_type"`
	Source    *pagesSource `json:"source"`
}

// GitHubClient implements RepositoryClient against the GitHub REST API.
type GitHubClient struct {
	baseURL  string
	username string
	client   *http.Client
	logger   zerolog.Logger
}

// NewGitHubClient returns a client authenticated with a personal access token.
// username is the token's account; repositories for any other owner are created under that organization.
func NewGitHubClient(apiURL, username, token string, timeout time.Duration, logger zerolog.Logger) *GitHubClient {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	httpClient := oauth2.NewClient(context.Background(), src)
	if timeout > 0 {
		httpClient.Timeout = timeout
	}
	return NewGitHubClientWithHTTP(apiURL, username, httpClient, logger)
}

// NewGitHubClientWithHTTP uses the given http.Client as is; it must already carry credentials.
func NewGitHubClientWithHTTP(apiURL, username string, client *http.Client, logger zerolog.Logger) *GitHubClient {
	if apiURL == "" {
		apiURL = DefaultGitHubAPIURL
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &GitHubClient{
		baseURL:  strings.TrimRight(apiURL, "/"),
		username: username,
		client:   client,
		logger:   logger,
	}
}

// Lookup fetches repository metadata. A 404 means the repository does not exist.
func (g *GitHubClient) Lookup(ctx context.Context, owner, name string) (*Repository, error) {
	var data githubRepoResp
	err := g.do(ctx, http.MethodGet, repoPath(owner, name), nil, &data)
	if isStatus(err, http.StatusNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &Repository{
		Owner:         data.Owner.Login,
		Name:          data.Name,
		FullName:      data.FullName,
		Private:       data.Private,
		HTMLURL:       data.HTMLURL,
		DefaultBranch: data.DefaultBranch,
	}, nil
}

// Create makes an empty public repository. The first content write creates the branch.
func (g *GitHubClient) Create(ctx context.Context, owner, name, description string) error {
	path := "/user/repos"
	if g.username != "" && !strings.EqualFold(owner, g.username) {
		path = "/orgs/" + url.PathEscape(owner) + "/repos"
	}
	payload := createRepoPayload{Name: name, Description: description, Private: false, AutoInit: false}
	if err := g.do(ctx, http.MethodPost, path, payload, nil); err != nil {
		return err
	}
	g.logger.Debug().Str("owner", owner).Str("name", name).Msg("github repository created")
	return nil
}

// MakePublic flips the repository visibility to public.
func (g *GitHubClient) MakePublic(ctx context.Context, owner, name string) error {
	return g.do(ctx, http.MethodPatch, repoPath(owner, name), map[string]bool{"private": false}, nil)
}

// PushContent writes each file through the contents API. Unchanged files are skipped.
// A stale sha (someone wrote in between) is re-read once and the write repeated, so
// the new content always wins.
func (g *GitHubClient) PushContent(ctx context.Context, owner, name, branch, message string, files []SiteFile) error {
	for _, f := range files {
		if err := g.putFile(ctx, owner, name, branch, message, f); err != nil {
			return fmt.Errorf("write %s: %w", f.Path, err)
		}
	}
	return nil
}

func (g *GitHubClient) putFile(ctx context.Context, owner, name, branch, message string, f SiteFile) error {
	sha, current, err := g.getFile(ctx, owner, name, branch, f.Path)
	if err != nil {
		return err
	}
	if sha != "" && current == f.Content {
		g.logger.Debug().Str("path", f.Path).Msg("content unchanged, skipping")
		return nil
	}

	payload := putContentPayload{
		Message: message,
		Content: base64.StdEncoding.EncodeToString([]byte(f.Content)),
		Branch:  branch,
		SHA:     sha,
	}
	err = g.do(ctx, http.MethodPut, contentPath(owner, name, f.Path), payload, nil)
	if !isStatus(err, http.StatusConflict) && !isStatus(err, http.StatusUnprocessableEntity) {
		return err
	}

	sha, _, getErr := g.getFile(ctx, owner, name, branch, f.Path)
	if getErr != nil {
		return errors.Join(err, getErr)
	}
	payload.SHA = sha
	return g.do(ctx, http.MethodPut, contentPath(owner, name, f.Path), payload, nil)
}

// getFile returns the blob sha and decoded content, or empty strings when the file is absent.
func (g *GitHubClient) getFile(ctx context.Context, owner, name, branch, path string) (string, string, error) {
	p := contentPath(owner, name, path)
	if branch != "" {
		p += "?ref=" + url.QueryEscape(branch)
	}
	var data contentResp
	err := g.do(ctx, http.MethodGet, p, nil, &data)
	if isStatus(err, http.StatusNotFound) {
		return "", "", nil
	}
	if err != nil {
		return "", "", err
	}
	if data.Encoding != "base64" {
		return data.SHA, "", nil
	}
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(data.Content, "\n", ""))
	if err != nil {
		return data.SHA, "", nil
	}
	return data.SHA, string(raw), nil
}

// EnablePages turns on static hosting from the branch root. It reports false when
// already enabled; a site serving another branch or folder is pointed back at the branch root.
func (g *GitHubClient) EnablePages(ctx context.Context, owner, name, branch string) (bool, error) {
	var site pagesResp
	err := g.do(ctx, http.MethodGet, repoPath(owner, name)+"/pages", nil, &site)
	if err == nil {
		return false, g.alignPagesSource(ctx, owner, name, branch, site)
	}
	if !isStatus(err, http.StatusNotFound) {
		return false, err
	}

	payload := pagesPayload{Source: pagesSource{Branch: branch, Path: "/"}}
	err = g.do(ctx, http.MethodPost, repoPath(owner, name)+"/pages", payload, nil)
	if isStatus(err, http.StatusConflict) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (g *GitHubClient) alignPagesSource(ctx context.Context, owner, name, branch string, site pagesResp) error {
	if site.BuildType != "workflow" && site.Source != nil && site.Source.Branch == branch && site.Source.Path == "/" {
		return nil
	}

	payload := pagesPayload{BuildType: "legacy", Source: pagesSource{Branch: branch, Path: "/"}}
	if err := g.do(ctx, http.MethodPut, repoPath(owner, name)+"/pages", payload, nil); err != nil {
		return fmt.Errorf("update pages source: %w", err)
	}
	g.logger.Info().Str("owner", owner).Str("name", name).Str("branch", branch).Msg("pages source moved to branch root")
	return nil
}

// RequestPagesBuild asks for a rebuild of the latest commit.
func (g *GitHubClient) RequestPagesBuild(ctx context.Context, owner, name string) error {
	return g.do(ctx, http.MethodPost, repoPath(owner, name)+"/pages/builds", nil, nil)
}

func (g *GitHubClient) do(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", githubAPIVersion)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return newAPIError(method, path, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("github %s %s: decode response: %w", method, path, err)
	}
	return nil
}

func newAPIError(method, path string, resp *http.Response) *APIError {
	apiErr := &APIError{Method: method, Path: path, Status: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var parsed githubErrorResp
	if json.Unmarshal(data, &parsed) == nil && parsed.Message != "" {
		msg := parsed.Message
		var details []string
		for _, e := range parsed.Errors {
			if e.Message != "" {
				details = append(details, e.Message)
			} else if e.Code != "" {
				details = append(details, strings.TrimSpace(e.Field+" "+e.Code))
			}
		}
		if len(details) > 0 {
			msg += " (" + strings.Join(details, "; ") + ")"
		}
		apiErr.Message = msg
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(data))
	return apiErr
}

func isStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

func repoPath(owner, name string) string {
	return "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(name)
}

func contentPath(owner, name, filePath string) string {
	parts := strings.Split(strings.TrimLeft(filePath, "/"), "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return repoPath(owner, name) + "/contents/" + strings.Join(parts, "/")
}
