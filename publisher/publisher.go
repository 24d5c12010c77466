package publisher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultBranch      = "main"
	DefaultPagesDomain = "github.io"
)

// Target names the repository a site is published to.
// Description is optional and only feeds the repository description and README.
type Target struct {
	Owner       string
	Name        string
	Description string
}

// Result is the outcome of a successful publish.
type Result struct {
	Status   string `json:"status"`
	Repo     string `json:"repo"`
	RepoURL  string `json:"repo_url"`
	PagesURL string `json:"pages_url"`
}

// Options configures a Publisher.
type Options struct {
	Branch      string
	PagesDomain string
	// Scaffold adds README.md, LICENSE and .nojekyll next to index.html.
	Scaffold bool
}

// Publisher pushes a generated page to a repository and turns on static hosting.
type Publisher struct {
	client RepositoryClient
	opts   Options
	logger zerolog.Logger
	now    func() time.Time
}

// New creates a Publisher on top of a repository client.
func New(client RepositoryClient, opts Options, logger zerolog.Logger) (*Publisher, error) {
	if client == nil {
		return nil, errors.New("repository client is required")
	}
	if opts.Branch == "" {
		opts.Branch = DefaultBranch
	}
	if opts.PagesDomain == "" {
		opts.PagesDomain = DefaultPagesDomain
	}
	return &Publisher{
		client: client,
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Publish creates the repository if needed, writes the page as index.html
// and enables static hosting. Steps already done are not undone on failure.
func (p *Publisher) Publish(ctx context.Context, target Target, html string) (Result, error) {
	if target.Owner == "" || target.Name == "" {
		return Result{}, &PublishError{Step: StepResolve, Err: errors.New("owner and name are required")}
	}
	if strings.TrimSpace(html) == "" {
		return Result{}, &PublishError{Step: StepPush, Err: errors.New("document is empty")}
	}

	log := p.logger.With().Str("repo", target.Owner+"/"+target.Name).Logger()

	repo, err := p.resolve(ctx, target, log)
	if err != nil {
		return Result{}, &PublishError{Step: StepResolve, Err: err}
	}

	pagesURL := PagesURL(target.Owner, target.Name, p.opts.PagesDomain)
	files := p.siteFiles(target, html, pagesURL)
	message := fmt.Sprintf("Deploy %s", target.Name)
	if err := p.client.PushContent(ctx, target.Owner, target.Name, p.opts.Branch, message, files); err != nil {
		return Result{}, &PublishError{Step: StepPush, Err: err}
	}
	log.Debug().Int("files", len(files)).Str("branch", p.opts.Branch).Msg("content pushed")

	enabled, err := p.client.EnablePages(ctx, target.Owner, target.Name, p.opts.Branch)
	if err != nil {
		return Result{}, &PublishError{Step: StepPages, Err: err}
	}
	if enabled {
		log.Debug().Msg("pages enabled")
	} else if b, ok := p.client.(PagesBuilder); ok {
		// 已开启 pages 时推送不一定触发重建，这里主动请求一次，失败不影响结果。
		if err := b.RequestPagesBuild(ctx, target.Owner, target.Name); err != nil {
			log.Warn().Err(err).Msg("pages build request failed")
		}
	}

	repoURL := repo.HTMLURL
	if repoURL == "" {
		repoURL = fmt.Sprintf("https://github.com/%s/%s", target.Owner, target.Name)
	}

	return Result{
		Status:   "deployed",
		Repo:     target.Name,
		RepoURL:  repoURL,
		PagesURL: pagesURL,
	}, nil
}

func (p *Publisher) resolve(ctx context.Context, target Target, log zerolog.Logger) (*Repository, error) {
	repo, err := p.client.Lookup(ctx, target.Owner, target.Name)
	if err != nil {
		return nil, err
	}

	if repo == nil {
		if err := p.client.Create(ctx, target.Owner, target.Name, target.Description); err != nil {
			return nil, err
		}
		log.Info().Msg("repository created")
		return &Repository{Owner: target.Owner, Name: target.Name, FullName: target.Owner + "/" + target.Name}, nil
	}

	// 重命名或转移过的仓库会被重定向到别处，不能当成自己的仓库覆盖。
	if repo.FullName != "" && !strings.EqualFold(repo.FullName, target.Owner+"/"+target.Name) {
		return nil, fmt.Errorf("%w: %s", ErrNameCollision, repo.FullName)
	}

	if repo.Private {
		if m, ok := p.client.(PublicMaker); ok {
			if err := m.MakePublic(ctx, target.Owner, target.Name); err != nil {
				log.Warn().Err(err).Msg("could not make repository public")
			} else {
				log.Info().Msg("repository made public")
			}
		}
	}
	log.Debug().Msg("reusing existing repository")
	return repo, nil
}

func (p *Publisher) siteFiles(target Target, html, pagesURL string) []SiteFile {
	files := []SiteFile{{Path: "index.html", Content: html}}
	if !p.opts.Scaffold {
		return files
	}
	return append(files,
		SiteFile{Path: "README.md", Content: readmeText(target.Name, target.Description, pagesURL, p.opts.Branch)},
		SiteFile{Path: "LICENSE", Content: licenseText(p.now().Year(), target.Owner)},
		SiteFile{Path: ".nojekyll", Content: "\n"},
	)
}

// PagesURL returns where the hosting service serves the repository.
// A repository named "<owner>.<domain>" is the user site and lives at the root.
func PagesURL(owner, name, domain string) string {
	if domain == "" {
		domain = DefaultPagesDomain
	}
	host := strings.ToLower(owner) + "." + domain
	if strings.EqualFold(name, host) {
		return "https://" + host + "/"
	}
	return "https://" + host + "/" + name + "/"
}
