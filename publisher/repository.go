package publisher

import "context"

// Repository is what the hosting platform reports about an existing repository.
type Repository struct {
	Owner         string
	Name          string
	FullName      string
	Private       bool
	HTMLURL       string
	DefaultBranch string
}

// SiteFile is one file written to the repository root.
type SiteFile struct {
	Path    string
	Content string
}

// RepositoryClient is the slice of the hosting platform the publisher needs.
type RepositoryClient interface {
	// Lookup returns nil, nil when the repository does not exist.
	Lookup(ctx context.Context, owner, name string) (*Repository, error)
	// Create makes an empty public repository.
	Create(ctx context.Context, owner, name, description string) error
	// PushContent writes files to branch, overwriting whatever is there.
	PushContent(ctx context.Context, owner, name, branch, message string, files []SiteFile) error
	// EnablePages serves branch as a static site. It reports false when
	// hosting was already enabled.
	EnablePages(ctx context.Context, owner, name, branch string) (bool, error)
}

// PublicMaker is implemented by clients able to flip a private repository public.
type PublicMaker interface {
	MakePublic(ctx context.Context, owner, name string) error
}

// PagesBuilder is implemented by clients able to request a fresh pages build.
type PagesBuilder interface {
	RequestPagesBuild(ctx context.Context, owner, name string) error
}
