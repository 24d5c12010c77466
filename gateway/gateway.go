package gateway

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"llm_code_deployer/generator"
	"llm_code_deployer/publisher"
)

const DefaultMaxConcurrent = 4

// BuildRequest is the body of a build call.
type BuildRequest struct {
	Student string `json:"student" validate:"required"`
	Brief   string `json:"brief" validate:"required"`
	Secret  string `json:"secret"`
}

// Generator turns a brief into a document.
type Generator interface {
	Generate(ctx context.Context, brief string) (generator.Document, error)
}

// Publisher puts a document online.
type Publisher interface {
	Publish(ctx context.Context, target publisher.Target, html string) (publisher.Result, error)
}

// Options configures a Gateway.
type Options struct {
	Secret        string
	Owner         string
	MaxConcurrent int64
}

// Gateway checks build requests and runs the generate -> publish pipeline.
type Gateway struct {
	gen      Generator
	pub      Publisher
	secret   []byte
	owner    string
	sem      *semaphore.Weighted
	validate *validator.Validate
	logger   zerolog.Logger
}

func New(gen Generator, pub Publisher, opts Options, logger zerolog.Logger) (*Gateway, error) {
	if gen == nil || pub == nil {
		return nil, errors.New("generator and publisher are required")
	}
	if opts.Owner == "" {
		return nil, errors.New("repository owner is required")
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = DefaultMaxConcurrent
	}
	return &Gateway{
		gen:      gen,
		pub:      pub,
		secret:   []byte(opts.Secret),
		owner:    opts.Owner,
		sem:      semaphore.NewWeighted(opts.MaxConcurrent),
		validate: validator.New(),
		logger:   logger,
	}, nil
}

// Build authorizes the request and deploys it. A wrong secret fails before
// anything else is looked at.
func (g *Gateway) Build(ctx context.Context, req BuildRequest) (publisher.Result, error) {
	if len(g.secret) == 0 || subtle.ConstantTimeCompare([]byte(req.Secret), g.secret) != 1 {
		g.log(ctx).Warn().Str("student", strings.TrimSpace(req.Student)).Msg("build rejected: secret mismatch")
		return publisher.Result{}, &AuthorizationError{}
	}
	return g.Deploy(ctx, req.Student, req.Brief)
}

// Deploy validates the input, waits for a free build slot and runs the pipeline.
// Waiting for a slot follows ctx; once started, the pipeline ignores ctx
// cancellation and is bounded by the per-call timeouts of the clients.
func (g *Gateway) Deploy(ctx context.Context, student, brief string) (publisher.Result, error) {
	req := BuildRequest{Student: strings.TrimSpace(student), Brief: strings.TrimSpace(brief)}
	if err := g.validate.Struct(req); err != nil {
		return publisher.Result{}, toValidationError(err)
	}

	if err := g.sem.Acquire(ctx, 1); err != nil {
		return publisher.Result{}, fmt.Errorf("waiting for a build slot: %w", err)
	}
	defer g.sem.Release(1)

	return g.run(context.WithoutCancel(ctx), req.Student, req.Brief)
}

func (g *Gateway) run(ctx context.Context, student, brief string) (publisher.Result, error) {
	name := RepoName(student, brief)
	log := g.log(ctx).With().Str("student", student).Str("repo", name).Logger()
	start := time.Now()

	log.Info().Msg("build started")
	doc, err := g.gen.Generate(ctx, brief)
	if err != nil {
		log.Error().Err(err).Msg("generation failed")
		return publisher.Result{}, fmt.Errorf("build %s: %w", name, err)
	}
	log.Debug().Int("html_bytes", len(doc.HTML)).Msg("document generated")

	target := publisher.Target{Owner: g.owner, Name: name, Description: brief}
	res, err := g.pub.Publish(ctx, target, doc.HTML)
	if err != nil {
		log.Error().Err(err).Msg("publish failed")
		return publisher.Result{}, fmt.Errorf("build %s: %w", name, err)
	}

	log.Info().Str("pages_url", res.PagesURL).Dur("elapsed", time.Since(start)).Msg("build deployed")
	return res, nil
}

// log prefers the request-scoped logger carried by ctx.
func (g *Gateway) log(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &g.logger
}

func toValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		field := strings.ToLower(fe.Field())
		if fe.Tag() == "required" {
			return &ValidationError{Field: field, Message: "must not be empty"}
		}
		return &ValidationError{Field: field, Message: fmt.Sprintf("failed %q check", fe.Tag())}
	}
	return &ValidationError{Field: "request", Message: err.Error()}
}
