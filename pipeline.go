package souqfeed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// SubmissionState is one phase of a submission attempt. Succeeded and
// Failed are terminal.
type SubmissionState string

const (
	StateIdle            SubmissionState = "idle"
	StateValidating      SubmissionState = "validating"
	StateUploading       SubmissionState = "uploading"
	StateResolvingAuthor SubmissionState = "resolving_author"
	StatePersisting      SubmissionState = "persisting"
	StateSucceeded       SubmissionState = "succeeded"
	StateFailed          SubmissionState = "failed"
)

// Submission is the user's input for one new post. Image is optional.
type Submission struct {
	Title       string
	Description string
	Price       string
	Category    string
	Location    string
	Phone       string
	Image       *Blob
}

// Validate checks the required submission fields. Price, category, and
// image are optional.
func (s *Submission) Validate() error {
	required := []struct {
		name, value string
	}{
		{"title", s.Title},
		{"description", s.Description},
		{"location", s.Location},
		{"phone", s.Phone},
	}

	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, field.name)
		}
	}

	return nil
}

// SubmitObserver receives optional progress signals during Submit. Either
// hook may be nil.
type SubmitObserver struct {
	OnState          func(SubmissionState)
	OnUploadProgress func(fraction float64)
}

func (o *SubmitObserver) state(s SubmissionState) {
	if o != nil && o.OnState != nil {
		o.OnState(s)
	}
}

// SubmissionPipeline orchestrates validation, the optional media upload,
// author profile resolution, and the final append of a new post. One
// pipeline instance serves one submission at a time; callers run Submit
// once per attempt.
type SubmissionPipeline struct {
	backend   Backend
	session   Session
	uploads   *UploadCoordinator
	profiles  *ProfileResolver
	postsPath string
	logger    *slog.Logger
}

// PipelineOptions configures a SubmissionPipeline.
type PipelineOptions struct {
	Backend   Backend             // Backend is the remote store. Required.
	Session   Session             // Session yields the current user identity. Required.
	Uploads   *UploadCoordinator  // Uploads handles the optional media transfer. Required.
	Profiles  *ProfileResolver    // Profiles resolves the author record. Required.
	PostsPath string              // PostsPath is the collection new posts are appended to. Required.
	Logger    *slog.Logger        // Logger defaults to a debug logger to stderr.
}

// NewSubmissionPipeline creates a pipeline writing to PostsPath.
func NewSubmissionPipeline(opts PipelineOptions) (*SubmissionPipeline, error) {
	if opts.Backend == nil || opts.Session == nil || opts.Uploads == nil || opts.Profiles == nil || opts.PostsPath == "" {
		return nil, errors.New("Backend, Session, Uploads, Profiles, and PostsPath are required")
	}

	if opts.Logger == nil {
		opts.Logger = defaultLogger()
	}

	return &SubmissionPipeline{
		backend:   opts.Backend,
		session:   opts.Session,
		uploads:   opts.Uploads,
		profiles:  opts.Profiles,
		postsPath: opts.PostsPath,
		logger:    opts.Logger,
	}, nil
}

// Submit runs one submission attempt to its terminal state and returns the
// store-assigned post key on success. Failures collapse to a single
// *SubmitError carrying the failure kind; a failed attempt never appends a
// post. The post reaches the local cache through the normal subscription
// path, not through this call.
func (p *SubmissionPipeline) Submit(ctx context.Context, sub Submission, obs *SubmitObserver) (string, error) {
	obs.state(StateValidating)
	if err := sub.Validate(); err != nil {
		obs.state(StateFailed)
		return "", submitFailed(FailureValidation, err)
	}

	uid, ok := p.session.CurrentUserID()
	if !ok {
		obs.state(StateFailed)
		return "", submitFailed(FailureState, ErrNoIdentity)
	}

	imageURL := ""
	if sub.Image != nil {
		obs.state(StateUploading)
		url, err := p.uploadImage(ctx, *sub.Image, obs)
		if err != nil {
			obs.state(StateFailed)
			return "", submitFailed(FailureTransport, err)
		}
		imageURL = url
	}

	obs.state(StateResolvingAuthor)
	profile, err := p.profiles.Resolve(ctx, uid)
	if err != nil {
		obs.state(StateFailed)
		if errors.Is(err, ErrProfileMissing) {
			return "", submitFailed(FailureState, err)
		}
		return "", submitFailed(FailureTransport, err)
	}

	obs.state(StatePersisting)
	fields := map[string]any{
		"title":       sub.Title,
		"description": sub.Description,
		"price":       sub.Price,
		"category":    sub.Category,
		"location":    sub.Location,
		"phone":       sub.Phone,
		"authorId":    profile.UID,
		"authorName":  profile.Name,
		"authorPhone": profile.Phone,
		"imageUrl":    imageURL,
		"timestamp":   ServerTimestamp{},
	}

	// A successful upload followed by a failed append leaves the uploaded
	// object orphaned. There is no compensating delete; the write path is
	// append-only and not transactional across steps.
	key, err := p.backend.Append(ctx, p.postsPath, fields)
	if err != nil {
		obs.state(StateFailed)
		return "", submitFailed(FailureTransport, fmt.Errorf("failed to append post: %w", err))
	}

	p.logger.Info("post submitted",
		slog.String("key", key),
		slog.String("author", profile.UID),
		slog.Bool("hasImage", imageURL != ""))

	obs.state(StateSucceeded)
	return key, nil
}

func (p *SubmissionPipeline) uploadImage(ctx context.Context, image Blob, obs *SubmitObserver) (string, error) {
	var onProgress func(float64)
	if obs != nil {
		onProgress = obs.OnUploadProgress
	}

	session := p.uploads.Start(ctx, image, onProgress)

	url, err := session.Wait(ctx)
	if err != nil {
		return "", fmt.Errorf("upload %s failed: %w", session.Key(), err)
	}
	return url, nil
}
