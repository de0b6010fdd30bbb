package souqfeed_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypergopher/souqfeed"
)

func newTestPipeline(t *testing.T, backend *fakeBackend, session fakeSession) *souqfeed.SubmissionPipeline {
	t.Helper()

	pipeline, err := souqfeed.NewSubmissionPipeline(souqfeed.PipelineOptions{
		Backend:   backend,
		Session:   session,
		Uploads:   souqfeed.NewUploadCoordinator(backend, "post_images", nil),
		Profiles:  souqfeed.NewProfileResolver(backend, "users", 16, time.Minute),
		PostsPath: "posts",
	})
	require.NoError(t, err)
	return pipeline
}

func validSubmission() souqfeed.Submission {
	return souqfeed.Submission{
		Title:       "بيت للبيع",
		Description: "وصف",
		Location:    "عمان",
		Phone:       "0790000000",
	}
}

func TestSubmission_Validate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*souqfeed.Submission)
		wantErr bool
	}{
		{name: "valid", mutate: func(*souqfeed.Submission) {}, wantErr: false},
		{name: "price optional", mutate: func(s *souqfeed.Submission) { s.Price = "" }, wantErr: false},
		{name: "missing title", mutate: func(s *souqfeed.Submission) { s.Title = "" }, wantErr: true},
		{name: "missing description", mutate: func(s *souqfeed.Submission) { s.Description = "" }, wantErr: true},
		{name: "missing location", mutate: func(s *souqfeed.Submission) { s.Location = "  " }, wantErr: true},
		{name: "missing phone", mutate: func(s *souqfeed.Submission) { s.Phone = "" }, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sub := validSubmission()
			tc.mutate(&sub)

			err := sub.Validate()
			if tc.wantErr {
				assert.ErrorIs(t, err, souqfeed.ErrMissingField)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSubmit_WithoutImageSkipsUploading(t *testing.T) {
	backend := newFakeBackend()
	backend.reads["users/u1"] = profileSnapshot("u1", "أحمد", "0791111111")
	pipeline := newTestPipeline(t, backend, fakeSession{uid: "u1"})

	var states []souqfeed.SubmissionState
	key, err := pipeline.Submit(context.Background(), validSubmission(), &souqfeed.SubmitObserver{
		OnState: func(s souqfeed.SubmissionState) { states = append(states, s) },
	})
	require.NoError(t, err)
	assert.NotEmpty(t, key)

	assert.Equal(t, []souqfeed.SubmissionState{
		souqfeed.StateValidating,
		souqfeed.StateResolvingAuthor,
		souqfeed.StatePersisting,
		souqfeed.StateSucceeded,
	}, states)

	require.Len(t, backend.appends, 1)
	call := backend.appends[0]
	assert.Equal(t, "posts", call.path)
	assert.Equal(t, "بيت للبيع", call.fields["title"])
	assert.Equal(t, "", call.fields["imageUrl"])
	assert.Equal(t, "u1", call.fields["authorId"])
	assert.Equal(t, "أحمد", call.fields["authorName"])
	assert.Equal(t, "0791111111", call.fields["authorPhone"])

	// The creation timestamp is the server's, never the client's.
	assert.Equal(t, backend.serverNow.UnixMilli(), call.fields["timestamp"])
	assert.Empty(t, backend.uploads)
}

func TestSubmit_ValidationFailureTouchesNothing(t *testing.T) {
	backend := newFakeBackend()
	pipeline := newTestPipeline(t, backend, fakeSession{uid: "u1"})

	sub := validSubmission()
	sub.Title = ""

	_, err := pipeline.Submit(context.Background(), sub, nil)
	require.Error(t, err)

	var submitErr *souqfeed.SubmitError
	require.ErrorAs(t, err, &submitErr)
	assert.Equal(t, souqfeed.FailureValidation, submitErr.Kind)
	assert.ErrorIs(t, err, souqfeed.ErrMissingField)

	assert.Empty(t, backend.appends)
	assert.Empty(t, backend.uploads)
}

func TestSubmit_NoIdentityFails(t *testing.T) {
	backend := newFakeBackend()
	pipeline := newTestPipeline(t, backend, fakeSession{})

	_, err := pipeline.Submit(context.Background(), validSubmission(), nil)

	var submitErr *souqfeed.SubmitError
	require.ErrorAs(t, err, &submitErr)
	assert.Equal(t, souqfeed.FailureState, submitErr.Kind)
	assert.ErrorIs(t, err, souqfeed.ErrNoIdentity)
	assert.Empty(t, backend.appends)
}

func TestSubmit_MissingProfileFails(t *testing.T) {
	backend := newFakeBackend()
	pipeline := newTestPipeline(t, backend, fakeSession{uid: "ghost"})

	_, err := pipeline.Submit(context.Background(), validSubmission(), nil)

	var submitErr *souqfeed.SubmitError
	require.ErrorAs(t, err, &submitErr)
	assert.Equal(t, souqfeed.FailureState, submitErr.Kind)
	assert.ErrorIs(t, err, souqfeed.ErrProfileMissing)
	assert.Empty(t, backend.appends)
}

func TestSubmit_WithImageUploadsFirst(t *testing.T) {
	backend := newFakeBackend()
	backend.reads["users/u1"] = profileSnapshot("u1", "أحمد", "0791111111")
	backend.nextUpload = &fakeUploadHandle{
		url:            "https://cdn.example.com/photo.jpg",
		scriptProgress: [][2]int64{{50, 100}, {100, 100}},
		scriptComplete: true,
	}
	pipeline := newTestPipeline(t, backend, fakeSession{uid: "u1"})

	sub := validSubmission()
	sub.Image = &souqfeed.Blob{Name: "photo.jpg", Size: 100}

	var states []souqfeed.SubmissionState
	var fractions []float64
	key, err := pipeline.Submit(context.Background(), sub, &souqfeed.SubmitObserver{
		OnState:          func(s souqfeed.SubmissionState) { states = append(states, s) },
		OnUploadProgress: func(f float64) { fractions = append(fractions, f) },
	})
	require.NoError(t, err)
	assert.NotEmpty(t, key)

	assert.Equal(t, []souqfeed.SubmissionState{
		souqfeed.StateValidating,
		souqfeed.StateUploading,
		souqfeed.StateResolvingAuthor,
		souqfeed.StatePersisting,
		souqfeed.StateSucceeded,
	}, states)
	assert.Equal(t, []float64{0.5, 1.0}, fractions)

	require.Len(t, backend.appends, 1)
	assert.Equal(t, "https://cdn.example.com/photo.jpg", backend.appends[0].fields["imageUrl"])
}

func TestSubmit_UploadFailurePreventsPersistence(t *testing.T) {
	backend := newFakeBackend()
	backend.reads["users/u1"] = profileSnapshot("u1", "أحمد", "0791111111")
	backend.nextUpload = &fakeUploadHandle{
		scriptErr: errors.New("storage quota exceeded"),
	}
	pipeline := newTestPipeline(t, backend, fakeSession{uid: "u1"})

	sub := validSubmission()
	sub.Image = &souqfeed.Blob{Name: "photo.jpg", Size: 100}

	_, err := pipeline.Submit(context.Background(), sub, nil)

	var submitErr *souqfeed.SubmitError
	require.ErrorAs(t, err, &submitErr)
	assert.Equal(t, souqfeed.FailureTransport, submitErr.Kind)

	// No post is ever created referencing a half-uploaded asset.
	assert.Empty(t, backend.appends)
}

func TestSubmit_PersistenceFailureLeavesUploadOrphaned(t *testing.T) {
	backend := newFakeBackend()
	backend.reads["users/u1"] = profileSnapshot("u1", "أحمد", "0791111111")
	backend.appendErr = errors.New("write rejected")
	backend.nextUpload = &fakeUploadHandle{
		url:            "https://cdn.example.com/photo.jpg",
		scriptComplete: true,
	}
	pipeline := newTestPipeline(t, backend, fakeSession{uid: "u1"})

	sub := validSubmission()
	sub.Image = &souqfeed.Blob{Name: "photo.jpg", Size: 100}

	_, err := pipeline.Submit(context.Background(), sub, nil)

	var submitErr *souqfeed.SubmitError
	require.ErrorAs(t, err, &submitErr)
	assert.Equal(t, souqfeed.FailureTransport, submitErr.Kind)

	// The uploaded object stays where it is; there is no compensating delete.
	require.Len(t, backend.uploads, 1)
	assert.False(t, backend.uploads[0].cancelled)
}

func TestSubmit_ProfileIsCachedAcrossAttempts(t *testing.T) {
	backend := newFakeBackend()
	backend.reads["users/u1"] = profileSnapshot("u1", "أحمد", "0791111111")
	pipeline := newTestPipeline(t, backend, fakeSession{uid: "u1"})

	_, err := pipeline.Submit(context.Background(), validSubmission(), nil)
	require.NoError(t, err)

	// Remove the remote record: the cached profile still serves.
	delete(backend.reads, "users/u1")

	_, err = pipeline.Submit(context.Background(), validSubmission(), nil)
	require.NoError(t, err)
	assert.Len(t, backend.appends, 2)
}
