package services

import (
	"context"
	"errors"
	"testing"

	"imagefeed/internal/api"
	"imagefeed/internal/models"
	"imagefeed/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProfile(t *testing.T, fake *fakeAPI) (*ProfileService, *repository.MemoryTokenStore, *eventRecorder) {
	t.Helper()
	tokens := repository.NewMemoryTokenStore()
	require.NoError(t, tokens.SaveToken(context.Background(), "tok"))
	notifier := NewNotifier(16)
	return NewProfileService(fake, tokens, notifier), tokens, recordEvents(notifier)
}

func TestFetchProfile_Success(t *testing.T) {
	bio := "photographer"
	fake := &fakeAPI{
		getMeFunc: func(ctx context.Context, token string) (*models.ProfileResult, error) {
			assert.Equal(t, "tok", token)
			first := "Jane"
			return &models.ProfileResult{Username: "jane", FirstName: &first, Bio: &bio}, nil
		},
	}
	svc, _, events := newTestProfile(t, fake)

	profile, err := svc.FetchProfile(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "jane", profile.Username)
	assert.Equal(t, "Jane", profile.Name)
	assert.Equal(t, "@jane", profile.LoginName)
	require.NotNil(t, profile.Bio)
	assert.Equal(t, bio, *profile.Bio)

	assert.Equal(t, profile, svc.Profile())
	assert.Equal(t, []models.Event{{Type: models.EventProfileChanged}}, events.drain())
}

func TestFetchProfile_FailureKeepsPreviousProfile(t *testing.T) {
	fail := false
	fake := &fakeAPI{
		getMeFunc: func(ctx context.Context, token string) (*models.ProfileResult, error) {
			if fail {
				return nil, &api.HTTPStatusError{StatusCode: 500}
			}
			return &models.ProfileResult{Username: "first"}, nil
		},
	}
	svc, _, events := newTestProfile(t, fake)

	_, err := svc.FetchProfile(context.Background(), "tok")
	require.NoError(t, err)
	events.drain()

	fail = true
	_, err = svc.FetchProfile(context.Background(), "tok")
	require.Error(t, err)
	assert.Equal(t, 500, api.StatusCode(err))

	require.NotNil(t, svc.Profile())
	assert.Equal(t, "first", svc.Profile().Username)
	assert.Empty(t, events.drain())
}

func TestFetchProfile_MissingToken(t *testing.T) {
	fake := &fakeAPI{}
	svc, _, _ := newTestProfile(t, fake)

	_, err := svc.FetchProfile(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingToken)
	assert.Zero(t, fake.GetMeCalls())
}

func TestFetchProfile_SupersededCall(t *testing.T) {
	g := newGate()
	fake := &fakeAPI{
		getMeFunc: func(ctx context.Context, token string) (*models.ProfileResult, error) {
			if token == "slow" {
				if err := g.wait(ctx); err != nil {
					return nil, err
				}
				return &models.ProfileResult{Username: "stale"}, nil
			}
			return &models.ProfileResult{Username: "fresh"}, nil
		},
	}
	svc, _, _ := newTestProfile(t, fake)

	first := make(chan error, 1)
	go func() {
		_, err := svc.FetchProfile(context.Background(), "slow")
		first <- err
	}()
	g.awaitStart(t)

	profile, err := svc.FetchProfile(context.Background(), "fast")
	require.NoError(t, err)
	assert.Equal(t, "fresh", profile.Username)

	assert.ErrorIs(t, <-first, ErrSuperseded)
	assert.Equal(t, "fresh", svc.Profile().Username)
}

func TestFetchAvatarURL(t *testing.T) {
	fake := &fakeAPI{}
	svc, _, events := newTestProfile(t, fake)

	avatarURL, err := svc.FetchAvatarURL(context.Background(), "jane")
	require.NoError(t, err)
	assert.Equal(t, "https://img/jane", avatarURL)
	assert.Equal(t, avatarURL, svc.AvatarURL())

	assert.Equal(t, []models.Event{{Type: models.EventAvatarChanged, AvatarURL: avatarURL}}, events.drain())
}

func TestFetchAvatarURL_MissingToken(t *testing.T) {
	fake := &fakeAPI{}
	svc, tokens, _ := newTestProfile(t, fake)
	require.NoError(t, tokens.DeleteToken(context.Background()))

	_, err := svc.FetchAvatarURL(context.Background(), "jane")
	assert.True(t, errors.Is(err, ErrMissingToken))
}

func TestFetchAvatarURL_FailureKeepsValue(t *testing.T) {
	fail := false
	fake := &fakeAPI{
		getUserFunc: func(ctx context.Context, token, username string) (*models.UserResult, error) {
			if fail {
				return nil, api.ErrDecoding
			}
			return &models.UserResult{ProfileImage: models.ProfileImage{Small: "https://img/a"}}, nil
		},
	}
	svc, _, events := newTestProfile(t, fake)

	_, err := svc.FetchAvatarURL(context.Background(), "jane")
	require.NoError(t, err)
	events.drain()

	fail = true
	_, err = svc.FetchAvatarURL(context.Background(), "jane")
	assert.ErrorIs(t, err, api.ErrDecoding)
	assert.Equal(t, "https://img/a", svc.AvatarURL())
	assert.Empty(t, events.drain())
}

func TestClearProfileAndAvatar(t *testing.T) {
	fake := &fakeAPI{}
	svc, _, events := newTestProfile(t, fake)

	_, err := svc.FetchProfile(context.Background(), "tok")
	require.NoError(t, err)
	_, err = svc.FetchAvatarURL(context.Background(), "jdoe")
	require.NoError(t, err)
	events.drain()

	svc.ClearProfile()
	svc.ClearAvatar()

	assert.Nil(t, svc.Profile())
	assert.Empty(t, svc.AvatarURL())
	assert.Equal(t, []models.Event{
		{Type: models.EventProfileChanged},
		{Type: models.EventAvatarChanged},
	}, events.drain())
}
