package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/homeshare/internal/client/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubUpload(t *testing.T, fn func(ctx context.Context, url string, data []byte, contentType string) error) {
	t.Helper()
	orig := uploadToPresignedURL
	uploadToPresignedURL = fn
	t.Cleanup(func() { uploadToPresignedURL = orig })
}

func TestStorage_Upload(t *testing.T) {
	c := &fakeClient{uploadURL: "http://signed"}
	s := NewStorageService(c, nopLogger{})

	var gotURL, gotCT string
	var gotData []byte
	stubUpload(t, func(ctx context.Context, url string, data []byte, contentType string) error {
		gotURL, gotData, gotCT = url, data, contentType
		return nil
	})

	require.NoError(t, s.Upload(context.Background(), "avatars", "u1-avatar-1.png", []byte("img"), "image/png"))
	assert.Equal(t, "http://signed", gotURL)
	assert.Equal(t, []byte("img"), gotData)
	assert.Equal(t, "image/png", gotCT)
	assert.Equal(t, "avatars", c.lastBucket)
	assert.Equal(t, "u1-avatar-1.png", c.lastPath)
	assert.Equal(t, "image/png", c.lastCT)
}

func TestStorage_UploadErrors(t *testing.T) {
	c := &fakeClient{uploadErr: client.ErrForbidden}
	s := NewStorageService(c, nopLogger{})

	called := false
	stubUpload(t, func(context.Context, string, []byte, string) error {
		called = true
		return errors.New("put failed")
	})

	require.ErrorIs(t, s.Upload(context.Background(), "avatars", "u2-x.png", nil, ""), client.ErrForbidden)
	assert.False(t, called)

	c.uploadErr = nil
	require.EqualError(t, s.Upload(context.Background(), "avatars", "u1-x.png", nil, ""), "put failed")
}

func TestStorage_PassThrough(t *testing.T) {
	c := &fakeClient{publicURL: "http://cdn/avatars/u1.png", bucketErr: client.ErrAlreadyExists}
	s := NewStorageService(c, nopLogger{})

	require.ErrorIs(t, s.CreateBucket(context.Background(), "avatars", true), client.ErrAlreadyExists)

	u, err := s.GetPublicURL(context.Background(), "avatars", "u1.png")
	require.NoError(t, err)
	assert.Equal(t, "http://cdn/avatars/u1.png", u)
}
