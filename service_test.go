package stowgate_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/stowgate"
)

type SpyMetaDataRepo struct {
	mock.Mock
}

func (s *SpyMetaDataRepo) Get(ctx context.Context, path string) (stowgate.MetaData, error) {
	args := s.Called(ctx, path)
	return args.Get(0).(stowgate.MetaData), args.Error(1)
}

func (s *SpyMetaDataRepo) Upsert(ctx context.Context, entry stowgate.ObjectEntry) (stowgate.MetaData, bool, error) {
	args := s.Called(ctx, entry)
	return args.Get(0).(stowgate.MetaData), args.Bool(1), args.Error(2)
}

func (s *SpyMetaDataRepo) List(ctx context.Context, q stowgate.ListQuery) (stowgate.ListResult, error) {
	args := s.Called(ctx, q)
	return args.Get(0).(stowgate.ListResult), args.Error(1)
}

type SpyFileStorage struct {
	mock.Mock
}

func (s *SpyFileStorage) Get(ctx context.Context, path string) (io.ReadSeekCloser, error) {
	args := s.Called(ctx, path)
	rsc, _ := args.Get(0).(io.ReadSeekCloser)
	return rsc, args.Error(1)
}

func (s *SpyFileStorage) List(ctx context.Context) ([]stowgate.ObjectEntry, error) {
	args := s.Called(ctx)
	return args.Get(0).([]stowgate.ObjectEntry), args.Error(1)
}

type closeTracker struct {
	*bytes.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func newContent(s string) *closeTracker {
	return &closeTracker{Reader: bytes.NewReader([]byte(s))}
}

var updatedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleMetaData(path string, size int64) stowgate.MetaData {
	return stowgate.MetaData{
		ID:   uuid.New(),
		Path: path,
		HTTPMetadata: stowgate.HTTPMetadata{
			ContentType:  "text/plain",
			CacheControl: "max-age=60",
		},
		Etag:          "abc123",
		FileSizeBytes: size,
		CreatedAt:     updatedAt.Add(-time.Hour),
		UpdatedAt:     updatedAt,
	}
}

func newBucket(t *testing.T) (*stowgate.Bucket, *SpyMetaDataRepo, *SpyFileStorage) {
	t.Helper()

	repo := new(SpyMetaDataRepo)
	storage := new(SpyFileStorage)
	bucket, err := stowgate.NewBucket(repo, storage)
	require.NoError(t, err)
	return bucket, repo, storage
}

func TestNewBucket_RequiresDependencies(t *testing.T) {
	_, err := stowgate.NewBucket(nil, new(SpyFileStorage))
	assert.Error(t, err)

	_, err = stowgate.NewBucket(new(SpyMetaDataRepo), nil)
	assert.Error(t, err)
}

func TestBucket_Get(t *testing.T) {
	bucket, repo, storage := newBucket(t)
	ctx := context.Background()

	content := newContent("hello world")
	repo.On("Get", ctx, "file.txt").Return(sampleMetaData("file.txt", 11), nil)
	storage.On("Get", ctx, "file.txt").Return(content, nil)

	obj, err := bucket.Get(ctx, "file.txt", stowgate.GetOptions{})
	require.NoError(t, err)
	require.NotNil(t, obj.Body)

	body, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	require.NoError(t, obj.Body.Close())

	assert.Equal(t, "hello world", string(body))
	assert.True(t, content.closed)
	assert.Equal(t, "file.txt", obj.Key)
	assert.Equal(t, int64(11), obj.Size)
	assert.Equal(t, "abc123", obj.ETag)
	assert.Equal(t, `"abc123"`, obj.HTTPEtag())
	assert.Equal(t, updatedAt, obj.Uploaded)
	assert.Equal(t, "max-age=60", obj.HTTPMetadata.CacheControl)
	assert.Nil(t, obj.Range)
}

func TestBucket_Get_Range(t *testing.T) {
	bucket, repo, storage := newBucket(t)
	ctx := context.Background()

	repo.On("Get", ctx, "file.txt").Return(sampleMetaData("file.txt", 11), nil)
	storage.On("Get", ctx, "file.txt").Return(newContent("hello world"), nil)

	obj, err := bucket.Get(ctx, "file.txt", stowgate.GetOptions{
		Range: &stowgate.Range{Offset: 6, Length: 100},
	})
	require.NoError(t, err)

	body, err := io.ReadAll(obj.Body)
	require.NoError(t, err)

	assert.Equal(t, "world", string(body))
	assert.Equal(t, &stowgate.Range{Offset: 6, Length: 5}, obj.Range)
}

func TestBucket_Get_RangeNotSatisfiable(t *testing.T) {
	bucket, repo, storage := newBucket(t)
	ctx := context.Background()

	repo.On("Get", ctx, "file.txt").Return(sampleMetaData("file.txt", 11), nil)

	_, err := bucket.Get(ctx, "file.txt", stowgate.GetOptions{
		Range: &stowgate.Range{Offset: 11, Length: 1},
	})

	assert.ErrorIs(t, err, stowgate.ErrRangeNotSatisfiable)
	storage.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestBucket_Get_NotModified(t *testing.T) {
	bucket, repo, storage := newBucket(t)
	ctx := context.Background()

	repo.On("Get", ctx, "file.txt").Return(sampleMetaData("file.txt", 11), nil)

	obj, err := bucket.Get(ctx, "file.txt", stowgate.GetOptions{
		OnlyIf: stowgate.Conditions{IfNoneMatch: `"abc123"`},
	})
	require.NoError(t, err)

	assert.Nil(t, obj.Body)
	assert.Equal(t, "abc123", obj.ETag)
	storage.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestBucket_Get_NotFound(t *testing.T) {
	bucket, repo, _ := newBucket(t)
	ctx := context.Background()

	repo.On("Get", ctx, "missing.txt").Return(stowgate.MetaData{}, stowgate.ErrNotFound)

	_, err := bucket.Get(ctx, "missing.txt", stowgate.GetOptions{})
	assert.ErrorIs(t, err, stowgate.ErrNotFound)
}

func TestBucket_Get_InvalidKey(t *testing.T) {
	bucket, repo, _ := newBucket(t)

	_, err := bucket.Get(context.Background(), "../etc/passwd", stowgate.GetOptions{})

	assert.ErrorIs(t, err, stowgate.ErrNotFound)
	repo.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestBucket_Get_CancelledContext(t *testing.T) {
	bucket, repo, _ := newBucket(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := bucket.Get(ctx, "file.txt", stowgate.GetOptions{})

	assert.ErrorIs(t, err, context.Canceled)
	repo.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestBucket_Head(t *testing.T) {
	bucket, repo, storage := newBucket(t)
	ctx := context.Background()

	repo.On("Get", ctx, "file.txt").Return(sampleMetaData("file.txt", 11), nil)

	obj, err := bucket.Head(ctx, "file.txt", stowgate.HeadOptions{
		OnlyIf: stowgate.Conditions{IfNoneMatch: `"abc123"`},
	})
	require.NoError(t, err)

	assert.Nil(t, obj.Body)
	assert.Equal(t, int64(11), obj.Size)
	storage.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestBucket_Populate(t *testing.T) {
	bucket, repo, storage := newBucket(t)
	ctx := context.Background()

	entries := []stowgate.ObjectEntry{
		{Path: "a.txt", Size: 1, ETag: "e1"},
		{Path: "b.txt", Size: 2, ETag: "e2"},
	}
	storage.On("List", ctx).Return(entries, nil)
	repo.On("Upsert", ctx, mock.Anything).Return(stowgate.MetaData{}, true, nil)

	n, err := bucket.Populate(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	repo.AssertNumberOfCalls(t, "Upsert", 2)
}

func TestBucket_Populate_StopsOnError(t *testing.T) {
	bucket, repo, storage := newBucket(t)
	ctx := context.Background()

	entries := []stowgate.ObjectEntry{{Path: "a.txt"}, {Path: "b.txt"}}
	storage.On("List", ctx).Return(entries, nil)
	repo.On("Upsert", ctx, entries[0]).Return(stowgate.MetaData{}, true, nil)
	repo.On("Upsert", ctx, entries[1]).Return(stowgate.MetaData{}, false, errors.New("disk full"))

	n, err := bucket.Populate(ctx)

	assert.Error(t, err)
	assert.Equal(t, 1, n)
}

func TestBucket_List(t *testing.T) {
	bucket, repo, _ := newBucket(t)
	ctx := context.Background()

	q := stowgate.ListQuery{PathPrefix: "docs/", Limit: 10}
	repo.On("List", ctx, q).Return(stowgate.ListResult{
		Items: []stowgate.MetaData{sampleMetaData("docs/a.txt", 1)},
	}, nil)

	result, err := bucket.List(ctx, q)
	require.NoError(t, err)
	assert.Len(t, result.Items, 1)
}
