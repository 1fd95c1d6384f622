package aws

import (
	"blobnav/pkg/common"
	"blobnav/pkg/storage"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 serves just enough of the S3 REST API for one bucket named "docs"
type fakeS3 struct {
	mu       sync.Mutex
	objects  map[string][]byte
	pageSize int
	lists    atomic.Int32
	// Keys whose GET response ends before its declared length
	truncated map[string]bool
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	bucket, key, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if bucket != "docs" {
		writeS3Error(w, http.StatusNotFound, "NoSuchBucket")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && key == "" && r.URL.Query().Get("list-type") == "2":
		f.lists.Add(1)
		f.list(w, r)
	case r.Method == http.MethodHead:
		if _, ok := f.objects[key]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodGet:
		data, ok := f.objects[key]
		if !ok {
			writeS3Error(w, http.StatusNotFound, "NoSuchKey")
			return
		}
		declared := len(data)
		if f.truncated[key] {
			declared += 100
		}
		w.Header().Set("Content-Length", fmt.Sprint(declared))
		w.Write(data)
	case r.Method == http.MethodPut:
		data, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		f.objects[key] = data
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

// Delimited listing with continuation tokens that are plain offsets into the sorted result
func (f *fakeS3) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	prefix := q.Get("prefix")
	delimiter := q.Get("delimiter")

	type item struct {
		name     string
		isPrefix bool
	}
	var items []item
	seenPrefixes := map[string]bool{}
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		rest := k[len(prefix):]
		if delimiter != "" {
			if idx := strings.Index(rest, delimiter); idx >= 0 {
				p := prefix + rest[:idx+1]
				if !seenPrefixes[p] {
					seenPrefixes[p] = true
					items = append(items, item{name: p, isPrefix: true})
				}
				continue
			}
		}
		items = append(items, item{name: k})
	}

	start := 0
	fmt.Sscan(q.Get("continuation-token"), &start)
	end := min(start+f.pageSize, len(items))
	truncated := end < len(items)

	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?><ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">`)
	fmt.Fprintf(&sb, "<Name>docs</Name><Prefix>%s</Prefix><KeyCount>%d</KeyCount><IsTruncated>%t</IsTruncated>", prefix, end-start, truncated)
	if truncated {
		fmt.Fprintf(&sb, "<NextContinuationToken>%d</NextContinuationToken>", end)
	}
	for _, it := range items[start:end] {
		if it.isPrefix {
			fmt.Fprintf(&sb, "<CommonPrefixes><Prefix>%s</Prefix></CommonPrefixes>", it.name)
		} else {
			fmt.Fprintf(&sb, "<Contents><Key>%s</Key><Size>%d</Size></Contents>", it.name, len(f.objects[it.name]))
		}
	}
	sb.WriteString("</ListBucketResult>")

	w.Header().Set("Content-Type", "application/xml")
	io.WriteString(w, sb.String())
}

func (f *fakeS3) object(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	return data, ok
}

func writeS3Error(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>%s</Code><Message>%s</Message></Error>`, code, code)
}

func newFakeStore(t *testing.T, objects map[string]string, pageSize int) (*AWSStorage, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string][]byte{}, pageSize: pageSize}
	for k, v := range objects {
		fake.objects[k] = []byte(v)
	}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client := s3.New(s3.Options{
		Region:           defaultRegion,
		BaseEndpoint:     aws.String(srv.URL),
		UsePathStyle:     true,
		Credentials:      credentials.NewStaticCredentialsProvider("test", "test", ""),
		RetryMaxAttempts: 1,
	})
	store, err := newAWSStorage(client, defaultRegion, srv.URL, nil)
	require.NoError(t, err)
	return store, fake
}

func listAll(t *testing.T, store *AWSStorage, path string) storage.Listing {
	t.Helper()
	ctx := context.Background()
	handles, err := storage.AssemblerFor(store).Assemble(ctx, "docs", path, store.ListEntries(ctx, "docs", path))
	require.NoError(t, err)
	return storage.NewListing("docs", path, handles)
}

func TestListEntriesUsesDelimiter(t *testing.T) {
	store, _ := newFakeStore(t, map[string]string{
		"a.txt":           "0123456789",
		"sub/b.txt":       "bb",
		"sub/inner/x.txt": "x",
	}, 1000)

	root := listAll(t, store, "")
	require.Len(t, root.Files, 1)
	require.Len(t, root.Folders, 1)
	assert.Equal(t, "a.txt", root.Files[0].Name())
	assert.Equal(t, int64(10), root.Files[0].SizeBytes)
	assert.Equal(t, "sub", root.Folders[0].Name())
	assert.Equal(t, int64(0), root.Folders[0].SizeBytes)
	assert.Equal(t, common.AWS, root.Folders[0].Provider)
	assert.True(t, root.Folders[0].IsEmulated)

	sub := listAll(t, store, "sub")
	require.Len(t, sub.Files, 1)
	require.Len(t, sub.Folders, 1)
	assert.Equal(t, "b.txt", sub.Files[0].Name())
	assert.Equal(t, "sub/inner/", sub.Folders[0].FullName())
}

func TestListEntriesFollowsPagesLazily(t *testing.T) {
	objects := map[string]string{}
	for i := range 5 {
		objects[fmt.Sprintf("f%d.txt", i)] = "x"
	}
	store, fake := newFakeStore(t, objects, 2)

	listing := listAll(t, store, "")
	assert.Len(t, listing.Files, 5)
	assert.Equal(t, int32(3), fake.lists.Load())

	fake.lists.Store(0)
	for _, err := range store.ListEntries(context.Background(), "docs", "") {
		require.NoError(t, err)
		break
	}
	assert.Equal(t, int32(1), fake.lists.Load())
}

func TestMissingBucketAndObjects(t *testing.T) {
	ctx := context.Background()
	store, _ := newFakeStore(t, map[string]string{"a.txt": "a", "b.txt": "b"}, 1000)

	_, err := storage.AssemblerFor(store).Assemble(ctx, "nope", "", store.ListEntries(ctx, "nope", ""))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.DownloadBlob(ctx, "docs", "missing.txt")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	before := listAll(t, store, "")
	err = store.DeleteBlob(ctx, "docs", "missing.txt")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, before, listAll(t, store, ""))
}

func TestUploadDownloadDelete(t *testing.T) {
	ctx := context.Background()
	store, fake := newFakeStore(t, nil, 1000)

	// A plain io.Reader is spooled to disk before PutObject
	require.NoError(t, store.UploadBlob(ctx, "docs", "reports/q1.csv", io.MultiReader(strings.NewReader("a,b\n"), strings.NewReader("1,2\n"))))
	stored, ok := fake.object("reports/q1.csv")
	require.True(t, ok)
	assert.Equal(t, "a,b\n1,2\n", string(stored))

	listing := listAll(t, store, "reports/")
	require.Len(t, listing.Files, 1)
	assert.Equal(t, int64(8), listing.Files[0].SizeBytes)

	tmp, err := store.DownloadBlob(ctx, "docs", "reports/q1.csv")
	require.NoError(t, err)
	data, err := os.ReadFile(tmp.Path())
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(data))
	require.NoError(t, tmp.Release())
	_, err = os.Stat(tmp.Path())
	assert.True(t, errors.Is(err, os.ErrNotExist))

	require.NoError(t, store.DeleteBlob(ctx, "docs", "reports/q1.csv"))
	_, ok = fake.object("reports/q1.csv")
	assert.False(t, ok)
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) {
	return 0, errors.New("disk read failed")
}

func TestUploadSourceFailureIsLocalIO(t *testing.T) {
	store, fake := newFakeStore(t, nil, 1000)

	err := store.UploadBlob(context.Background(), "docs", "x.txt", brokenReader{})
	assert.ErrorIs(t, err, storage.ErrIO)
	_, ok := fake.object("x.txt")
	assert.False(t, ok)
}

func TestDownloadBodyFailureIsRemote(t *testing.T) {
	store, fake := newFakeStore(t, map[string]string{"cut.bin": "abc"}, 1000)
	fake.truncated = map[string]bool{"cut.bin": true}

	tmp, err := store.DownloadBlob(context.Background(), "docs", "cut.bin")
	assert.Nil(t, tmp)
	assert.ErrorIs(t, err, storage.ErrBackendUnavailable)
	assert.NotErrorIs(t, err, storage.ErrIO)
}

func TestResolveURL(t *testing.T) {
	store, _ := newFakeStore(t, map[string]string{"sub/my file.txt": "x"}, 1000)

	sub := listAll(t, store, "sub/")
	require.Len(t, sub.Files, 1)

	bucketName, key, err := store.ResolveURL(sub.Files[0].URL)
	require.NoError(t, err)
	assert.Equal(t, "docs", bucketName)
	assert.Equal(t, "sub/my file.txt", key)

	_, _, err = store.ResolveURL("https://other.example.com/docs/a.txt")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRegionalURLWithoutEndpoint(t *testing.T) {
	store, err := newAWSStorage(s3.New(s3.Options{Region: "eu-west-1"}), "eu-west-1", "", nil)
	require.NoError(t, err)
	assert.False(t, store.IsEmulated())
	assert.Equal(t, "https://s3.eu-west-1.amazonaws.com/docs/a.txt", store.objectURL("docs", "a.txt"))
}

func TestBucketNameRule(t *testing.T) {
	for _, name := range []string{"docs", "my.bucket-1", "abc"} {
		assert.NoError(t, bucketNameRule.Validate(name), name)
	}
	for _, name := range []string{"ab", "Docs", "-docs", "docs-", "a..b", "192.168.1.1", "under_score"} {
		assert.ErrorIs(t, bucketNameRule.Validate(name), storage.ErrInvalidName, name)
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		code string
		want error
	}{
		{"NoSuchBucket", storage.ErrNotFound},
		{"NoSuchKey", storage.ErrNotFound},
		{"BucketAlreadyOwnedByYou", storage.ErrAlreadyExists},
		{"InvalidBucketName", storage.ErrInvalidName},
		{"EntityTooLarge", storage.ErrQuotaExceeded},
		{"SlowDown", storage.ErrBackendUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := mapError(fmt.Errorf("op: %w", &smithy.GenericAPIError{Code: tt.code}))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.ErrorIs(t, mapError(context.DeadlineExceeded), storage.ErrCancelled)
	assert.NoError(t, mapError(nil))
}
