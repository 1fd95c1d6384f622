package azure

import (
	"blobnav/pkg/storage"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAzurite(t *testing.T) *AzureStorage {
	t.Helper()
	store, err := NewAzureStorage("UseDevelopmentStorage=true", nil)
	require.NoError(t, err)
	return store
}

func TestEmulatorDetection(t *testing.T) {
	assert.True(t, isEmulatorConnectionString("UseDevelopmentStorage=true"))
	assert.True(t, isEmulatorConnectionString(azuriteConnectionString))
	assert.False(t, isEmulatorConnectionString("DefaultEndpointsProtocol=https;AccountName=prod;AccountKey=a2V5;EndpointSuffix=core.windows.net"))

	store := newAzurite(t)
	assert.True(t, store.IsEmulated())
	assert.Equal(t, "127.0.0.1:10000", store.serviceURL.Host)
}

func TestRealAccountIsNotEmulated(t *testing.T) {
	store, err := NewAzureStorage("DefaultEndpointsProtocol=https;AccountName=prod;AccountKey=a2V5;EndpointSuffix=core.windows.net", nil)
	require.NoError(t, err)
	assert.False(t, store.IsEmulated())
	assert.Equal(t, "https://prod.blob.core.windows.net/docs/a.txt", store.blobURL("docs", "a.txt"))
}

func TestInvalidConnectionString(t *testing.T) {
	_, err := NewAzureStorage("not-a-connection-string", nil)
	assert.Error(t, err)
}

func TestBlobURLRoundTrip(t *testing.T) {
	store := newAzurite(t)

	fileURL := store.blobURL("docs", "sub/my file.txt")
	assert.Equal(t, "http://127.0.0.1:10000/devstoreaccount1/docs/sub/my%20file.txt", fileURL)

	containerName, fullName, err := store.ResolveURL(fileURL)
	require.NoError(t, err)
	assert.Equal(t, "docs", containerName)
	assert.Equal(t, "sub/my file.txt", fullName)

	folderURL := store.blobURL("docs", "sub/")
	containerName, fullName, err = store.ResolveURL(folderURL)
	require.NoError(t, err)
	assert.Equal(t, "docs", containerName)
	assert.Equal(t, "sub/", fullName)

	_, _, err = store.ResolveURL("http://elsewhere:10000/devstoreaccount1/docs/a.txt")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, _, err = store.ResolveURL("http://127.0.0.1:10000/devstoreaccount1/")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestNamesAreValidatedBeforeAnyRequest(t *testing.T) {
	ctx := context.Background()
	store := newAzurite(t)

	assert.ErrorIs(t, store.CreateContainer(ctx, "No_Caps", false), storage.ErrInvalidName)
	assert.ErrorIs(t, store.DeleteContainer(ctx, "x"), storage.ErrInvalidName)
	assert.ErrorIs(t, store.UploadBlob(ctx, "docs", "folder/", nil), storage.ErrInvalidName)
	assert.ErrorIs(t, store.DeleteBlob(ctx, "docs", ""), storage.ErrInvalidName)

	_, err := store.DownloadBlob(ctx, "a--b", "a.txt")
	assert.ErrorIs(t, err, storage.ErrInvalidName)

	for _, err := range store.ListEntries(ctx, "UPPER", "") {
		assert.ErrorIs(t, err, storage.ErrInvalidName)
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"blob not found", &azcore.ResponseError{ErrorCode: "BlobNotFound", StatusCode: http.StatusNotFound}, storage.ErrNotFound},
		{"container not found", &azcore.ResponseError{ErrorCode: "ContainerNotFound", StatusCode: http.StatusNotFound}, storage.ErrNotFound},
		{"container exists", &azcore.ResponseError{ErrorCode: "ContainerAlreadyExists", StatusCode: http.StatusConflict}, storage.ErrAlreadyExists},
		{"being deleted", &azcore.ResponseError{ErrorCode: "ContainerBeingDeleted", StatusCode: http.StatusConflict}, storage.ErrAlreadyExists},
		{"bad name", &azcore.ResponseError{ErrorCode: "InvalidResourceName", StatusCode: http.StatusBadRequest}, storage.ErrInvalidName},
		{"unknown 404", &azcore.ResponseError{StatusCode: http.StatusNotFound}, storage.ErrNotFound},
		{"too large", &azcore.ResponseError{StatusCode: http.StatusRequestEntityTooLarge}, storage.ErrQuotaExceeded},
		{"server busy", &azcore.ResponseError{ErrorCode: "ServerBusy", StatusCode: http.StatusServiceUnavailable}, storage.ErrBackendUnavailable},
		{"no response", errors.New("dial tcp 127.0.0.1:10000: connection refused"), storage.ErrBackendUnavailable},
		{"cancelled", context.Canceled, storage.ErrCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(fmt.Errorf("wrapped: %w", tt.err))
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.err)
		})
	}

	assert.NoError(t, mapError(nil))
}

const fakeAccount = "devstoreaccount1"

// fakeBlobService serves the parts of the Blob REST API the store uses, for one account.
// Listings page over raw blob names, so a virtual folder can surface on several pages.
type fakeBlobService struct {
	mu         sync.Mutex
	containers map[string]map[string][]byte
	pageSize   int
	lists      atomic.Int32
}

func (f *fakeBlobService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest, ok := strings.CutPrefix(r.URL.Path, "/"+fakeAccount)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	containerName, blobName, _ := strings.Cut(strings.TrimPrefix(rest, "/"), "/")
	q := r.URL.Query()

	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case containerName == "" && q.Get("comp") == "list":
		f.listContainers(w)
		return
	case blobName == "" && q.Get("restype") == "container" && r.Method == http.MethodPut:
		if _, exists := f.containers[containerName]; exists {
			writeBlobError(w, http.StatusConflict, "ContainerAlreadyExists")
			return
		}
		f.containers[containerName] = map[string][]byte{}
		w.WriteHeader(http.StatusCreated)
		return
	}

	blobs, exists := f.containers[containerName]
	if !exists {
		writeBlobError(w, http.StatusNotFound, "ContainerNotFound")
		return
	}

	switch {
	case blobName == "" && q.Get("comp") == "list":
		f.lists.Add(1)
		f.listBlobs(w, r, containerName, blobs)
	case blobName == "":
		w.WriteHeader(http.StatusNotImplemented)
	case r.Method == http.MethodPut:
		data, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		blobs[blobName] = data
		w.WriteHeader(http.StatusCreated)
	case r.Method == http.MethodHead:
		data, ok := blobs[blobName]
		if !ok {
			writeBlobError(w, http.StatusNotFound, "BlobNotFound")
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Header().Set("x-ms-blob-type", "BlockBlob")
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodGet:
		data, ok := blobs[blobName]
		if !ok {
			writeBlobError(w, http.StatusNotFound, "BlobNotFound")
			return
		}
		serveRange(w, r, data)
	case r.Method == http.MethodDelete:
		if _, ok := blobs[blobName]; !ok {
			writeBlobError(w, http.StatusNotFound, "BlobNotFound")
			return
		}
		delete(blobs, blobName)
		w.WriteHeader(http.StatusAccepted)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func (f *fakeBlobService) listContainers(w http.ResponseWriter) {
	names := make([]string, 0, len(f.containers))
	for name := range f.containers {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="utf-8"?><EnumerationResults><Containers>`)
	for _, name := range names {
		fmt.Fprintf(&sb, "<Container><Name>%s</Name></Container>", escapeXML(name))
	}
	sb.WriteString("</Containers></EnumerationResults>")

	w.Header().Set("Content-Type", "application/xml")
	io.WriteString(w, sb.String())
}

func (f *fakeBlobService) listBlobs(w http.ResponseWriter, r *http.Request, containerName string, blobs map[string][]byte) {
	q := r.URL.Query()
	prefix := q.Get("prefix")
	delimiter := q.Get("delimiter")

	var matching []string
	for name := range blobs {
		if strings.HasPrefix(name, prefix) {
			matching = append(matching, name)
		}
	}
	sort.Strings(matching)

	start := 0
	fmt.Sscan(q.Get("marker"), &start)
	end := min(start+f.pageSize, len(matching))

	var items, prefixes strings.Builder
	seen := map[string]bool{}
	for _, name := range matching[start:end] {
		rest := name[len(prefix):]
		if idx := strings.Index(rest, delimiter); delimiter != "" && idx >= 0 {
			p := prefix + rest[:idx+1]
			if !seen[p] {
				seen[p] = true
				fmt.Fprintf(&prefixes, "<BlobPrefix><Name>%s</Name></BlobPrefix>", escapeXML(p))
			}
			continue
		}
		fmt.Fprintf(&items, "<Blob><Name>%s</Name><Properties><Content-Length>%d</Content-Length><BlobType>BlockBlob</BlobType></Properties></Blob>",
			escapeXML(name), len(blobs[name]))
	}

	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)
	fmt.Fprintf(&sb, `<EnumerationResults ContainerName="%s"><Prefix>%s</Prefix><Delimiter>%s</Delimiter><Blobs>`,
		escapeXML(containerName), escapeXML(prefix), escapeXML(delimiter))
	sb.WriteString(items.String())
	sb.WriteString(prefixes.String())
	sb.WriteString("</Blobs>")
	if end < len(matching) {
		fmt.Fprintf(&sb, "<NextMarker>%d</NextMarker>", end)
	}
	sb.WriteString("</EnumerationResults>")

	w.Header().Set("Content-Type", "application/xml")
	io.WriteString(w, sb.String())
}

func (f *fakeBlobService) blob(containerName, blobName string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.containers[containerName][blobName]
	return data, ok
}

// Honors "bytes=a-b" and "bytes=a-" from x-ms-range or Range
func serveRange(w http.ResponseWriter, r *http.Request, data []byte) {
	rng := r.Header.Get("x-ms-range")
	if rng == "" {
		rng = r.Header.Get("Range")
	}

	start, end := 0, len(data)-1
	status := http.StatusOK
	if spec, ok := strings.CutPrefix(rng, "bytes="); ok {
		from, to, _ := strings.Cut(spec, "-")
		var err error
		if start, err = strconv.Atoi(from); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if to != "" {
			if end, err = strconv.Atoi(to); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			end = min(end, len(data)-1)
		}
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, len(data)))
		status = http.StatusPartialContent
	}

	body := data[start : end+1]
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Header().Set("x-ms-blob-type", "BlockBlob")
	w.WriteHeader(status)
	w.Write(body)
}

func writeBlobError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("x-ms-error-code", code)
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<?xml version="1.0" encoding="utf-8"?><Error><Code>%s</Code><Message>%s</Message></Error>`, code, code)
}

func escapeXML(s string) string {
	var sb strings.Builder
	xml.EscapeText(&sb, []byte(s))
	return sb.String()
}

func newFakeStore(t *testing.T, containers map[string]map[string]string, pageSize int) (*AzureStorage, *fakeBlobService) {
	t.Helper()
	fake := &fakeBlobService{containers: map[string]map[string][]byte{}, pageSize: pageSize}
	for containerName, blobs := range containers {
		fake.containers[containerName] = map[string][]byte{}
		for name, data := range blobs {
			fake.containers[containerName][name] = []byte(data)
		}
	}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	connectionString := "DefaultEndpointsProtocol=http;AccountName=" + fakeAccount + ";" +
		"AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;" +
		"BlobEndpoint=" + srv.URL + "/" + fakeAccount + ";"
	store, err := NewAzureStorage(connectionString, nil)
	require.NoError(t, err)
	return store, fake
}

func listBlobs(t *testing.T, store *AzureStorage, containerName, path string) storage.Listing {
	t.Helper()
	ctx := context.Background()
	handles, err := storage.AssemblerFor(store).Assemble(ctx, containerName, path, store.ListEntries(ctx, containerName, path))
	require.NoError(t, err)
	return storage.NewListing(containerName, path, handles)
}

func TestListEntriesRootAndNested(t *testing.T) {
	store, _ := newFakeStore(t, map[string]map[string]string{"docs": {
		"a.txt":           "0123456789",
		"sub/b.txt":       "bb",
		"sub/inner/x.txt": "x",
	}}, 1000)

	root := listBlobs(t, store, "docs", "")
	require.Len(t, root.Files, 1)
	require.Len(t, root.Folders, 1)
	assert.Equal(t, "a.txt", root.Files[0].Name())
	assert.Equal(t, int64(10), root.Files[0].SizeBytes)
	assert.Equal(t, "sub", root.Folders[0].Name())
	assert.Equal(t, int64(0), root.Folders[0].SizeBytes)
	assert.True(t, root.Folders[0].IsEmulated)

	sub := listBlobs(t, store, "docs", "sub/")
	require.Len(t, sub.Files, 1)
	require.Len(t, sub.Folders, 1)
	assert.Equal(t, "sub/b.txt", sub.Files[0].FullName())
	assert.Equal(t, "sub/inner/", sub.Folders[0].FullName())

	containerName, fullName, err := store.ResolveURL(sub.Folders[0].URL)
	require.NoError(t, err)
	assert.Equal(t, "docs", containerName)
	assert.Equal(t, "sub/inner/", fullName)
}

func TestListEntriesMergesPrefixAcrossPages(t *testing.T) {
	store, fake := newFakeStore(t, map[string]map[string]string{"docs": {
		"a.txt":     "a",
		"sub/b.txt": "b",
		"sub/c.txt": "c",
		"z.txt":     "z",
	}}, 2)

	root := listBlobs(t, store, "docs", "")
	assert.Equal(t, int32(2), fake.lists.Load())
	require.Len(t, root.Folders, 1)
	assert.Equal(t, "sub", root.Folders[0].Name())
	require.Len(t, root.Files, 2)
	assert.Equal(t, "a.txt", root.Files[0].Name())
	assert.Equal(t, "z.txt", root.Files[1].Name())
}

func TestAzureUploadDownloadDelete(t *testing.T) {
	ctx := context.Background()
	store, fake := newFakeStore(t, map[string]map[string]string{"docs": nil}, 1000)

	payload := "line one\nline two\n\x00binary\xff"
	require.NoError(t, store.UploadBlob(ctx, "docs", "reports/q1.bin", strings.NewReader(payload)))
	stored, ok := fake.blob("docs", "reports/q1.bin")
	require.True(t, ok)
	assert.Equal(t, payload, string(stored))

	listing := listBlobs(t, store, "docs", "reports/")
	require.Len(t, listing.Files, 1)
	assert.Equal(t, int64(len(payload)), listing.Files[0].SizeBytes)

	tmp, err := store.DownloadBlob(ctx, "docs", "reports/q1.bin")
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), tmp.Size())
	data, err := os.ReadFile(tmp.Path())
	require.NoError(t, err)
	assert.Equal(t, payload, string(data))
	require.NoError(t, tmp.Release())
	_, err = os.Stat(tmp.Path())
	assert.True(t, errors.Is(err, os.ErrNotExist))

	require.NoError(t, store.DeleteBlob(ctx, "docs", "reports/q1.bin"))
	_, ok = fake.blob("docs", "reports/q1.bin")
	assert.False(t, ok)
}

func TestAzureMissingBlobsAndContainers(t *testing.T) {
	ctx := context.Background()
	store, _ := newFakeStore(t, map[string]map[string]string{"docs": {"a.txt": "a", "b.txt": "b"}}, 1000)

	_, err := store.DownloadBlob(ctx, "docs", "missing.txt")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	before := listBlobs(t, store, "docs", "")
	err = store.DeleteBlob(ctx, "docs", "missing.txt")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, before, listBlobs(t, store, "docs", ""))

	_, err = storage.AssemblerFor(store).Assemble(ctx, "nope", "", store.ListEntries(ctx, "nope", ""))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, store.CreateContainer(ctx, "docs", false), storage.ErrAlreadyExists)
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) {
	return 0, errors.New("disk read failed")
}

func TestAzureUploadSourceFailureIsLocalIO(t *testing.T) {
	store, fake := newFakeStore(t, map[string]map[string]string{"docs": nil}, 1000)

	err := store.UploadBlob(context.Background(), "docs", "x.txt", brokenReader{})
	assert.ErrorIs(t, err, storage.ErrIO)
	assert.NotErrorIs(t, err, storage.ErrBackendUnavailable)
	_, ok := fake.blob("docs", "x.txt")
	assert.False(t, ok)
}

func TestReservedContainers(t *testing.T) {
	ctx := context.Background()
	store, _ := newFakeStore(t, map[string]map[string]string{
		"$web": {"index.html": "<html></html>"},
		"docs": nil,
	}, 1000)

	containers, err := store.ListContainers(ctx)
	require.NoError(t, err)
	require.Len(t, containers, 2)
	assert.Equal(t, "$web", containers[0].Name)

	listing := listBlobs(t, store, "$web", "")
	require.Len(t, listing.Files, 1)
	assert.Equal(t, "index.html", listing.Files[0].Name())

	containerName, fullName, err := store.ResolveURL(listing.Files[0].URL)
	require.NoError(t, err)
	assert.Equal(t, "$web", containerName)
	assert.Equal(t, "index.html", fullName)

	require.NoError(t, store.UploadBlob(ctx, "$web", "404.html", strings.NewReader("gone")))
	tmp, err := store.DownloadBlob(ctx, "$web", "404.html")
	require.NoError(t, err)
	require.NoError(t, tmp.Release())
	require.NoError(t, store.DeleteBlob(ctx, "$web", "404.html"))

	assert.ErrorIs(t, store.CreateContainer(ctx, "$logs", false), storage.ErrInvalidName)
	assert.ErrorIs(t, store.DeleteContainer(ctx, "$logs"), storage.ErrInvalidName)
	assert.ErrorIs(t, containerNameRule.Validate("$other"), storage.ErrInvalidName)
	assert.NoError(t, containerNameRule.Validate("$logs"))
	assert.NoError(t, lifecycleNameRule.Validate("$root"))
}
