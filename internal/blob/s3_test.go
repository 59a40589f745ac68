package blob

import (
	"bufio"
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	"talentflow/internal/talentflow"
)

// fakeS3 answers the path-style object calls S3Store makes against a single
// bucket held in memory.
type fakeS3 struct {
	bucket string

	mu      sync.Mutex
	objects map[string][]byte
}

type listEntry struct {
	Key  string
	Size int
}

type listBucketResult struct {
	XMLName     xml.Name `xml:"ListBucketResult"`
	Name        string
	Prefix      string
	KeyCount    int
	MaxKeys     int
	IsTruncated bool
	Contents    []listEntry
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	bucket, key, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if bucket != f.bucket {
		writeS3Error(w, http.StatusNotFound, "NoSuchBucket")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && key == "":
		prefix := r.URL.Query().Get("prefix")
		result := listBucketResult{Name: bucket, Prefix: prefix, MaxKeys: 1000}
		for k, v := range f.objects {
			if strings.HasPrefix(k, prefix) {
				result.Contents = append(result.Contents, listEntry{Key: k, Size: len(v)})
			}
		}
		slices.SortFunc(result.Contents, func(a, b listEntry) int { return strings.Compare(a.Key, b.Key) })
		result.KeyCount = len(result.Contents)
		w.Header().Set("Content-Type", "application/xml")
		xml.NewEncoder(w).Encode(result)

	case r.Method == http.MethodPut:
		body, err := readObjectBody(r)
		if err != nil {
			writeS3Error(w, http.StatusBadRequest, "IncompleteBody")
			return
		}
		f.objects[key] = body
		w.Header().Set("ETag", `"`+strconv.Itoa(len(body))+`"`)
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodGet:
		body, ok := f.objects[key]
		if !ok {
			writeS3Error(w, http.StatusNotFound, "NoSuchKey")
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.Write(body)

	case r.Method == http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)

	default:
		writeS3Error(w, http.StatusMethodNotAllowed, "MethodNotAllowed")
	}
}

func writeS3Error(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>`+code+`</Code><Message>`+code+`</Message></Error>`)
}

// readObjectBody returns the object bytes, decoding aws-chunked uploads that
// carry a trailing checksum.
func readObjectBody(r *http.Request) ([]byte, error) {
	if !strings.Contains(r.Header.Get("Content-Encoding"), "aws-chunked") {
		return io.ReadAll(r.Body)
	}
	br := bufio.NewReader(r.Body)
	var body []byte
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return nil, err
		}
		sizeHex, _, _ := strings.Cut(strings.TrimRight(line, "\r\n"), ";")
		n, err := strconv.ParseInt(sizeHex, 16, 64)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return body, nil
		}
		chunk := make([]byte, n)
		if _, err := io.ReadFull(br, chunk); err != nil {
			return nil, err
		}
		body = append(body, chunk...)
		if _, err := br.ReadString('\n'); err != nil {
			return nil, err
		}
	}
}

func newFakeS3Store(t *testing.T, prefix string) (*S3Store, *fakeS3) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")

	fake := &fakeS3{bucket: "talentflow", objects: make(map[string][]byte)}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := NewS3Store(context.Background(), S3Options{
		Bucket:    "talentflow",
		Prefix:    prefix,
		Region:    "us-east-1",
		Endpoint:  srv.URL,
		AccessKey: "test",
		SecretKey: "test",
	})
	if err != nil {
		t.Fatalf("NewS3Store() error = %v", err)
	}
	return s, fake
}

func TestS3Store(t *testing.T) {
	testStoreContract(t, func(t *testing.T) talentflow.BlobStore {
		s, _ := newFakeS3Store(t, "")
		return s
	})

	t.Run("prefix scopes objects", func(t *testing.T) {
		ctx := context.Background()
		s, fake := newFakeS3Store(t, "talentflow/")
		put(t, s, "assessment_responses/3_100", "x")

		fake.mu.Lock()
		_, stored := fake.objects["talentflow/assessment_responses/3_100"]
		fake.mu.Unlock()
		if !stored {
			t.Errorf("object not stored under prefix: %v", fake.objects)
		}

		got, err := s.List(ctx, "assessment_responses/")
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if want := []string{"assessment_responses/3_100"}; !slices.Equal(got, want) {
			t.Errorf("List() = %v, want %v", got, want)
		}
	})
}
