package storage

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fakeBucket = "rockuw-hz"

// fakeS3 is a minimal S3-compatible object server for one bucket.
type fakeS3 struct {
	mu       sync.Mutex
	objects  map[string][]byte
	tokens   []string
	modified time.Time
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	prefix := "/" + fakeBucket + "/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		writeS3Error(w, http.StatusNotFound, "NoSuchBucket")
		return
	}
	key := strings.TrimPrefix(r.URL.Path, prefix)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, r.Header.Get("X-Amz-Security-Token"))

	switch r.Method {
	case http.MethodPut:
		body, err := readS3Body(r)
		if err != nil {
			writeS3Error(w, http.StatusBadRequest, "IncompleteBody")
			return
		}
		f.objects[key] = body
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet, http.MethodHead:
		data, ok := f.objects[key]
		if !ok {
			if r.Method == http.MethodHead {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			writeS3Error(w, http.StatusNotFound, "NoSuchKey")
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("ETag", `"etag"`)
		w.Header().Set("Last-Modified", f.modified.UTC().Format(http.TimeFormat))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write(data)
		}
	default:
		writeS3Error(w, http.StatusMethodNotAllowed, "MethodNotAllowed")
	}
}

func writeS3Error(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>%s</Code><Message>%s</Message><RequestId>fake</RequestId></Error>`, code, code)
}

// readS3Body returns the object payload, undoing aws-chunked framing when used.
func readS3Body(r *http.Request) ([]byte, error) {
	if !strings.Contains(r.Header.Get("Content-Encoding"), "aws-chunked") &&
		!strings.HasPrefix(r.Header.Get("X-Amz-Content-Sha256"), "STREAMING-") {
		return io.ReadAll(r.Body)
	}

	reader := bufio.NewReader(r.Body)
	var out bytes.Buffer
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		sizeHex, _, _ := strings.Cut(strings.TrimSpace(line), ";")
		size, err := strconv.ParseInt(sizeHex, 16, 64)
		if err != nil {
			return nil, err
		}
		if size == 0 {
			return out.Bytes(), nil
		}
		if _, err := io.CopyN(&out, reader, size); err != nil {
			return nil, err
		}
		if _, err := reader.ReadString('\n'); err != nil {
			return nil, err
		}
	}
}

func startFakeS3(t *testing.T) (*fakeS3, *httptest.Server) {
	t.Helper()
	fake := &fakeS3{objects: make(map[string][]byte), modified: time.Now()}
	server := httptest.NewTLSServer(fake)
	t.Cleanup(server.Close)
	return fake, server
}

func newFakeOSSWithServer(t *testing.T, server *httptest.Server) *OSSFileStorage {
	t.Helper()
	u, err := url.Parse(server.URL)
	require.NoError(t, err)

	storage, err := NewOSSFileStorage(OSSConfig{
		Endpoint: u.Host,
		Bucket:   fakeBucket,
		Region:   "us-east-1",
		UseSSL:   true,
		Credentials: Credentials{
			AccessKeyID:     "STS.id",
			AccessKeySecret: "secret",
			SecurityToken:   "sts-token",
		},
		PathStyle: true,
		Transport: server.Client().Transport,
	})
	require.NoError(t, err)
	return storage
}

func newFakeOSS(t *testing.T) FileStorage {
	t.Helper()
	_, server := startFakeS3(t)
	return newFakeOSSWithServer(t, server)
}

func TestOSSFileStorage_SendsSecurityToken(t *testing.T) {
	fake, server := startFakeS3(t)
	storage := newFakeOSSWithServer(t, server)

	ctx := context.Background()
	require.NoError(t, storage.Store(ctx, recordKey, []byte(`{"code":"ABC123"}`), nil))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.NotEmpty(t, fake.tokens)
	for _, token := range fake.tokens {
		assert.Equal(t, "sts-token", token)
	}
	assert.Equal(t, `{"code":"ABC123"}`, string(fake.objects[recordKey]))
}

func TestOSSFileStorage_Unreachable(t *testing.T) {
	_, server := startFakeS3(t)
	storage := newFakeOSSWithServer(t, server)
	server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := storage.Retrieve(ctx, recordKey)
	require.Error(t, err)
	assert.False(t, IsNotFound(err))
}

func TestOSSSigningRegion(t *testing.T) {
	assert.Equal(t, "oss-cn-hangzhou", ossSigningRegion("cn-hangzhou"))
	assert.Equal(t, "oss-cn-hangzhou", ossSigningRegion("oss-cn-hangzhou"))
	assert.Equal(t, "", ossSigningRegion(""))
}
