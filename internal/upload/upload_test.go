package upload

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	gifHeader = []byte("GIF89a\x01\x00\x01\x00")
	jpgHeader = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")
)

// MockObjectStore records every Put and returns a fake CDN URL
type MockObjectStore struct {
	mu         sync.Mutex
	Keys       []string
	Bodies     [][]byte
	ShouldFail bool
}

func (m *MockObjectStore) Put(_ context.Context, key string, body io.ReadSeeker, _ int64, _ string) (string, error) {
	if m.ShouldFail {
		return "", errors.New("simulated outage")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Keys = append(m.Keys, key)
	m.Bodies = append(m.Bodies, data)
	return "https://cdn.test/" + key, nil
}

func multipartRequest(t *testing.T, fields map[string]string, filename string, file []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		fw, err := mw.CreateFormFile(DefaultField, filename)
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/create", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

type captured struct {
	called bool
	ref    string
	hasRef bool
	title  string
	err    error
}

func runAdapter(t *testing.T, store ObjectStore, req *http.Request) (*captured, *httptest.ResponseRecorder) {
	t.Helper()

	c := &captured{}
	a := NewAdapter(store, zap.NewNop(), func(w http.ResponseWriter, _ *http.Request, err error) {
		c.err = err
		w.WriteHeader(http.StatusTeapot)
	})
	h := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.called = true
		c.ref, c.hasRef = ImageFromContext(r.Context())
		c.title = r.PostFormValue("title")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return c, rec
}

func TestAdapter_NoFile(t *testing.T) {
	store := &MockObjectStore{}
	c, _ := runAdapter(t, store, multipartRequest(t, map[string]string{"title": "A"}, "", nil))

	assert.True(t, c.called)
	assert.False(t, c.hasRef)
	assert.Equal(t, "A", c.title, "form fields should stay readable downstream")
	assert.Empty(t, store.Keys)
}

func TestAdapter_NotMultipart(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/create", strings.NewReader("title=A"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	c, _ := runAdapter(t, &MockObjectStore{}, req)
	assert.True(t, c.called)
	assert.False(t, c.hasRef)
	assert.Equal(t, "A", c.title)
}

func TestAdapter_AcceptedFormats(t *testing.T) {
	cases := map[string][]byte{"png": pngHeader, "gif": gifHeader, "jpg": jpgHeader}

	for ext, data := range cases {
		t.Run(ext, func(t *testing.T) {
			store := &MockObjectStore{}
			c, _ := runAdapter(t, store, multipartRequest(t, nil, "photo."+ext, data))

			require.True(t, c.called)
			require.True(t, c.hasRef)
			require.Len(t, store.Keys, 1)
			assert.True(t, strings.HasPrefix(store.Keys[0], DefaultFolder+"/"))
			assert.True(t, strings.HasSuffix(store.Keys[0], "."+ext))
			assert.Equal(t, "https://cdn.test/"+store.Keys[0], c.ref)
			assert.Equal(t, data, store.Bodies[0], "the whole file should be uploaded, not just the sniffed prefix")
		})
	}
}

func TestAdapter_RejectsOtherFormats(t *testing.T) {
	store := &MockObjectStore{}
	c, rec := runAdapter(t, store, multipartRequest(t, nil, "notes.png", []byte("just some text, renamed")))

	assert.False(t, c.called, "handler must not run for rejected uploads")
	assert.ErrorIs(t, c.err, ErrUnsupportedImage)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Empty(t, store.Keys)
}

func TestAdapter_StorageFailure(t *testing.T) {
	c, _ := runAdapter(t, &MockObjectStore{ShouldFail: true}, multipartRequest(t, nil, "a.png", pngHeader))

	assert.False(t, c.called)
	assert.ErrorIs(t, c.err, ErrStorage)
}

func TestAdapter_UnavailableStore(t *testing.T) {
	store := UnavailableObjectStore{Err: errors.New("not configured")}
	c, _ := runAdapter(t, store, multipartRequest(t, nil, "a.png", pngHeader))

	assert.False(t, c.called)
	assert.ErrorIs(t, c.err, ErrStorage)
}

func TestNewR2Store_RequiresCredentials(t *testing.T) {
	_, err := NewR2Store(context.Background(), R2Config{Bucket: "articles"})
	assert.Error(t, err)

	_, err = NewR2Store(context.Background(), R2Config{AccountID: "a", AccessKey: "k", AccessSecret: "s"})
	assert.Error(t, err)
}

func TestNewR2Store_PublicURL(t *testing.T) {
	st, err := NewR2Store(context.Background(), R2Config{
		AccountID: "acct", AccessKey: "k", AccessSecret: "s", Bucket: "articles",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://acct.r2.cloudflarestorage.com/articles", st.publicURL)

	st, err = NewR2Store(context.Background(), R2Config{
		AccountID: "acct", AccessKey: "k", AccessSecret: "s", Bucket: "articles",
		PublicURL: "https://img.example.com/",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://img.example.com", st.publicURL)
}
