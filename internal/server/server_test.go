package server

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/OFFIS-RIT/ned/internal/queue"
	mid "github.com/OFFIS-RIT/ned/internal/server/middleware"
	"github.com/OFFIS-RIT/ned/pkg/common"
	"github.com/OFFIS-RIT/ned/pkg/graph"
	"github.com/OFFIS-RIT/ned/pkg/oracle"
	"github.com/OFFIS-RIT/ned/pkg/store"
	"github.com/OFFIS-RIT/ned/pkg/store/memory"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rabbitmq/amqp091-go"
)

const masterKey = "master-secret"

var jwtSecret = []byte("jwt-secret")

type lincolnOracle struct{}

func (lincolnOracle) GetCandidates(_ context.Context, mention string) ([]string, error) {
	switch mention {
	case "Lincoln":
		return []string{"Abraham Lincoln", "Lincoln, England"}, nil
	case "Civil War":
		return []string{"American Civil War", "Spanish Civil War"}, nil
	case "Flaky":
		return nil, fmt.Errorf("%w: 503", oracle.ErrTransient)
	}
	return nil, nil
}

func (lincolnOracle) OutgoingLinks(_ context.Context, title string) (oracle.LinkSet, error) {
	if title == "Abraham Lincoln" {
		return oracle.NewLinkSet("American Civil War"), nil
	}
	return oracle.LinkSet{}, nil
}

func (lincolnOracle) BacklinkPage(context.Context, string, string) (oracle.BacklinkPage, error) {
	return oracle.BacklinkPage{}, nil
}

type fakeQueue struct {
	published [][]byte
}

func (f *fakeQueue) QueueDeclare(name string, _, _, _, _ bool, _ amqp091.Table) (amqp091.Queue, error) {
	return amqp091.Queue{Name: name}, nil
}

func (f *fakeQueue) Publish(_, _ string, _, _ bool, msg amqp091.Publishing) error {
	f.published = append(f.published, msg.Body)
	return nil
}

type fakeS3 struct {
	objects map[string][]byte
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(f.objects[aws.ToString(in.Key)]))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

type testEnv struct {
	app   *mid.App
	store *memory.Storage
	queue *fakeQueue
	s3    *fakeS3
}

func newTestEnv() *testEnv {
	st := memory.New()
	q := &fakeQueue{}
	objects := &fakeS3{objects: map[string][]byte{}}
	app := &mid.App{
		Graph:   graph.NewGraphClient(graph.NewGraphClientParams{}),
		Oracles: oracle.Oracles{Candidates: lincolnOracle{}, Links: lincolnOracle{}, Popularity: lincolnOracle{}},
		Results: st,
		Queue:   q,
		S3:      objects,
		Key: func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return jwtSecret, nil
		},
		MasterAPIKey: masterKey,
	}
	return &testEnv{app: app, store: st, queue: q, s3: objects}
}

func (env *testEnv) do(t *testing.T, method, path, token, contentType string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	NewEcho(env.app).ServeHTTP(rec, req)
	return rec
}

func signedToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestHealth(t *testing.T) {
	rec := newTestEnv().do(t, http.MethodGet, "/health", "", "", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("health = %d %q", rec.Code, rec.Body.String())
	}
}

func TestMetricsRoute(t *testing.T) {
	rec := newTestEnv().do(t, http.MethodGet, "/metrics", "", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics = %d", rec.Code)
	}
}

func TestAuth(t *testing.T) {
	body := `{"mentions":["Lincoln","Civil War"]}`
	tests := []struct {
		name  string
		token func(t *testing.T) string
		want  int
	}{
		{"no token", func(*testing.T) string { return "" }, http.StatusUnauthorized},
		{"wrong key", func(*testing.T) string { return "nope" }, http.StatusUnauthorized},
		{"master key", func(*testing.T) string { return masterKey }, http.StatusOK},
		{"jwt with sub", func(t *testing.T) string {
			return signedToken(t, jwtSecret, jwt.MapClaims{"sub": "user-1"})
		}, http.StatusOK},
		{"jwt with numeric id", func(t *testing.T) string {
			return signedToken(t, jwtSecret, jwt.MapClaims{"id": 42, "role": "admin"})
		}, http.StatusOK},
		{"jwt without user", func(t *testing.T) string {
			return signedToken(t, jwtSecret, jwt.MapClaims{"role": "user"})
		}, http.StatusUnauthorized},
		{"jwt with foreign secret", func(t *testing.T) string {
			return signedToken(t, []byte("other"), jwt.MapClaims{"sub": "user-1"})
		}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			rec := env.do(t, http.MethodPost, "/api/disambiguate", tt.token(t), "application/json", strings.NewReader(body))
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestDisambiguateHandler(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
		out  map[string]string
	}{
		{
			name: "lincoln",
			body: `{"mentions":["Lincoln","Civil War"]}`,
			want: http.StatusOK,
			out:  map[string]string{"Lincoln": "Abraham Lincoln", "Civil War": "American Civil War"},
		},
		{name: "empty list", body: `{"mentions":[]}`, want: http.StatusBadRequest},
		{name: "empty mention", body: `{"mentions":[""]}`, want: http.StatusBadRequest},
		{name: "not json", body: `{`, want: http.StatusBadRequest},
		{name: "transient oracle", body: `{"mentions":["Flaky"]}`, want: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newTestEnv().do(t, http.MethodPost, "/api/disambiguate", masterKey, "application/json", strings.NewReader(tt.body))
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
			if tt.out == nil {
				return
			}
			var resp struct {
				Disambiguations map[string]string `json:"disambiguations"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			for k, v := range tt.out {
				if resp.Disambiguations[k] != v {
					t.Fatalf("%s -> %q, want %q", k, resp.Disambiguations[k], v)
				}
			}
		})
	}
}

func TestBatchDisambiguateHandler(t *testing.T) {
	body := `{"documents":[{"id":"a","mentions":["Lincoln","Civil War"]},{"id":"b","mentions":["Flaky"]}]}`
	rec := newTestEnv().do(t, http.MethodPost, "/api/disambiguate/batch", masterKey, "application/json", strings.NewReader(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}

	var resp struct {
		Results []struct {
			DocumentID      string            `json:"document_id"`
			Disambiguations map[string]string `json:"disambiguations"`
			Error           string            `json:"error"`
		} `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("results = %+v", resp.Results)
	}
	if resp.Results[0].DocumentID != "a" || resp.Results[0].Disambiguations["Lincoln"] != "Abraham Lincoln" {
		t.Fatalf("first result = %+v", resp.Results[0])
	}
	if resp.Results[1].DocumentID != "b" || resp.Results[1].Error == "" {
		t.Fatalf("second result must carry its error: %+v", resp.Results[1])
	}

	rec = newTestEnv().do(t, http.MethodPost, "/api/disambiguate/batch", masterKey, "application/json", strings.NewReader(`{"documents":[{"mentions":["x"]}]}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("document without id: status = %d", rec.Code)
	}
}

func TestCreateDocument_JSON(t *testing.T) {
	env := newTestEnv()
	rec := env.do(t, http.MethodPost, "/api/documents", masterKey, "application/json", strings.NewReader(`{"mentions":["Lincoln"]}`))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.ID == "" {
		t.Fatalf("response %s: %v", rec.Body.String(), err)
	}

	doc, err := env.store.GetDocument(context.Background(), resp.ID)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Status != store.StatusPending || len(doc.Mentions) != 1 {
		t.Fatalf("stored document = %+v", doc)
	}

	if len(env.queue.published) != 1 {
		t.Fatalf("published %d messages", len(env.queue.published))
	}
	msg, err := queue.DecodeMessage(env.queue.published[0])
	if err != nil {
		t.Fatal(err)
	}
	if msg.DocumentID != resp.ID || msg.FileKey != "" {
		t.Fatalf("message = %+v", msg)
	}
}

func TestCreateDocument_Upload(t *testing.T) {
	env := newTestEnv()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "article.txt")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write([]byte("Lincoln\nCivil War\n"))
	_ = w.WriteField("format", "lines")
	_ = w.Close()

	rec := env.do(t, http.MethodPost, "/api/documents", masterKey, w.FormDataContentType(), &buf)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}

	msg, err := queue.DecodeMessage(env.queue.published[0])
	if err != nil {
		t.Fatal(err)
	}
	if msg.FileKey != "documents/"+msg.DocumentID+".txt" || msg.Format != "lines" {
		t.Fatalf("message = %+v", msg)
	}
	if string(env.s3.objects[msg.FileKey]) != "Lincoln\nCivil War\n" {
		t.Fatalf("uploaded object = %q", env.s3.objects[msg.FileKey])
	}
}

func TestCreateDocument_BadUpload(t *testing.T) {
	env := newTestEnv()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, _ := w.CreateFormFile("file", "article.pdf")
	_, _ = part.Write([]byte("%PDF"))
	_ = w.WriteField("format", "pdf")
	_ = w.Close()

	rec := env.do(t, http.MethodPost, "/api/documents", masterKey, w.FormDataContentType(), &buf)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(env.queue.published) != 0 || len(env.s3.objects) != 0 {
		t.Fatal("rejected upload must not be stored or queued")
	}
}

func TestGetDocument(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	_ = env.store.CreateDocument(ctx, commonDoc("d1"))

	rec := env.do(t, http.MethodGet, "/api/documents/d1", masterKey, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got store.DocumentRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != "d1" || got.Status != store.StatusPending {
		t.Fatalf("record = %+v", got)
	}

	rec = env.do(t, http.MethodGet, "/api/documents/missing", masterKey, "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing document: status = %d", rec.Code)
	}
}

func commonDoc(id string) common.Document {
	return common.Document{ID: id, Mentions: []string{"Lincoln"}}
}
