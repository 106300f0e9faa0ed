package records

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukaji3/formrelay-go/pkg/formrelay/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var filterPattern = regexp.MustCompile(`^(\w+)\s*=\s*"([^"]*)"$`)

// fakePocketBase serves the subset of the PocketBase records API used by Client.
type fakePocketBase struct {
	mu          sync.Mutex
	collections map[string][]map[string]any
	requests    []*http.Request
	// maxPerPage caps perPage the way the server does; zero means no cap.
	maxPerPage int
}

func newFakePocketBase() *fakePocketBase {
	return &fakePocketBase{collections: map[string][]map[string]any{}}
}

func (f *fakePocketBase) add(collection string, rec map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec["collectionName"] = collection
	f.collections[collection] = append(f.collections[collection], rec)
}

func (f *fakePocketBase) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r)

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 4 || parts[0] != "api" || parts[1] != "collections" || parts[3] != "records" {
		writeError(w, http.StatusNotFound, "The requested resource wasn't found.")
		return
	}
	recs, ok := f.collections[parts[2]]
	if !ok {
		writeError(w, http.StatusNotFound, "Missing collection context.")
		return
	}

	switch {
	case r.Method == http.MethodGet && len(parts) == 4:
		f.list(w, r, recs)
	case r.Method == http.MethodPatch && len(parts) == 5:
		f.update(w, r, recs, parts[4])
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
	}
}

func (f *fakePocketBase) list(w http.ResponseWriter, r *http.Request, recs []map[string]any) {
	q := r.URL.Query()
	var matched []map[string]any
	if filter := q.Get("filter"); filter != "" {
		m := filterPattern.FindStringSubmatch(filter)
		if m == nil {
			writeError(w, http.StatusBadRequest, "Invalid filter parameters.")
			return
		}
		for _, rec := range recs {
			if rec[m[1]] == m[2] {
				matched = append(matched, rec)
			}
		}
	} else {
		matched = recs
	}

	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("perPage"))
	if f.maxPerPage > 0 && perPage > f.maxPerPage {
		perPage = f.maxPerPage
	}
	start := (page - 1) * perPage
	end := start + perPage
	if start > len(matched) {
		start = len(matched)
	}
	if end > len(matched) {
		end = len(matched)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"page":       page,
		"perPage":    perPage,
		"totalItems": -1,
		"totalPages": -1,
		"items":      append([]map[string]any{}, matched[start:end]...),
	})
}

func (f *fakePocketBase) update(w http.ResponseWriter, r *http.Request, recs []map[string]any, id string) {
	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to load the submitted data.")
		return
	}
	for _, rec := range recs {
		if rec["id"] == id {
			for k, v := range patch {
				rec[k] = v
			}
			writeJSON(w, http.StatusOK, rec)
			return
		}
	}
	writeError(w, http.StatusNotFound, "The requested resource wasn't found.")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"code": status, "message": msg, "data": map[string]any{}})
}

func seedProjects(pb *fakePocketBase) {
	pb.add("projects", map[string]any{"id": "p1", "status": "processed"})
	pb.add("projects", map[string]any{"id": "p2", "status": "uploaded",
		"form_data": map[string]any{
			"software": map[string]any{"Excel": "yes"},
			"header":   map[string]any{"mailAddresses": "alice@example.com"},
		}})
	pb.add("projects", map[string]any{"id": "p3", "status": "uploaded"})
}

func TestGetFilteredList(t *testing.T) {
	pb := newFakePocketBase()
	seedProjects(pb)
	server := httptest.NewServer(pb)
	defer server.Close()

	c := NewClient(server.URL, nil)
	recs, err := c.GetFilteredList(context.Background(), "projects", `status="uploaded"`)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "p2", recs[0].ID)
	assert.Equal(t, "p3", recs[1].ID)
	assert.Equal(t, "projects", recs[0].CollectionName)

	var project models.Project
	require.NoError(t, recs[0].Decode(&project))
	assert.Equal(t, models.StatusUploaded, project.Status)
	assert.Equal(t, "yes", project.FormData.Software["Excel"])
	assert.Equal(t, models.Recipients{"alice@example.com"}, project.FormData.Header.MailAddresses)
}

func TestGetFullListPaginates(t *testing.T) {
	pb := newFakePocketBase()
	for _, name := range []string{"Excel", "Word", "Outlook", "Teams", "Visio"} {
		pb.add("cellTable", map[string]any{"id": strings.ToLower(name), "name": name, "cell_index": "B" + strconv.Itoa(len(name))})
	}
	server := httptest.NewServer(pb)
	defer server.Close()

	c := NewClient(server.URL, nil, WithPageSize(2))
	recs, err := c.GetFullList(context.Background(), "cellTable")
	require.NoError(t, err)
	require.Len(t, recs, 5)

	var names []string
	for _, r := range recs {
		var entry models.CellTableEntry
		require.NoError(t, r.Decode(&entry))
		names = append(names, entry.Name)
	}
	assert.Equal(t, []string{"Excel", "Word", "Outlook", "Teams", "Visio"}, names)
	// Pages of 2, 2 and 1.
	assert.Len(t, pb.requests, 3)
	assert.Equal(t, "3", pb.requests[2].URL.Query().Get("page"))
	assert.Empty(t, pb.requests[0].URL.Query().Get("filter"))
}

func TestGetFullListServerCapsPageSize(t *testing.T) {
	pb := newFakePocketBase()
	pb.maxPerPage = 2
	for i := 1; i <= 5; i++ {
		pb.add("cellTable", map[string]any{"id": "c" + strconv.Itoa(i), "name": "n" + strconv.Itoa(i), "cell_index": "A" + strconv.Itoa(i)})
	}
	server := httptest.NewServer(pb)
	defer server.Close()

	c := NewClient(server.URL, nil, WithPageSize(10))
	recs, err := c.GetFullList(context.Background(), "cellTable")
	require.NoError(t, err)
	require.Len(t, recs, 5)
	assert.Equal(t, "c5", recs[4].ID)
	assert.Len(t, pb.requests, 3)
}

func TestWithPageSizeCapped(t *testing.T) {
	assert.Equal(t, MaxPageSize, NewClient("http://pb", nil, WithPageSize(5000)).pageSize)
	assert.Equal(t, DefaultPageSize, NewClient("http://pb", nil, WithPageSize(0)).pageSize)
}

func TestWithTimeoutCopiesClient(t *testing.T) {
	shared := &http.Client{}
	c := NewClient("http://pb", nil, WithHTTPClient(shared), WithTimeout(5*time.Second))
	assert.Zero(t, shared.Timeout)
	assert.Equal(t, 5*time.Second, c.httpClient.Timeout)
	assert.NotSame(t, shared, c.httpClient)

	c = NewClient("http://pb", nil, WithHTTPClient(http.DefaultClient), WithTimeout(time.Second))
	assert.Zero(t, http.DefaultClient.Timeout)
	assert.Equal(t, time.Second, c.httpClient.Timeout)

	c = NewClient("http://pb", nil, WithHTTPClient(nil), WithTimeout(time.Second))
	require.NotNil(t, c.httpClient)
	assert.Equal(t, time.Second, c.httpClient.Timeout)

	c = NewClient("http://pb", nil, WithHTTPClient(shared))
	assert.Same(t, shared, c.httpClient)
}

func TestUpdateStatusRemovesFromFilteredList(t *testing.T) {
	pb := newFakePocketBase()
	seedProjects(pb)
	server := httptest.NewServer(pb)
	defer server.Close()

	ctx := context.Background()
	c := NewClient(server.URL, nil)

	updated, err := c.UpdateStatus(ctx, "projects", "p2", models.StatusProcessed)
	require.NoError(t, err)
	assert.Equal(t, "p2", updated.ID)

	var project models.Project
	require.NoError(t, updated.Decode(&project))
	assert.Equal(t, models.StatusProcessed, project.Status)

	recs, err := c.GetFilteredList(ctx, "projects", `status="uploaded"`)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "p3", recs[0].ID)

	last := pb.requests[len(pb.requests)-2]
	assert.Equal(t, http.MethodPatch, last.Method)
	assert.Equal(t, "application/json", last.Header.Get("Content-Type"))
}

func TestUpdateStatusNotFound(t *testing.T) {
	pb := newFakePocketBase()
	seedProjects(pb)
	server := httptest.NewServer(pb)
	defer server.Close()

	core, logs := observer.New(zapcore.InfoLevel)
	c := NewClient(server.URL, zap.New(core))

	_, err := c.UpdateStatus(context.Background(), "projects", "missing", models.StatusProcessed)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	var respErr *ResponseError
	require.True(t, errors.As(err, &respErr))
	assert.Equal(t, http.StatusNotFound, respErr.Status)
	assert.Equal(t, "The requested resource wasn't found.", respErr.Message)

	entries := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	require.Len(t, entries, 1)
	assert.Equal(t, "update record failed", entries[0].Message)
}

func TestGetFilteredListHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusForbidden, "Only admins can perform this action.")
	}))
	defer server.Close()

	recs, err := NewClient(server.URL, nil).GetFilteredList(context.Background(), "projects", `status="uploaded"`)
	assert.Nil(t, recs)

	var respErr *ResponseError
	require.True(t, errors.As(err, &respErr))
	assert.Equal(t, http.StatusForbidden, respErr.Status)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestClientSendsToken(t *testing.T) {
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, map[string]any{"items": []any{}})
	}))
	defer server.Close()

	_, err := NewClient(server.URL+"/", nil, WithToken("secret-token")).GetFullList(context.Background(), "cellTable")
	require.NoError(t, err)
	assert.Equal(t, "secret-token", auth)
}

func TestRecordDecodeEmpty(t *testing.T) {
	var r Record
	var project models.Project
	assert.Error(t, r.Decode(&project))
}
