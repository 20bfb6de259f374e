package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/coursehub/core"
	"github.com/trezcool/coursehub/core/lecture"
	"github.com/trezcool/coursehub/core/program"
	"github.com/trezcool/coursehub/core/review"
	"github.com/trezcool/coursehub/core/waitlist"
)

const (
	testProjectID = "proj-1"
	testPublicKey = "pk-1"
)

type cannedResponse struct {
	status int
	body   string
}

// fakeService is a minimal record service keeping its tables in memory.
type fakeService struct {
	mu       sync.Mutex
	tables   map[string][]Record
	pk       int
	canned   *cannedResponse
	requests []*http.Request
}

func newFakeService() *fakeService {
	return &fakeService{tables: make(map[string][]Record)}
}

func (fs *fakeService) respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (fs *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.requests = append(fs.requests, r)

	if fs.canned != nil {
		w.WriteHeader(fs.canned.status)
		_, _ = w.Write([]byte(fs.canned.body))
		return
	}
	if r.Header.Get(headerProjectID) != testProjectID || r.Header.Get(headerPublicKey) != testPublicKey {
		fs.respond(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "message": "invalid credentials"})
		return
	}

	// /tables/{table}/records[/{id|query}]
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 3 || parts[0] != "tables" || parts[2] != "records" {
		fs.respond(w, http.StatusNotFound, map[string]interface{}{"success": false, "message": "no such endpoint"})
		return
	}
	table := parts[1]

	switch {
	case r.Method == http.MethodPost && len(parts) == 4 && parts[3] == "query":
		var p fetchParams
		_ = json.NewDecoder(r.Body).Decode(&p)
		fs.respond(w, http.StatusOK, map[string]interface{}{"success": true, "data": fs.query(table, p)})

	case r.Method == http.MethodGet && len(parts) == 4:
		id, _ := strconv.Atoi(parts[3])
		rec, _ := fs.find(table, id)
		fs.respond(w, http.StatusOK, map[string]interface{}{"success": true, "data": rec})

	case r.Method == http.MethodPost:
		var p recordsParams
		_ = json.NewDecoder(r.Body).Decode(&p)
		results := make([]map[string]interface{}, 0, len(p.Records))
		for _, rec := range p.Records {
			if title, ok := rec["title"]; ok && title == "" {
				results = append(results, map[string]interface{}{
					"success": false,
					"errors":  []map[string]string{{"fieldLabel": "Title", "message": "is required"}},
				})
				continue
			}
			fs.pk++
			rec["Id"] = fs.pk
			fs.tables[table] = append(fs.tables[table], rec)
			results = append(results, map[string]interface{}{"success": true, "data": rec})
		}
		fs.respond(w, http.StatusOK, map[string]interface{}{"success": true, "results": results})

	case r.Method == http.MethodPut:
		var p recordsParams
		_ = json.NewDecoder(r.Body).Decode(&p)
		results := make([]map[string]interface{}, 0, len(p.Records))
		for _, rec := range p.Records {
			id := int(rec["Id"].(float64))
			stored, ok := fs.find(table, id)
			if !ok {
				results = append(results, map[string]interface{}{"success": false, "message": "Record not found"})
				continue
			}
			for k, v := range rec {
				stored[k] = v
			}
			stored["Id"] = id
			results = append(results, map[string]interface{}{"success": true, "data": stored})
		}
		fs.respond(w, http.StatusOK, map[string]interface{}{"success": true, "results": results})

	case r.Method == http.MethodDelete:
		var p deleteParams
		_ = json.NewDecoder(r.Body).Decode(&p)
		results := make([]map[string]interface{}, 0, len(p.RecordIds))
		for _, id := range p.RecordIds {
			if _, ok := fs.find(table, id); !ok {
				results = append(results, map[string]interface{}{"success": false, "message": "Record not found"})
				continue
			}
			kept := fs.tables[table][:0]
			for _, rec := range fs.tables[table] {
				if recordID(rec) != id {
					kept = append(kept, rec)
				}
			}
			fs.tables[table] = kept
			results = append(results, map[string]interface{}{"success": true})
		}
		fs.respond(w, http.StatusOK, map[string]interface{}{"success": true, "results": results})

	default:
		fs.respond(w, http.StatusMethodNotAllowed, map[string]interface{}{"success": false, "message": "method not allowed"})
	}
}

func recordID(rec Record) int {
	switch id := rec["Id"].(type) {
	case int:
		return id
	case float64:
		return int(id)
	}
	return 0
}

func (fs *fakeService) find(table string, id int) (Record, bool) {
	for _, rec := range fs.tables[table] {
		if recordID(rec) == id {
			return rec, true
		}
	}
	return nil, false
}

func (fs *fakeService) query(table string, p fetchParams) []Record {
	found := make([]Record, 0)
	for _, rec := range fs.tables[table] {
		match := true
		for _, w := range p.Where {
			if fmt.Sprint(rec[w.FieldName]) != fmt.Sprint(w.Values[0]) {
				match = false
			}
		}
		if match {
			found = append(found, rec)
		}
	}
	if len(p.OrderBy) > 0 {
		ob := p.OrderBy[0]
		sort.SliceStable(found, func(i, j int) bool {
			a, b := fmt.Sprint(found[i][ob.FieldName]), fmt.Sprint(found[j][ob.FieldName])
			if ob.SortType == sortDesc {
				return a > b
			}
			return a < b
		})
	}
	return found
}

func (fs *fakeService) seed(table string, recs ...Record) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for _, rec := range recs {
		fs.pk++
		rec["Id"] = fs.pk
		fs.tables[table] = append(fs.tables[table], rec)
	}
}

func (fs *fakeService) lastRequest() *http.Request {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.requests[len(fs.requests)-1]
}

func setup(t *testing.T) (*fakeService, *Client) {
	fs := newFakeService()
	srv := httptest.NewServer(fs)
	t.Cleanup(srv.Close)

	conf := new(core.Config)
	conf.RecordService.BaseURL = srv.URL + "/"
	conf.RecordService.ProjectID = testProjectID
	conf.RecordService.PublicKey = testPublicKey
	conf.RecordService.Timeout = 5 * time.Second
	return fs, NewClient(conf)
}

func TestClient_Headers(t *testing.T) {
	fs, client := setup(t)

	_, err := client.Fetch(context.Background(), tableProgram, Query{Fields: programFields})
	require.NoError(t, err)

	req := fs.lastRequest()
	assert.Equal(t, testProjectID, req.Header.Get(headerProjectID))
	assert.Equal(t, testPublicKey, req.Header.Get(headerPublicKey))
	_, err = uuid.Parse(req.Header.Get(headerRequestID))
	assert.NoError(t, err)
}

func TestClient_Errors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		canned  *cannedResponse
		wantMsg string
	}{
		{
			name:    "server error with message",
			canned:  &cannedResponse{status: http.StatusInternalServerError, body: `{"success":false,"message":"database is down"}`},
			wantMsg: "database is down",
		},
		{
			name:    "server error without body",
			canned:  &cannedResponse{status: http.StatusBadGateway},
			wantMsg: "record service error: 502 Bad Gateway",
		},
		{
			name:    "unsuccessful envelope",
			canned:  &cannedResponse{status: http.StatusOK, body: `{"success":false,"message":"quota exceeded"}`},
			wantMsg: "quota exceeded",
		},
		{
			name:    "unsuccessful envelope without message",
			canned:  &cannedResponse{status: http.StatusOK, body: `{"success":false}`},
			wantMsg: "record service request failed",
		},
		{
			name:    "invalid json",
			canned:  &cannedResponse{status: http.StatusOK, body: `<html>`},
			wantMsg: "invalid record service response",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, client := setup(t)
			fs.canned = tt.canned

			_, err := client.Fetch(ctx, tableProgram, Query{})
			require.Error(t, err)
			assert.True(t, core.IsRequestFailed(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}

	t.Run("bad credentials", func(t *testing.T) {
		_, client := setup(t)
		client.publicKey = "wrong"
		_, err := client.Fetch(ctx, tableProgram, Query{})
		assert.True(t, core.IsRequestFailed(err))
		assert.Equal(t, "invalid credentials", err.Error())
	})

	t.Run("unreachable", func(t *testing.T) {
		conf := new(core.Config)
		conf.RecordService.BaseURL = "http://127.0.0.1:1"
		conf.RecordService.Timeout = time.Second
		_, err := NewClient(conf).Fetch(ctx, tableProgram, Query{})
		assert.True(t, core.IsRequestFailed(err))
	})

	t.Run("field errors", func(t *testing.T) {
		_, client := setup(t)
		_, err := NewProgramRepository(client).Create(ctx, program.Program{Slug: "x", Type: program.TypeMember})
		assert.True(t, core.IsRequestFailed(err))
		assert.Equal(t, "Title: is required", err.Error())
	})

	t.Run("cancelled", func(t *testing.T) {
		_, client := setup(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := client.Fetch(cctx, tableProgram, Query{})
		assert.Equal(t, context.Canceled, err)
	})
}

func TestProgramRepository(t *testing.T) {
	ctx := context.Background()
	fs, client := setup(t)
	repo := NewProgramRepository(client)
	lecRepo := NewLectureRepository(client)
	now := time.Now().UTC().Truncate(time.Second)

	progs, err := repo.List(ctx, program.QueryFilter{})
	require.NoError(t, err)
	assert.NotNil(t, progs)
	assert.Empty(t, progs)

	want := program.Program{
		Slug:      "golang-master",
		Title:     "Golang Master",
		Type:      program.TypeMaster,
		Price:     199.5,
		Tags:      []string{"go", "backend"},
		CreatedAt: now,
	}
	created, err := repo.Create(ctx, want)
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	want.ID = created.ID
	assert.Equal(t, want, created)

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = repo.GetBySlug(ctx, "golang-master")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = repo.GetBySlug(ctx, "nope")
	assert.Equal(t, program.ErrNotFound, err)
	_, err = repo.Get(ctx, 999)
	assert.Equal(t, program.ErrNotFound, err)

	assert.Equal(t, program.ErrSlugExists, repo.CheckSlugUniqueness(ctx, "golang-master"))
	assert.NoError(t, repo.CheckSlugUniqueness(ctx, "golang-master", created))

	fs.seed(tableProgram, Record{"slug": "react-basic", "title": "React Basic", "type": "member", "created_at": now.Add(time.Hour).Format(time.RFC3339)})
	progs, err = repo.List(ctx, program.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, progs, 2)
	assert.Equal(t, "react-basic", progs[0].Slug)

	progs, err = repo.List(ctx, program.QueryFilter{Type: program.TypeMaster})
	require.NoError(t, err)
	require.Len(t, progs, 1)
	assert.Equal(t, created.ID, progs[0].ID)

	upd := created
	upd.Title = "Golang Master II"
	updated, err := repo.Update(ctx, upd)
	require.NoError(t, err)
	assert.Equal(t, "Golang Master II", updated.Title)
	assert.Equal(t, now, updated.CreatedAt)

	_, err = repo.Update(ctx, program.Program{ID: 999, Slug: "x", Title: "x"})
	assert.Equal(t, program.ErrNotFound, err)

	lec, err := lecRepo.Create(ctx, lecture.Lecture{ProgramID: created.ID, Title: "Intro", Level: lecture.LevelMasterCommon})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.Get(ctx, created.ID)
	assert.True(t, core.IsNotFound(err))
	_, err = lecRepo.Get(ctx, lec.ID)
	assert.True(t, core.IsNotFound(err))
	assert.Equal(t, program.ErrNotFound, repo.Delete(ctx, created.ID))
}

func TestLectureRepository_Decoding(t *testing.T) {
	ctx := context.Background()
	fs, client := setup(t)
	repo := NewLectureRepository(client)

	// loosely typed values as the service may send them
	fs.seed(tableLecture,
		Record{"programId": "3", "title": "Lab", "level": "master", "cohortNumber": "2", "order": 2, "Tags": []interface{}{"go", " labs "}, "videoUrl": "https://v.test/1", "created_at": ""},
		Record{"programId": 3, "title": "Intro", "level": "master_common", "cohortNumber": nil, "order": 1, "Tags": "go,,intro", "duration": 30.0},
	)

	lecs, err := repo.ListByProgram(ctx, 3)
	require.NoError(t, err)
	require.Len(t, lecs, 2)

	intro, lab := lecs[0], lecs[1]
	assert.Equal(t, "Intro", intro.Title)
	assert.Nil(t, intro.CohortNumber)
	assert.Equal(t, []string{"go", "intro"}, intro.Tags)
	assert.Equal(t, 30, intro.Duration)

	assert.Equal(t, lecture.LevelMaster, lab.Level)
	require.NotNil(t, lab.CohortNumber)
	assert.Equal(t, 2, *lab.CohortNumber)
	assert.Equal(t, []string{"go", "labs"}, lab.Tags)
	assert.True(t, lab.CreatedAt.IsZero())

	_, err = repo.Get(ctx, 999)
	assert.Equal(t, lecture.ErrNotFound, err)
}

func TestReviewRepository_ToggleLike(t *testing.T) {
	ctx := context.Background()
	_, client := setup(t)
	repo := NewReviewRepository(client)

	rev, err := repo.Create(ctx, review.Review{AuthorName: "Ann", Rating: 5, Text: "Great", Likes: []int{3}})
	require.NoError(t, err)

	liked, err := repo.ToggleLike(ctx, rev.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 7}, liked.Likes)

	unliked, err := repo.ToggleLike(ctx, rev.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, rev.LikeCount(), unliked.LikeCount())
	assert.Equal(t, "Ann", unliked.AuthorName)

	_, err = repo.ToggleLike(ctx, 999, 7)
	assert.Equal(t, review.ErrNotFound, err)
}

func TestReviewRepository_ToggleLike_concurrent(t *testing.T) {
	ctx := context.Background()
	_, client := setup(t)
	repo := NewReviewRepository(client)

	rev, err := repo.Create(ctx, review.Review{AuthorName: "Ann", Rating: 5, Text: "Great"})
	require.NoError(t, err)

	const likers = 10
	var wg sync.WaitGroup
	for id := 1; id <= likers; id++ {
		wg.Add(1)
		go func(accountID int) {
			defer wg.Done()
			_, err := repo.ToggleLike(ctx, rev.ID, accountID)
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	got, err := repo.Get(ctx, rev.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, got.Likes)
}

func TestWaitlistRepository_Duplicate(t *testing.T) {
	ctx := context.Background()
	_, client := setup(t)
	repo := NewWaitlistRepository(client)

	entry := waitlist.Entry{Email: "a@b.io", ProgramSlug: "golang-master", CreatedAt: time.Now().UTC().Truncate(time.Second)}
	created, err := repo.Create(ctx, entry)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, entry.CreatedAt, created.CreatedAt)

	_, err = repo.Create(ctx, entry)
	assert.Equal(t, waitlist.ErrAlreadyOnWaitlist, err)

	entries, err := repo.List(ctx, waitlist.QueryFilter{ProgramSlug: "golang-master"})
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, repo.Delete(ctx, created.ID))
	assert.Equal(t, waitlist.ErrNotFound, repo.Delete(ctx, created.ID))
}
