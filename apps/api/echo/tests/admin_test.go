package tests

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	echoapi "github.com/trezcool/coursehub/apps/api/echo"
	"github.com/trezcool/coursehub/core/account"
	"github.com/trezcool/coursehub/core/lecture"
	"github.com/trezcool/coursehub/core/post"
	"github.com/trezcool/coursehub/core/program"
	"github.com/trezcool/coursehub/core/review"
	"github.com/trezcool/coursehub/core/user"
	"github.com/trezcool/coursehub/core/waitlist"
	emailsvc "github.com/trezcool/coursehub/services/email"
	"github.com/trezcool/coursehub/testutil"
)

func setupAdmin(t *testing.T) (a *app, admin user.User, adminToken string) {
	a = setup(t)
	admin = testutil.CreateUser(t, a.repos.user, "Root", "root@coursehub.test", testPwd, account.RoleFree, true, "")
	return a, admin, a.getToken(t, admin)
}

func TestAdminRequired(t *testing.T) {
	a, _, _ := setupAdmin(t)
	master := testutil.CreateUser(t, a.repos.user, "Grace", "grace@coursehub.test", testPwd, account.RoleBoth, false, "1")

	a.run(t, []httpTest{
		{name: "auth required", path: "/v1/admin/stats", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{
			name: "admin required", path: "/v1/admin/stats", token: a.getToken(t, master),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "admin required on writes", method: http.MethodPost, path: "/v1/admin/programs", token: a.getToken(t, master),
			body:     []byte(`{"title":"Hacked"}`),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "permission denied"}),
		},
	})
}

func TestAdminStats(t *testing.T) {
	a, _, token := setupAdmin(t)
	testutil.CreateUser(t, a.repos.user, "Ada", "ada@coursehub.test", testPwd, account.RoleMember, false, "")
	prog := testutil.CreateProgram(t, a.repos.program, "go-master", program.TypeMaster, true)
	testutil.CreateLecture(t, a.repos.lecture, prog.ID, "welcome", lecture.LevelMasterCommon, 1)
	testutil.CreateLecture(t, a.repos.lecture, prog.ID, "cohort-1", lecture.LevelMaster, 2, 1)
	createReview(t, a.repos.review, "Ada", true, time.Now())
	createReview(t, a.repos.review, "Linus", false, time.Now())
	createPost(t, a.repos.post, "hello", post.StatusPublished)
	createPost(t, a.repos.post, "soon", post.StatusDraft)

	a.run(t, []httpTest{{
		name: "counters", path: "/v1/admin/stats", token: token, wantCode: http.StatusOK,
		wantData: marshallObj(t, echoapi.Stats{
			Users: 2, Admins: 1, Programs: 1, Lectures: 2, Reviews: 2, FeaturedReviews: 1, Posts: 2, PublishedPosts: 1,
		}),
	}})

	a.run(t, []httpTest{
		{name: "delete program", method: http.MethodDelete, path: fmt.Sprintf("/v1/admin/programs/%d", prog.ID), token: token, wantCode: http.StatusNoContent},
		{
			name: "lectures deleted with program", path: "/v1/admin/stats", token: token, wantCode: http.StatusOK,
			wantData: marshallObj(t, echoapi.Stats{
				Users: 2, Admins: 1, Reviews: 2, FeaturedReviews: 1, Posts: 2, PublishedPosts: 1,
			}),
		},
		{
			name: "delete unknown program", method: http.MethodDelete, path: fmt.Sprintf("/v1/admin/programs/%d", prog.ID), token: token,
			wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "program not found"}),
		},
	})
}

func TestAdminPrograms(t *testing.T) {
	a, _, token := setupAdmin(t)
	existing := testutil.CreateProgram(t, a.repos.program, "go-master", program.TypeMaster, true)

	a.run(t, []httpTest{
		{
			name: "duplicate slug", method: http.MethodPost, path: "/v1/admin/programs", token: token,
			body:     marshallObj(t, program.NewProgram{Title: "Go Master", Type: program.TypeMaster}),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, map[string]string{"slug": program.ErrSlugExists.Error()}),
		},
		{
			name: "unknown type", method: http.MethodPost, path: "/v1/admin/programs", token: token,
			body:     marshallObj(t, program.NewProgram{Title: "Rust", Type: "platinum"}),
			wantCode: http.StatusBadRequest,
		},
		{name: "retrieve", path: fmt.Sprintf("/v1/admin/programs/%d", existing.ID), token: token, wantCode: http.StatusOK, wantData: marshallObj(t, existing)},
		{name: "retrieve unknown", path: "/v1/admin/programs/9999", token: token, wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "program not found"})},
	})

	var created program.Program
	t.Run("create", func(t *testing.T) {
		rec := a.do(httpTest{
			method: http.MethodPost,
			path:   "/v1/admin/programs",
			token:  token,
			body:   marshallObj(t, program.NewProgram{Title: " React Basics ", Type: "MEMBER", Price: 49, Tags: []string{" react ", ""}}),
		})
		if !assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String()) {
			return
		}
		unmarshall(t, rec, &created)
		assert.Equal(t, "react-basics", created.Slug)
		assert.Equal(t, "React Basics", created.Title)
		assert.Equal(t, program.TypeMember, created.Type)
		assert.Equal(t, []string{"react"}, created.Tags)
	})

	t.Run("update", func(t *testing.T) {
		rec := a.do(httpTest{
			method: http.MethodPut,
			path:   fmt.Sprintf("/v1/admin/programs/%d", created.ID),
			token:  token,
			body:   []byte(`{"has_common_course":true,"price":0}`),
		})
		if !assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String()) {
			return
		}
		var updated program.Program
		unmarshall(t, rec, &updated)
		assert.Equal(t, created.Slug, updated.Slug)
		assert.True(t, updated.HasCommonCourse)
		assert.Zero(t, updated.Price)
	})

	a.run(t, []httpTest{{
		name: "update to taken slug", method: http.MethodPut, path: fmt.Sprintf("/v1/admin/programs/%d", created.ID), token: token,
		body:     []byte(`{"slug":"go-master"}`),
		wantCode: http.StatusBadRequest, wantData: marshallObj(t, map[string]string{"slug": program.ErrSlugExists.Error()}),
	}})
}

func TestAdminLectures(t *testing.T) {
	a, _, token := setupAdmin(t)
	prog := testutil.CreateProgram(t, a.repos.program, "go-master", program.TypeMaster, true)
	cohort := 2

	a.run(t, []httpTest{
		{
			name: "master lecture without cohort", method: http.MethodPost, path: "/v1/admin/lectures", token: token,
			body:     marshallObj(t, lecture.NewLecture{ProgramID: prog.ID, Title: "Goroutines", Level: lecture.LevelMaster}),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, map[string]string{"cohort_number": "master lectures must have a cohort number"}),
		},
		{
			name: "unknown program", method: http.MethodPost, path: "/v1/admin/lectures", token: token,
			body:     marshallObj(t, lecture.NewLecture{ProgramID: 9999, Title: "Goroutines", Level: lecture.LevelMasterCommon}),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, map[string]string{"program_id": "program does not exist"}),
		},
		{
			name: "unknown level", method: http.MethodPost, path: "/v1/admin/lectures", token: token,
			body:     marshallObj(t, lecture.NewLecture{ProgramID: prog.ID, Title: "Goroutines", Level: "expert"}),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"level": "level must be one of: member_basic, member_intermediate, master_common, master"}),
		},
	})

	var created lecture.Lecture
	t.Run("create", func(t *testing.T) {
		rec := a.do(httpTest{
			method: http.MethodPost,
			path:   "/v1/admin/lectures",
			token:  token,
			body: marshallObj(t, lecture.NewLecture{
				ProgramID: prog.ID, Title: "Goroutines", Category: " Concurrency ", Level: lecture.LevelMaster,
				CohortNumber: &cohort, Order: 3, Content: "go func() {}", VideoURL: "https://videos.test/goroutines",
			}),
		})
		if !assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String()) {
			return
		}
		unmarshall(t, rec, &created)
		assert.Equal(t, "Concurrency", created.Category)
		assert.True(t, created.HasCohort(cohort))
		assert.Equal(t, "go func() {}", created.Content)
	})

	a.run(t, []httpTest{
		{
			name: "list by program", path: fmt.Sprintf("/v1/admin/lectures?program_id=%d", prog.ID), token: token,
			wantCode: http.StatusOK, wantData: marshallList(t, created),
		},
		{name: "list other program", path: "/v1/admin/lectures?program_id=9999", token: token, wantCode: http.StatusOK, wantData: marshallList(t)},
		{
			name: "update to common", method: http.MethodPut, path: fmt.Sprintf("/v1/admin/lectures/%d", created.ID), token: token,
			body: []byte(`{"level":"master_common","order":1}`), wantCode: http.StatusOK,
		},
		{name: "delete", method: http.MethodDelete, path: fmt.Sprintf("/v1/admin/lectures/%d", created.ID), token: token, wantCode: http.StatusNoContent},
		{
			name: "retrieve deleted", path: fmt.Sprintf("/v1/admin/lectures/%d", created.ID), token: token,
			wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "lecture not found"}),
		},
	})
}

func TestAdminUsers(t *testing.T) {
	a, admin, token := setupAdmin(t)

	a.run(t, []httpTest{
		{
			name: "weak password", method: http.MethodPost, path: "/v1/admin/users", token: token,
			body: marshallObj(t, user.NewUser{
				Name: "Ada", Email: "ada@coursehub.test", Password: "password", PasswordConfirm: "password",
			}),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"password": "password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character"}),
		},
		{
			name: "email taken", method: http.MethodPost, path: "/v1/admin/users", token: token,
			body: marshallObj(t, user.NewUser{
				Name: "Root 2", Email: admin.Email, Password: "Sup3r-Secret!", PasswordConfirm: "Sup3r-Secret!",
			}),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, map[string]string{"email": user.ErrEmailExists.Error()}),
		},
		{
			name: "delete self", method: http.MethodDelete, path: fmt.Sprintf("/v1/admin/users/%d", admin.ID), token: token,
			wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "permission denied"}),
		},
	})

	var created user.User
	t.Run("create", func(t *testing.T) {
		emailsvc.ResetSentMessages()
		rec := a.do(httpTest{
			method: http.MethodPost,
			path:   "/v1/admin/users",
			token:  token,
			body: marshallObj(t, user.NewUser{
				Name: "Ada Lovelace", Email: "ADA@coursehub.test", Role: account.RoleMaster, Cohort: "3",
				Password: "Sup3r-Secret!", PasswordConfirm: "Sup3r-Secret!",
			}),
		})
		if !assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String()) {
			return
		}
		unmarshall(t, rec, &created)
		assert.Equal(t, "ada@coursehub.test", created.Email)
		assert.Equal(t, account.Viewer{ID: created.ID, Role: account.RoleMaster, Cohort: "3"}, created.Viewer())

		msgs := emailsvc.GetSentMessages()
		if assert.Len(t, msgs, 1) {
			assert.Equal(t, "welcome", msgs[0].TemplateName)
			assert.Equal(t, created.Email, msgs[0].To[0].Address)
		}
	})

	a.run(t, []httpTest{
		{name: "filter by role", path: "/v1/admin/users?role=master", token: token, wantCode: http.StatusOK, wantData: marshallList(t, created)},
		{name: "filter admins", path: "/v1/admin/users?is_admin=true", token: token, wantCode: http.StatusOK, wantData: marshallList(t, admin)},
		{name: "search", path: "/v1/admin/users?search=LOVE", token: token, wantCode: http.StatusOK, wantData: marshallList(t, created)},
		{name: "delete", method: http.MethodDelete, path: fmt.Sprintf("/v1/admin/users/%d", created.ID), token: token, wantCode: http.StatusNoContent},
		{
			name: "retrieve deleted", path: fmt.Sprintf("/v1/admin/users/%d", created.ID), token: token,
			wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "user not found"}),
		},
	})
}

func TestAdminContent(t *testing.T) {
	a, admin, token := setupAdmin(t)
	rev := createReview(t, a.repos.review, "Ada", false, time.Now())
	prog := testutil.CreateProgram(t, a.repos.program, "go-master", program.TypeMaster, true)
	entries := make([]waitlist.Entry, 0, 2)
	for _, email := range []string{"a@coursehub.test", "b@coursehub.test"} {
		rec := a.do(httpTest{
			method: http.MethodPost,
			path:   "/v1/waitlist",
			body:   marshallObj(t, waitlist.NewEntry{Email: email, ProgramSlug: prog.Slug}),
		})
		var entry waitlist.Entry
		unmarshall(t, rec, &entry)
		entries = append(entries, entry)
	}

	t.Run("feature review", func(t *testing.T) {
		rec := a.do(httpTest{method: http.MethodPut, path: fmt.Sprintf("/v1/admin/reviews/%d", rev.ID), token: token, body: []byte(`{"featured":true}`)})
		if !assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String()) {
			return
		}
		var updated review.Review
		unmarshall(t, rec, &updated)
		assert.True(t, updated.Featured)
		assert.Equal(t, rev.Text, updated.Text)
	})

	t.Run("create post", func(t *testing.T) {
		rec := a.do(httpTest{
			method: http.MethodPost,
			path:   "/v1/admin/posts",
			token:  token,
			body:   marshallObj(t, post.NewPost{Title: "Hello World", Content: "First post", Status: post.StatusPublished}),
		})
		if !assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String()) {
			return
		}
		var p post.Post
		unmarshall(t, rec, &p)
		assert.Equal(t, "hello-world", p.Slug)
		assert.Equal(t, admin.Name, p.Author)
		assert.Equal(t, admin.ID, p.AuthorID)
	})

	a.run(t, []httpTest{
		{
			name: "waitlist", path: "/v1/admin/waitlist?program_slug=go-master", token: token,
			wantCode: http.StatusOK, wantData: marshallList(t, entries[1], entries[0]),
		},
		{name: "waitlist other program", path: "/v1/admin/waitlist?program_slug=rust", token: token, wantCode: http.StatusOK, wantData: marshallList(t)},
		{name: "delete waitlist entry", method: http.MethodDelete, path: fmt.Sprintf("/v1/admin/waitlist/%d", entries[0].ID), token: token, wantCode: http.StatusNoContent},
		{name: "waitlist after delete", path: "/v1/admin/waitlist", token: token, wantCode: http.StatusOK, wantData: marshallList(t, entries[1])},
		{name: "delete review", method: http.MethodDelete, path: fmt.Sprintf("/v1/admin/reviews/%d", rev.ID), token: token, wantCode: http.StatusNoContent},
		{name: "reviews after delete", path: "/v1/reviews", wantCode: http.StatusOK, wantData: marshallList(t)},
	})
}
