package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	echoapi "github.com/trezcool/coursehub/apps/api/echo"
	"github.com/trezcool/coursehub/core"
	"github.com/trezcool/coursehub/core/lecture"
	"github.com/trezcool/coursehub/core/post"
	"github.com/trezcool/coursehub/core/program"
	"github.com/trezcool/coursehub/core/review"
	"github.com/trezcool/coursehub/core/user"
	"github.com/trezcool/coursehub/core/waitlist"
	appfs "github.com/trezcool/coursehub/fs"
	emailsvc "github.com/trezcool/coursehub/services/email"
	"github.com/trezcool/coursehub/storage/database/mockdb"
	"github.com/trezcool/coursehub/testutil"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type repos struct {
	program  program.Repository
	lecture  lecture.Repository
	review   review.Repository
	user     user.Repository
	post     post.Repository
	waitlist waitlist.Repository
}

type app struct {
	*echoapi.Server
	conf   *core.Config
	logger *testutil.Logger
	repos  repos
}

// setup returns a server over an empty in-memory store.
// `wrap` may decorate the repositories, eg. to inject failures.
func setup(t *testing.T, wrap ...func(*repos)) *app {
	conf := testutil.NewConfig()
	conf.Server.DisableReqLogs = true
	logger := new(testutil.Logger)

	db, err := mockdb.Open(mockdb.Options{})
	if err != nil {
		t.Fatalf("mockdb.Open(): %v", err)
	}
	r := repos{
		program:  mockdb.NewProgramRepository(db),
		lecture:  mockdb.NewLectureRepository(db),
		review:   mockdb.NewReviewRepository(db),
		user:     mockdb.NewUserRepository(db),
		post:     mockdb.NewPostRepository(db),
		waitlist: mockdb.NewWaitlistRepository(db),
	}
	for _, w := range wrap {
		w(&r)
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	program.InitValidators(validate, translator)
	lecture.InitValidators(validate, translator)
	post.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, conf.FrontendBaseURL, logger)
	user.LoadCommonPasswords(appfs.FS, appfs.CommonPasswords, logger)

	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	emailsvc.ResetSentMessages()

	server := echoapi.NewServer(echoapi.Options{
		Conf:        conf,
		Logger:      logger,
		Validate:    validate,
		Translator:  translator,
		ProgramSvc:  program.NewService(r.program),
		LectureSvc:  lecture.NewService(r.lecture, r.program),
		ReviewSvc:   review.NewService(r.review),
		UserSvc:     user.NewService(r.user, mailSvc),
		PostSvc:     post.NewService(r.post),
		WaitlistSvc: waitlist.NewService(r.waitlist, r.program, mailSvc),
	})
	return &app{Server: server, conf: conf, logger: logger, repos: r}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func (a *app) do(tt httpTest) *httptest.ResponseRecorder {
	method := tt.method
	if method == "" {
		method = http.MethodGet
	}
	req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
	a.ServeHTTP(rec, req)
	return rec
}

func (a *app) run(t *testing.T, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, a.do(tt))
		})
	}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func (a *app) getToken(t *testing.T, usr user.User) string {
	token, err := a.GenerateToken(echoapi.GetUserClaims(a.conf, usr))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj(): %v", err)
	}
	return data
}

func marshallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marshallList(): %v", err)
	}
	return data
}

func unmarshall(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("unmarshall(%s): %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	assert.Equal(t, tt.wantCode, rec.Code, "code")
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
