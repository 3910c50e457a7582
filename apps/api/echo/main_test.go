package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fmlibermann/website/core"
	"github.com/fmlibermann/website/core/admission"
	"github.com/fmlibermann/website/core/community"
	"github.com/fmlibermann/website/core/contact"
	"github.com/fmlibermann/website/core/feedback"
	"github.com/fmlibermann/website/core/newsletter"
	"github.com/fmlibermann/website/core/user"
	"github.com/fmlibermann/website/services/email"
	"github.com/fmlibermann/website/services/logger"
	"github.com/fmlibermann/website/storage/blob"
	"github.com/fmlibermann/website/storage/database/inmem"
	"github.com/fmlibermann/website/tests"
)

const (
	parentEmail = "amina@test.tz"
	adminPwd    = "s3cure-Passw0rd"
)

type testEnv struct {
	app     Server
	conf    *core.Config
	mailSvc *emailsvc.ConsoleServiceMock
	logger  *logsvc.LoggerMock

	usrRepo       user.Repository
	inqRepo       admission.Repository
	communityRepo community.Repository
	fbRepo        feedback.Repository

	admissionSvc *admission.Service
}

func newTestEnv(t *testing.T, configure ...func(*core.Config)) *testEnv {
	t.Helper()

	conf := testutil.Config()
	for _, fn := range configure {
		fn(conf)
	}
	validate, translator := testutil.Validator()
	mailer, mailSvc, logger := testutil.Mailer(t, conf)

	blobs, err := blobstore.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	db := inmemdb.Open()
	env := &testEnv{
		conf:          conf,
		mailSvc:       mailSvc,
		logger:        logger,
		usrRepo:       inmemdb.NewUserRepository(db),
		inqRepo:       inmemdb.NewAdmissionRepository(db),
		communityRepo: inmemdb.NewCommunityRepository(db),
		fbRepo:        inmemdb.NewFeedbackRepository(db),
	}
	env.admissionSvc = admission.NewService(env.inqRepo, blobs, mailer, conf, logger)

	env.app = NewServer("" /* addr */, nil /* shutdown */, &Deps{
		Conf:          conf,
		Logger:        logger,
		Validate:      validate,
		Translator:    translator,
		UserSvc:       user.NewService(env.usrRepo, validate),
		AdmissionSvc:  env.admissionSvc,
		ContactSvc:    contact.NewService(inmemdb.NewContactRepository(db), mailer, validate, conf),
		CommunitySvc:  community.NewService(env.communityRepo, mailer, validate, conf),
		FeedbackSvc:   feedback.NewService(env.fbRepo, mailer, validate, conf),
		NewsletterSvc: newsletter.NewService(inmemdb.NewNewsletterRepository(db), mailer, validate, conf),
	})
	return env
}

func (env *testEnv) token(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := newAuthenticator(env.conf).GenerateToken(usr)
	require.NoError(t, err)
	return token
}

func (env *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	return env.token(t, testutil.CreateUser(t, env.usrRepo, "admin", adminPwd, true))
}

func (env *testEnv) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	env.app.ServeHTTP(rec, req)
	return rec
}

// submitInquiry saves an application with every required document.
func (env *testEnv) submitInquiry(t *testing.T, studentName string) admission.Inquiry {
	t.Helper()
	ni := validInquiry()
	ni.StudentName = studentName
	ni.Files = make(map[admission.FileSlot]admission.Upload)
	for slot, up := range validFiles() {
		ni.Files[admission.FileSlot(slot)] = admission.Upload{
			Filename: up.filename,
			Size:     int64(len(up.content)),
			Content:  strings.NewReader(up.content),
		}
	}
	receipt, err := env.admissionSvc.Submit(context.Background(), ni)
	require.NoError(t, err)
	env.mailSvc.Reset()
	return receipt.Inquiry
}

func validInquiry() admission.NewInquiry {
	return admission.NewInquiry{
		StudentName:    "Baraka Mushi",
		DateOfBirth:    "2011-04-02",
		Gender:         "male",
		ParentName:     "Amina Mushi",
		Email:          parentEmail,
		Phone:          "0712345678",
		FormLevel:      "Form 1",
		PreviousSchool: "Mbezi Primary",
		LastGrade:      "Standard 7",
	}
}

func inquiryForm(ni admission.NewInquiry) url.Values {
	return url.Values{
		"student_name":    {ni.StudentName},
		"date_of_birth":   {ni.DateOfBirth},
		"gender":          {ni.Gender},
		"parent_name":     {ni.ParentName},
		"email":           {ni.Email},
		"phone":           {ni.Phone},
		"form_level":      {ni.FormLevel},
		"previous_school": {ni.PreviousSchool},
		"last_grade":      {ni.LastGrade},
		"message":         {ni.Message},
	}
}

type upload struct {
	filename string
	content  string
}

func validFiles() map[string]upload {
	return map[string]upload{
		"birth_certificate":    {"birth.pdf", "%PDF-1.4 birth"},
		"transfer_certificate": {"transfer.pdf", "%PDF-1.4 transfer"},
		"medical_report":       {"medical.png", "\x89PNG medical"},
		"parent_id":            {"id.jpg", "\xff\xd8\xff id"},
	}
}

func newMultipartRequest(t *testing.T, path string, fields url.Values, files map[string]upload) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for name, values := range fields {
		for _, v := range values {
			require.NoError(t, w.WriteField(name, v))
		}
	}
	for name, up := range files {
		fw, err := w.CreateFormFile(name, up.filename)
		require.NoError(t, err)
		_, err = io.WriteString(fw, up.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func newFormRequest(method, path string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func newJSONRequest(t *testing.T, method, path, token string, data interface{}) *http.Request {
	t.Helper()
	var body bytes.Buffer
	if data != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(data))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	decode(t, rec, &resp)
	return resp
}

func sentTo(msgs []core.EmailMessage, addr string) []core.EmailMessage {
	var found []core.EmailMessage
	for _, msg := range msgs {
		for _, to := range msg.To {
			if to.Address == addr {
				found = append(found, msg)
				break
			}
		}
	}
	return found
}

func TestServer_home(t *testing.T) {
	env := newTestEnv(t)
	rec := env.serve(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Test School!", rec.Body.String())
}

func TestServer_notFound(t *testing.T) {
	env := newTestEnv(t)
	rec := env.serve(httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, categoryDanger, resp.Category)
}
