package echoapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fmlibermann/website/core"
	"github.com/fmlibermann/website/core/admission"
	"github.com/fmlibermann/website/core/community"
	"github.com/fmlibermann/website/core/feedback"
	"github.com/fmlibermann/website/tests"
)

func Test_publicApi_submitAdmission(t *testing.T) {
	without := func(files map[string]upload, slot string) map[string]upload {
		delete(files, slot)
		return files
	}
	with := func(files map[string]upload, slot string, up upload) map[string]upload {
		files[slot] = up
		return files
	}
	form := func(edit func(ni *admission.NewInquiry)) url.Values {
		ni := validInquiry()
		if edit != nil {
			edit(&ni)
		}
		return inquiryForm(ni)
	}

	tests := []struct {
		name      string
		form      url.Values
		files     map[string]upload
		maxSize   int64
		wantCode  int
		wantField string
		wantMsg   string
	}{
		{
			name: "missing student name", form: form(func(ni *admission.NewInquiry) { ni.StudentName = "  " }),
			files: validFiles(), wantCode: http.StatusBadRequest,
			wantField: "student_name", wantMsg: "Student Name is required.",
		},
		{
			name: "missing last grade", form: form(func(ni *admission.NewInquiry) { ni.LastGrade = "" }),
			files: validFiles(), wantCode: http.StatusBadRequest,
			wantField: "last_grade", wantMsg: "Last Grade is required.",
		},
		{
			name: "invalid email", form: form(func(ni *admission.NewInquiry) { ni.Email = "amina-at-test" }),
			files: validFiles(), wantCode: http.StatusBadRequest,
			wantField: "email", wantMsg: "Please provide a valid email address.",
		},
		{
			name: "phone too short", form: form(func(ni *admission.NewInquiry) { ni.Phone = "071234" }),
			files: validFiles(), wantCode: http.StatusBadRequest,
			wantField: "phone", wantMsg: "Please provide a valid phone number (at least 10 digits).",
		},
		{
			name: "phone not numeric", form: form(func(ni *admission.NewInquiry) { ni.Phone = "+255712345678" }),
			files: validFiles(), wantCode: http.StatusBadRequest,
			wantField: "phone", wantMsg: "Please provide a valid phone number (at least 10 digits).",
		},
		{
			name: "missing parent id", form: form(nil), files: without(validFiles(), "parent_id"),
			wantCode: http.StatusBadRequest, wantField: "parent_id", wantMsg: "Please upload a valid parent id (PDF, JPG or PNG).",
		},
		{
			name: "disallowed extension", form: form(nil),
			files:    with(validFiles(), "medical_report", upload{"medical.exe", "MZ"}),
			wantCode: http.StatusBadRequest, wantField: "medical_report",
			wantMsg: "Please upload a valid medical report (PDF, JPG or PNG).",
		},
		{
			name: "report cards are optional", form: form(nil), files: validFiles(), wantCode: http.StatusCreated,
		},
		{
			name: "uppercase extensions", form: form(nil),
			files:    with(validFiles(), "birth_certificate", upload{"BIRTH.PDF", "%PDF-1.4"}),
			wantCode: http.StatusCreated,
		},
		{
			name: "too large", form: form(nil),
			files:    with(validFiles(), "report_cards", upload{"reports.pdf", strings.Repeat("x", 2*1024*1024)}),
			maxSize:  1024 * 1024,
			wantCode: http.StatusBadRequest, wantField: "attachments",
			wantMsg: "Total size of uploaded files exceeds 1MB. Please reduce file sizes and try again.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, func(conf *core.Config) {
				if tt.maxSize > 0 {
					conf.Admission.MaxAttachmentsSize = tt.maxSize
				}
			})

			rec := env.serve(newMultipartRequest(t, "/admissions", tt.form, tt.files))
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			resp := decodeResponse(t, rec)

			count, err := env.inqRepo.CountInquiries(context.Background())
			require.NoError(t, err)

			if tt.wantCode != http.StatusCreated {
				assert.False(t, resp.Success)
				assert.Equal(t, categoryDanger, resp.Category)
				assert.Equal(t, tt.wantMsg, resp.Message)
				assert.Equal(t, map[string]string{tt.wantField: tt.wantMsg}, resp.Errors)
				assert.Zero(t, count, "nothing is saved")
				assert.Empty(t, env.mailSvc.SentMessages())
				return
			}
			assert.True(t, resp.Success)
			assert.NotEmpty(t, resp.TrackingCode)
			assert.Equal(t, 1, count)
		})
	}
}

func Test_publicApi_submitAdmission_saved(t *testing.T) {
	env := newTestEnv(t)
	rec := env.serve(newMultipartRequest(t, "/admissions", inquiryForm(validInquiry()), validFiles()))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decodeResponse(t, rec)
	assert.Equal(t, success(msgAdmissionSubmitted).Message, resp.Message)
	assert.Equal(t, categorySuccess, resp.Category)

	inqs, err := env.inqRepo.QueryInquiries(context.Background(), admission.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, inqs, 1)
	inq := inqs[0]
	assert.Equal(t, resp.TrackingCode, inq.TrackingCode)
	assert.Equal(t, admission.StatusPendingPayment, inq.Status)
	assert.Len(t, inq.Documents, 4)
	assert.NotContains(t, inq.Documents, admission.SlotReportCards)
	for _, ref := range inq.Documents {
		assert.True(t, strings.HasPrefix(ref, "admissions/"+inq.TrackingCode+"/"), ref)
	}

	msgs := env.mailSvc.SentMessages()
	require.Len(t, msgs, 2)

	parent := sentTo(msgs, parentEmail)
	require.Len(t, parent, 1)
	assert.Equal(t, "Admission Application Confirmation - Test School", parent[0].Subject)
	require.Len(t, parent[0].Attachments, 1)
	assert.Equal(t, "Admission_Confirmation_Baraka_Mushi.pdf", parent[0].Attachments[0].Filename)
	assert.Equal(t, "application/pdf", parent[0].Attachments[0].ContentType)
	assert.Contains(t, parent[0].TextContent, inq.TrackingCode)

	school := sentTo(msgs, testutil.SchoolEmail)
	require.Len(t, school, 1)
	assert.Equal(t, "New Admission Inquiry from Amina Mushi", school[0].Subject)
	assert.Len(t, school[0].Attachments, 4)
}

func Test_publicApi_submitAdmission_notMailed(t *testing.T) {
	tests := []struct {
		name     string
		failing  []string
		wantSent int
	}{
		{name: "parent email fails", failing: []string{parentEmail}, wantSent: 2},
		{name: "school email fails", failing: []string{testutil.SchoolEmail}, wantSent: 2},
		{name: "both fail", failing: []string{parentEmail, testutil.SchoolEmail}, wantSent: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			for _, addr := range tt.failing {
				env.mailSvc.FailFor(addr, errors.New("mailbox unavailable"))
			}

			rec := env.serve(newMultipartRequest(t, "/admissions", inquiryForm(validInquiry()), validFiles()))
			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

			resp := decodeResponse(t, rec)
			assert.True(t, resp.Success)
			assert.Equal(t, categoryWarning, resp.Category)
			assert.Equal(t, msgAdmissionNotMailed, resp.Message)
			assert.NotEmpty(t, resp.TrackingCode)

			count, err := env.inqRepo.CountInquiries(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 1, count, "inquiry is saved regardless")
			assert.Len(t, env.mailSvc.SentMessages(), tt.wantSent, "sends are independent")
			assert.NotEmpty(t, env.logger.Entries("warn"))
		})
	}
}

func Test_publicApi_createContact(t *testing.T) {
	tests := []struct {
		name       string
		form       url.Values
		failSchool bool
		wantCode   int
		wantResp   Response
		wantErrors map[string]string
	}{
		{
			name:     "missing message",
			form:     url.Values{"name": {"Juma"}, "email": {"juma@test.tz"}},
			wantCode: http.StatusBadRequest, wantResp: failure(msgFillAllFields, categoryDanger),
			wantErrors: map[string]string{"message": "this field is required"},
		},
		{
			name:     "invalid email",
			form:     url.Values{"name": {"Juma"}, "email": {"juma"}, "message": {"Hello"}},
			wantCode: http.StatusBadRequest, wantResp: failure("please provide a valid email address", categoryDanger),
			wantErrors: map[string]string{"email": "please provide a valid email address"},
		},
		{
			name:     "sent",
			form:     url.Values{"name": {"Juma"}, "email": {"juma@test.tz"}, "message": {"Hello"}},
			wantCode: http.StatusCreated, wantResp: success(msgContactSent),
		},
		{
			name:       "saved, not mailed",
			form:       url.Values{"name": {"Juma"}, "email": {"juma@test.tz"}, "message": {"Hello"}},
			failSchool: true,
			wantCode:   http.StatusCreated, wantResp: warning(msgSavedNotMailed),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			if tt.failSchool {
				env.mailSvc.FailFor(testutil.SchoolEmail, errors.New("mailbox unavailable"))
			}

			rec := env.serve(newFormRequest(http.MethodPost, "/contact", tt.form))
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			want := tt.wantResp
			want.Errors = tt.wantErrors
			assert.Equal(t, want, decodeResponse(t, rec))

			if tt.wantCode == http.StatusCreated {
				msgs := sentTo(env.mailSvc.SentMessages(), testutil.SchoolEmail)
				require.Len(t, msgs, 1)
				assert.Equal(t, "New Contact Form Submission from Juma", msgs[0].Subject)
			}
		})
	}
}

func Test_publicApi_registerParent(t *testing.T) {
	tests := []struct {
		name          string
		form          url.Values
		wantVolunteer bool
	}{
		{name: "checkbox unchecked", form: url.Values{"name": {"Neema"}, "email": {"neema@test.tz"}}},
		{name: "checkbox checked", form: url.Values{"name": {"Neema"}, "email": {"neema@test.tz"}, "volunteer": {"on"}}, wantVolunteer: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rec := env.serve(newFormRequest(http.MethodPost, "/community/parents", tt.form))
			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
			assert.Equal(t, success(msgParentRegistered), decodeResponse(t, rec))

			parents, err := env.communityRepo.QueryParents(context.Background(), community.QueryFilter{})
			require.NoError(t, err)
			require.Len(t, parents, 1)
			assert.Equal(t, tt.wantVolunteer, parents[0].VolunteerInterest)
		})
	}
}

func Test_publicApi_registerAlumnus(t *testing.T) {
	env := newTestEnv(t)

	rec := env.serve(newFormRequest(http.MethodPost, "/community/alumni", url.Values{
		"name": {"Rehema"}, "email": {"rehema@test.tz"}, "graduation_year": {"1850"},
	}))
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Contains(t, decodeResponse(t, rec).Errors, "graduation_year")

	rec = env.serve(newFormRequest(http.MethodPost, "/community/alumni", url.Values{
		"name": {"Rehema"}, "email": {"rehema@test.tz"}, "graduation_year": {"2009"}, "mentor": {"yes"},
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, success(msgAlumnusRegistered), decodeResponse(t, rec))

	alumni, err := env.communityRepo.QueryAlumni(context.Background(), community.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, alumni, 1)
	assert.Equal(t, 2009, alumni[0].GraduationYear)
	assert.True(t, alumni[0].MentorshipInterest)
}

func Test_publicApi_subscribe(t *testing.T) {
	env := newTestEnv(t)

	rec := env.serve(newFormRequest(http.MethodPost, "/subscribe", url.Values{"email": {"Fan@Test.tz"}}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, success(msgSubscribed), decodeResponse(t, rec))

	msgs := env.mailSvc.SentMessages()
	require.Len(t, msgs, 2)
	assert.Len(t, sentTo(msgs, "fan@test.tz"), 1)
	assert.Len(t, sentTo(msgs, testutil.SchoolEmail), 1)

	env.mailSvc.Reset()
	rec = env.serve(newFormRequest(http.MethodPost, "/subscribe", url.Values{"email": {" fan@test.tz "}}))
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, failure(msgAlreadySubscribed, categoryWarning), decodeResponse(t, rec))
	assert.Empty(t, env.mailSvc.SentMessages())
}

func Test_publicApi_feedback(t *testing.T) {
	env := newTestEnv(t)

	rec := env.serve(newFormRequest(http.MethodPost, "/feedback", url.Values{
		"name": {"Mzee"}, "role": {"parent"}, "comment": {"Great school"}, "rating": {"6"},
	}))
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = env.serve(newFormRequest(http.MethodPost, "/feedback", url.Values{
		"name": {"Mzee"}, "role": {"parent"}, "comment": {"Great school"}, "rating": {"5"},
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, success(msgFeedbackSubmitted), decodeResponse(t, rec))

	// unapproved feedback is not public
	rec = env.serve(httptest.NewRequest(http.MethodGet, "/feedback", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	fbs, err := env.fbRepo.QueryFeedback(context.Background(), feedback.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, fbs, 1)
	_, err = env.fbRepo.ApproveFeedback(context.Background(), fbs[0].ID)
	require.NoError(t, err)

	rec = env.serve(httptest.NewRequest(http.MethodGet, "/feedback", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var public []map[string]interface{}
	decode(t, rec, &public)
	require.Len(t, public, 1)
	assert.Equal(t, "Great school", public[0]["comment"])
}

func Test_publicApi_emailOnlyForms(t *testing.T) {
	visit := url.Values{
		"name": {"Zawadi"}, "email": {"zawadi@test.tz"}, "phone": {"0755000111"}, "date": {"2024-03-01"},
	}
	volunteer := url.Values{
		"name": {"Zawadi"}, "email": {"zawadi@test.tz"}, "phone": {"0755000111"}, "interest": {"sports"},
	}

	tests := []struct {
		name       string
		path       string
		form       url.Values
		failSchool bool
		wantCode   int
		wantResp   Response
		wantSent   int
	}{
		{name: "visit", path: "/visits", form: visit, wantCode: http.StatusOK, wantResp: success(msgVisitRequested), wantSent: 2},
		{
			name: "visit, school not mailed", path: "/visits", form: visit, failSchool: true,
			wantCode: http.StatusInternalServerError, wantResp: failure(msgSendError, categoryDanger), wantSent: 1,
		},
		{name: "volunteer", path: "/volunteer", form: volunteer, wantCode: http.StatusOK, wantResp: success(msgVolunteerSignedUp), wantSent: 1},
		{
			name: "volunteer, school not mailed", path: "/volunteer", form: volunteer, failSchool: true,
			wantCode: http.StatusInternalServerError, wantResp: failure(msgSendError, categoryDanger), wantSent: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			if tt.failSchool {
				env.mailSvc.FailFor(testutil.SchoolEmail, errors.New("mailbox unavailable"))
			}
			rec := env.serve(newFormRequest(http.MethodPost, tt.path, tt.form))
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantResp, decodeResponse(t, rec))
			assert.Len(t, env.mailSvc.SentMessages(), tt.wantSent)
		})
	}
}
