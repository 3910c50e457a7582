package admission_test

import (
	"context"
	"io"
	"path"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fmlibermann/website/core"
	"github.com/fmlibermann/website/core/admission"
	"github.com/fmlibermann/website/services/email"
	"github.com/fmlibermann/website/services/logger"
	"github.com/fmlibermann/website/storage/blob"
	"github.com/fmlibermann/website/storage/database/inmem"
	"github.com/fmlibermann/website/tests"
)

const parentEmail = "amina@test.tz"

type serviceEnv struct {
	svc     *admission.Service
	repo    admission.Repository
	blobs   core.BlobStore
	mailSvc *emailsvc.ConsoleServiceMock
	logger  *logsvc.LoggerMock
}

func newServiceEnv(t *testing.T, blobs core.BlobStore, configure ...func(*core.Config)) *serviceEnv {
	t.Helper()
	conf := testutil.Config()
	for _, fn := range configure {
		fn(conf)
	}
	if blobs == nil {
		var err error
		blobs, err = blobstore.NewLocalStore(t.TempDir())
		require.NoError(t, err)
	}
	mailer, mailSvc, logger := testutil.Mailer(t, conf)
	repo := inmemdb.NewAdmissionRepository(inmemdb.Open())
	return &serviceEnv{
		svc:     admission.NewService(repo, blobs, mailer, conf, logger),
		repo:    repo,
		blobs:   blobs,
		mailSvc: mailSvc,
		logger:  logger,
	}
}

func newInquiry() admission.NewInquiry {
	ni := admission.NewInquiry{
		StudentName:    " Baraka Mushi ",
		DateOfBirth:    "2011-04-02",
		Gender:         "male",
		ParentName:     "Amina Mushi",
		Email:          parentEmail,
		Phone:          "0712345678",
		FormLevel:      "Form 1",
		PreviousSchool: "Mbezi Primary",
		LastGrade:      "Standard 7",
		Files:          make(map[admission.FileSlot]admission.Upload),
	}
	for _, slot := range admission.FileSlots {
		if slot.Required() {
			ni.Files[slot] = upload(string(slot)+".pdf", "%PDF-1.4 "+string(slot))
		}
	}
	return ni
}

func upload(filename, content string) admission.Upload {
	return admission.Upload{Filename: filename, Size: int64(len(content)), Content: strings.NewReader(content)}
}

// failingStore accepts n writes, then fails.
type failingStore struct {
	n    int
	keys []string
}

func (s *failingStore) Put(_ context.Context, key string, r io.Reader) (string, error) {
	if len(s.keys) >= s.n {
		return "", errors.New("disk full")
	}
	s.keys = append(s.keys, key)
	_, err := io.Copy(io.Discard, r)
	return key, err
}

func (s *failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, core.ErrBlobNotFound
}

func TestService_Submit(t *testing.T) {
	env := newServiceEnv(t, nil)

	receipt, err := env.svc.Submit(context.Background(), newInquiry())
	require.NoError(t, err)
	assert.True(t, receipt.Emailed)
	assert.NoError(t, receipt.NotifyErr)

	inq := receipt.Inquiry
	assert.NotZero(t, inq.ID)
	assert.Equal(t, "Baraka Mushi", inq.StudentName)
	assert.Equal(t, admission.StatusPendingPayment, inq.Status)
	_, err = uuid.Parse(inq.TrackingCode)
	assert.NoError(t, err)
	assert.Equal(t, inq.CreatedAt, inq.UpdatedAt)

	require.Len(t, inq.Documents, 4)
	assert.NotContains(t, inq.Documents, admission.SlotReportCards)
	for slot, ref := range inq.Documents {
		assert.True(t, strings.HasPrefix(ref, "admissions/"+inq.TrackingCode+"/"+string(slot)+"_Baraka_Mushi_"), ref)
		content, err := env.blobs.Get(context.Background(), ref)
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.4 "+string(slot), string(content))
	}

	saved, err := env.repo.GetInquiry(context.Background(), inq.ID)
	require.NoError(t, err)
	assert.Equal(t, inq.TrackingCode, saved.TrackingCode)

	msgs := env.mailSvc.SentMessages()
	require.Len(t, msgs, 2)
	parent, school := msgs[0], msgs[1]
	if parent.To[0].Address != parentEmail {
		parent, school = school, parent
	}
	assert.Equal(t, "Admission Application Confirmation - Test School", parent.Subject)
	require.Len(t, parent.Attachments, 1)
	assert.Equal(t, "application/pdf", parent.Attachments[0].ContentType)
	assert.Contains(t, parent.TextContent, inq.TrackingCode)

	assert.Equal(t, testutil.SchoolEmail, school.To[0].Address)
	assert.Equal(t, "New Admission Inquiry from Amina Mushi", school.Subject)
	assert.Len(t, school.Attachments, 4)
}

func TestService_Submit_tracking_codes_are_unique(t *testing.T) {
	env := newServiceEnv(t, nil)
	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		receipt, err := env.svc.Submit(context.Background(), newInquiry())
		require.NoError(t, err)
		assert.False(t, seen[receipt.Inquiry.TrackingCode])
		seen[receipt.Inquiry.TrackingCode] = true
	}
}

func TestService_Submit_concurrent(t *testing.T) {
	env := newServiceEnv(t, nil)
	applicants := []string{"Baraka Mushi", "Neema Kweka"}

	receipts := make([]admission.Receipt, len(applicants))
	errs := make([]error, len(applicants))
	var wg sync.WaitGroup
	for i, student := range applicants {
		wg.Add(1)
		go func(i int, student string) {
			defer wg.Done()
			ni := newInquiry()
			ni.StudentName = student
			for slot := range ni.Files {
				ni.Files[slot] = upload(string(slot)+".pdf", student+" "+string(slot))
			}
			receipts[i], errs[i] = env.svc.Submit(context.Background(), ni)
		}(i, student)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	a, b := receipts[0].Inquiry, receipts[1].Inquiry
	assert.NotEqual(t, a.TrackingCode, b.TrackingCode)
	assert.NotEqual(t, a.ID, b.ID)

	refs := make(map[string]bool)
	for i, inq := range []admission.Inquiry{a, b} {
		require.Len(t, inq.Documents, 4)
		for slot, ref := range inq.Documents {
			assert.False(t, refs[ref], "reference %s is shared", ref)
			refs[ref] = true

			content, err := env.blobs.Get(context.Background(), ref)
			require.NoError(t, err)
			assert.Equal(t, applicants[i]+" "+string(slot), string(content))
		}
	}

	n, err := env.repo.CountInquiries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestService_Submit_longValues(t *testing.T) {
	env := newServiceEnv(t, nil)
	ni := newInquiry()
	ni.Gender = "Prefer not to say"
	ni.Phone = strings.Repeat("0", 25)
	ni.DateOfBirth = "2nd of April in 2011 AD"
	ni.PreviousSchool = strings.Repeat("Mbezi Beach English Medium Primary ", 10)
	ni.Files[admission.SlotBirthCertificate] = upload(strings.Repeat("cheti", 50)+".pdf", "%PDF-1.4")

	receipt, err := env.svc.Submit(context.Background(), ni)
	require.NoError(t, err)
	inq := receipt.Inquiry
	assert.Equal(t, "Prefer not to say", inq.Gender)
	assert.Equal(t, ni.Phone, inq.Phone)

	ref := inq.Documents[admission.SlotBirthCertificate]
	assert.LessOrEqual(t, len(path.Base(ref)), 128, ref)
	assert.True(t, strings.HasSuffix(ref, ".pdf"), ref)
	content, err := env.blobs.Get(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(content))
}

func TestService_Submit_missingRequiredField(t *testing.T) {
	tests := []struct {
		field string
		clear func(ni *admission.NewInquiry)
		want  string
	}{
		{"student_name", func(ni *admission.NewInquiry) { ni.StudentName = "" }, "Student Name is required."},
		{"date_of_birth", func(ni *admission.NewInquiry) { ni.DateOfBirth = "" }, "Date of Birth is required."},
		{"gender", func(ni *admission.NewInquiry) { ni.Gender = " " }, "Gender is required."},
		{"parent_name", func(ni *admission.NewInquiry) { ni.ParentName = "" }, "Parent Name is required."},
		{"email", func(ni *admission.NewInquiry) { ni.Email = "" }, "Email is required."},
		{"phone", func(ni *admission.NewInquiry) { ni.Phone = "" }, "Phone is required."},
		{"form_level", func(ni *admission.NewInquiry) { ni.FormLevel = "\t" }, "Form Level is required."},
		{"previous_school", func(ni *admission.NewInquiry) { ni.PreviousSchool = "" }, "Previous School is required."},
		{"last_grade", func(ni *admission.NewInquiry) { ni.LastGrade = "" }, "Last Grade is required."},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			store := &failingStore{n: 10}
			env := newServiceEnv(t, store)
			ni := newInquiry()
			tt.clear(&ni)

			_, err := env.svc.Submit(context.Background(), ni)
			var vErr *core.ValidationError
			require.True(t, errors.As(err, &vErr), "got %v", err)
			require.Len(t, vErr.Fields, 1)
			assert.Equal(t, tt.field, vErr.Fields[0].Field)
			assert.Equal(t, tt.want, vErr.Fields[0].Error)

			n, _ := env.repo.CountInquiries(context.Background())
			assert.Zero(t, n)
			assert.Empty(t, store.keys)
			assert.Empty(t, env.mailSvc.SentMessages())
		})
	}
}

func TestService_Submit_rejected(t *testing.T) {
	tests := []struct {
		name      string
		update    func(ni *admission.NewInquiry)
		wantField string
	}{
		{"blank after cleaning", func(ni *admission.NewInquiry) { ni.ParentName = "   " }, "parent_name"},
		{"bad extension", func(ni *admission.NewInquiry) {
			ni.Files[admission.SlotParentID] = upload("id.exe", "MZ")
		}, "parent_id"},
		{"declared size too large", func(ni *admission.NewInquiry) {
			up := upload("cards.pdf", "%PDF")
			up.Size = 2 * 1024 * 1024
			ni.Files[admission.SlotReportCards] = up
		}, "attachments"},
		{"actual size too large", func(ni *admission.NewInquiry) {
			up := upload("cards.pdf", strings.Repeat("x", 1024*1024+1))
			up.Size = 1 // lies
			ni.Files[admission.SlotReportCards] = up
		}, "attachments"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &failingStore{n: 10}
			env := newServiceEnv(t, store, func(conf *core.Config) {
				conf.Admission.MaxAttachmentsSize = 1024 * 1024
			})
			ni := newInquiry()
			tt.update(&ni)

			_, err := env.svc.Submit(context.Background(), ni)
			var vErr *core.ValidationError
			require.True(t, errors.As(err, &vErr), "got %v", err)
			assert.Equal(t, tt.wantField, vErr.Fields[0].Field)

			n, _ := env.repo.CountInquiries(context.Background())
			assert.Zero(t, n)
			assert.Empty(t, store.keys, "nothing is stored")
			assert.Empty(t, env.mailSvc.SentMessages())
		})
	}
}

func TestService_Submit_storageFailure(t *testing.T) {
	store := &failingStore{n: 2}
	env := newServiceEnv(t, store)

	_, err := env.svc.Submit(context.Background(), newInquiry())
	var sErr *core.StorageError
	require.True(t, errors.As(err, &sErr), "got %v", err)
	assert.Contains(t, sErr.Op, "storing")

	n, _ := env.repo.CountInquiries(context.Background())
	assert.Zero(t, n)
	assert.Len(t, store.keys, 2, "earlier writes are kept")
	assert.Empty(t, env.mailSvc.SentMessages())
}

func TestService_Submit_notificationFailures(t *testing.T) {
	tests := []struct {
		name       string
		failFor    []string
		wantSentOK int
	}{
		{"parent", []string{parentEmail}, 1},
		{"school", []string{testutil.SchoolEmail}, 1},
		{"both", []string{parentEmail, testutil.SchoolEmail}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newServiceEnv(t, nil)
			for _, addr := range tt.failFor {
				env.mailSvc.FailFor(addr, errors.New("mailbox unavailable"))
			}

			receipt, err := env.svc.Submit(context.Background(), newInquiry())
			require.NoError(t, err, "the inquiry is saved regardless")
			assert.False(t, receipt.Emailed)
			assert.True(t, core.IsNotificationError(receipt.NotifyErr))
			assert.Len(t, env.mailSvc.SentMessages(), 2, "both sends are attempted")
			assert.Len(t, env.logger.Entries("error"), len(tt.failFor))

			n, _ := env.repo.CountInquiries(context.Background())
			assert.Equal(t, 1, n)
		})
	}
}

func TestService_UpdateStatus(t *testing.T) {
	env := newServiceEnv(t, nil)
	receipt, err := env.svc.Submit(context.Background(), newInquiry())
	require.NoError(t, err)
	id := receipt.Inquiry.ID

	tests := []struct {
		name        string
		id          int
		status      string
		wantErr     bool
		wantNotFound  bool
		wantStatus  admission.Status
		wantNotified bool
	}{
		{name: "unknown status", id: id, status: "enrolled", wantErr: true},
		{name: "unknown inquiry", id: 999, status: "accepted", wantErr: true, wantNotFound: true},
		{name: "rejected", id: id, status: "rejected", wantStatus: admission.StatusRejected},
		{name: "forbidden transition", id: id, status: "paid", wantErr: true},
		{name: "accepted", id: id, status: " Accepted ", wantStatus: admission.StatusAccepted, wantNotified: true},
		{name: "paid", id: id, status: "paid", wantStatus: admission.StatusPaid, wantNotified: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env.mailSvc.Reset()

			res, err := env.svc.UpdateStatus(context.Background(), tt.id, tt.status)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantNotFound, errors.Cause(err) == admission.ErrNotFound)
				assert.Empty(t, env.mailSvc.SentMessages())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, res.Inquiry.Status)
			assert.Equal(t, tt.wantNotified, res.Notified)

			saved, err := env.svc.Get(context.Background(), tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, saved.Status)

			msgs := env.mailSvc.SentMessages()
			if !tt.wantNotified {
				assert.Empty(t, msgs)
				return
			}
			require.Len(t, msgs, 1)
			assert.Equal(t, parentEmail, msgs[0].To[0].Address)
			assert.Equal(t, "Admission Application Update - Test School", msgs[0].Subject)
			assert.Contains(t, msgs[0].TextContent, "'"+string(tt.wantStatus)+"'")
		})
	}
}

func TestService_UpdateStatus_notificationFailure(t *testing.T) {
	env := newServiceEnv(t, nil)
	receipt, err := env.svc.Submit(context.Background(), newInquiry())
	require.NoError(t, err)
	env.mailSvc.FailFor(parentEmail, errors.New("mailbox unavailable"))

	res, err := env.svc.UpdateStatus(context.Background(), receipt.Inquiry.ID, "accepted")
	require.NoError(t, err)
	assert.False(t, res.Notified)
	assert.True(t, core.IsNotificationError(res.NotifyErr))

	saved, err := env.svc.Get(context.Background(), receipt.Inquiry.ID)
	require.NoError(t, err)
	assert.Equal(t, admission.StatusAccepted, saved.Status, "the update is kept")
}

func TestService_Document(t *testing.T) {
	env := newServiceEnv(t, nil)
	receipt, err := env.svc.Submit(context.Background(), newInquiry())
	require.NoError(t, err)
	id := receipt.Inquiry.ID

	doc, err := env.svc.Document(context.Background(), id, admission.SlotParentID)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 parent_id", string(doc.Content))
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.Equal(t, "parent_id_Baraka_Mushi_parent_id.pdf", doc.Filename)

	_, err = env.svc.Document(context.Background(), id, admission.SlotReportCards)
	assert.Equal(t, admission.ErrDocumentNotFound, err)

	_, err = env.svc.Document(context.Background(), 999, admission.SlotParentID)
	assert.Equal(t, admission.ErrNotFound, errors.Cause(err))
}

func TestService_Query(t *testing.T) {
	env := newServiceEnv(t, nil)
	for _, name := range []string{"Baraka Mushi", "Zuhura Kimaro"} {
		ni := newInquiry()
		ni.StudentName = name
		_, err := env.svc.Submit(context.Background(), ni)
		require.NoError(t, err)
	}

	inqs, err := env.svc.Query(context.Background(), admission.QueryFilter{Search: "  KIMARO "})
	require.NoError(t, err)
	require.Len(t, inqs, 1)
	assert.Equal(t, "Zuhura Kimaro", inqs[0].StudentName)

	inqs, err = env.svc.Query(context.Background(), admission.QueryFilter{},
		core.DBOrdering{Field: "student_name", Ascending: false})
	require.NoError(t, err)
	require.Len(t, inqs, 2)
	assert.Equal(t, "Zuhura Kimaro", inqs[0].StudentName)

	n, err := env.svc.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
