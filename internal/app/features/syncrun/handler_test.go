package syncrun_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackson-sweet/opsapp-sub003/internal/app/features/syncrun"
	"github.com/jackson-sweet/opsapp-sub003/internal/app/system/access"
	"github.com/jackson-sweet/opsapp-sub003/internal/app/system/auth"
	"github.com/jackson-sweet/opsapp-sub003/internal/app/system/health"
	"github.com/jackson-sweet/opsapp-sub003/internal/app/system/notify"
	"github.com/jackson-sweet/opsapp-sub003/internal/app/system/reconcile"
	"github.com/jackson-sweet/opsapp-sub003/internal/app/system/syncpass"
	"github.com/jackson-sweet/opsapp-sub003/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type fakePreflight struct{ ok bool }

func (f *fakePreflight) CanPerformSync(context.Context, health.Session) bool { return f.ok }

type fakeBatch struct{}

func (fakeBatch) StartBatch()                       {}
func (fakeBatch) Add(context.Context, notify.Event) {}
func (fakeBatch) FlushBatch(context.Context)        {}
func (fakeBatch) CancelBatch()                      {}

type fakeBatchSource struct{}

func (fakeBatchSource) For(string) syncpass.Batch { return fakeBatch{} }

type fakeDirectory struct{}

func (fakeDirectory) Online() bool { return true }

func (fakeDirectory) FetchUser(_ context.Context, userID string) (models.User, error) {
	return models.User{UserID: userID, DisplayName: "Jordan Blake"}, nil
}

func (fakeDirectory) FetchCompany(_ context.Context, companyID string) (models.Company, error) {
	return models.Company{CompanyID: companyID, MaxSeats: 5, SubscriptionStatus: "active"}, nil
}

type memUsers struct{ byUserID map[string]*models.User }

func (m *memUsers) GetByUserID(_ context.Context, userID string) (*models.User, error) {
	if u, ok := m.byUserID[userID]; ok {
		c := *u
		return &c, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (m *memUsers) All(context.Context) ([]models.User, error) {
	var out []models.User
	for _, u := range m.byUserID {
		out = append(out, *u)
	}
	return out, nil
}

func (m *memUsers) Create(_ context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	c := u
	m.byUserID[u.UserID] = &c
	return u, nil
}

func (m *memUsers) Save(_ context.Context, u models.User) error {
	c := u
	m.byUserID[u.UserID] = &c
	return nil
}

func (m *memUsers) MergeFromRemote(_ context.Context, u models.User) (models.User, error) {
	if existing, ok := m.byUserID[u.UserID]; ok {
		existing.DisplayName = u.DisplayName
		return *existing, nil
	}
	return m.Create(context.Background(), u)
}

func (m *memUsers) BulkApply(_ context.Context, updates []models.User, _ []primitive.ObjectID) error {
	for i := range updates {
		u := updates[i]
		m.byUserID[u.UserID] = &u
	}
	return nil
}

type memProjects struct{}

func (memProjects) All(context.Context) ([]models.Project, error) { return nil, nil }
func (memProjects) GetByProjectID(context.Context, string) (*models.Project, error) {
	return nil, mongo.ErrNoDocuments
}
func (memProjects) Save(context.Context, models.Project) error       { return nil }
func (memProjects) BulkSave(context.Context, []models.Project) error { return nil }

type memCompanies struct{}

func (memCompanies) MergeFromRemote(_ context.Context, c models.Company) (models.Company, error) {
	return c, nil
}

type fakeGate struct{}

func (fakeGate) CheckSubscriptionStatus(context.Context, string, string) (access.Status, error) {
	return access.Status{}, nil
}

func strptr(s string) *string { return &s }

func newServer(t *testing.T, canSync bool) (http.Handler, *auth.SessionManager) {
	t.Helper()
	mgr, err := auth.NewSessionManager("test-signing-key-0123456789", "opsapp-session", "", false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}

	users := &memUsers{byUserID: map[string]*models.User{
		"u-1": {ID: primitive.NewObjectID(), UserID: "u-1", CompanyID: strptr("c-1")},
	}}
	projects := memProjects{}
	factory := func(sink reconcile.EventSink) *reconcile.Reconciler {
		return reconcile.New(users, projects, fakeDirectory{}, sink, nil, zap.NewNop())
	}
	runner := syncpass.NewRunner(
		&fakePreflight{ok: canSync},
		fakeBatchSource{},
		fakeDirectory{}, users, projects, memCompanies{}, fakeGate{}, factory,
		zap.NewNop(),
	)
	h := syncrun.NewHandler(runner, zap.NewNop())
	return mgr.LoadDeviceSession(syncrun.Routes(h)), mgr
}

func authedRequest(t *testing.T, mgr *auth.SessionManager) *http.Request {
	t.Helper()
	rec := httptest.NewRecorder()
	seed := httptest.NewRequest("POST", "/", nil)
	ds := &auth.DeviceSession{}
	ds.SetIdentity("u-1", "c-1")
	if err := mgr.Save(rec, seed, ds); err != nil {
		t.Fatalf("seeding session failed: %v", err)
	}
	req := httptest.NewRequest("POST", "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestRun_Success(t *testing.T) {
	srv, mgr := newServer(t, true)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authedRequest(t, mgr))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"users_refreshed":1`) {
		t.Errorf("body: %s", rec.Body.String())
	}
}

func TestRun_PreflightRefusalIs409(t *testing.T) {
	srv, mgr := newServer(t, false)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authedRequest(t, mgr))
	if rec.Code != http.StatusConflict {
		t.Errorf("status: got %d, want 409", rec.Code)
	}
}

func TestRun_Unauthenticated(t *testing.T) {
	srv, _ := newServer(t, true)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest("POST", "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rec.Code)
	}
}
