package users

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/playpalm/playpalm-backend/internal/audit"
	"github.com/playpalm/playpalm-backend/pkg/config"
	"github.com/playpalm/playpalm-backend/pkg/enums"
	pkgerrors "github.com/playpalm/playpalm-backend/pkg/errors"
	"github.com/playpalm/playpalm-backend/pkg/logger"
	"github.com/playpalm/playpalm-backend/pkg/security"
)

type fakeStore struct {
	mu     sync.Mutex
	items  map[int64]Record
	nextID int64
	fail   error
	calls  map[string]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{items: map[int64]Record{}, nextID: 1, calls: map[string]int{}}
}

func (f *fakeStore) bump(op string) error {
	f.calls[op]++
	return f.fail
}

func (f *fakeStore) List(ctx context.Context) ([]UserDTO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.bump("list"); err != nil {
		return nil, err
	}
	out := make([]UserDTO, 0, len(f.items))
	for _, rec := range f.items {
		out = append(out, rec.UserDTO)
	}
	return out, nil
}

func (f *fakeStore) FindByID(ctx context.Context, id int64) (*Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.bump("find"); err != nil {
		return nil, err
	}
	rec, ok := f.items[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "User not found")
	}
	return &rec, nil
}

func (f *fakeStore) FindByUsername(ctx context.Context, username string) (*Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.bump("findByUsername"); err != nil {
		return nil, err
	}
	want := strings.ToLower(strings.TrimSpace(username))
	for _, rec := range f.items {
		if strings.ToLower(rec.Username) == want {
			out := rec
			return &out, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "User not found")
}

func (f *fakeStore) Create(ctx context.Context, draft Draft) (*UserDTO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.bump("create"); err != nil {
		return nil, err
	}
	for _, rec := range f.items {
		if strings.EqualFold(rec.Username, draft.Username) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "Username already exists")
		}
	}
	rec := Record{
		UserDTO: UserDTO{
			ID:            f.nextID,
			Username:      draft.Username,
			Email:         draft.Email,
			FirstName:     draft.FirstName,
			LastName:      draft.LastName,
			Role:          draft.Role,
			ContactNumber: draft.ContactNumber,
			Location:      draft.Location,
		},
		PasswordHash: draft.PasswordHash,
	}
	f.items[rec.ID] = rec
	f.nextID++
	dto := rec.UserDTO
	return &dto, nil
}

func (f *fakeStore) Update(ctx context.Context, id int64, patch Patch) (*UserDTO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.bump("update"); err != nil {
		return nil, err
	}
	rec, ok := f.items[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "User not found")
	}
	if patch.Username != nil {
		rec.Username = *patch.Username
	}
	if patch.FirstName != nil {
		rec.FirstName = *patch.FirstName
	}
	if patch.Role != nil {
		rec.Role = *patch.Role
	}
	f.items[id] = rec
	dto := rec.UserDTO
	return &dto, nil
}

type fakeAudit struct {
	entries []audit.Entry
}

func (f *fakeAudit) Record(ctx context.Context, entry audit.Entry) {
	f.entries = append(f.entries, entry)
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{ArgonMemoryKB: 1024, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}
}

func userTestLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

type userFixture struct {
	remote *fakeStore
	local  *fakeStore
	audit  *fakeAudit
}

func newUserService(t *testing.T) (Service, *userFixture) {
	t.Helper()
	fx := &userFixture{remote: newFakeStore(), local: newFakeStore(), audit: &fakeAudit{}}
	svc, err := NewService(fx.remote, fx.local, fx.audit, userTestLogger(), testPasswordConfig())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, fx
}

var (
	adminActor   = Actor{UserID: 1, Username: "root", Role: enums.RoleAdmin}
	managerActor = Actor{UserID: 2, Username: "casey", Role: enums.RoleManager}
	staffActor   = Actor{UserID: 3, Username: "jordan", Role: enums.RoleStaff}
)

func mustCreate(t *testing.T, svc Service, input CreateInput) *UserDTO {
	t.Helper()
	created, err := svc.Create(context.Background(), adminActor, input)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return created
}

func TestCreateHashesPasswordAndDefaultsRole(t *testing.T) {
	svc, fx := newUserService(t)

	created := mustCreate(t, svc, CreateInput{Username: "jordan", Password: "hunter2"})
	if created.Role != enums.RoleStaff {
		t.Fatalf("role = %q, want staff", created.Role)
	}

	rec := fx.remote.items[created.ID]
	if rec.PasswordHash == "hunter2" || rec.PasswordHash == "" {
		t.Fatalf("password stored without hashing: %q", rec.PasswordHash)
	}
	ok, err := security.VerifyPassword("hunter2", rec.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("stored hash does not verify: ok=%v err=%v", ok, err)
	}
}

func TestCreateRequiresUsernameAndPassword(t *testing.T) {
	svc, fx := newUserService(t)

	_, err := svc.Create(context.Background(), adminActor, CreateInput{Username: "  "})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
	if got := pkgerrors.Message(err); got != "Missing required fields: username, password" {
		t.Fatalf("message = %q", got)
	}
	if fx.remote.calls["create"] != 0 {
		t.Fatalf("store touched on invalid input")
	}
}

func TestCreateRejectsUnknownRole(t *testing.T) {
	svc, _ := newUserService(t)

	_, err := svc.Create(context.Background(), adminActor, CreateInput{Username: "x", Password: "y", Role: "owner"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestCreateForbiddenForStaff(t *testing.T) {
	svc, fx := newUserService(t)

	_, err := svc.Create(context.Background(), staffActor, CreateInput{Username: "x", Password: "y"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("err = %v, want forbidden", err)
	}
	if fx.remote.calls["create"] != 0 {
		t.Fatalf("store touched despite forbidden caller")
	}
}

func TestListRequiresManagerOrAdmin(t *testing.T) {
	svc, _ := newUserService(t)

	if _, err := svc.List(context.Background(), staffActor); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("staff list err = %v, want forbidden", err)
	}
	if _, err := svc.List(context.Background(), managerActor); err != nil {
		t.Fatalf("manager list: %v", err)
	}
}

func TestUpdateSelfOrAdminOnly(t *testing.T) {
	svc, _ := newUserService(t)
	created := mustCreate(t, svc, CreateInput{Username: "jordan", Password: "pw"})

	self := Actor{UserID: created.ID, Username: created.Username, Role: enums.RoleStaff}
	name := "Jordan"
	if _, err := svc.Update(context.Background(), self, created.ID, UpdateInput{FirstName: &name}); err != nil {
		t.Fatalf("self update: %v", err)
	}

	other := Actor{UserID: created.ID + 50, Username: "someone", Role: enums.RoleManager}
	if _, err := svc.Update(context.Background(), other, created.ID, UpdateInput{FirstName: &name}); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("manager updating stranger err = %v, want forbidden", err)
	}

	if _, err := svc.Update(context.Background(), adminActor, created.ID, UpdateInput{FirstName: &name}); err != nil {
		t.Fatalf("admin update: %v", err)
	}
}

func TestUpdateRoleChangeIsAdminOnly(t *testing.T) {
	svc, _ := newUserService(t)
	created := mustCreate(t, svc, CreateInput{Username: "jordan", Password: "pw"})

	self := Actor{UserID: created.ID, Username: created.Username, Role: enums.RoleStaff}
	role := "admin"
	if _, err := svc.Update(context.Background(), self, created.ID, UpdateInput{Role: &role}); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("self role escalation err = %v, want forbidden", err)
	}

	updated, err := svc.Update(context.Background(), adminActor, created.ID, UpdateInput{Role: &role})
	if err != nil {
		t.Fatalf("admin role change: %v", err)
	}
	if updated.Role != enums.RoleAdmin {
		t.Fatalf("role = %q, want admin", updated.Role)
	}
}

func TestVerifyCredentials(t *testing.T) {
	svc, _ := newUserService(t)
	mustCreate(t, svc, CreateInput{Username: "jordan", Password: "hunter2"})

	dto, err := svc.VerifyCredentials(context.Background(), "Jordan", "hunter2")
	if err != nil {
		t.Fatalf("VerifyCredentials: %v", err)
	}
	if dto.Username != "jordan" {
		t.Fatalf("username = %q", dto.Username)
	}

	if _, err := svc.VerifyCredentials(context.Background(), "jordan", "wrong"); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("bad password err = %v, want unauthorized", err)
	}
	if _, err := svc.VerifyCredentials(context.Background(), "nobody", "pw"); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("unknown user err = %v, want unauthorized", err)
	}
	if _, err := svc.VerifyCredentials(context.Background(), "", ""); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("empty input err = %v, want validation", err)
	}
}

func TestVerifyCredentialsFallsBackToLocal(t *testing.T) {
	svc, fx := newUserService(t)
	created := mustCreate(t, svc, CreateInput{Username: "jordan", Password: "hunter2"})

	// mirror the account into the local file store, then break remote
	rec := fx.remote.items[created.ID]
	fx.local.items[created.ID] = rec
	fx.remote.fail = pkgerrors.New(pkgerrors.CodeDependency, "remote down")

	dto, err := svc.VerifyCredentials(context.Background(), "jordan", "hunter2")
	if err != nil {
		t.Fatalf("VerifyCredentials with remote down: %v", err)
	}
	if dto.ID != created.ID {
		t.Fatalf("id = %d, want %d", dto.ID, created.ID)
	}
	if fx.local.calls["findByUsername"] != 1 {
		t.Fatalf("local lookups = %d, want 1", fx.local.calls["findByUsername"])
	}
}

func TestCreateConflictDoesNotFallBack(t *testing.T) {
	svc, fx := newUserService(t)
	mustCreate(t, svc, CreateInput{Username: "jordan", Password: "pw"})

	_, err := svc.Create(context.Background(), adminActor, CreateInput{Username: "JORDAN", Password: "pw"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
	if fx.local.calls["create"] != 0 {
		t.Fatalf("local store used for a conflict error")
	}
}

func TestUserAuditTrail(t *testing.T) {
	svc, fx := newUserService(t)
	created := mustCreate(t, svc, CreateInput{Username: "jordan", Password: "pw"})

	name := "Jordan"
	if _, err := svc.Update(context.Background(), adminActor, created.ID, UpdateInput{FirstName: &name}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if len(fx.audit.entries) != 2 {
		t.Fatalf("audit entries = %d, want 2", len(fx.audit.entries))
	}
	if fx.audit.entries[0].Action != enums.AuditActionCreate || fx.audit.entries[1].Action != enums.AuditActionUpdate {
		t.Fatalf("audit actions = %v, %v", fx.audit.entries[0].Action, fx.audit.entries[1].Action)
	}
	if fx.audit.entries[0].EntityType != enums.AuditEntityUser {
		t.Fatalf("entity = %q, want user", fx.audit.entries[0].EntityType)
	}
}

func TestMeReturnsOwnAccount(t *testing.T) {
	svc, _ := newUserService(t)
	created := mustCreate(t, svc, CreateInput{Username: "jordan", Password: "pw"})

	me, err := svc.Me(context.Background(), Actor{UserID: created.ID, Role: enums.RoleStaff})
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if me.Username != "jordan" {
		t.Fatalf("username = %q", me.Username)
	}

	if _, err := svc.Me(context.Background(), Actor{UserID: 999, Role: enums.RoleStaff}); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("missing account err = %v, want not found", err)
	}
}
