package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/freightbite/internal/freight/entity"
	"github.com/shandysiswandi/freightbite/internal/freight/outbound/db"
	"github.com/shandysiswandi/freightbite/internal/pkg/authz"
	"github.com/shandysiswandi/freightbite/internal/pkg/clock"
	"github.com/shandysiswandi/freightbite/internal/pkg/config"
	"github.com/shandysiswandi/freightbite/internal/pkg/goerror"
	"github.com/shandysiswandi/freightbite/internal/pkg/instrument"
	"github.com/shandysiswandi/freightbite/internal/pkg/migration/migrationtest"
	"github.com/shandysiswandi/freightbite/internal/pkg/session"
	"github.com/shandysiswandi/freightbite/internal/pkg/storage"
	"github.com/shandysiswandi/freightbite/internal/pkg/uid"
	"github.com/shandysiswandi/freightbite/internal/pkg/validator"
)

var (
	testNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	customer = &session.Auth{UserID: 1, PhoneNumber: "09121111111"}
	other    = &session.Auth{UserID: 2, PhoneNumber: "09122222222"}
	admin    = &session.Auth{UserID: 3, PhoneNumber: "09120000000"}
)

type statusEvent struct {
	req entity.Request
	old entity.Status
}

type fakePublisher struct {
	mu     sync.Mutex
	events []statusEvent
	err    error
}

func (p *fakePublisher) PublishStatusChanged(_ context.Context, req entity.Request, old entity.Status) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, statusEvent{req: req, old: old})
	return p.err
}

type fakeStorage struct {
	objects map[string][]byte
	meta    map[string]storage.PutOptions
	putErr  error
}

func (s *fakeStorage) Close() error { return nil }

func (s *fakeStorage) PutObject(_ context.Context, bucket, key string, r io.Reader, opts storage.PutOptions) (storage.ObjectInfo, error) {
	if s.putErr != nil {
		return storage.ObjectInfo{}, s.putErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	if s.objects == nil {
		s.objects, s.meta = map[string][]byte{}, map[string]storage.PutOptions{}
	}
	s.objects[bucket+"/"+key] = b
	s.meta[bucket+"/"+key] = opts
	return storage.ObjectInfo{Bucket: bucket, Key: key, Size: int64(len(b))}, nil
}

func (s *fakeStorage) PresignGet(_ context.Context, bucket, key string, expiry time.Duration) (string, error) {
	return "https://objects.test/" + bucket + "/" + key + "?expires=" + expiry.String(), nil
}

type harness struct {
	uc      *Usecase
	clock   *clock.Fake
	pub     *fakePublisher
	storage *fakeStorage
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	gdb := migrationtest.NewSQLite(t)
	for _, a := range []*session.Auth{customer, other, admin} {
		err := gdb.Exec(`INSERT INTO users (id, phone_number, created_at) VALUES (?, ?, ?)`,
			a.UserID, a.PhoneNumber, testNow.UnixMilli()).Error
		if err != nil {
			t.Fatalf("failed seeding user: %v", err)
		}
	}

	cfg, err := config.NewViperFromBytes("yaml", []byte(`
modules:
  freight:
    export:
      bucket: exports
      url_expiry_minutes: 10
`))
	if err != nil {
		t.Fatalf("failed creating config: %v", err)
	}

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("failed creating validator: %v", err)
	}

	sf, err := uid.NewSnowflake(1)
	if err != nil {
		t.Fatalf("failed creating snowflake: %v", err)
	}

	enf, err := authz.NewEnforcer([]string{admin.PhoneNumber})
	if err != nil {
		t.Fatalf("failed creating enforcer: %v", err)
	}

	ins := instrument.NewNoop()
	h := &harness{clock: clock.NewFake(testNow), pub: &fakePublisher{}, storage: &fakeStorage{}}
	h.uc = New(Dependency{
		RepoDB:        db.NewDB(gdb, ins),
		RepoMessaging: h.pub,
		Storage:       h.storage,
		Validator:     v,
		Config:        cfg,
		UID:           sf,
		UUID:          uid.NewUUID(),
		Clock:         h.clock,
		Instrument:    ins,
		Enforcer:      enf,
	})

	return h
}

func as(a *session.Auth) context.Context {
	return session.SetAuth(context.Background(), a)
}

func validCreate() RequestCreateInput {
	return RequestCreateInput{
		SourceAddress:      "Tehran, Azadi Sq.",
		SourceLat:          0,
		SourceLng:          0,
		DestinationAddress: "Somewhere north",
		DestinationLat:     1,
		DestinationLng:     0,
		WeightKG:           100,
	}
}

func (h *harness) create(t *testing.T, a *session.Auth) *entity.Request {
	t.Helper()

	req, err := h.uc.RequestCreate(as(a), validCreate())
	if err != nil {
		t.Fatalf("RequestCreate() error = %v", err)
	}
	h.clock.Advance(time.Second)
	return req
}

func assertCode(t *testing.T, err error, want goerror.Code) {
	t.Helper()

	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		t.Fatalf("error = %v, want *goerror.Error", err)
	}
	if gerr.Code() != want {
		t.Fatalf("error code = %s, want %s", gerr.Code(), want)
	}
}

func TestQuote(t *testing.T) {
	h := newHarness(t)

	q, err := h.uc.Quote(as(customer), QuoteInput{SourceLat: 0, SourceLng: 0, DestinationLat: 1, DestinationLng: 0, WeightKG: 100})
	if err != nil {
		t.Fatalf("Quote() error = %v", err)
	}
	if q.DistanceKM != 111.19 || q.Price != 1156900 {
		t.Fatalf("Quote() = %+v", q)
	}

	_, err = h.uc.Quote(context.Background(), QuoteInput{WeightKG: 1})
	assertCode(t, err, goerror.CodeUnauthorized)

	for _, in := range []QuoteInput{
		{SourceLat: 91, WeightKG: 1},
		{DestinationLng: -181, WeightKG: 1},
		{WeightKG: 0},
		{WeightKG: -3},
	} {
		_, err := h.uc.Quote(as(customer), in)
		assertCode(t, err, goerror.CodeInvalidInput)
	}
}

func TestRequestCreate(t *testing.T) {
	h := newHarness(t)

	req := h.create(t, customer)

	if req.Status != entity.StatusPending || req.UserID != customer.UserID || req.PhoneNumber != customer.PhoneNumber {
		t.Fatalf("request = %+v", req)
	}
	if req.DistanceKM != 111.19 || req.CalculatedPrice != 1156900 {
		t.Fatalf("priced = %v km, %d", req.DistanceKM, req.CalculatedPrice)
	}

	in := validCreate()
	in.SourceAddress = "   "
	_, err := h.uc.RequestCreate(as(customer), in)
	assertCode(t, err, goerror.CodeInvalidInput)

	_, err = h.uc.RequestCreate(context.Background(), validCreate())
	assertCode(t, err, goerror.CodeUnauthorized)
}

func TestRequestListOwnNewestFirst(t *testing.T) {
	h := newHarness(t)

	first := h.create(t, customer)
	h.create(t, other)
	second := h.create(t, customer)

	reqs, err := h.uc.RequestList(as(customer), RequestListInput{})
	if err != nil {
		t.Fatalf("RequestList() error = %v", err)
	}
	if len(reqs) != 2 || reqs[0].ID != second.ID || reqs[1].ID != first.ID {
		t.Fatalf("RequestList() = %+v", reqs)
	}

	page2, err := h.uc.RequestList(as(customer), RequestListInput{Page: 2, Size: 1})
	if err != nil {
		t.Fatalf("RequestList() error = %v", err)
	}
	if len(page2) != 1 || page2[0].ID != first.ID {
		t.Fatalf("page 2 = %+v", page2)
	}
}

func TestAdminRequestList(t *testing.T) {
	h := newHarness(t)

	a := h.create(t, customer)
	h.create(t, other)
	if _, err := h.uc.AdminRequestUpdateStatus(as(admin), AdminRequestUpdateStatusInput{ID: a.ID, Status: "confirmed"}); err != nil {
		t.Fatalf("AdminRequestUpdateStatus() error = %v", err)
	}

	_, err := h.uc.AdminRequestList(as(customer), AdminRequestListInput{})
	assertCode(t, err, goerror.CodeForbidden)

	all, err := h.uc.AdminRequestList(as(admin), AdminRequestListInput{})
	if err != nil || len(all) != 2 {
		t.Fatalf("AdminRequestList() = %d, %v, want 2", len(all), err)
	}

	confirmed, err := h.uc.AdminRequestList(as(admin), AdminRequestListInput{Status: " Confirmed "})
	if err != nil || len(confirmed) != 1 || confirmed[0].ID != a.ID {
		t.Fatalf("AdminRequestList(confirmed) = %+v, %v", confirmed, err)
	}

	_, err = h.uc.AdminRequestList(as(admin), AdminRequestListInput{Status: "shipped"})
	assertCode(t, err, goerror.CodeInvalidInput)
}

func TestAdminRequestUpdateStatus(t *testing.T) {
	h := newHarness(t)
	req := h.create(t, customer)

	_, err := h.uc.AdminRequestUpdateStatus(as(customer), AdminRequestUpdateStatusInput{ID: req.ID, Status: "confirmed"})
	assertCode(t, err, goerror.CodeForbidden)

	_, err = h.uc.AdminRequestUpdateStatus(as(admin), AdminRequestUpdateStatusInput{ID: 424242, Status: "confirmed"})
	assertCode(t, err, goerror.CodeNotFound)

	_, err = h.uc.AdminRequestUpdateStatus(as(admin), AdminRequestUpdateStatusInput{ID: req.ID, Status: "completed"})
	assertCode(t, err, goerror.CodeConflict)
	if !errors.Is(err, entity.ErrIllegalTransition) {
		t.Fatalf("error = %v, want ErrIllegalTransition", err)
	}

	got, err := h.uc.AdminRequestUpdateStatus(as(admin), AdminRequestUpdateStatusInput{ID: req.ID, Status: "confirmed"})
	if err != nil {
		t.Fatalf("AdminRequestUpdateStatus() error = %v", err)
	}
	if got.Status != entity.StatusConfirmed || !got.UpdatedAt.Equal(h.clock.Now()) {
		t.Fatalf("updated = %+v", got)
	}

	if len(h.pub.events) != 1 {
		t.Fatalf("events = %d, want 1", len(h.pub.events))
	}
	ev := h.pub.events[0]
	if ev.old != entity.StatusPending || ev.req.Status != entity.StatusConfirmed || ev.req.PhoneNumber != customer.PhoneNumber {
		t.Fatalf("event = %+v", ev)
	}

	// publish failures do not undo the change
	h.pub.err = errors.New("broker down")
	if _, err := h.uc.AdminRequestUpdateStatus(as(admin), AdminRequestUpdateStatusInput{ID: req.ID, Status: "completed"}); err != nil {
		t.Fatalf("AdminRequestUpdateStatus() with broker down error = %v", err)
	}

	_, err = h.uc.AdminRequestUpdateStatus(as(admin), AdminRequestUpdateStatusInput{ID: req.ID, Status: "cancelled"})
	assertCode(t, err, goerror.CodeConflict)

	_, err = h.uc.AdminRequestUpdateStatus(as(admin), AdminRequestUpdateStatusInput{ID: req.ID, Status: "lost"})
	assertCode(t, err, goerror.CodeInvalidInput)
}

// staleRepo reports a lost conditional update, as if another admin won.
type staleRepo struct {
	repoDB
}

func (staleRepo) UpdateRequestStatus(context.Context, int64, entity.Status, entity.Status, time.Time) (bool, error) {
	return false, nil
}

func TestAdminRequestUpdateStatusConcurrentChange(t *testing.T) {
	h := newHarness(t)
	req := h.create(t, customer)
	h.uc.repoDB = staleRepo{repoDB: h.uc.repoDB}

	_, err := h.uc.AdminRequestUpdateStatus(as(admin), AdminRequestUpdateStatusInput{ID: req.ID, Status: "confirmed"})
	assertCode(t, err, goerror.CodeConflict)
	if !errors.Is(err, entity.ErrStaleStatus) {
		t.Fatalf("error = %v, want ErrStaleStatus", err)
	}
	if len(h.pub.events) != 0 {
		t.Fatalf("events = %d, want none", len(h.pub.events))
	}
}

func TestAdminRequestExport(t *testing.T) {
	h := newHarness(t)
	h.create(t, customer)
	h.create(t, other)

	_, err := h.uc.AdminRequestExport(as(customer))
	assertCode(t, err, goerror.CodeForbidden)

	out, err := h.uc.AdminRequestExport(as(admin))
	if err != nil {
		t.Fatalf("AdminRequestExport() error = %v", err)
	}
	if out.Count != 2 || out.URL == "" || !out.ExpiresAt.Equal(h.clock.Now().Add(10*time.Minute)) {
		t.Fatalf("export = %+v", out)
	}

	body := h.storage.objects["exports/"+out.Key]
	lines := bytes.Split(bytes.TrimSpace(body), []byte("\n"))
	if len(lines) != 3 {
		t.Fatalf("csv lines = %d, want header + 2", len(lines))
	}
	if !bytes.HasPrefix(lines[0], []byte("id,user_id,phone_number,")) {
		t.Fatalf("header = %s", lines[0])
	}
	if ct := h.storage.meta["exports/"+out.Key].ContentType; ct != "text/csv" {
		t.Fatalf("content type = %q", ct)
	}

	h.storage.putErr = errors.New("bucket gone")
	_, err = h.uc.AdminRequestExport(as(admin))
	assertCode(t, err, goerror.CodeInternal)
}

func TestAdminRequestExportWithoutStorage(t *testing.T) {
	h := newHarness(t)
	h.uc.storage = nil

	_, err := h.uc.AdminRequestExport(as(admin))
	assertCode(t, err, goerror.CodeUnavailable)
}
