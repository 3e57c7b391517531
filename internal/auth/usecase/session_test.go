package usecase

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/freightbite/internal/auth/entity"
	"github.com/shandysiswandi/freightbite/internal/pkg/goerror"
)

func TestCreateSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	out, err := h.uc.CreateSession(ctx, testPhone)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	if !regexp.MustCompile(`^[0-9a-f]{64}$`).MatchString(out.Token) {
		t.Fatalf("token = %q, want 64 hex chars", out.Token)
	}
	if out.User.PhoneNumber != testPhone || out.User.ID == 0 {
		t.Fatalf("user = %+v, want persisted user for %s", out.User, testPhone)
	}
	if !out.ExpiresAt.Equal(testNow.Add(time.Hour)) {
		t.Fatalf("expires_at = %v, want %v", out.ExpiresAt, testNow.Add(time.Hour))
	}

	var rows []struct{ SessionToken string }
	if err := h.db.Raw(`SELECT session_token FROM user_sessions`).Scan(&rows).Error; err != nil {
		t.Fatalf("failed reading sessions: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("sessions = %d, want 1", len(rows))
	}
	if rows[0].SessionToken == out.Token {
		t.Fatal("raw token persisted, want only its digest")
	}

	su, err := h.uc.ValidateSession(ctx, out.Token)
	if err != nil {
		t.Fatalf("ValidateSession() error = %v", err)
	}
	if su == nil || su.UserID != out.User.ID || su.PhoneNumber != testPhone {
		t.Fatalf("ValidateSession() = %+v, want user %d", su, out.User.ID)
	}
}

func TestCreateSessionReusesUser(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.uc.CreateSession(ctx, testPhone)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	second, err := h.uc.CreateSession(ctx, testPhone)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	if first.User.ID != second.User.ID {
		t.Fatalf("user ids = %d and %d, want the same user", first.User.ID, second.User.ID)
	}
}

func TestCreateSessionSingleActive(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	old, err := h.uc.CreateSession(ctx, testPhone)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	current, err := h.uc.CreateSession(ctx, testPhone)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	if su, _ := h.uc.ValidateSession(ctx, old.Token); su != nil {
		t.Fatalf("old session still valid: %+v", su)
	}
	if su, _ := h.uc.ValidateSession(ctx, current.Token); su == nil {
		t.Fatal("new session invalid")
	}

	// another user's session is untouched
	other, err := h.uc.CreateSession(ctx, "09351112222")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if su, _ := h.uc.ValidateSession(ctx, current.Token); su == nil {
		t.Fatal("session invalidated by another user's login")
	}
	if su, _ := h.uc.ValidateSession(ctx, other.Token); su == nil {
		t.Fatal("other session invalid")
	}
}

func TestCreateSessionConcurrentSingleActive(t *testing.T) {
	h := newHarness(t, withDelay(20*time.Millisecond))
	ctx := context.Background()

	if _, err := h.uc.CreateSession(ctx, testPhone); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	tokens := make(chan string, 2)
	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := h.uc.CreateSession(ctx, testPhone)
			if err != nil {
				t.Errorf("CreateSession() error = %v", err)
				return
			}
			tokens <- out.Token
		}()
	}
	wg.Wait()
	close(tokens)

	valid := 0
	for token := range tokens {
		su, err := h.uc.ValidateSession(ctx, token)
		if err != nil {
			t.Fatalf("ValidateSession() error = %v", err)
		}
		if su != nil {
			valid++
		}
	}
	if valid != 1 {
		t.Fatalf("valid tokens = %d, want exactly 1", valid)
	}

	var n int64
	if err := h.db.Raw(`SELECT count(*) FROM user_sessions`).Scan(&n).Error; err != nil || n != 1 {
		t.Fatalf("sessions = %d, %v, want 1", n, err)
	}
}

// lostRaceStore reports the phone as unknown once, then has a concurrent
// caller insert winner right before CreateUser runs.
type lostRaceStore struct {
	Store
	winner  entity.User
	lookups int
}

func (s *lostRaceStore) GetUserByPhone(ctx context.Context, phone string) (*entity.User, error) {
	s.lookups++
	if s.lookups == 1 {
		return nil, goerror.ErrNotFound
	}
	return s.Store.GetUserByPhone(ctx, phone)
}

func (s *lostRaceStore) CreateUser(ctx context.Context, _ entity.User) error {
	if err := s.Store.CreateUser(ctx, s.winner); err != nil {
		return err
	}
	return goerror.ErrConflict
}

func TestCreateSessionLostUserInsertRace(t *testing.T) {
	st := &lostRaceStore{winner: entity.User{ID: 4242, PhoneNumber: testPhone, CreatedAt: testNow}}
	h := newHarness(t, func(s Store) Store {
		st.Store = s
		return st
	})
	ctx := context.Background()

	out, err := h.uc.CreateSession(ctx, testPhone)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if out.User.ID != st.winner.ID {
		t.Fatalf("user id = %d, want winner %d", out.User.ID, st.winner.ID)
	}
	if st.lookups != 2 {
		t.Fatalf("lookups = %d, want a re-read after the conflict", st.lookups)
	}

	su, err := h.uc.ValidateSession(ctx, out.Token)
	if err != nil || su == nil || su.UserID != st.winner.ID {
		t.Fatalf("ValidateSession() = %+v, %v, want winner", su, err)
	}

	var n int64
	if err := h.db.Raw(`SELECT count(*) FROM users`).Scan(&n).Error; err != nil || n != 1 {
		t.Fatalf("users = %d, %v, want 1", n, err)
	}
}

func TestValidateSessionExpiry(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	out, err := h.uc.CreateSession(ctx, testPhone)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	h.clock.Advance(59 * time.Minute)
	if su, _ := h.uc.ValidateSession(ctx, out.Token); su == nil {
		t.Fatal("session invalid before expiry")
	}

	h.clock.Advance(time.Minute)
	su, err := h.uc.ValidateSession(ctx, out.Token)
	if err != nil {
		t.Fatalf("ValidateSession() error = %v", err)
	}
	if su != nil {
		t.Fatalf("ValidateSession() at expiry = %+v, want nil", su)
	}
}

func TestValidateSessionUnknown(t *testing.T) {
	h := newHarness(t)

	for _, token := range []string{"", "   ", "deadbeef"} {
		su, err := h.uc.ValidateSession(context.Background(), token)
		if err != nil || su != nil {
			t.Fatalf("ValidateSession(%q) = %+v, %v, want nil, nil", token, su, err)
		}
	}
}

func TestAuthenticate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	out, err := h.uc.CreateSession(ctx, testPhone)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	auth, err := h.uc.Authenticate(ctx, out.Token)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if auth == nil || auth.UserID != out.User.ID || auth.Subject() != testPhone {
		t.Fatalf("Authenticate() = %+v", auth)
	}

	if auth, _ := h.uc.Authenticate(ctx, "unknown"); auth != nil {
		t.Fatalf("Authenticate(unknown) = %+v, want nil", auth)
	}
}

func TestRevokeSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	out, err := h.uc.CreateSession(ctx, testPhone)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	for i := range 2 {
		if err := h.uc.RevokeSession(ctx, out.Token); err != nil {
			t.Fatalf("RevokeSession() #%d error = %v", i+1, err)
		}
	}
	if err := h.uc.RevokeSession(ctx, ""); err != nil {
		t.Fatalf("RevokeSession(empty) error = %v", err)
	}

	if su, _ := h.uc.ValidateSession(ctx, out.Token); su != nil {
		t.Fatalf("revoked session still valid: %+v", su)
	}
}

func TestSweepExpiredSessions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.uc.CreateSession(ctx, testPhone); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	h.clock.Advance(30 * time.Minute)
	live, err := h.uc.CreateSession(ctx, "09351112222")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	h.clock.Advance(45 * time.Minute)
	n, err := h.uc.SweepExpiredSessions(ctx)
	if err != nil {
		t.Fatalf("SweepExpiredSessions() error = %v", err)
	}
	if n != 1 {
		t.Fatalf("swept = %d, want 1", n)
	}
	if su, _ := h.uc.ValidateSession(ctx, live.Token); su == nil {
		t.Fatal("live session swept")
	}
}
