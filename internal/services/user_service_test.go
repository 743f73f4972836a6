package services

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"gorm.io/gorm"

	"github.com/averma/versewatch/internal/domain"
	"github.com/averma/versewatch/internal/repo"
	"github.com/averma/versewatch/internal/session"
)

// fakeUserStore is an in-memory UserStore.
type fakeUserStore struct {
	urls     []domain.MonitorURL
	pincodes []string
	creds    map[int64]string
	cleared  int64
	stats    *repo.UserStats
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{creds: map[int64]string{}}
}

func (f *fakeUserStore) ListURLs(_ context.Context, _ *gorm.DB, _ int64) ([]domain.MonitorURL, error) {
	return f.urls, nil
}

func (f *fakeUserStore) AddURL(_ context.Context, _ *gorm.DB, userID int64, url string) (*domain.MonitorURL, error) {
	for _, u := range f.urls {
		if u.URL == url {
			return nil, repo.ErrDuplicate
		}
	}
	u := domain.MonitorURL{UserID: userID, URL: url}
	f.urls = append(f.urls, u)
	return &u, nil
}

func (f *fakeUserStore) RemoveURLByIndex(_ context.Context, _ *gorm.DB, _ int64, idx int) (string, error) {
	if idx < 1 || idx > len(f.urls) {
		return "", repo.ErrNotFound
	}
	removed := f.urls[idx-1].URL
	f.urls = append(f.urls[:idx-1], f.urls[idx:]...)
	return removed, nil
}

func (f *fakeUserStore) ListPincodes(_ context.Context, _ *gorm.DB, _ int64) ([]string, error) {
	return f.pincodes, nil
}

func (f *fakeUserStore) AddPincodes(_ context.Context, _ *gorm.DB, _ int64, codes []string) ([]string, error) {
	var added []string
	for _, c := range codes {
		dup := false
		for _, have := range f.pincodes {
			if have == c {
				dup = true
			}
		}
		if !dup {
			f.pincodes = append(f.pincodes, c)
			added = append(added, c)
		}
	}
	return added, nil
}

func (f *fakeUserStore) RemovePincodes(_ context.Context, _ *gorm.DB, _ int64, codes []string) ([]string, error) {
	var removed []string
	for _, c := range codes {
		for i, have := range f.pincodes {
			if have == c {
				f.pincodes = append(f.pincodes[:i], f.pincodes[i+1:]...)
				removed = append(removed, c)
				break
			}
		}
	}
	return removed, nil
}

func (f *fakeUserStore) SetCredentials(_ context.Context, _ *gorm.DB, userID int64, creds string) error {
	f.creds[userID] = creds
	return nil
}

func (f *fakeUserStore) ClearSeen(_ context.Context, _ *gorm.DB, _ int64) (int64, error) {
	return f.cleared, nil
}

func (f *fakeUserStore) GetUserStats(_ context.Context, _ *gorm.DB, _ int64) (*repo.UserStats, error) {
	return f.stats, nil
}

// fakeAuth scripts the OTP endpoints.
type fakeAuth struct {
	requestErr error
	verifyErr  error
	creds      string
	lastPhone  string
	lastOTP    string
}

func (f *fakeAuth) RequestLoginCode(_ context.Context, phone string) error {
	f.lastPhone = phone
	return f.requestErr
}

func (f *fakeAuth) VerifyLoginCode(_ context.Context, phone, otp string) (string, error) {
	f.lastPhone, f.lastOTP = phone, otp
	if f.verifyErr != nil {
		return "", f.verifyErr
	}
	return f.creds, nil
}

func newUserService(store *fakeUserStore, auth *fakeAuth) *UserService {
	return &UserService{Store: store, Auth: auth, Sessions: session.NewRegistry()}
}

func TestSplitPincodes(t *testing.T) {
	valid, invalid := SplitPincodes([]string{"110001", "4000", "abcdef", "400001", "", " 560001 "})
	if !reflect.DeepEqual(valid, []string{"110001", "400001", "560001"}) {
		t.Fatalf("unexpected valid: %v", valid)
	}
	if !reflect.DeepEqual(invalid, []string{"4000", "abcdef"}) {
		t.Fatalf("unexpected invalid: %v", invalid)
	}

	// 5 digits is acceptable too.
	if !ValidPincode("12345") || ValidPincode("1234567") || ValidPincode("12a456") {
		t.Fatalf("pincode validation boundaries wrong")
	}
}

func TestAddURL_Validation(t *testing.T) {
	svc := newUserService(newFakeUserStore(), &fakeAuth{})
	ctx := context.Background()

	for _, bad := range []string{"", "not a url", "ftp://example.in/c/x", "/relative/path"} {
		if err := svc.AddURL(ctx, 1, bad); !errors.Is(err, ErrInvalidURL) {
			t.Fatalf("%q: expected ErrInvalidURL, got %v", bad, err)
		}
	}

	if err := svc.AddURL(ctx, 1, "https://example.in/c/sverse-1"); err != nil {
		t.Fatalf("AddURL: %v", err)
	}
	if err := svc.AddURL(ctx, 1, "https://example.in/c/sverse-1"); !errors.Is(err, ErrDuplicateURL) {
		t.Fatalf("expected ErrDuplicateURL, got %v", err)
	}
}

func TestRemoveURL_MapsNotFound(t *testing.T) {
	store := newFakeUserStore()
	svc := newUserService(store, &fakeAuth{})
	ctx := context.Background()

	if _, err := svc.RemoveURL(ctx, 1, 1); !errors.Is(err, ErrURLNotFound) {
		t.Fatalf("expected ErrURLNotFound, got %v", err)
	}

	_ = svc.AddURL(ctx, 1, "https://example.in/c/a")
	removed, err := svc.RemoveURL(ctx, 1, 1)
	if err != nil || removed != "https://example.in/c/a" {
		t.Fatalf("RemoveURL: removed=%q err=%v", removed, err)
	}
}

func TestAddPincodes_SplitsValidFromInvalid(t *testing.T) {
	store := newFakeUserStore()
	svc := newUserService(store, &fakeAuth{})

	added, invalid, err := svc.AddPincodes(context.Background(), 1, []string{"110001", "xx", "400001"})
	if err != nil {
		t.Fatalf("AddPincodes: %v", err)
	}
	if !reflect.DeepEqual(added, []string{"110001", "400001"}) || !reflect.DeepEqual(invalid, []string{"xx"}) {
		t.Fatalf("added=%v invalid=%v", added, invalid)
	}

	// All invalid: nothing stored, no error.
	added, invalid, err = svc.AddPincodes(context.Background(), 1, []string{"nope"})
	if err != nil || added != nil || !reflect.DeepEqual(invalid, []string{"nope"}) {
		t.Fatalf("all-invalid batch: added=%v invalid=%v err=%v", added, invalid, err)
	}
}

func TestLoginFlow(t *testing.T) {
	store := newFakeUserStore()
	auth := &fakeAuth{creds: "A=tok; LS=LOGGED_IN; customerType=Existing"}
	svc := newUserService(store, auth)
	ctx := context.Background()

	// OTP without a pending login.
	if err := svc.CompleteLogin(ctx, 1, "1234"); !errors.Is(err, ErrNoPendingLogin) {
		t.Fatalf("expected ErrNoPendingLogin, got %v", err)
	}

	if err := svc.StartLogin(ctx, 1, "9876543210"); err != nil {
		t.Fatalf("StartLogin: %v", err)
	}
	if auth.lastPhone != "9876543210" {
		t.Fatalf("phone not forwarded: %q", auth.lastPhone)
	}

	if err := svc.CompleteLogin(ctx, 1, "1234"); err != nil {
		t.Fatalf("CompleteLogin: %v", err)
	}
	if auth.lastOTP != "1234" {
		t.Fatalf("otp not forwarded: %q", auth.lastOTP)
	}
	if store.creds[1] != auth.creds {
		t.Fatalf("credentials not persisted: %q", store.creds[1])
	}

	// Pending phone is single-shot.
	if err := svc.CompleteLogin(ctx, 1, "1234"); !errors.Is(err, ErrNoPendingLogin) {
		t.Fatalf("pending login must be consumed, got %v", err)
	}
}

func TestStartLogin_RequestFailureLeavesNoPending(t *testing.T) {
	auth := &fakeAuth{requestErr: errors.New("blocked")}
	svc := newUserService(newFakeUserStore(), auth)
	ctx := context.Background()

	if err := svc.StartLogin(ctx, 1, "9876543210"); err == nil {
		t.Fatalf("expected request error")
	}
	if err := svc.CompleteLogin(ctx, 1, "1234"); !errors.Is(err, ErrNoPendingLogin) {
		t.Fatalf("failed start must not leave a pending login, got %v", err)
	}
}
