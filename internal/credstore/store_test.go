package credstore

import (
	"testing"
	"time"

	"github.com/fntelecomllc/zonepipe/internal/config"
	"github.com/fntelecomllc/zonepipe/internal/zonefs"
)

func testKey() [32]byte {
	var k [32]byte
	for i := range k {
		k[i] = byte(i)
	}
	return k
}

func TestSaveLoadRoundTrip(t *testing.T) {
	layout := zonefs.New(t.TempDir())
	store := New(layout, testKey())

	b := Bundle{
		Cookies:    []Cookie{{Name: "sid", Value: "abc", Domain: "spotify.com"}},
		AcquiredAt: time.Now().UTC(),
		Strategy:   "interactive-browser",
	}
	if err := store.Save("spotify", "", b); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := store.Load("spotify", "")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(got.Cookies) != 1 || got.Cookies[0].Value != "abc" {
		t.Fatalf("Load() = %+v, want cookie value abc", got)
	}
}

func TestLoadNotFound(t *testing.T) {
	layout := zonefs.New(t.TempDir())
	store := New(layout, testKey())

	_, err := store.Load("spotify", "")
	if err != ErrNotFound {
		t.Fatalf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestStatusThresholds(t *testing.T) {
	layout := zonefs.New(t.TempDir())
	store := New(layout, testKey())
	policy := config.ServicePolicy{MaxCredentialAgeDays: 10, RefreshThresholdDays: 7}

	if got := store.Status("spotify", "", policy); got != StatusMissing {
		t.Fatalf("Status() with no bundle = %v, want missing", got)
	}

	fresh := Bundle{AcquiredAt: time.Now().UTC()}
	if err := store.Save("spotify", "", fresh); err != nil {
		t.Fatal(err)
	}
	if got := store.Status("spotify", "", policy); got != StatusValid {
		t.Fatalf("Status() fresh = %v, want valid", got)
	}

	expiring := Bundle{AcquiredAt: time.Now().UTC().Add(-8 * 24 * time.Hour)}
	if err := store.Save("spotify", "", expiring); err != nil {
		t.Fatal(err)
	}
	if got := store.Status("spotify", "", policy); got != StatusExpiringSoon {
		t.Fatalf("Status() expiring = %v, want expiring-soon", got)
	}

	expired := Bundle{AcquiredAt: time.Now().UTC().Add(-11 * 24 * time.Hour)}
	if err := store.Save("spotify", "", expired); err != nil {
		t.Fatal(err)
	}
	if got := store.Status("spotify", "", policy); got != StatusExpired {
		t.Fatalf("Status() expired = %v, want expired", got)
	}
}

func TestFilterDomains(t *testing.T) {
	cookies := []Cookie{
		{Name: "a", Domain: "spotify.com"},
		{Name: "b", Domain: ".www.spotify.com"},
		{Name: "c", Domain: "evil.example.com"},
	}
	filtered := FilterDomains(cookies, []string{"spotify.com"})
	if len(filtered) != 2 {
		t.Fatalf("FilterDomains() = %d cookies, want 2", len(filtered))
	}
	for _, c := range filtered {
		if c.Name == "c" {
			t.Fatalf("FilterDomains() leaked foreign-domain cookie %+v", c)
		}
	}
}
