package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestPickAsset(t *testing.T) {
	assets := []ReleaseAsset{
		{Name: "wasend_darwin_arm64"},
		{Name: "wasend_linux_amd64"},
		{Name: "wasend_windows_amd64.exe"},
	}

	asset, ok := pickAsset(assets, "linux", "amd64")
	if !ok || asset.Name != "wasend_linux_amd64" {
		t.Errorf("pickAsset(linux/amd64) = %v, %v", asset, ok)
	}

	asset, ok = pickAsset(assets, "windows", "amd64")
	if !ok || asset.Name != "wasend_windows_amd64.exe" {
		t.Errorf("pickAsset(windows/amd64) = %v, %v", asset, ok)
	}

	if _, ok := pickAsset(assets, "plan9", "386"); ok {
		t.Error("pickAsset should miss on unsupported platforms")
	}
}

func TestNewerVersion(t *testing.T) {
	cases := []struct {
		current string
		tag     string
		want    bool
	}{
		{"1.0.0", "v1.0.1", true},
		{"1.0.0", "v1.0.0", false},
		{"v1.2.0", "1.1.9", false},
		{"1.0", "v1.0.1", true},
		{"dev", "v0.1.0", true},
		{"2.0.0", "v2.0", false},
	}

	for _, c := range cases {
		if got := newerVersion(c.current, c.tag); got != c.want {
			t.Errorf("newerVersion(%q, %q) = %v, want %v", c.current, c.tag, got, c.want)
		}
	}
}

func TestLatestReleaseRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"tag_name": "v1.2.3", "assets": [{"name": "wasend_linux_amd64", "browser_download_url": "http://example.invalid/a"}]}`)
	}))
	defer server.Close()

	u := NewUpgrader("1.0.0", zerolog.Nop())
	u.client.SetBaseURL(server.URL)
	u.client.SetRetryWaitTime(time.Millisecond).SetRetryMaxWaitTime(5 * time.Millisecond)

	release, err := u.LatestRelease(context.Background())
	if err != nil {
		t.Fatalf("LatestRelease failed: %v", err)
	}
	if release.TagName != "v1.2.3" {
		t.Errorf("TagName = %q, want v1.2.3", release.TagName)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestLatestReleaseRejectsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	u := NewUpgrader("1.0.0", zerolog.Nop())
	u.client.SetBaseURL(server.URL)

	if _, err := u.LatestRelease(context.Background()); err == nil {
		t.Fatal("a 404 should surface as an error")
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("WASEND_TEST_KEY", "set")
	if got := getEnv("WASEND_TEST_KEY", "fallback"); got != "set" {
		t.Errorf("getEnv = %q, want set", got)
	}
	if got := getEnv("WASEND_TEST_KEY_MISSING", "fallback"); got != "fallback" {
		t.Errorf("getEnv = %q, want fallback", got)
	}
}
