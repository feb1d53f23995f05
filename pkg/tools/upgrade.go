package tools

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const (
	githubAPI          = "https://api.github.com"
	defaultReleaseRepo = "wasend-cli/wasend"
	releaseRepoEnv     = "WASEND_RELEASE_REPO"

	// GitHub flakes on occasion; retry 5xx with a backoff capped at 30s.
	releaseRetryCount   = 7
	releaseRetryWait    = 5 * time.Second
	releaseRetryMaxWait = 30 * time.Second
)

// Release is the subset of the GitHub release payload the upgrader needs.
type Release struct {
	TagName string         `json:"tag_name"`
	Assets  []ReleaseAsset `json:"assets"`
}

type ReleaseAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Upgrader replaces the running binary with the latest GitHub release.
type Upgrader struct {
	client  *resty.Client
	repo    string
	version string
	logger  zerolog.Logger
}

func NewUpgrader(version string, logger zerolog.Logger) *Upgrader {
	client := resty.New().
		SetBaseURL(githubAPI).
		SetHeader("Accept", "application/vnd.github+json").
		SetRetryCount(releaseRetryCount).
		SetRetryWaitTime(releaseRetryWait).
		SetRetryMaxWaitTime(releaseRetryMaxWait).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err != nil || resp.StatusCode() >= 500
		})

	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		client.SetAuthToken(token)
	}

	return &Upgrader{
		client:  client,
		repo:    getEnv(releaseRepoEnv, defaultReleaseRepo),
		version: version,
		logger:  logger,
	}
}

// LatestRelease fetches the newest published release for the repo.
func (u *Upgrader) LatestRelease(ctx context.Context) (*Release, error) {
	var release Release
	resp, err := u.client.R().
		SetContext(ctx).
		SetResult(&release).
		Get(fmt.Sprintf("/repos/%s/releases/latest", u.repo))
	if err != nil {
		return nil, fmt.Errorf("failed to query latest release: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("failed to query latest release: %s returned %s", u.repo, resp.Status())
	}
	if release.TagName == "" {
		return nil, fmt.Errorf("release response for %s has no tag", u.repo)
	}

	return &release, nil
}

// Run checks for a newer release and swaps the running binary for it.
func (u *Upgrader) Run(ctx context.Context) error {
	u.logger.Info().Str("repo", u.repo).Msg("checking for a newer release")

	release, err := u.LatestRelease(ctx)
	if err != nil {
		return err
	}

	if !newerVersion(u.version, release.TagName) {
		fmt.Printf("Already up to date (%s).\n", u.version)
		return nil
	}

	asset, ok := pickAsset(release.Assets, runtime.GOOS, runtime.GOARCH)
	if !ok {
		return fmt.Errorf("release %s has no asset for %s/%s", release.TagName, runtime.GOOS, runtime.GOARCH)
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to locate running binary: %w", err)
	}

	u.logger.Info().Str("asset", asset.Name).Str("tag", release.TagName).Msg("downloading release")

	// Download next to the binary so the final rename stays on one filesystem.
	tmp := exe + ".new"
	resp, err := u.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/octet-stream").
		SetOutput(tmp).
		Get(asset.BrowserDownloadURL)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", asset.Name, err)
	}
	if resp.IsError() {
		os.Remove(tmp)
		return fmt.Errorf("failed to download %s: server returned %s", asset.Name, resp.Status())
	}

	if err := os.Chmod(tmp, 0755); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to mark new binary executable: %w", err)
	}
	if err := os.Rename(tmp, exe); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", exe, err)
	}

	fmt.Printf("Upgraded %s -> %s.\n", u.version, release.TagName)
	return nil
}

// pickAsset finds the release asset built for this platform. Asset names are
// expected to carry both the OS and the architecture, e.g.
// wasend_linux_amd64 or wasend_windows_amd64.exe.
func pickAsset(assets []ReleaseAsset, goos, goarch string) (ReleaseAsset, bool) {
	for _, asset := range assets {
		name := strings.ToLower(asset.Name)
		if strings.Contains(name, goos) && strings.Contains(name, goarch) {
			return asset, true
		}
	}
	return ReleaseAsset{}, false
}

// newerVersion reports whether the release tag is newer than the running
// version. Development builds always count as older.
func newerVersion(current, tag string) bool {
	return compareVersions(current, tag) < 0
}

func compareVersions(a, b string) int {
	as := versionSegments(a)
	bs := versionSegments(b)

	for i := 0; i < len(as) || i < len(bs); i++ {
		var av, bv int
		if i < len(as) {
			av = as[i]
		}
		if i < len(bs) {
			bv = bs[i]
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}

// versionSegments parses "v1.2.3" style tags. Anything unparseable (like
// "dev") becomes an empty segment list, which compares as older than any
// real release.
func versionSegments(version string) []int {
	version = strings.TrimPrefix(strings.TrimSpace(version), "v")
	if version == "" {
		return nil
	}

	parts := strings.Split(version, ".")
	segments := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return segments
		}
		segments = append(segments, n)
	}
	return segments
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
