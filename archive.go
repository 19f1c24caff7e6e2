package main

import (
	"archive/zip"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/snabb/httpreaderat"
	"github.com/tidwall/gjson"

	bufra "github.com/avvmoto/buf-readerat"
)

func releases_url(repo string) string {
	return API_URL + fmt.Sprintf("/repos/%s/releases?per_page=1", repo)
}

// a manifest at the archive root or one directory deep.
func is_manifest_file(filename string) bool {
	if filename == "manifest.json" {
		return true
	}
	bits := strings.SplitN(filename, "/", 2)
	return len(bits) == 2 && bits[1] == "manifest.json"
}

// reports whether any file inside the zip at `asset_url` satisfies `filter`,
// without downloading the archive.
//
// a 'readerat' is an implementation of the built-in Go interface `io.ReaderAt`,
// that provides a means to jump around within the bytes of a remote file using
// HTTP Range requests. wrapping it in a buffered readerat keeps the central
// directory reads from hitting the network twice.
func remote_zip_contains(asset_url string, filter func(string) bool) (bool, error) {
	req, err := http.NewRequestWithContext(trace_context(), http.MethodGet, asset_url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	for header, header_val := range auth_headers() {
		req.Header.Set(header, header_val)
	}

	http_readerat, err := httpreaderat.New(STATE.Client, req, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create a HTTPReaderAt: %w", err)
	}

	buffer_size := 1024 * 1024 // 1MiB
	buffered_http_readerat := bufra.NewBufReaderAt(http_readerat, buffer_size)
	zip_rdr, err := zip.NewReader(buffered_http_readerat, http_readerat.Size())
	if err != nil {
		return false, fmt.Errorf("failed to create a zip reader: %w", err)
	}

	for _, zipped_file_entry := range zip_rdr.File {
		if filter(zipped_file_entry.Name) {
			slog.Debug("found zipped file name match", "filename", zipped_file_entry.Name)
			return true, nil
		}
	}
	return false, nil
}

// checks that the latest release of `repo` ships a manifest.json inside its
// zip asset, returning a warning string when it doesn't.
// a repo with no releases, no zip asset or an unreadable archive is left
// alone: the probe only flags archives it could actually inspect.
// only a rate-limit is propagated.
func probe_release_archive(repo string) (string, error) {
	body, err := fetch_json(releases_url(repo))
	if err != nil {
		if errors.Is(err, err_rate_limited) {
			return "", err
		}
		slog.Debug("release listing unavailable", "repo", repo, "error", err)
		return "", nil
	}

	release_list := gjson.Parse(body)
	if !release_list.IsArray() || len(release_list.Array()) == 0 {
		return "", nil
	}

	asset_url := ""
	for _, asset := range release_list.Array()[0].Get("assets").Array() {
		if strings.HasSuffix(asset.Get("name").String(), ".zip") {
			asset_url = asset.Get("browser_download_url").String()
			break
		}
	}
	if asset_url == "" {
		return "", nil
	}

	found, err := remote_zip_contains(asset_url, is_manifest_file)
	if err != nil {
		slog.Debug("failed to inspect release archive", "repo", repo, "error", err)
		return "", nil
	}
	if !found {
		return "Release archive missing manifest", nil
	}
	return "", nil
}
