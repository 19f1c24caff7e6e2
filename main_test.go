package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

// a fake marketplace with two packages: one complete, one with no manifest.
func marketplace_test_server(t *testing.T) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/"+MARKETPLACE_REPO+"/contents/"+PACKAGES_DIR, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"name": "foo-plugin", "type": "dir"},
			{"name": ".gitkeep", "type": "file"},
			{"name": "bare-plugin", "type": "dir"}
		]`)
	})
	mux.HandleFunc(manifest_path("foo-plugin"), func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"name": "foo plugin",
			"id": "foo",
			"description": "does foo things",
			"author": "someone",
			"repo": "someone/foo-plugin",
			"icon": "icon.png"
		}`)
	})
	mux.HandleFunc("/someone/foo-plugin/main/README.md", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "# foo")
	})
	mux.HandleFunc("/repos/"+MARKETPLACE_REPO+"/commits", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"commit": {"committer": {"date": "2024-02-02T00:00:00Z"}}},
			{"commit": {"committer": {"date": "2021-05-01T00:00:00Z"}}}
		]`)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	intercept_hosts(t, server)
}

func Test_fetch_listing(t *testing.T) {
	marketplace_test_server(t)

	listing, err := fetch_listing()
	assert.NoError(t, err)
	assert.Equal(t, []PackageListing{
		{Name: "foo-plugin", Type: "dir"},
		{Name: ".gitkeep", Type: "file"},
		{Name: "bare-plugin", Type: "dir"},
	}, listing)
}

func Test_parse_package(t *testing.T) {
	marketplace_test_server(t)

	record, err := parse_package(PackageListing{Name: "foo-plugin", Type: "dir"})
	assert.NoError(t, err)

	expected_readme := RAW_URL + "/someone/foo-plugin/main/README.md"
	assert.Equal(t, &PluginRecord{
		Name:        "foo plugin",
		Id:          "foo",
		Description: "does foo things",
		Author:      "someone",
		Repo:        "someone/foo-plugin",
		Dir:         "foo-plugin",
		Label:       "Foo Plugin",
		IconUrl:     RAW_URL + "/" + MARKETPLACE_REPO + "/" + MARKETPLACE_BRANCH + "/" + PACKAGES_DIR + "/foo-plugin/icon.png",
		ReadmeUrl:   &expected_readme,
		CreatedAt:   "2021-05-01T00:00:00Z",
		LastUpdated: "2024-02-02T00:00:00Z",
		Error:       "",
	}, record)
}

func Test_parse_package_skips_files(t *testing.T) {
	marketplace_test_server(t)

	record, err := parse_package(PackageListing{Name: ".gitkeep", Type: "file"})
	assert.NoError(t, err)
	assert.Nil(t, record)
}

func Test_parse_package_missing_manifest(t *testing.T) {
	marketplace_test_server(t)

	// commit dates still resolve, nothing manifest-derived does
	record, err := parse_package(PackageListing{Name: "bare-plugin", Type: "dir"})
	assert.NoError(t, err)
	assert.Equal(t, &PluginRecord{
		Name:        "bare-plugin",
		Dir:         "bare-plugin",
		IconUrl:     "",
		CreatedAt:   "2021-05-01T00:00:00Z",
		LastUpdated: "2024-02-02T00:00:00Z",
		Error:       "Missing manifest",
	}, record)
}

func Test_parse_package_rate_limited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(403)
	}))
	defer server.Close()
	intercept_hosts(t, server)

	_, err := parse_package(PackageListing{Name: "foo-plugin", Type: "dir"})
	assert.ErrorIs(t, err, err_rate_limited)
}

func Test_error_record(t *testing.T) {
	record := error_record(PackageListing{Name: "foo", Type: "dir"}, fmt.Errorf("boom"))
	assert.Equal(t, &PluginRecord{Name: "foo", Dir: "foo", Error: "boom"}, record)
}

func Test_title_case(t *testing.T) {
	cases := map[string]string{
		"":           "",
		"title case": "Title Case",
		"Title case": "Title Case",
		"Title Case": "Title Case",
		"title-case": "Title-Case",
		"title_case": "Title_case",
		"TITLE CASE": "Title Case",
	}
	for given, expected := range cases {
		assert.Equal(t, expected, title_case(given))
	}
}
