package main

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// per-package descriptor found at `packages/<dir>/manifest.json`.
// every field is optional; absences are reported as warnings, not failures.
type Manifest struct {
	Name        string `json:"name"`
	Id          string `json:"id"`
	Description string `json:"description"`
	Author      string `json:"author"`
	Repo        string `json:"repo"` // "owner/repo"
	Icon        string `json:"icon"` // path relative to the package dir
}

// guards field *types* only. a manifest with a numeric 'author' is garbage,
// a manifest with no 'author' at all is merely incomplete.
const MANIFEST_SCHEMA = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"name": {"type": "string"},
		"id": {"type": "string"},
		"description": {"type": "string"},
		"author": {"type": "string"},
		"repo": {"type": "string"},
		"icon": {"type": "string"}
	}
}`

var manifest_schema = jsonschema.MustCompileString("manifest.schema.json", MANIFEST_SCHEMA)

func manifest_url(dir string) string {
	return RAW_URL + "/" + MARKETPLACE_REPO + "/" + MARKETPLACE_BRANCH + "/" + PACKAGES_DIR + "/" + dir + "/manifest.json"
}

// fetches and parses the manifest for package `dir`.
// a missing, unparseable or schema-invalid manifest yields a nil Manifest and
// no error: the caller synthesises an error-only record for it.
// only a rate-limit is propagated.
func resolve_manifest(dir string) (*Manifest, error) {
	body, err := fetch_json(manifest_url(dir))
	if err != nil {
		if errors.Is(err, err_rate_limited) {
			return nil, err
		}
		slog.Debug("manifest unavailable", "package", dir, "error", err)
		return nil, nil
	}

	var doc any
	err = json.Unmarshal([]byte(body), &doc)
	if err != nil {
		slog.Warn("manifest is not valid JSON", "package", dir, "error", err)
		return nil, nil
	}
	err = manifest_schema.Validate(doc)
	if err != nil {
		slog.Warn("manifest does not match schema", "package", dir, "error", err)
		return nil, nil
	}

	var manifest Manifest
	err = json.Unmarshal([]byte(body), &manifest)
	if err != nil {
		slog.Warn("failed to unmarshal manifest", "package", dir, "error", err)
		return nil, nil
	}
	return &manifest, nil
}

// returns a warning per absent optional field.
// order is fixed: description, author, repository, icon.
func validate(manifest *Manifest) []string {
	warning_list := []string{}
	if manifest.Description == "" {
		warning_list = append(warning_list, "Missing package description")
	}
	if manifest.Author == "" {
		warning_list = append(warning_list, "Missing package author")
	}
	if manifest.Repo == "" {
		warning_list = append(warning_list, "Missing package repository")
	}
	if manifest.Icon == "" {
		warning_list = append(warning_list, "Missing package icon")
	}
	return warning_list
}

// resolves the manifest's relative icon path to a raw URL under the package
// dir, or "" when the manifest declares no icon.
func resolve_icon_url(dir string, manifest *Manifest) string {
	if manifest.Icon == "" {
		return ""
	}
	return RAW_URL + "/" + MARKETPLACE_REPO + "/" + MARKETPLACE_BRANCH + "/" + PACKAGES_DIR + "/" + dir + "/" + manifest.Icon
}

// probes for a README on the 'main' branch, then 'master'.
// nil when neither probe succeeds.
// this is a fixed two-attempt probe, not branch discovery: a repository whose
// default branch is named anything else is reported as having no README.
func resolve_readme_url(repo string) (*string, error) {
	for _, branch := range []string{"main", "master"} {
		url := RAW_URL + "/" + repo + "/" + branch + "/README.md"
		_, err := fetch_text(url)
		if err == nil {
			return &url, nil
		}
		if errors.Is(err, err_rate_limited) {
			return nil, err
		}
		slog.Debug("README probe failed", "repo", repo, "branch", branch, "error", err)
	}
	return nil, nil
}
