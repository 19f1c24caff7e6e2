package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/pflag"

	pb "github.com/schollz/progressbar/v3"
)

type State struct {
	GithubToken     string
	Client          *http.Client
	MaxItems        int
	Verbose         bool
	InspectArchives bool
	OutputPath      string
}

func NewState() *State {
	return &State{}
}

// one entry from the marketplace's directory listing.
// only "dir" entries are packages, the rest is repo housekeeping.
type PackageListing struct {
	Name string `json:"name"`
	Type string `json:"type"` // "dir" or "file"
}

// -- globals

var STATE *State

var API_URL = "https://api.github.com"
var RAW_URL = "https://raw.githubusercontent.com"

var MARKETPLACE_REPO = "logseq/marketplace"
var MARKETPLACE_BRANCH = "master"
var PACKAGES_DIR = "packages"

const NUM_WORKERS = 10
const COMMITS_PER_PAGE = 100

// --- tasks

func listing_url() string {
	return API_URL + fmt.Sprintf("/repos/%s/contents/%s", MARKETPLACE_REPO, PACKAGES_DIR)
}

func fetch_listing() ([]PackageListing, error) {
	body, err := fetch_json(listing_url())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch package listing: %w", err)
	}
	var listing []PackageListing
	err = json.Unmarshal([]byte(body), &listing)
	if err != nil {
		return nil, fmt.Errorf("failed to parse package listing as JSON: %w", err)
	}
	return listing, nil
}

// resolves one listing entry into a PluginRecord.
// non-directory entries resolve to nil and are dropped during aggregation.
// the only error ever returned is a rate-limit, everything else is folded
// into the record's warning list.
func parse_package(entry PackageListing) (*PluginRecord, error) {
	if entry.Type != "dir" {
		return nil, nil
	}

	slog.Info("parsing package", "package", entry.Name)

	dates, err := resolve_commit_dates(entry.Name)
	if err != nil {
		return nil, err
	}

	manifest, err := resolve_manifest(entry.Name)
	if err != nil {
		return nil, err
	}
	if manifest == nil {
		return &PluginRecord{
			Name:        entry.Name,
			Dir:         entry.Name,
			CreatedAt:   dates.CreatedAt,
			LastUpdated: dates.LastUpdated,
			Error:       "Missing manifest",
		}, nil
	}

	warning_list := validate(manifest)

	var readme_url *string
	if manifest.Repo != "" {
		readme_url, err = resolve_readme_url(manifest.Repo)
		if err != nil {
			return nil, err
		}
		if readme_url == nil {
			warning_list = append(warning_list, "Missing README")
		}
	}

	if STATE.InspectArchives && manifest.Repo != "" {
		warning, err := probe_release_archive(manifest.Repo)
		if err != nil {
			return nil, err
		}
		if warning != "" {
			warning_list = append(warning_list, warning)
		}
	}

	label := manifest.Name
	if label == "" {
		label = entry.Name
	}

	return &PluginRecord{
		Name:        manifest.Name,
		Id:          manifest.Id,
		Description: manifest.Description,
		Author:      manifest.Author,
		Repo:        manifest.Repo,
		Dir:         entry.Name,
		Label:       title_case(label),
		IconUrl:     resolve_icon_url(entry.Name, manifest),
		ReadmeUrl:   readme_url,
		CreatedAt:   dates.CreatedAt,
		LastUpdated: dates.LastUpdated,
		Error:       strings.Join(warning_list, ", "),
	}, nil
}

// placeholder for a package that failed outright, keeping its position in
// the results.
func error_record(entry PackageListing, err error) *PluginRecord {
	return &PluginRecord{
		Name:  entry.Name,
		Dir:   entry.Name,
		Error: err.Error(),
	}
}

// --- bootstrap

func init_state() *State {
	state := NewState()

	max_items := pflag.IntP("max-items", "n", 0, "maximum number of packages to process, 0 processes the full listing")
	verbose := pflag.BoolP("verbose", "v", false, "debug logging")
	inspect_archives := pflag.Bool("inspect-archives", false, "check that release archives ship a manifest.json")
	output_path := pflag.StringP("out", "o", "plugins.json", "path to write the catalogue to")
	pflag.Parse()

	state.MaxItems = *max_items
	state.Verbose = *verbose
	state.InspectArchives = *inspect_archives
	state.OutputPath = *output_path

	// optional. anonymous requests work, they just hit the rate limit sooner.
	token, present := os.LookupEnv("PLUGIN_CATALOGUE_GITHUB_TOKEN")
	if present {
		state.GithubToken = token
	}

	// a hung upstream shouldn't wedge a worker forever.
	state.Client = &http.Client{Timeout: 30 * time.Second}

	return state
}

func init() {
	if is_testing() {
		return
	}
	STATE = init_state()
	level := slog.LevelInfo
	if STATE.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level})))
}

func main() {
	slog.Info("fetching package listing", "marketplace", MARKETPLACE_REPO)
	listing, err := fetch_listing()
	if err != nil {
		fatal("failed to fetch the package listing", err)
	}
	slog.Info("listing fetched", "num", len(listing))

	var bar *pb.ProgressBar
	if !STATE.Verbose {
		count := len(listing)
		if STATE.MaxItems > 0 && STATE.MaxItems < count {
			count = STATE.MaxItems
		}
		bar = pb.Default(int64(count), "parsing packages")
	}

	process := func(entry PackageListing) (*PluginRecord, error) {
		record, err := parse_package(entry)
		if bar != nil && err == nil {
			bar.Add(1)
		}
		return record, err
	}

	pool_result := run_pool(listing, NUM_WORKERS, STATE.MaxItems, process, error_record)
	if pool_result.RateLimited {
		slog.Warn("rate limited by github, stopping early with partial results")
	}
	if pool_result.Truncated {
		slog.Info("stopped at the item cap", "max-items", STATE.MaxItems)
	}

	record_list := aggregate(pool_result.Results)
	slog.Info("packages parsed", "viable", len(record_list))

	err = write_catalogue(STATE.OutputPath, record_list)
	if err != nil {
		fatal("failed to write the catalogue", err)
	}
	slog.Info("catalogue written", "path", STATE.OutputPath)
}
