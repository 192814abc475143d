// Package version discovers the latest releases of the bundled tools and
// turns them into a composite image tag, so an image rebuild happens only
// when something actually changed.
package version

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/wawaka/vibecon/internal/engine"
)

const goFallback = "1.24.2"

// goReleasesURL lists Go releases as JSON; overridable in tests.
var goReleasesURL = "https://go.dev/dl/?mode=json"

// Set maps short tool keys to version strings. "latest" is a valid sentinel
// meaning the version could not be determined.
type Set map[string]string

// Fetch queries the npm registry and the Go release feed concurrently.
// Each query's failure degrades only its own slot to a sentinel; the batch
// never fails as a whole.
func Fetch() Set {
	fmt.Println("Checking latest versions...")

	type query struct {
		key     string
		display string
		fetch   func() (string, error)
	}
	queries := []query{
		{"g", "Gemini CLI", func() (string, error) { return npmVersion("@google/gemini-cli") }},
		{"oac", "OpenAI Codex", func() (string, error) { return npmVersion("@openai/codex") }},
		{"go", "Go", goVersion},
	}

	results := make([]string, len(queries))
	var g errgroup.Group
	for i, q := range queries {
		g.Go(func() error {
			// Failures stay in this slot; the empty string marks "unknown"
			// and is turned into a sentinel after the join.
			if v, err := q.fetch(); err == nil {
				results[i] = v
			}
			return nil
		})
	}
	g.Wait()

	versions := Set{}
	for i, q := range queries {
		if results[i] != "" {
			versions[q.key] = results[i]
			fmt.Printf("  %s: %s\n", q.display, results[i])
			continue
		}
		sentinel := "latest"
		if q.key == "go" {
			sentinel = goFallback
		}
		versions[q.key] = sentinel
		fmt.Printf("  %s: %s (failed to fetch)\n", q.display, sentinel)
	}
	return versions
}

// CompositeTag encodes a version set as g<ver>_oac<ver>_go<ver>.
func CompositeTag(v Set) string {
	return fmt.Sprintf("g%s_oac%s_go%s", v["g"], v["oac"], v["go"])
}

// Build builds the image from root, tagged with both the stable name and the
// composite version tag.
func Build(eng engine.Engine, root, image string, v Set) error {
	if v == nil {
		v = Set{"g": "latest", "oac": "latest", "go": goFallback}
	}
	tag := CompositeTag(v)
	fmt.Printf("Building image with composite tag: %s\n", tag)

	return eng.BuildImage(root, map[string]string{
		"GEMINI_CLI_VERSION":   v["g"],
		"OPENAI_CODEX_VERSION": v["oac"],
		"GO_VERSION":           v["go"],
	}, []string{image, "vibecon:" + tag})
}

func npmVersion(pkg string) (string, error) {
	out, err := exec.Command("npm", "view", pkg, "version").Output()
	if err != nil {
		return "", fmt.Errorf("npm view %s: %w", pkg, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// goVersion returns the newest stable release from the Go download feed,
// without the "go" prefix.
func goVersion() (string, error) {
	resp, err := http.Get(goReleasesURL)
	if err != nil {
		return "", fmt.Errorf("fetching Go releases: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading Go releases: %w", err)
	}

	var releases []struct {
		Version string `json:"version"`
		Stable  bool   `json:"stable"`
	}
	if err := json.Unmarshal(body, &releases); err != nil {
		return "", fmt.Errorf("parsing Go releases: %w", err)
	}
	for _, r := range releases {
		if r.Stable {
			return strings.TrimPrefix(r.Version, "go"), nil
		}
	}
	return "", fmt.Errorf("no stable Go release listed")
}
