package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// adsCountPatterns are tried in order against the scraper's combined output;
// the first pattern with any match wins, taking the largest captured number.
var adsCountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)fetched\s+(\d+)\s+ads`),
	regexp.MustCompile(`(?i)ads_fetched[:\s]+(\d+)`),
	regexp.MustCompile(`(?i)Found\s+(\d+)\s+ads`),
	regexp.MustCompile(`(?i)Total ads:\s*(\d+)`),
	regexp.MustCompile(`(?i)saved\s+(\d+)\s+ads`),
	regexp.MustCompile(`(?i)processed\s+(\d+)\s+ads`),
}

// FetchResult carries what one scraper run produced. Logs is the full
// annotated transcript; AdsCount is best-effort parsed from the output.
type FetchResult struct {
	Success  bool
	Logs     string
	AdsCount int
}

// EnvironmentInfo describes the Node toolchain the fetcher shells out to.
type EnvironmentInfo struct {
	EnvironmentOK      bool      `json:"environment_ok"`
	EnvironmentMessage string    `json:"environment_message"`
	NodeVersion        string    `json:"node_version"`
	NPMVersion         string    `json:"npm_version"`
	ScraperDir         string    `json:"scraper_dir"`
	ScraperDirExists   bool      `json:"scraper_dir_exists"`
	PackageJSONExists  bool      `json:"package_json_exists"`
	TimeoutSeconds     int       `json:"timeout_seconds"`
	Command            string    `json:"command"`
	Timestamp          time.Time `json:"timestamp"`
}

// AdsFetcher wraps the Node.js scraper as a subprocess. The scraper receives
// its target via USER_ID and PLATFORM environment variables and reports results
// on stdout, which RunForUser parses.
type AdsFetcher interface {
	VerifyEnvironment() (bool, string)
	RunForUser(ctx context.Context, userID, platform string) FetchResult
	Info() EnvironmentInfo
}

type adsFetcher struct {
	dir     string
	command string
	timeout time.Duration
	logger  zerolog.Logger
}

func NewAdsFetcher(dir, command string, timeout time.Duration, logger zerolog.Logger) AdsFetcher {
	return &adsFetcher{dir: dir, command: command, timeout: timeout, logger: logger}
}

// VerifyEnvironment checks the scraper directory and Node toolchain before a
// run. node_modules being absent is tolerated but logged.
func (f *adsFetcher) VerifyEnvironment() (bool, string) {
	if _, err := os.Stat(f.dir); err != nil {
		return false, fmt.Sprintf("Ads fetch directory not found: %s", f.dir)
	}
	if _, err := os.Stat(filepath.Join(f.dir, "package.json")); err != nil {
		return false, fmt.Sprintf("package.json not found in %s", f.dir)
	}
	if _, err := os.Stat(filepath.Join(f.dir, "node_modules")); err != nil {
		f.logger.Warn().Str("dir", f.dir).Msg("node_modules not found, run npm install")
	}
	if _, err := exec.LookPath("node"); err != nil {
		return false, "Node.js is not installed"
	}
	if _, err := exec.LookPath("npm"); err != nil {
		return false, "npm is not installed"
	}
	return true, "Environment verification passed"
}

// RunForUser executes one scraper pass for userID on platform, blocking until
// the process exits or the timeout fires.
func (f *adsFetcher) RunForUser(ctx context.Context, userID, platform string) FetchResult {
	if ok, msg := f.VerifyEnvironment(); !ok {
		return FetchResult{Logs: "Environment check failed: " + msg}
	}

	args := f.commandArgs()
	f.logger.Info().Str("user_id", userID).Str("platform", platform).
		Strs("cmd", args).Dur("timeout", f.timeout).Msg("starting ads fetch")

	runCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, args[0], args[1:]...)
	cmd.Dir = f.dir
	cmd.Env = append(os.Environ(),
		"USER_ID="+userID,
		"PLATFORM="+platform,
		"NODE_ENV=production",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		msg := fmt.Sprintf("Ads fetching timed out after %d seconds", int(f.timeout.Seconds()))
		f.logger.Error().Str("user_id", userID).Msg(msg)
		return FetchResult{Logs: msg}
	}

	returnCode := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			returnCode = exitErr.ExitCode()
		} else {
			msg := fmt.Sprintf("Error running ads fetcher: %v", runErr)
			f.logger.Error().Err(runErr).Str("user_id", userID).Msg("ads fetch failed to run")
			return FetchResult{Logs: msg}
		}
	}

	var logs strings.Builder
	logs.WriteString("=== Ads Fetching Results ===\n")
	fmt.Fprintf(&logs, "User ID: %s\n", userID)
	fmt.Fprintf(&logs, "Platform: %s\n", platform)
	fmt.Fprintf(&logs, "Start Time: %s\n", start.UTC().Format(time.RFC3339))
	fmt.Fprintf(&logs, "Elapsed Time: %.2f seconds\n", elapsed.Seconds())
	fmt.Fprintf(&logs, "Return Code: %d\n", returnCode)
	fmt.Fprintf(&logs, "\n=== STDOUT ===\n%s\n", stdout.String())
	if stderr.Len() > 0 {
		fmt.Fprintf(&logs, "\n=== STDERR ===\n%s\n", stderr.String())
	}

	success := returnCode == 0
	adsCount := 0
	if success {
		adsCount = extractAdsCount(stdout.String(), stderr.String())
	}

	f.logger.Info().Str("user_id", userID).Bool("success", success).
		Int("ads_count", adsCount).Dur("elapsed", elapsed).Msg("ads fetch finished")
	return FetchResult{Success: success, Logs: logs.String(), AdsCount: adsCount}
}

// commandArgs splits the configured scraper command into argv. "npm start"
// is normalized to "npm run start".
func (f *adsFetcher) commandArgs() []string {
	switch {
	case f.command == "npm start" || f.command == "npm run start":
		return []string{"npm", "run", "start"}
	case strings.HasPrefix(f.command, "node "):
		return []string{"node", strings.TrimPrefix(f.command, "node ")}
	case strings.HasPrefix(f.command, "ts-node "):
		return []string{"ts-node", strings.TrimPrefix(f.command, "ts-node ")}
	case strings.HasPrefix(f.command, "npm run "):
		return []string{"npm", "run", strings.TrimPrefix(f.command, "npm run ")}
	default:
		fields := strings.Fields(f.command)
		if len(fields) == 0 {
			return []string{"npm", "run", "start"}
		}
		return fields
	}
}

// extractAdsCount pulls the fetched-ads total out of scraper output: known
// log phrases first, then a JSON array, then a rough token count.
func extractAdsCount(stdout, stderr string) int {
	combined := stdout + stderr
	for _, pattern := range adsCountPatterns {
		matches := pattern.FindAllStringSubmatch(combined, -1)
		if len(matches) == 0 {
			continue
		}
		max := 0
		for _, m := range matches {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			if n > max {
				max = n
			}
		}
		if max > 0 {
			return max
		}
	}

	// Some scraper versions dump the ads as one JSON array instead of a
	// summary line.
	if open := strings.Index(stdout, "["); open >= 0 {
		if close := strings.LastIndex(stdout, "]"); close > open {
			var arr []json.RawMessage
			if err := json.Unmarshal([]byte(stdout[open:close+1]), &arr); err == nil {
				return len(arr)
			}
		}
	}

	lower := strings.ToLower(stdout)
	if strings.Contains(lower, "ad") || strings.Contains(lower, "advertisement") {
		count := strings.Count(stdout, "ad ") + strings.Count(stdout, "Ad ") + strings.Count(stdout, `"ad"`)
		if count > 50 {
			count = 50
		}
		return count
	}
	return 0
}

// Info reports the fetcher's view of its environment for diagnostics.
func (f *adsFetcher) Info() EnvironmentInfo {
	ok, msg := f.VerifyEnvironment()
	info := EnvironmentInfo{
		EnvironmentOK:      ok,
		EnvironmentMessage: msg,
		NodeVersion:        "Unknown",
		NPMVersion:         "Unknown",
		ScraperDir:         f.dir,
		TimeoutSeconds:     int(f.timeout.Seconds()),
		Command:            f.command,
		Timestamp:          time.Now().UTC(),
	}
	if _, err := os.Stat(f.dir); err == nil {
		info.ScraperDirExists = true
	}
	if _, err := os.Stat(filepath.Join(f.dir, "package.json")); err == nil {
		info.PackageJSONExists = true
	}
	if out, err := toolVersion("node"); err == nil {
		info.NodeVersion = out
	}
	if out, err := toolVersion("npm"); err == nil {
		info.NPMVersion = out
	}
	return info
}

func toolVersion(tool string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, tool, "--version").Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
