package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/cwygoda/playlistbot/internal/config"
	"github.com/cwygoda/playlistbot/internal/domain"
)

// errTailLines bounds how much tool output ends up in an error.
const errTailLines = 5

// Extractor runs yt-dlp for URLs matching its pattern.
type Extractor struct {
	name        string
	pattern     *regexp.Regexp
	binary      string
	format      string
	mergeFormat string
	template    string
	extraArgs   []string
	logger      *log.Logger
}

// NewExtractor creates an extractor from config. Empty fields take the
// built-in YouTube defaults.
func NewExtractor(ec config.ExtractorConfig, logger *log.Logger) (*Extractor, error) {
	def := config.DefaultExtractor()
	if ec.Pattern == "" {
		ec.Pattern = def.Pattern
	}
	re, err := regexp.Compile(ec.Pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", ec.Pattern, err)
	}
	if ec.Binary == "" {
		ec.Binary = def.Binary
	}
	if ec.Format == "" {
		ec.Format = def.Format
	}
	if ec.MergeFormat == "" {
		ec.MergeFormat = def.MergeFormat
	}
	if ec.Template == "" {
		ec.Template = def.Template
	}
	if logger == nil {
		logger = log.Default()
	}

	return &Extractor{
		name:        ec.Name,
		pattern:     re,
		binary:      config.ExpandPath(ec.Binary),
		format:      ec.Format,
		mergeFormat: ec.MergeFormat,
		template:    ec.Template,
		extraArgs:   ec.ExtraArgs,
		logger:      logger.With("extractor", ec.Name),
	}, nil
}

func (e *Extractor) Name() string {
	return e.name
}

func (e *Extractor) Match(url string) bool {
	return e.pattern.MatchString(url)
}

// Ext returns the extension of merged output files.
func (e *Extractor) Ext() string {
	return "." + e.mergeFormat
}

// flatPlaylist is the subset of yt-dlp's --dump-single-json output we use.
// Entries stays nil when the document has no entries key.
type flatPlaylist struct {
	Title   string      `json:"title"`
	Entries []flatEntry `json:"entries"`
}

type flatEntry struct {
	Title string `json:"title"`
}

// ListFlat fetches playlist metadata without downloading media.
func (e *Extractor) ListFlat(ctx context.Context, url string) (*domain.Playlist, error) {
	args := []string{"--flat-playlist", "--dump-single-json", "--no-warnings"}
	args = append(args, e.extraArgs...)
	args = append(args, "--", url)

	cmd := exec.CommandContext(ctx, e.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w: %s", e.binary, err, tail(stderr.String()))
	}

	var raw flatPlaylist
	if err := json.Unmarshal(out, &raw); err != nil {
		return nil, fmt.Errorf("parse %s output: %w", e.binary, err)
	}

	pl := &domain.Playlist{Title: raw.Title}
	if raw.Entries != nil {
		pl.Entries = make([]domain.Entry, len(raw.Entries))
		for i, entry := range raw.Entries {
			pl.Entries[i] = domain.Entry{Index: i + 1, Title: entry.Title}
		}
	}
	e.logger.Debug("listed playlist", "title", pl.Title, "entries", len(pl.Entries))
	return pl, nil
}

// Download fetches every playlist item into destDir, named by the output
// template. It blocks until the tool exits.
func (e *Extractor) Download(ctx context.Context, url, destDir string) error {
	args := []string{
		"-f", e.format,
		"--merge-output-format", e.mergeFormat,
		"-o", filepath.Join(destDir, e.template),
		"--no-progress",
	}
	args = append(args, e.extraArgs...)
	args = append(args, "--", url)

	cmd := exec.CommandContext(ctx, e.binary, args...)
	cmd.Dir = destDir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s failed: %w: %s", e.binary, err, tail(string(output)))
	}
	e.logger.Debug("download finished", "dir", destDir)
	return nil
}

// tail returns the last few non-empty lines of tool output, where yt-dlp
// prints its ERROR lines.
func tail(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) > errTailLines {
		lines = lines[len(lines)-errTailLines:]
	}
	return strings.Join(lines, " | ")
}
