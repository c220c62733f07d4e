package service

import (
	"strings"

	"github.com/reviewhub/reviewhub/internal/diff/model"
)

// parseUnifiedDiff splits a unified diff into its per-file components.
// A file section starts at a "--- " header immediately followed by a
// "+++ " header; everything up to the next section belongs to the file.
func parseUnifiedDiff(content string) []model.FileDiff {
	lines := strings.Split(content, "\n")

	var files []model.FileDiff
	var current *model.FileDiff
	var body []string

	flush := func() {
		if current != nil {
			current.Diff = strings.Join(body, "\n")
			files = append(files, *current)
			current = nil
			body = nil
		}
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if strings.HasPrefix(line, "--- ") && i+1 < len(lines) &&
			strings.HasPrefix(lines[i+1], "+++ ") {
			flush()
			source, sourceRev := parseFileHeader(line[4:])
			dest, _ := parseFileHeader(lines[i+1][4:])
			current = &model.FileDiff{
				SourceFile:     source,
				DestFile:       dest,
				SourceRevision: sourceRev,
			}
			body = []string{line, lines[i+1]}
			i++
			continue
		}
		if current != nil {
			body = append(body, line)
		}
	}
	flush()

	return files
}

// parseFileHeader splits a "--- path\trevision" header into path and revision.
func parseFileHeader(header string) (string, string) {
	parts := strings.SplitN(header, "\t", 2)
	path := strings.TrimSpace(parts[0])
	revision := ""
	if len(parts) == 2 {
		revision = strings.TrimSpace(parts[1])
	}
	return path, revision
}
