package gateway

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	maxStudentSlug = 39
	maxBriefSlug   = 24
	hashLen        = 6
)

// RepoName derives the repository name for a (student, brief) pair:
//
//	slug(student) "-" slug(brief) "-" first 6 hex chars of sha256(lower(trim(brief)))
//
// The student part is capped at 39 chars, the brief part at 24 and cut back to a
// word boundary. The hash keeps different briefs with the same prefix apart while
// the same pair always maps to the same repository.
func RepoName(student, brief string) string {
	studentPart := truncate(slug(student), maxStudentSlug, false)
	briefPart := truncate(slug(brief), maxBriefSlug, true)

	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(brief))))
	return studentPart + "-" + briefPart + "-" + hex.EncodeToString(sum[:])[:hashLen]
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "app"
	}
	return out
}

func truncate(s string, max int, atWord bool) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	if atWord && s[max] != '-' {
		if i := strings.LastIndexByte(cut, '-'); i > 0 {
			cut = cut[:i]
		}
	}
	return strings.Trim(cut, "-")
}
