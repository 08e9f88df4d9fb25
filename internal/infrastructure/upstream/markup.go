package upstream

import (
	"regexp"
	"strings"
)

// DefaultReasoningTags are stripped when no tags are configured.
var DefaultReasoningTags = []string{"thinking"}

// TextFilter removes reasoning markup from one model's stream of deltas.
// Write returns the visible part of a delta; Flush returns whatever was held
// back once the stream has ended.
type TextFilter interface {
	Write(delta string) string
	Flush() string
}

// StripMarkup removes complete open/close pairs with their contents, then any
// stray close or open marker, repeating until nothing changes. Matching is
// case-insensitive.
func StripMarkup(text string, tags []string) string {
	pair, stray := markupPatterns(tags)
	for {
		next := pair.ReplaceAllString(text, "")
		next = stray.ReplaceAllString(next, "")
		if next == text {
			return next
		}
		text = next
	}
}

func markupPatterns(tags []string) (*regexp.Regexp, *regexp.Regexp) {
	quoted := make([]string, 0, len(tags))
	for _, tag := range normalizeTags(tags) {
		quoted = append(quoted, regexp.QuoteMeta(tag))
	}
	alt := strings.Join(quoted, "|")
	// Go regexp has no backreferences, so each tag gets its own pair branch.
	pairs := make([]string, 0, len(quoted))
	for _, q := range quoted {
		pairs = append(pairs, "<"+q+">[\\s\\S]*?</"+q+">")
	}
	pair := regexp.MustCompile("(?i)" + strings.Join(pairs, "|"))
	stray := regexp.MustCompile("(?i)</?(?:" + alt + ")>")
	return pair, stray
}

// deltaFilter strips each delta on its own. Markup split across deltas
// survives.
type deltaFilter struct {
	tags []string
}

// NewDeltaFilter returns a stateless per-delta filter.
func NewDeltaFilter(tags []string) TextFilter {
	return &deltaFilter{tags: normalizeTags(tags)}
}

func (f *deltaFilter) Write(delta string) string { return StripMarkup(delta, f.tags) }

func (f *deltaFilter) Flush() string { return "" }

// streamFilter carries region state and partially received markers across
// deltas, so a region opened in one delta and closed in a later one is
// removed entirely. A region still open when the stream ends is dropped.
type streamFilter struct {
	tags    []string
	markers []string
	maxLen  int

	inside string // tag of the open region, "" outside
	held   string // tail a later delta may still turn into a marker
	carry  string // visible text withheld when a region opened, joined with the text after it closes
}

// NewStreamFilter returns a filter that tracks markup across deltas.
func NewStreamFilter(tags []string) TextFilter {
	f := &streamFilter{tags: normalizeTags(tags)}
	for _, tag := range f.tags {
		f.markers = append(f.markers, "<"+tag+">", "</"+tag+">")
	}
	for _, m := range f.markers {
		f.maxLen = max(f.maxLen, len(m))
	}
	return f
}

func (f *streamFilter) Write(delta string) string {
	if f.inside != "" {
		s := f.held + delta
		f.held = ""
		closer := "</" + f.inside + ">"
		idx := indexFold(s, closer, 0)
		if idx < 0 {
			f.held = s[len(s)-prefixSuffixLen(s, []string{closer}):]
			return ""
		}
		s = f.carry + s[idx+len(closer):]
		f.carry = ""
		f.inside = ""
		return f.scan(s)
	}
	s := f.held + delta
	f.held = ""
	return f.scan(s)
}

func (f *streamFilter) Flush() string {
	var out string
	if f.inside != "" {
		out = f.carry
	} else {
		out = f.held
	}
	f.inside, f.held, f.carry = "", "", ""
	return out
}

// scan processes text in the outside state. Removing a marker can splice its
// neighbours into a new marker, so scanning resumes just before each removal.
func (f *streamFilter) scan(s string) string {
	pos := 0
	for {
		idx, tag, closing := f.nextMarker(s, pos)
		if idx < 0 {
			break
		}
		if closing {
			s = s[:idx] + s[idx+len(tag)+3:]
			pos = max(0, idx-f.maxLen+1)
			continue
		}

		opener := "<" + tag + ">"
		closer := "</" + tag + ">"
		end := indexFold(s, closer, idx+len(opener))
		if end >= 0 {
			s = s[:idx] + s[end+len(closer):]
			pos = max(0, idx-f.maxLen+1)
			continue
		}

		head, rest := s[:idx], s[idx+len(opener):]
		keep := f.liveTailLen(head)
		f.carry = head[len(head)-keep:]
		f.inside = tag
		f.held = rest[len(rest)-prefixSuffixLen(rest, []string{closer}):]
		return head[:len(head)-keep]
	}

	keep := f.liveTailLen(s)
	f.held = s[len(s)-keep:]
	return s[:len(s)-keep]
}

// liveTailLen returns the length of the longest suffix of s that splits into
// proper marker prefixes. Only such a suffix can still become part of a
// marker: a later delta may complete the last prefix, and each removal can
// then complete the prefix before it, as in "</thi</thi" + "</thinking>nking>nking>".
// s must already be free of complete markers.
func (f *streamFilter) liveTailLen(s string) int {
	n := len(s)
	ok := make([]bool, n+1)
	ok[n] = true
	start := n
	for i := n - 1; i >= 0 && start-i < f.maxLen; i-- {
		if s[i] != '<' {
			continue
		}
	markers:
		for _, m := range f.markers {
			for l := 1; l < len(m) && i+l <= n; l++ {
				if ok[i+l] && hasPrefixFold(m, s[i:i+l]) {
					ok[i] = true
					break markers
				}
			}
		}
		if ok[i] {
			start = i
		}
	}
	return n - start
}

// nextMarker finds the earliest complete marker at or after pos.
func (f *streamFilter) nextMarker(s string, pos int) (idx int, tag string, closing bool) {
	for i := pos; i < len(s); i++ {
		if s[i] != '<' {
			continue
		}
		for _, t := range f.tags {
			if hasPrefixFold(s[i:], "<"+t+">") {
				return i, t, false
			}
			if hasPrefixFold(s[i:], "</"+t+">") {
				return i, t, true
			}
		}
	}
	return -1, "", false
}

// prefixSuffixLen returns the length of the longest suffix of s that is a
// proper prefix of one of the markers.
func prefixSuffixLen(s string, markers []string) int {
	best := 0
	for _, m := range markers {
		limit := min(len(m)-1, len(s))
		for n := limit; n > best; n-- {
			if hasPrefixFold(m, s[len(s)-n:]) {
				best = n
				break
			}
		}
	}
	return best
}

func indexFold(s, substr string, from int) int {
	for i := from; i+len(substr) <= len(s); i++ {
		if hasPrefixFold(s[i:], substr) {
			return i
		}
	}
	return -1
}

// hasPrefixFold compares ASCII case-insensitively. Markers are ASCII, so
// non-ASCII bytes never match and byte offsets stay valid.
func hasPrefixFold(s, prefix string) bool {
	if len(s) < len(prefix) {
		return false
	}
	for i := 0; i < len(prefix); i++ {
		if lowerASCII(s[i]) != lowerASCII(prefix[i]) {
			return false
		}
	}
	return true
}

func lowerASCII(b byte) byte {
	if 'A' <= b && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			out = append(out, tag)
		}
	}
	if len(out) == 0 {
		return append(out, DefaultReasoningTags...)
	}
	return out
}
