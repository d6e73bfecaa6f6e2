// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"
	"strconv"
	"strings"
)

// PageRange selects pages by zero-based index. Start is inclusive, End is
// exclusive, and End == 0 means through the last page. The zero value
// selects the whole document.
type PageRange struct {
	Start int
	End   int
}

// AllPages selects every page of the document.
var AllPages = PageRange{}

// IsAll reports whether r selects the whole document.
func (r PageRange) IsAll() bool {
	return r.Start == 0 && r.End == 0
}

// Validate rejects negative starts and ends that do not come after the start.
func (r PageRange) Validate() error {
	if r.Start < 0 {
		return fmt.Errorf("%w: page range start %d is negative", ErrUsage, r.Start)
	}
	if r.End != 0 && r.End <= r.Start {
		return fmt.Errorf("%w: page range end %d is not after start %d", ErrUsage, r.End, r.Start)
	}
	return nil
}

// Clamp resolves r against a document of n pages and returns the concrete
// [start, end) bounds. It fails when the range starts past the last page.
func (r PageRange) Clamp(n int) (start, end int, err error) {
	if r.Start >= n {
		return 0, 0, fmt.Errorf("page range starts at page %d but the document has %d page(s)", r.Start+1, n)
	}
	end = r.End
	if end == 0 || end > n {
		end = n
	}
	return r.Start, end, nil
}

// String renders r with 1-based inclusive page numbers, the form accepted by
// ParsePageRange.
func (r PageRange) String() string {
	switch {
	case r.IsAll():
		return "all pages"
	case r.End == 0:
		return fmt.Sprintf("pages %d-", r.Start+1)
	case r.End == r.Start+1:
		return fmt.Sprintf("page %d", r.Start+1)
	default:
		return fmt.Sprintf("pages %d-%d", r.Start+1, r.End)
	}
}

// ParsePageRange parses 1-based inclusive page selections: "3" (one page),
// "2-5" (pages two through five) and "4-" (page four to the end). An empty
// string selects every page.
func ParsePageRange(s string) (PageRange, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return AllPages, nil
	}

	first, last, isRange := strings.Cut(s, "-")
	start, err := parsePage(first)
	if err != nil {
		return PageRange{}, fmt.Errorf("%w: invalid page range %q: %v", ErrUsage, s, err)
	}

	r := PageRange{Start: start - 1, End: start}
	if isRange {
		r.End = 0
		if strings.TrimSpace(last) != "" {
			end, err := parsePage(last)
			if err != nil {
				return PageRange{}, fmt.Errorf("%w: invalid page range %q: %v", ErrUsage, s, err)
			}
			if end < start {
				return PageRange{}, fmt.Errorf("%w: invalid page range %q: end before start", ErrUsage, s)
			}
			r.End = end
		}
	}
	return r, nil
}

func parsePage(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%q is not a page number", s)
	}
	if n < 1 {
		return 0, fmt.Errorf("page numbers start at 1, got %d", n)
	}
	return n, nil
}
