/*package format handles labframe's sequence format, a compact way of writing
non-contiguous sets of natural numbers in config files and log messages. A
sequence is a series of terms separated by "+" or "-". Each term is either a
number or two numbers separated by "..", which includes both ends:

  100
  0..100
  0..10 + 100
  0..100 - 63 - 10..20

Every "+" term is added to the set first and every "-" term is removed
afterwards, so the order of terms doesn't matter. A leading "+" may be
dropped. Adding a number twice or removing a number which isn't in the set is
an error, since it's almost always a typo. Spaces are ignored.
*/
package format

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	// Any sequences which would have more than BigNumber elements are
	// assumed to be bugs.
	BigNumber = 1 << 20
)

// term is a single "+lo..hi" or "-lo..hi" element of a sequence.
type term struct {
	add    bool
	lo, hi int
}

// ExpandSequence expands a sequence format string into a sorted list of
// integers.
func ExpandSequence(format string) ([]int, error) {
	terms, err := parseSequence(format)
	if err != nil {
		return nil, err
	}

	n := 0
	for _, t := range terms {
		if t.add {
			n += t.hi - t.lo + 1
		}
	}
	if n > BigNumber {
		return nil, fmt.Errorf("The sequence '%s' would have %d elements, "+
			"which is almost certainly a bug.", format, n)
	}

	set := map[int]bool{}
	for _, t := range terms {
		if !t.add {
			continue
		}
		for i := t.lo; i <= t.hi; i++ {
			if set[i] {
				return nil, fmt.Errorf("The number %d is added to the "+
					"sequence '%s' more than once.", i, format)
			}
			set[i] = true
		}
	}
	for _, t := range terms {
		if t.add {
			continue
		}
		for i := t.lo; i <= t.hi; i++ {
			if !set[i] {
				return nil, fmt.Errorf("The number %d is removed from the "+
					"sequence '%s' more times than it was added.", i, format)
			}
			delete(set, i)
		}
	}

	out := make([]int, 0, len(set))
	for i := range set {
		out = append(out, i)
	}
	sort.Ints(out)
	return out, nil
}

// parseSequence splits a sequence into terms.
func parseSequence(format string) ([]term, error) {
	s := strings.ReplaceAll(format, "+", " + ")
	s = strings.ReplaceAll(s, "-", " - ")
	tok := strings.Fields(s)
	if len(tok) == 0 {
		return nil, fmt.Errorf("The sequence '%s' is empty.", format)
	}
	if tok[0] != "+" && tok[0] != "-" {
		tok = append([]string{"+"}, tok...)
	}

	terms := []term{}
	for i := 0; i < len(tok); i += 2 {
		if tok[i] != "+" && tok[i] != "-" {
			return nil, fmt.Errorf("Element %d of the sequence '%s', '%s', "+
				"should be a '+' or a '-'.", i+1, format, tok[i])
		} else if i+1 >= len(tok) {
			return nil, fmt.Errorf("The sequence '%s' ends in a trailing "+
				"'%s'.", format, tok[i])
		}

		lo, hi, err := parseTerm(tok[i+1])
		if err != nil {
			return nil, fmt.Errorf("Element %d of the sequence '%s', '%s', "+
				"cannot be parsed because %s", i+2, format, tok[i+1],
				err.Error())
		}
		terms = append(terms, term{tok[i] == "+", lo, hi})
	}
	return terms, nil
}

// parseTerm parses "n" or "lo..hi". The error message is written to follow
// "because".
func parseTerm(tok string) (lo, hi int, err error) {
	bounds := strings.Split(tok, "..")
	if len(bounds) > 2 {
		return 0, 0, fmt.Errorf("it has more than one '..'.")
	}

	for i, b := range bounds {
		n, err := strconv.Atoi(b)
		if err != nil {
			return 0, 0, fmt.Errorf("'%s' is not an integer.", b)
		}
		if i == 0 {
			lo, hi = n, n
		} else {
			hi = n
		}
	}

	if hi < lo {
		return 0, 0, fmt.Errorf("lower bound %d is larger than upper "+
			"bound %d.", lo, hi)
	}
	return lo, hi, nil
}

// FormatSequence writes a list of distinct integers as the shortest sequence
// of "+" terms, e.g. [0 1 2 3 7 9 10] becomes "0..3 + 7 + 9..10". An empty
// list gives an empty string.
func FormatSequence(x []int) string {
	x = append([]int{}, x...)
	sort.Ints(x)

	terms := []string{}
	for i := 0; i < len(x); {
		j := i
		for j+1 < len(x) && x[j+1] == x[j]+1 {
			j++
		}
		if j == i {
			terms = append(terms, strconv.Itoa(x[i]))
		} else {
			terms = append(terms, fmt.Sprintf("%d..%d", x[i], x[j]))
		}
		i = j + 1
	}
	return strings.Join(terms, " + ")
}
