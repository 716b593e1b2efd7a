// Package symbol maps ticker text as typed into the record store to the
// symbol format the price source expects.
package symbol

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// hkPattern matches Hong Kong codes whose numeric body can be re-rendered
// as the four digit form the price source uses. Longer bodies pass through.
var hkPattern = regexp.MustCompile(`^(\d{1,5})\.HK$`)

// suffixMap rewrites exchange suffixes that differ between the record
// store convention and the price source. Suffixes not listed are kept.
var suffixMap = map[string]string{
	".SH": ".SS",
	".SZ": ".SZ",
}

// Normalize returns the canonical price-source symbol for a raw ticker.
// Rules:
//   - trim and uppercase
//   - NNNNN.HK / NNN.HK -> NNNN.HK (zero padded to four digits)
//   - .SH -> .SS (Shanghai)
//   - .SZ unchanged (Shenzhen)
//   - anything else unchanged
//
// Normalize never fails; unknown shapes are returned uppercased.
func Normalize(raw string) string {
	t := strings.ToUpper(strings.TrimSpace(raw))
	if t == "" {
		return ""
	}
	if strings.HasSuffix(t, ".HK") {
		return normalizeHK(t)
	}
	for from, to := range suffixMap {
		if strings.HasSuffix(t, from) {
			return strings.TrimSuffix(t, from) + to
		}
	}
	return t
}

func normalizeHK(t string) string {
	m := hkPattern.FindStringSubmatch(t)
	if m == nil {
		return t
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return t
	}
	return fmt.Sprintf("%04d.HK", n)
}

// Canonicalize normalizes every raw ticker and returns the raw -> canonical
// map together with the deduplicated canonical symbols in sorted order.
// Empty tickers are ignored.
func Canonicalize(raws []string) (map[string]string, []string) {
	bySymbol := make(map[string]string, len(raws))
	seen := make(map[string]struct{}, len(raws))
	sorted := make([]string, 0, len(raws))
	for _, raw := range raws {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		c := Normalize(raw)
		bySymbol[raw] = c
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		sorted = append(sorted, c)
	}
	sort.Strings(sorted)
	return bySymbol, sorted
}
