// Package sharecode converts a team-set grid to and from the compact text code
// players paste into chat: "name:id1xid2x...", optionally fenced as
// ```sharecode ... ```.
package sharecode

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/dom/squad-roster/internal/domain"
)

const (
	idSep   = "x"
	nameSep = ":"
	fence   = "```"
	tag     = "sharecode"
)

// Code is a decoded share code.
type Code struct {
	Name   string
	Squads [domain.SquadsPerSet][domain.SlotsPerSquad]string
}

var nameEscaper = strings.NewReplacer(":", "-colon-", "x", "-x-")
var nameUnescaper = strings.NewReplacer("-colon-", ":", "-x-", "x")

// Encode returns the bare code. Slots are listed row-major with empty slots as
// empty entries; trailing empty entries are dropped.
func Encode(name string, squads [domain.SquadsPerSet][domain.SlotsPerSquad]string) string {
	ids := make([]string, 0, domain.SquadsPerSet*domain.SlotsPerSquad)
	for _, row := range squads {
		ids = append(ids, row[:]...)
	}
	for len(ids) > 0 && ids[len(ids)-1] == "" {
		ids = ids[:len(ids)-1]
	}

	var b strings.Builder
	if name != "" {
		b.WriteString(nameEscaper.Replace(name))
		b.WriteString(nameSep)
	}
	b.WriteString(strings.Join(ids, idSep))
	return b.String()
}

// Fenced wraps a code for pasting into chat.
func Fenced(code string) string {
	return fence + tag + "\n" + code + "\n" + fence
}

// Decode parses a bare, fenced or URL-embedded code. Entries beyond the grid
// are dropped and missing entries are empty.
func Decode(input string) (Code, error) {
	code := strings.TrimSpace(input)
	if strings.HasPrefix(code, fence) && strings.HasSuffix(code, fence) && len(code) >= 2*len(fence) {
		code = strings.TrimSpace(code[len(fence) : len(code)-len(fence)])
		if strings.HasPrefix(strings.ToLower(code), tag) {
			code = strings.TrimSpace(code[len(tag):])
		}
	}
	code = fromURL(code)
	if code == "" {
		return Code{}, fmt.Errorf("%w: empty code", domain.ErrInvalidShareCode)
	}

	var out Code
	body := code
	if name, rest, ok := strings.Cut(code, nameSep); ok {
		out.Name = strings.TrimSpace(nameUnescaper.Replace(name))
		body = rest
	}
	if strings.ContainsAny(body, " \t\n:") {
		return Code{}, fmt.Errorf("%w: unexpected characters in %q", domain.ErrInvalidShareCode, body)
	}

	ids := strings.Split(body, idSep)
	occupied := 0
	for i, id := range ids {
		if i >= domain.SquadsPerSet*domain.SlotsPerSquad {
			break
		}
		out.Squads[i/domain.SlotsPerSquad][i%domain.SlotsPerSquad] = id
		if id != "" {
			occupied++
		}
	}
	if occupied == 0 {
		return Code{}, fmt.Errorf("%w: no characters", domain.ErrInvalidShareCode)
	}
	return out, nil
}

// fromURL extracts the code from a link carrying it in t, ts or teamset.
func fromURL(code string) string {
	_, query, ok := strings.Cut(code, "?")
	if !ok {
		return code
	}
	values, err := url.ParseQuery(query)
	if err != nil {
		return code
	}
	for _, key := range []string{"t", "ts", "teamset"} {
		if v := values.Get(key); v != "" {
			return strings.TrimSpace(v)
		}
	}
	return code
}
