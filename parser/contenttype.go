package parser

import (
	"strings"

	"github.com/badu/meander/herr"
)

// parsedContentType is the result of parsing a Content-Type header per
// spec §4.2's lenient grammar: "type / subtype [ ; attribute = value ]",
// tolerating whitespace at every boundary.
type parsedContentType struct {
	MediaType string // "type/subtype", lower-cased
	Charset   string
}

// parseContentType implements the grammar deliberately, rather than
// delegating to stdlib mime.ParseMediaType, which rejects forms this
// framework is required to tolerate (and accepts some this framework
// must reject, like an empty value). Grounded on the lenient-parsing
// intent documented in badu-http/mime/utils.go's wrapper over the
// stdlib media-type grammar.
func parseContentType(raw string) (parsedContentType, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return parsedContentType{}, herr.BadRequest("invalid content-type header")
	}

	parts := strings.Split(s, ";")
	mediaType := strings.TrimSpace(parts[0])
	slash := strings.IndexByte(mediaType, '/')
	if slash <= 0 || slash == len(mediaType)-1 {
		return parsedContentType{}, herr.BadRequest("invalid content-type header")
	}
	typ := strings.TrimSpace(mediaType[:slash])
	subtype := strings.TrimSpace(mediaType[slash+1:])
	if !isToken(typ) || !isToken(subtype) {
		return parsedContentType{}, herr.BadRequest("invalid content-type header")
	}

	result := parsedContentType{MediaType: strings.ToLower(typ + "/" + subtype)}

	for _, attr := range parts[1:] {
		attr = strings.TrimSpace(attr)
		if attr == "" {
			continue
		}
		eq := strings.IndexByte(attr, '=')
		if eq <= 0 {
			return parsedContentType{}, herr.BadRequest("invalid content-type header")
		}
		name := strings.ToLower(strings.TrimSpace(attr[:eq]))
		value := strings.TrimSpace(attr[eq+1:])
		value = strings.Trim(value, `"`)
		if name == "charset" {
			result.Charset = value
		}
	}
	return result, nil
}

func isToken(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		b := s[i]
		switch {
		case b >= '0' && b <= '9', b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z':
			continue
		case strings.IndexByte("!#$%&'*+-.^_`|~", b) >= 0:
			continue
		default:
			return false
		}
	}
	return true
}
