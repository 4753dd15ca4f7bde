package datasource

import "strings"

// KeywordMode is how the service interprets an ingest keyword.
type KeywordMode string

const (
	// KeywordHashtag scrapes posts tagged with the keyword.
	KeywordHashtag KeywordMode = "hashtag"
	// KeywordProfile scrapes the posts of one account ("@name").
	KeywordProfile KeywordMode = "profile"
)

// Keyword is a validated ingest keyword. Text is sent to the service as
// typed (trimmed); the service strips the leading marker itself.
type Keyword struct {
	Text string
	Mode KeywordMode
	// Term is Text without its leading '@' or '#'.
	Term string
}

// ParseKeyword trims and classifies an ingest keyword.
func ParseKeyword(s string) (Keyword, error) {
	s = strings.TrimSpace(s)
	term := strings.TrimSpace(strings.TrimLeft(s, "@#"))
	if term == "" {
		return Keyword{}, ErrEmptyKeyword
	}
	kw := Keyword{Text: s, Mode: KeywordHashtag, Term: term}
	if strings.HasPrefix(s, "@") {
		kw.Mode = KeywordProfile
	}
	return kw, nil
}
