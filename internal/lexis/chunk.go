package lexis

// Chunk is one scanned token: its rule, absolute site, character length and
// the substring it covers. Chunks of a unit cover its text contiguously.
type Chunk struct {
	Rule   TokenRule
	Site   Site
	Length Length
	Text   string
}

// End returns the site one past the chunk's last character.
func (c Chunk) End() Site {
	return c.Site + c.Length
}

// Span returns the chunk's character range.
func (c Chunk) Span() SiteSpan {
	return SiteSpan{Start: c.Site, End: c.End()}
}
