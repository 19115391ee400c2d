package parse

type parseOpts struct {
	lastKeyWins bool
}

// ParseOption adjusts document loading.
type ParseOption func(*parseOpts)

// LastKeyWins makes a repeated mapping key replace the earlier entry
// instead of failing the parse.
func LastKeyWins() ParseOption {
	return func(o *parseOpts) { o.lastKeyWins = true }
}
