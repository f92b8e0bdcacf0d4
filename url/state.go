package url

import "strconv"

// State is a state of the URL parser. A non-zero State passed to [ParseInto]
// is a state override: parsing starts in that state and only updates the part
// of the record the state is responsible for.
type State uint8

const (
	NoOverride State = iota
	StateSchemeStart
	StateScheme
	StateNoScheme
	StateSpecialRelativeOrAuthority
	StatePathOrAuthority
	StateRelative
	StateRelativeSlash
	StateSpecialAuthoritySlashes
	StateSpecialAuthorityIgnoreSlashes
	StateAuthority
	StateHost
	StateHostname
	StatePort
	StateFile
	StateFileSlash
	StateFileHost
	StatePathStart
	StatePath
	StateCannotBeABaseURLPath
	StateQuery
	StateFragment
)

var stateNames = [...]string{
	NoOverride:                         "no override",
	StateSchemeStart:                   "scheme start",
	StateScheme:                        "scheme",
	StateNoScheme:                      "no scheme",
	StateSpecialRelativeOrAuthority:    "special relative or authority",
	StatePathOrAuthority:               "path or authority",
	StateRelative:                      "relative",
	StateRelativeSlash:                 "relative slash",
	StateSpecialAuthoritySlashes:       "special authority slashes",
	StateSpecialAuthorityIgnoreSlashes: "special authority ignore slashes",
	StateAuthority:                     "authority",
	StateHost:                          "host",
	StateHostname:                      "hostname",
	StatePort:                          "port",
	StateFile:                          "file",
	StateFileSlash:                     "file slash",
	StateFileHost:                      "file host",
	StatePathStart:                     "path start",
	StatePath:                          "path",
	StateCannotBeABaseURLPath:          "cannot-be-a-base-URL path",
	StateQuery:                         "query",
	StateFragment:                      "fragment",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "State(" + strconv.Itoa(int(s)) + ")"
}
