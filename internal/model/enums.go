// internal/model/enums.go
package model

// BlockReason is the closed set of moderation reasons. Stored as a validated
// string; setting any reason derives the blocked timestamp on write.
type BlockReason string

const (
	BlockReasonSpam          BlockReason = "SPAM"
	BlockReasonInappropriate BlockReason = "INAPPROPRIATE"
)

func (b BlockReason) Valid() bool {
	return b == BlockReasonSpam || b == BlockReasonInappropriate
}

// License is an SPDX short identifier. The set is closed: payloads carrying
// an identifier outside it fail enum validation on write.
type License string

var knownLicenses = map[License]struct{}{
	"MIT": {}, "Apache-2.0": {}, "GPL-2.0": {}, "GPL-3.0": {},
	"LGPL-2.1": {}, "LGPL-3.0": {}, "AGPL-3.0": {}, "MPL-2.0": {},
	"BSD-2-Clause": {}, "BSD-3-Clause": {}, "ISC": {}, "Unlicense": {},
	"EPL-2.0": {}, "CC0-1.0": {}, "Zlib": {}, "0BSD": {}, "NOASSERTION": {},
}

func (l License) Valid() bool {
	_, ok := knownLicenses[l]
	return ok
}

// Language is a GitHub linguist primary-language name.
type Language string

var knownLanguages = map[Language]struct{}{
	"Go": {}, "C": {}, "C++": {}, "C#": {}, "Java": {}, "JavaScript": {},
	"TypeScript": {}, "PHP": {}, "Python": {}, "Ruby": {}, "Rust": {},
	"Swift": {}, "Kotlin": {}, "Scala": {}, "Shell": {}, "HTML": {},
	"CSS": {}, "Dart": {}, "Elixir": {}, "Erlang": {}, "Haskell": {},
	"Lua": {}, "Objective-C": {}, "Perl": {}, "R": {}, "Vue": {},
	"Clojure": {}, "Dockerfile": {}, "Makefile": {}, "Vim Script": {},
}

func (l Language) Valid() bool {
	_, ok := knownLanguages[l]
	return ok
}
