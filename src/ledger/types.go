package ledger

import (
	"fmt"
	"strings"
)

// Identity is an opaque public key. The API layer hands it over in SS58 form.
type Identity string

// Domain is one of the parallel discussion contexts.
type Domain string

const (
	DomainMain     Domain = "main"
	DomainAbout    Domain = "about"
	DomainListings Domain = "listings"
	DomainPLI      Domain = "pli"
)

// Domains lists every discussion context in a stable order.
var Domains = []Domain{DomainMain, DomainAbout, DomainListings, DomainPLI}

// ParseDomain validates a domain name (case-insensitive).
func ParseDomain(s string) (Domain, error) {
	d := Domain(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Domains {
		if d == known {
			return d, nil
		}
	}
	return "", invalid(CodeUnknownDomain, "unknown domain %q", s)
}

// Depth is the level of a post in the reply tree, 1 (comment) through MaxDepth.
type Depth uint8

const (
	DepthComment Depth = iota + 1
	DepthReply
	DepthLv3Reply
	DepthLv4Reply
	DepthLv4PlusReply

	MaxDepth = DepthLv4PlusReply
)

var depthNames = map[Depth]string{
	DepthComment:      "comment",
	DepthReply:        "reply",
	DepthLv3Reply:     "lv3-reply",
	DepthLv4Reply:     "lv4-reply",
	DepthLv4PlusReply: "lv4plus-reply",
}

func (d Depth) String() string {
	if name, ok := depthNames[d]; ok {
		return name
	}
	return fmt.Sprintf("depth(%d)", uint8(d))
}

// Valid reports whether d is one of the five tree levels.
func (d Depth) Valid() bool {
	return d >= DepthComment && d <= MaxDepth
}

// Field limits, in bytes.
const (
	MaxMessageLen       = 444
	MaxUsernameLen      = 144
	MaxSectionPrefixLen = 32
	MaxSectionNameLen   = 32
	MaxPollNameLen      = 144
	MaxPollOptions      = 255
)

// Roles carries the two privileged identities. It is configuration, passed to New.
type Roles struct {
	Moderator Identity
	Treasurer Identity
}

// SectionKey is the two-part human key of a section.
type SectionKey struct {
	Prefix string `json:"prefix"`
	Name   string `json:"name"`
}

func (k SectionKey) String() string {
	return k.Prefix + "/" + k.Name
}

func (k SectionKey) validate() error {
	if k.Prefix == "" || k.Name == "" {
		return invalid(CodeBadSectionKey, "section prefix and name are required")
	}
	if strings.Contains(k.Prefix, "/") || strings.Contains(k.Name, "/") {
		return invalid(CodeBadSectionKey, "section key %q may not contain '/'", k.String())
	}
	if err := checkLen("section prefix", k.Prefix, MaxSectionPrefixLen); err != nil {
		return err
	}
	return checkLen("section name", k.Name, MaxSectionNameLen)
}

// Tally is one counter set. The same shape is kept per scope, per domain and per depth.
type Tally struct {
	Posts         int64 `json:"posts"`
	Edits         int64 `json:"edits"`
	Deletes       int64 `json:"deletes"`
	Stars         int64 `json:"stars"`
	Flags         int64 `json:"flags"`
	UpVoteCount   int64 `json:"upVoteCount"`
	UpVoteScore   int64 `json:"upVoteScore"`
	DownVoteCount int64 `json:"downVoteCount"`
	DownVoteScore int64 `json:"downVoteScore"`
}

// Add sums two tallies field by field.
func (t Tally) Add(o Tally) Tally {
	return Tally{
		Posts:         t.Posts + o.Posts,
		Edits:         t.Edits + o.Edits,
		Deletes:       t.Deletes + o.Deletes,
		Stars:         t.Stars + o.Stars,
		Flags:         t.Flags + o.Flags,
		UpVoteCount:   t.UpVoteCount + o.UpVoteCount,
		UpVoteScore:   t.UpVoteScore + o.UpVoteScore,
		DownVoteCount: t.DownVoteCount + o.DownVoteCount,
		DownVoteScore: t.DownVoteScore + o.DownVoteScore,
	}
}

// Scope names a counter aggregation level.
type Scope string

const (
	ScopeProtocol Scope = "protocol"
	ScopeDomain   Scope = "domain"
	ScopeSection  Scope = "section"
)

// TallyRef selects one counter set. Depth 0 is the all-levels total; an empty
// Domain on a section scope aggregates every domain.
type TallyRef struct {
	Scope  Scope
	Key    string
	Domain Domain
	Depth  Depth
}
