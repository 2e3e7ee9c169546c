package ledger

import (
	"strconv"
	"strings"
)

// Address is the deterministic composite key of a post. It is assigned once
// at creation from the owner's post sequence number and never reused.
type Address struct {
	Domain  Domain     `json:"domain"`
	Section SectionKey `json:"section"`
	Depth   Depth      `json:"depth"`
	Owner   Identity   `json:"owner"`
	Seq     uint64     `json:"seq"`
}

const addressSep = "/"

// String renders domain/prefix/name/depth/owner/seq.
func (a Address) String() string {
	return strings.Join([]string{
		string(a.Domain),
		a.Section.Prefix,
		a.Section.Name,
		strconv.Itoa(int(a.Depth)),
		string(a.Owner),
		strconv.FormatUint(a.Seq, 10),
	}, addressSep)
}

// ParseAddress is the inverse of Address.String.
func ParseAddress(s string) (Address, error) {
	parts := strings.Split(s, addressSep)
	if len(parts) != 6 {
		return Address{}, invalid(CodeBadDepth, "malformed post address %q", s)
	}
	domain, err := ParseDomain(parts[0])
	if err != nil {
		return Address{}, err
	}
	depth, err := strconv.ParseUint(parts[3], 10, 8)
	if err != nil || !Depth(depth).Valid() {
		return Address{}, invalid(CodeBadDepth, "bad depth %q", parts[3])
	}
	seq, err := strconv.ParseUint(parts[5], 10, 64)
	if err != nil {
		return Address{}, invalid(CodeBadDepth, "bad sequence %q", parts[5])
	}
	a := Address{
		Domain:  domain,
		Section: SectionKey{Prefix: parts[1], Name: parts[2]},
		Depth:   Depth(depth),
		Owner:   Identity(parts[4]),
		Seq:     seq,
	}
	return a, a.validate()
}

func (a Address) validate() error {
	if _, err := ParseDomain(string(a.Domain)); err != nil {
		return err
	}
	if !a.Depth.Valid() {
		return invalid(CodeBadDepth, "depth %d out of range", a.Depth)
	}
	if a.Owner == "" {
		return invalid(CodeBadDepth, "post owner is required")
	}
	return a.Section.validate()
}

// where returns the unique-index lookup for the address.
func (a Address) where() (string, []any) {
	return "domain = ? AND section_prefix = ? AND section_name = ? AND depth = ? AND owner = ? AND seq = ?",
		[]any{a.Domain, a.Section.Prefix, a.Section.Name, a.Depth, a.Owner, a.Seq}
}
