package ledger

import "time"

// ProtocolState is the single row holding protocol-wide sequence counters.
type ProtocolState struct {
	ID           uint8 `gorm:"primaryKey;autoIncrement:false"`
	AccountCount uint64
	PostCount    uint64
	SectionCount uint64
	PollCount    uint64
	VoteCount    uint64
}

const protocolStateID = 1

// ChatAccount is one profile per identity with its lifetime counters.
type ChatAccount struct {
	Owner         Identity `gorm:"primaryKey;size:64" json:"owner"`
	AccountID     uint64   `gorm:"uniqueIndex;not null" json:"id"`
	Name          string   `gorm:"size:144" json:"name"`
	UseCustomName bool     `json:"useCustomName"`
	PostSeq       uint64   `json:"postSeq"`
	VoteSeq       uint64   `json:"voteSeq"`

	PostCount   int64 `json:"postCount"`
	EditCount   int64 `json:"editCount"`
	DeleteCount int64 `json:"deleteCount"`

	CastUpVoteCount       int64 `json:"castUpVoteCount"`
	CastUpVoteScore       int64 `json:"castUpVoteScore"`
	CastDownVoteCount     int64 `json:"castDownVoteCount"`
	CastDownVoteScore     int64 `json:"castDownVoteScore"`
	ReceivedUpVoteCount   int64 `json:"receivedUpVoteCount"`
	ReceivedUpVoteScore   int64 `json:"receivedUpVoteScore"`
	ReceivedDownVoteCount int64 `json:"receivedDownVoteCount"`
	ReceivedDownVoteScore int64 `json:"receivedDownVoteScore"`

	StarCount int64 `json:"starCount"`
	FedCount  int64 `json:"fedCount"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DisplayName is the custom name when enabled, the identity otherwise.
func (a *ChatAccount) DisplayName() string {
	if a.UseCustomName && a.Name != "" {
		return a.Name
	}
	return string(a.Owner)
}

// Section is a named sub-forum shared by every domain. Its per-domain post
// counters live in the tallies table; video votes live here.
type Section struct {
	Prefix    string   `gorm:"primaryKey;size:32" json:"prefix"`
	Name      string   `gorm:"primaryKey;size:32" json:"name"`
	SectionID uint64   `gorm:"uniqueIndex;not null" json:"id"`
	Creator   Identity `gorm:"size:64" json:"creator"`
	Disabled  bool     `json:"disabled"`

	UpVoteCount   int64 `json:"upVoteCount"`
	UpVoteScore   int64 `json:"upVoteScore"`
	DownVoteCount int64 `json:"downVoteCount"`
	DownVoteScore int64 `json:"downVoteScore"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Key returns the section's two-part key.
func (s *Section) Key() SectionKey {
	return SectionKey{Prefix: s.Prefix, Name: s.Name}
}

// Post is a node of the reply tree. ID is the 1-based protocol post number;
// the composite address columns are unique.
type Post struct {
	ID            uint64   `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Domain        Domain   `gorm:"size:16;uniqueIndex:ux_post_address,priority:1" json:"domain"`
	SectionPrefix string   `gorm:"size:32;uniqueIndex:ux_post_address,priority:2" json:"sectionPrefix"`
	SectionName   string   `gorm:"size:32;uniqueIndex:ux_post_address,priority:3" json:"sectionName"`
	Depth         Depth    `gorm:"uniqueIndex:ux_post_address,priority:4" json:"depth"`
	Owner         Identity `gorm:"size:64;uniqueIndex:ux_post_address,priority:5;index" json:"owner"`
	Seq           uint64   `gorm:"uniqueIndex:ux_post_address,priority:6" json:"seq"`

	ParentID    uint64   `gorm:"index" json:"parentId,omitempty"`
	ParentOwner Identity `gorm:"size:64" json:"parentOwner,omitempty"`
	ParentSeq   uint64   `json:"parentSeq,omitempty"`

	Message    string `gorm:"size:444" json:"message"`
	VoteScore  int64  `json:"voteScore"`
	ReplyCount uint64 `json:"replyCount"`
	EditCount  int64  `json:"editCount"`

	Edited  bool `json:"edited"`
	Deleted bool `json:"deleted"`
	Starred bool `json:"starred"`
	Fed     bool `json:"fed"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Address returns the post's composite address.
func (p *Post) Address() Address {
	return Address{
		Domain:  p.Domain,
		Section: SectionKey{Prefix: p.SectionPrefix, Name: p.SectionName},
		Depth:   p.Depth,
		Owner:   p.Owner,
		Seq:     p.Seq,
	}
}

// ParentAddress returns the parent's address, or false for a depth-1 comment.
func (p *Post) ParentAddress() (Address, bool) {
	if p.Depth <= DepthComment {
		return Address{}, false
	}
	return Address{
		Domain:  p.Domain,
		Section: SectionKey{Prefix: p.SectionPrefix, Name: p.SectionName},
		Depth:   p.Depth - 1,
		Owner:   p.ParentOwner,
		Seq:     p.ParentSeq,
	}, true
}

// Vote target kinds.
const (
	TargetPost       = "post"
	TargetSection    = "section"
	TargetPollOption = "poll_option"
)

// VoteRecord is the immutable audit entry for one cast vote, keyed by the
// voter's vote sequence number at cast time.
type VoteRecord struct {
	Voter       Identity  `gorm:"primaryKey;size:64" json:"voter"`
	TargetOwner Identity  `gorm:"primaryKey;size:64" json:"targetOwner"`
	VoterSeq    uint64    `gorm:"primaryKey;autoIncrement:false" json:"voterSeq"`
	TargetKind  string    `gorm:"size:16;index:ix_vote_target,priority:1" json:"targetKind"`
	TargetRef   string    `gorm:"size:255;index:ix_vote_target,priority:2" json:"targetRef"`
	Weight      int64     `json:"weight"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Idea is the snapshot created when a post is starred.
type Idea struct {
	PostID        uint64     `gorm:"primaryKey;autoIncrement:false" json:"postId"`
	Domain        Domain     `gorm:"size:16" json:"domain"`
	SectionPrefix string     `gorm:"size:32" json:"sectionPrefix"`
	SectionName   string     `gorm:"size:32" json:"sectionName"`
	Depth         Depth      `json:"depth"`
	Owner         Identity   `gorm:"size:64;index" json:"owner"`
	Seq           uint64     `json:"seq"`
	Text          string     `gorm:"size:444" json:"text"`
	Implemented   bool       `gorm:"index" json:"implemented"`
	ImplementedAt *time.Time `json:"implementedAt,omitempty"`
	Updated       bool       `json:"updated"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// FlagRecord is the snapshot created when a post is fed-marked.
type FlagRecord struct {
	PostID        uint64    `gorm:"primaryKey;autoIncrement:false" json:"postId"`
	Domain        Domain    `gorm:"size:16" json:"domain"`
	SectionPrefix string    `gorm:"size:32" json:"sectionPrefix"`
	SectionName   string    `gorm:"size:32" json:"sectionName"`
	Depth         Depth     `json:"depth"`
	Owner         Identity  `gorm:"size:64;index" json:"owner"`
	Seq           uint64    `json:"seq"`
	Text          string    `gorm:"size:444" json:"text"`
	WasEdited     bool      `json:"wasEdited"`
	CreatedAt     time.Time `json:"createdAt"`
}

// FeeToken is a registered fee mint.
type FeeToken struct {
	Mint      string    `gorm:"primaryKey;size:64" json:"mint"`
	Decimals  uint8     `json:"decimals"`
	AddedBy   Identity  `gorm:"size:64" json:"addedBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// TokenBalance holds an owner's balance of one mint in base units.
type TokenBalance struct {
	Mint      string    `gorm:"primaryKey;size:64" json:"mint"`
	Owner     Identity  `gorm:"primaryKey;size:64" json:"owner"`
	Amount    uint64    `json:"amount"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Poll is a single-level vote target group managed by the moderator.
type Poll struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name        string    `gorm:"size:144" json:"name"`
	Active      bool      `json:"active"`
	OptionCount int       `json:"optionCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PollOption is one votable choice of a poll. OptionIndex is 1-based.
type PollOption struct {
	PollID        uint64    `gorm:"primaryKey;autoIncrement:false" json:"pollId"`
	OptionIndex   int       `gorm:"primaryKey;autoIncrement:false" json:"index"`
	Name          string    `gorm:"size:144" json:"name"`
	Active        bool      `json:"active"`
	UpVoteCount   int64     `json:"upVoteCount"`
	UpVoteScore   int64     `json:"upVoteScore"`
	DownVoteCount int64     `json:"downVoteCount"`
	DownVoteScore int64     `json:"downVoteScore"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// tallyRow persists one Tally under its scope key.
type tallyRow struct {
	Scope    Scope  `gorm:"primaryKey;size:16"`
	ScopeKey string `gorm:"primaryKey;size:80"`
	Domain   Domain `gorm:"primaryKey;size:16"`
	Depth    Depth  `gorm:"primaryKey;autoIncrement:false"`
	Tally    `gorm:"embedded"`
}

func (tallyRow) TableName() string { return "tallies" }

// Models lists every table the ledger owns, in migration order.
func Models() []any {
	return []any{
		&ProtocolState{},
		&ChatAccount{},
		&Section{},
		&Post{},
		&VoteRecord{},
		&Idea{},
		&FlagRecord{},
		&FeeToken{},
		&TokenBalance{},
		&Poll{},
		&PollOption{},
		&tallyRow{},
	}
}
