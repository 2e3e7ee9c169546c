package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/stake-plus/chatledger/src/ledger"
	"gopkg.in/yaml.v3"
)

// feeFile mirrors the YAML fee schedule. Amounts are strings so that
// "0.10" never passes through a float.
type feeFile struct {
	Post    string `yaml:"post"`
	Reply   string `yaml:"reply"`
	Edit    string `yaml:"edit"`
	Delete  string `yaml:"delete"`
	Profile string `yaml:"profile"`
	Votes   struct {
		UpTreasury   string `yaml:"up_treasury"`
		UpOwner      string `yaml:"up_owner"`
		DownTreasury string `yaml:"down_treasury"`
		Target       string `yaml:"target"`
	} `yaml:"votes"`
}

// LoadFees reads a fee schedule from path. Omitted entries keep their
// defaults; an empty path returns the defaults.
func LoadFees(path string) (ledger.FeeSchedule, error) {
	fees := ledger.DefaultFees()
	if path == "" {
		return fees, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fees, fmt.Errorf("read fee file: %w", err)
	}
	return ParseFees(raw)
}

// ParseFees decodes a YAML fee schedule over the defaults.
func ParseFees(raw []byte) (ledger.FeeSchedule, error) {
	fees := ledger.DefaultFees()
	var f feeFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fees, fmt.Errorf("parse fee file: %w", err)
	}
	fields := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"post", f.Post, &fees.Post},
		{"reply", f.Reply, &fees.Reply},
		{"edit", f.Edit, &fees.Edit},
		{"delete", f.Delete, &fees.Delete},
		{"profile", f.Profile, &fees.Profile},
		{"votes.up_treasury", f.Votes.UpTreasury, &fees.UpVoteTreasuryRate},
		{"votes.up_owner", f.Votes.UpOwner, &fees.UpVoteOwnerRate},
		{"votes.down_treasury", f.Votes.DownTreasury, &fees.DownVoteTreasuryRate},
		{"votes.target", f.Votes.Target, &fees.TargetVoteRate},
	}
	for _, fld := range fields {
		if fld.raw == "" {
			continue
		}
		v, err := decimal.NewFromString(fld.raw)
		if err != nil {
			return fees, fmt.Errorf("fee %s: %w", fld.name, err)
		}
		*fld.dst = v
	}
	return fees, fees.Validate()
}
