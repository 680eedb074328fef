// Package normalize detects and repairs spurious operator names in network
// lists.
//
// Some networks broadcast a name that is either a copy of the SIM's service
// provider name or the bare MCC+MNC digits. Those entries are looked up in a
// provisioning database and, when a better name exists, renamed. The step is
// purely cosmetic: records are never dropped and status/MCC/MNC never change.
package normalize

import (
	"github.com/modem-control/mnr/internal/modem"
)

// MaxNameLength bounds an operator name field.
const MaxNameLength = 63

// Candidate is one provisioning entry for a PLMN.
type Candidate struct {
	Name string
}

// Lookup resolves a PLMN to provisioning candidates. A failed or empty
// lookup leaves the record unchanged.
type Lookup interface {
	LookupPLMN(mcc, mnc string) ([]Candidate, error)
}

// SIMInfo exposes the identity fields of the current SIM needed for the
// spurious-name classification.
type SIMInfo interface {
	ServiceProviderName() string
	HomeMCC() string
	HomeMNC() string
}

// Apply rewrites spurious names in place. Either collaborator may be nil, in
// which case the corresponding check or replacement is skipped.
func Apply(ops []modem.Operator, sim SIMInfo, db Lookup) {
	if db == nil {
		return
	}
	for i := range ops {
		if !spurious(&ops[i], sim) {
			continue
		}
		cands, err := db.LookupPLMN(ops[i].MCC, ops[i].MNC)
		if err != nil || len(cands) == 0 || cands[0].Name == "" {
			continue
		}
		ops[i].Name = truncate(cands[0].Name, MaxNameLength)
	}
}

// spurious classifies a non-current record as suspect when its name collides
// with the SIM's service provider name on a foreign PLMN, or when the name is
// just the record's own MCC+MNC digits.
func spurious(op *modem.Operator, sim SIMInfo) bool {
	if op.Status == modem.OperatorCurrent {
		return false
	}
	if sim != nil {
		spn := sim.ServiceProviderName()
		if spn != "" && op.Name == spn &&
			(op.MCC != sim.HomeMCC() || op.MNC != sim.HomeMNC()) {
			return true
		}
	}
	return op.Name != "" && op.Name == op.MCC+op.MNC
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
