package normalize

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/modem-control/mnr/internal/modem"
)

type fakeSIM struct {
	spn string
	mcc string
	mnc string
}

func (s *fakeSIM) ServiceProviderName() string { return s.spn }
func (s *fakeSIM) HomeMCC() string             { return s.mcc }
func (s *fakeSIM) HomeMNC() string             { return s.mnc }

type fakeLookup struct {
	entries map[string][]Candidate
	err     error
	queries []string
}

func (l *fakeLookup) LookupPLMN(mcc, mnc string) ([]Candidate, error) {
	l.queries = append(l.queries, mcc+mnc)
	if l.err != nil {
		return nil, l.err
	}
	return l.entries[mcc+mnc], nil
}

func TestNumericNameReplaced(t *testing.T) {
	db := &fakeLookup{entries: map[string][]Candidate{
		"310410": {{Name: "AT&T"}},
	}}
	ops := []modem.Operator{
		{Name: "310410", MCC: "310", MNC: "410", Status: modem.OperatorAvailable},
	}

	Apply(ops, nil, db)

	assert.Equal(t, "AT&T", ops[0].Name)
	assert.Equal(t, "310", ops[0].MCC)
	assert.Equal(t, "410", ops[0].MNC)
	assert.Equal(t, modem.OperatorAvailable, ops[0].Status)
}

func TestSPNCollisionOnForeignPLMN(t *testing.T) {
	sim := &fakeSIM{spn: "HomeCarrier", mcc: "234", mnc: "15"}
	db := &fakeLookup{entries: map[string][]Candidate{
		"23426": {{Name: "OtherCarrier"}},
	}}
	ops := []modem.Operator{
		// Same name as the SIM SPN but a different PLMN: spurious.
		{Name: "HomeCarrier", MCC: "234", MNC: "26", Status: modem.OperatorAvailable},
		// SPN on the home PLMN: legitimate.
		{Name: "HomeCarrier", MCC: "234", MNC: "15", Status: modem.OperatorAvailable},
	}

	Apply(ops, sim, db)

	assert.Equal(t, "OtherCarrier", ops[0].Name)
	assert.Equal(t, "HomeCarrier", ops[1].Name)
	assert.Equal(t, []string{"23426"}, db.queries)
}

func TestCurrentRecordNeverTouched(t *testing.T) {
	db := &fakeLookup{entries: map[string][]Candidate{
		"310410": {{Name: "AT&T"}},
	}}
	ops := []modem.Operator{
		{Name: "310410", MCC: "310", MNC: "410", Status: modem.OperatorCurrent},
	}

	Apply(ops, nil, db)

	assert.Equal(t, "310410", ops[0].Name)
	assert.Empty(t, db.queries)
}

func TestLookupFailureLeavesRecordUnchanged(t *testing.T) {
	db := &fakeLookup{err: errors.New("db closed")}
	ops := []modem.Operator{
		{Name: "310410", MCC: "310", MNC: "410", Status: modem.OperatorAvailable},
	}

	Apply(ops, nil, db)

	assert.Equal(t, "310410", ops[0].Name)
}

func TestEmptyCandidateNameIgnored(t *testing.T) {
	db := &fakeLookup{entries: map[string][]Candidate{
		"310410": {{Name: ""}},
	}}
	ops := []modem.Operator{
		{Name: "310410", MCC: "310", MNC: "410", Status: modem.OperatorUnknown},
	}

	Apply(ops, nil, db)

	assert.Equal(t, "310410", ops[0].Name)
}

func TestReplacementTruncated(t *testing.T) {
	long := strings.Repeat("x", MaxNameLength+20)
	db := &fakeLookup{entries: map[string][]Candidate{
		"310410": {{Name: long}},
	}}
	ops := []modem.Operator{
		{Name: "310410", MCC: "310", MNC: "410", Status: modem.OperatorAvailable},
	}

	Apply(ops, nil, db)

	assert.Len(t, ops[0].Name, MaxNameLength)
}

func TestOrdinaryNamesUntouched(t *testing.T) {
	db := &fakeLookup{entries: map[string][]Candidate{}}
	ops := []modem.Operator{
		{Name: "Vodafone", MCC: "234", MNC: "15", Status: modem.OperatorAvailable},
		{Name: "O2 - UK", MCC: "234", MNC: "10", Status: modem.OperatorForbidden},
	}

	Apply(ops, nil, db)

	assert.Equal(t, "Vodafone", ops[0].Name)
	assert.Equal(t, "O2 - UK", ops[1].Name)
	assert.Empty(t, db.queries)
}

func TestNilLookupIsNoOp(t *testing.T) {
	ops := []modem.Operator{
		{Name: "310410", MCC: "310", MNC: "410", Status: modem.OperatorAvailable},
	}
	Apply(ops, nil, nil)
	assert.Equal(t, "310410", ops[0].Name)
}
