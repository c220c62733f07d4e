package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"pending", StatusPending, true},
		{"submitted", StatusSubmitted, true},
		{"discarded", StatusDiscarded, true},
		{"all", "", false},
		{"", "", false},
		{"P", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseStatus(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "pending", StatusString(StatusPending))
	assert.Equal(t, "submitted", StatusString(StatusSubmitted))
	assert.Equal(t, "discarded", StatusString(StatusDiscarded))
}

func TestDisplayID(t *testing.T) {
	rr := &ReviewRequest{ID: 42}
	assert.Equal(t, uint64(42), rr.DisplayID())

	siteID := uint64(3)
	localID := uint64(7)
	scoped := &ReviewRequest{ID: 42, LocalSiteID: &siteID, LocalID: &localID}
	assert.Equal(t, uint64(7), scoped.DisplayID())
}

func TestFieldsChangedRoundTrip(t *testing.T) {
	fc := FieldsChanged{
		"summary": {Old: "old one", New: "new one"},
		"status":  {Old: "pending", New: "submitted"},
	}

	value, err := fc.Value()
	require.NoError(t, err)

	var decoded FieldsChanged
	require.NoError(t, decoded.Scan(value))
	assert.Equal(t, fc, decoded)
}

func TestFieldsChangedScanNil(t *testing.T) {
	var fc FieldsChanged
	require.NoError(t, fc.Scan(nil))
	assert.Empty(t, fc)
}

func TestDraftIsEmpty(t *testing.T) {
	d := &ReviewRequestDraft{}
	assert.True(t, d.IsEmpty())

	summary := "new summary"
	d.Summary = &summary
	assert.False(t, d.IsEmpty())

	d = &ReviewRequestDraft{TargetGroupsSet: true}
	assert.False(t, d.IsEmpty())

	dsID := uint64(5)
	d = &ReviewRequestDraft{DiffSetID: &dsID}
	assert.False(t, d.IsEmpty())
}
