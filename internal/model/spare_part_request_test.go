package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRequestStatusTransitions(t *testing.T) {
	cases := []struct {
		from    RequestStatus
		to      RequestStatus
		allowed bool
	}{
		{RequestStatusPending, RequestStatusApproved, true},
		{RequestStatusPending, RequestStatusRejected, true},
		{RequestStatusPending, RequestStatusCancelled, true},
		{RequestStatusPending, RequestStatusIssued, false},
		{RequestStatusPending, RequestStatusInstalled, false},

		{RequestStatusApproved, RequestStatusIssued, true},
		{RequestStatusApproved, RequestStatusCancelled, true},
		{RequestStatusApproved, RequestStatusRejected, false},
		{RequestStatusApproved, RequestStatusInstalled, false},

		{RequestStatusIssued, RequestStatusInstalled, true},
		{RequestStatusIssued, RequestStatusCancelled, true},
		{RequestStatusIssued, RequestStatusApproved, false},

		// 终态不再流转
		{RequestStatusRejected, RequestStatusCancelled, false},
		{RequestStatusInstalled, RequestStatusCancelled, false},
		{RequestStatusCancelled, RequestStatusApproved, false},
		{RequestStatusCancelled, RequestStatusCancelled, false},
	}

	for _, tc := range cases {
		assert.Equalf(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestRequestStatusTerminal(t *testing.T) {
	assert.False(t, RequestStatusPending.IsTerminal())
	assert.False(t, RequestStatusApproved.IsTerminal())
	assert.False(t, RequestStatusIssued.IsTerminal())
	assert.True(t, RequestStatusRejected.IsTerminal())
	assert.True(t, RequestStatusInstalled.IsTerminal())
	assert.True(t, RequestStatusCancelled.IsTerminal())
}

func TestEffectiveCostPrefersActual(t *testing.T) {
	estimated := decimal.NewFromInt(250)
	actual := decimal.NewFromInt(270)

	req := SparePartRequest{EstimatedCost: estimated}
	assert.True(t, req.EffectiveCost().Equal(estimated))

	req.ActualCost = &actual
	assert.True(t, req.EffectiveCost().Equal(actual))
}

func TestValidPriority(t *testing.T) {
	assert.True(t, ValidPriority(PriorityLow))
	assert.True(t, ValidPriority(PriorityCritical))
	assert.False(t, ValidPriority(RequestPriority("urgent")))
	assert.False(t, ValidPriority(RequestPriority("")))
}
