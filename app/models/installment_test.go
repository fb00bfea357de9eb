package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPaymentScheduleSumsToTotal(t *testing.T) {
	inst := &Installment{
		TotalAmount:  decimal.NewFromInt(1000),
		PaymentCount: 3,
	}
	firstDue := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)

	payments := inst.BuildPaymentSchedule(firstDue)
	require.Len(t, payments, 3)

	// 1000 / 3 = 333.33 per payment, remainder folded into the last one
	assert.True(t, payments[0].Amount.Equal(decimal.NewFromFloat(333.33)))
	assert.True(t, payments[1].Amount.Equal(decimal.NewFromFloat(333.33)))
	assert.True(t, payments[2].Amount.Equal(decimal.NewFromFloat(333.34)))

	sum := decimal.Zero
	for _, p := range payments {
		sum = sum.Add(p.Amount)
	}
	assert.True(t, sum.Equal(inst.TotalAmount))
}

func TestBuildPaymentScheduleMonthlySpacing(t *testing.T) {
	inst := &Installment{
		TotalAmount:  decimal.NewFromInt(300),
		PaymentCount: 3,
	}
	firstDue := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)

	payments := inst.BuildPaymentSchedule(firstDue)
	require.Len(t, payments, 3)

	assert.Equal(t, 1, payments[0].Sequence)
	assert.Equal(t, firstDue, payments[0].DueAt)
	assert.Equal(t, firstDue.AddDate(0, 1, 0), payments[1].DueAt)
	assert.Equal(t, firstDue.AddDate(0, 2, 0), payments[2].DueAt)
}

func TestBuildPaymentScheduleRejectsZeroCount(t *testing.T) {
	inst := &Installment{TotalAmount: decimal.NewFromInt(100)}
	assert.Nil(t, inst.BuildPaymentSchedule(time.Now()))
}

func TestInstallmentIsProcessable(t *testing.T) {
	inst := &Installment{Status: INSTALLMENT_STATUS_ACTIVE, RemainingCount: 2}
	assert.True(t, inst.IsProcessable())

	inst.RemainingCount = 0
	assert.False(t, inst.IsProcessable())

	inst.RemainingCount = 2
	inst.Status = INSTALLMENT_STATUS_CANCELLED
	assert.False(t, inst.IsProcessable())
}
