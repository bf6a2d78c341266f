package models

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticIDs struct {
	next  int
	err   error
	kinds []EntityKind
}

func (s *staticIDs) NextID(_ context.Context, kind EntityKind) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.next++
	s.kinds = append(s.kinds, kind)
	return FormatID(kind, s.next), nil
}

func validInput() SubscriptionInput {
	return SubscriptionInput{
		ServiceType:      "streaming",
		ServiceName:      "netflix",
		Category:         "entertainment",
		PlanType:         "premium plan",
		ActiveStatus:     "Active",
		Price:            "17.99",
		BillingFrequency: "Monthly",
		StartDate:        "10/01/2025",
		RenewalDate:      "10",
		AutoRenewal:      "Yes",
	}
}

func TestNewSubscription_Valid(t *testing.T) {
	ids := &staticIDs{next: 6}

	sub, err := NewSubscription(context.Background(), "alice", validInput(), ids)
	require.NoError(t, err)

	assert.Equal(t, "sub07", sub.ID)
	assert.Equal(t, []EntityKind{KindSubscription}, ids.kinds)
	assert.Equal(t, "Streaming", sub.ServiceType)
	assert.Equal(t, "Netflix", sub.ServiceName)
	assert.Equal(t, "Entertainment", sub.Category)
	assert.Equal(t, "Premium Plan", sub.PlanType)
	assert.True(t, sub.Active)
	assert.Equal(t, 17.99, sub.Price)
	assert.Equal(t, FrequencyMonthly, sub.BillingFrequency)
	assert.Equal(t, time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC), sub.StartDate)
	assert.Equal(t, RenewalDate{Day: 10}, sub.RenewalDate)
	assert.True(t, sub.AutoRenewal)
}

func TestNewSubscription_KeepsSuppliedID(t *testing.T) {
	in := validInput()
	in.ID = "sub42"

	sub, err := NewSubscription(context.Background(), "alice", in, nil)
	require.NoError(t, err)
	assert.Equal(t, "sub42", sub.ID)
}

func TestNewSubscription_IDSourceFailure(t *testing.T) {
	ids := &staticIDs{err: errors.New("sequence unavailable")}

	_, err := NewSubscription(context.Background(), "alice", validInput(), ids)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrValidation)
}

func TestNewSubscription_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *SubscriptionInput)
		field  string
	}{
		{name: "digits in service type", mutate: func(in *SubscriptionInput) { in.ServiceType = "tv2" }, field: FieldServiceType},
		{name: "empty service name", mutate: func(in *SubscriptionInput) { in.ServiceName = "  " }, field: FieldServiceName},
		{name: "unknown status", mutate: func(in *SubscriptionInput) { in.ActiveStatus = "Paused" }, field: FieldActiveStatus},
		{name: "integer price", mutate: func(in *SubscriptionInput) { in.Price = "17" }, field: FieldPrice},
		{name: "negative price", mutate: func(in *SubscriptionInput) { in.Price = "-1.00" }, field: FieldPrice},
		{name: "bad frequency", mutate: func(in *SubscriptionInput) { in.BillingFrequency = "Weekly" }, field: FieldBillingFrequency},
		{name: "bad start date", mutate: func(in *SubscriptionInput) { in.StartDate = "2025-01-10" }, field: FieldStartDate},
		{name: "monthly renewal out of range", mutate: func(in *SubscriptionInput) { in.RenewalDate = "32" }, field: FieldRenewalDate},
		{name: "monthly renewal with month", mutate: func(in *SubscriptionInput) { in.RenewalDate = "15/06" }, field: FieldRenewalDate},
		{name: "yearly renewal as day", mutate: func(in *SubscriptionInput) {
			in.BillingFrequency = "Yearly"
			in.RenewalDate = "15"
		}, field: FieldRenewalDate},
		{name: "yearly renewal impossible day", mutate: func(in *SubscriptionInput) {
			in.BillingFrequency = "Yearly"
			in.RenewalDate = "31/04"
		}, field: FieldRenewalDate},
		{name: "bad auto renewal", mutate: func(in *SubscriptionInput) { in.AutoRenewal = "Maybe" }, field: FieldAutoRenewal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			sub, err := NewSubscription(context.Background(), "alice", in, &staticIDs{})
			require.ErrorIs(t, err, ErrValidation)
			assert.Nil(t, sub)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestSubscription_YearlyRenewalNormalized(t *testing.T) {
	in := validInput()
	in.BillingFrequency = "yearly"
	in.RenewalDate = "5/6"

	sub, err := NewSubscription(context.Background(), "alice", in, &staticIDs{})
	require.NoError(t, err)
	assert.Equal(t, RenewalDate{Day: 5, Month: time.June}, sub.RenewalDate)
	assert.Equal(t, "05/06", sub.RenewalDate.String())
	assert.Equal(t, "Yearly", sub.BillingFrequency.String())
}

func TestSubscription_SetterLeavesValueOnError(t *testing.T) {
	sub, err := NewSubscription(context.Background(), "alice", validInput(), &staticIDs{})
	require.NoError(t, err)

	require.Error(t, sub.SetPrice("free"))
	assert.Equal(t, 17.99, sub.Price)

	require.Error(t, sub.SetServiceType("Str3aming"))
	assert.Equal(t, "Streaming", sub.ServiceType)

	require.NoError(t, sub.SetPrice("19.5"))
	assert.Equal(t, 19.5, sub.Price)
}

func TestSubscription_ApplyUpdates(t *testing.T) {
	sub, err := NewSubscription(context.Background(), "alice", validInput(), &staticIDs{})
	require.NoError(t, err)

	t.Run("frequency change requires renewal date", func(t *testing.T) {
		err := sub.ApplyUpdates(map[string]string{FieldBillingFrequency: "Yearly"})
		require.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, FrequencyMonthly, sub.BillingFrequency)
	})

	t.Run("atomic on partial failure", func(t *testing.T) {
		err := sub.ApplyUpdates(map[string]string{
			FieldServiceName: "Netflix Basic",
			FieldPrice:       "ten",
		})
		require.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, "Netflix", sub.ServiceName)
	})

	t.Run("frequency with renewal date", func(t *testing.T) {
		err := sub.ApplyUpdates(map[string]string{
			FieldBillingFrequency: "Yearly",
			FieldRenewalDate:      "15/06",
			FieldActiveStatus:     "Cancelled",
		})
		require.NoError(t, err)
		assert.Equal(t, FrequencyYearly, sub.BillingFrequency)
		assert.Equal(t, RenewalDate{Day: 15, Month: time.June}, sub.RenewalDate)
		assert.False(t, sub.Active)
	})

	t.Run("unknown field", func(t *testing.T) {
		err := sub.ApplyUpdates(map[string]string{"colour": "red"})
		require.ErrorIs(t, err, ErrValidation)
	})
}

func TestSubscription_MonthlyEquivalent(t *testing.T) {
	sub := &Subscription{Price: 120.00, BillingFrequency: FrequencyYearly}
	assert.InDelta(t, 10.0, sub.MonthlyEquivalent(), 1e-9)

	sub.BillingFrequency = FrequencyMonthly
	assert.InDelta(t, 120.0, sub.MonthlyEquivalent(), 1e-9)
}

func TestFormatID(t *testing.T) {
	assert.Equal(t, "sub07", FormatID(KindSubscription, 7))
	assert.Equal(t, "bud02", FormatID(KindBudget, 2))
	assert.Equal(t, "mntrpt12", FormatID(KindMonthlyReport, 12))
	assert.Equal(t, "yearpt03", FormatID(KindYearlyReport, 3))
	assert.Equal(t, "sub123", FormatID(KindSubscription, 123))
}
