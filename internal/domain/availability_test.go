package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unavailable(date string) AvailabilityOverride {
	return AvailabilityOverride{Date: MustParseDate(date), IsAvailable: false}
}

func priced(date, price string) AvailabilityOverride {
	return AvailabilityOverride{
		Date:          MustParseDate(date),
		IsAvailable:   true,
		PriceOverride: decimal.NewNullDecimal(decimal.RequireFromString(price)),
	}
}

func stay(checkIn, checkOut string) DateRange {
	return NewDateRange(MustParseDate(checkIn), MustParseDate(checkOut))
}

func TestValidateDateRange(t *testing.T) {
	today := MustParseDate("2024-05-20")

	tests := []struct {
		name          string
		r             DateRange
		overrides     []AvailabilityOverride
		wantStatus    RangeStatus
		wantReason    RangeReason
		wantConflicts []string
	}{
		{
			name:       "valid with no overrides",
			r:          stay("2024-06-01", "2024-06-04"),
			wantStatus: RangeValid,
		},
		{
			name:       "check-in today is allowed",
			r:          stay("2024-05-20", "2024-05-21"),
			wantStatus: RangeValid,
		},
		{
			name:       "check-in in the past",
			r:          stay("2024-05-19", "2024-05-22"),
			wantStatus: RangeInvalid,
			wantReason: RangeReasonPast,
		},
		{
			name:       "entire range in the past",
			r:          stay("2024-01-01", "2024-01-05"),
			wantStatus: RangeInvalid,
			wantReason: RangeReasonPast,
		},
		{
			name:       "past wins over inverted order",
			r:          stay("2024-05-10", "2024-05-01"),
			wantStatus: RangeInvalid,
			wantReason: RangeReasonPast,
		},
		{
			name:       "inverted range",
			r:          stay("2024-06-04", "2024-06-01"),
			wantStatus: RangeInvalid,
			wantReason: RangeReasonOrder,
		},
		{
			name:       "zero-night range",
			r:          stay("2024-06-04", "2024-06-04"),
			overrides:  []AvailabilityOverride{unavailable("2024-06-04")},
			wantStatus: RangeInvalid,
			wantReason: RangeReasonOrder,
		},
		{
			name:          "unavailable night inside range",
			r:             stay("2024-06-01", "2024-06-04"),
			overrides:     []AvailabilityOverride{unavailable("2024-06-03")},
			wantStatus:    RangeUnavailable,
			wantConflicts: []string{"2024-06-03"},
		},
		{
			name: "several conflicts reported in ascending order",
			r:    stay("2024-06-01", "2024-06-06"),
			overrides: []AvailabilityOverride{
				unavailable("2024-06-05"),
				priced("2024-06-02", "150.00"),
				unavailable("2024-06-01"),
			},
			wantStatus:    RangeUnavailable,
			wantConflicts: []string{"2024-06-01", "2024-06-05"},
		},
		{
			name: "unavailable check-out day does not conflict",
			r:    stay("2024-06-01", "2024-06-04"),
			overrides: []AvailabilityOverride{
				unavailable("2024-06-04"),
				unavailable("2024-05-31"),
			},
			wantStatus: RangeValid,
		},
		{
			name:       "available override is not a conflict",
			r:          stay("2024-06-01", "2024-06-04"),
			overrides:  []AvailabilityOverride{priced("2024-06-02", "150.00")},
			wantStatus: RangeValid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateDateRange(tt.r, tt.overrides, today)

			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantReason, got.Reason)

			var conflicts []string
			for _, d := range got.ConflictingDates {
				conflicts = append(conflicts, d.String())
			}
			assert.Equal(t, tt.wantConflicts, conflicts)
		})
	}
}

func TestValidateDateRange_ValidForAnyFutureRangeWithoutBlocks(t *testing.T) {
	today := MustParseDate("2024-05-20")
	overrides := []AvailabilityOverride{priced("2024-06-10", "90.00")}

	for offset := 0; offset < 40; offset++ {
		for nights := 1; nights <= 15; nights++ {
			checkIn := today.AddDays(offset)
			r := NewDateRange(checkIn, checkIn.AddDays(nights))
			got := ValidateDateRange(r, overrides, today)
			require.True(t, got.Valid(), "range %s should be valid, got %+v", r, got)
		}
	}
}

func TestValidateDateRange_OrderAlwaysRejected(t *testing.T) {
	today := MustParseDate("2024-05-20")

	for offset := 0; offset < 30; offset++ {
		checkIn := today.AddDays(offset)
		for back := 0; back <= 5; back++ {
			r := NewDateRange(checkIn, checkIn.AddDays(-back))
			got := ValidateDateRange(r, nil, today)
			if !r.CheckIn.Before(today) {
				require.Equal(t, RangeInvalid, got.Status, "range %s", r)
				require.Equal(t, RangeReasonOrder, got.Reason, "range %s", r)
			}
		}
	}
}

func TestValidateDateRange_DoesNotMutateInput(t *testing.T) {
	overrides := []AvailabilityOverride{unavailable("2024-06-03"), priced("2024-06-02", "150.00")}
	snapshot := append([]AvailabilityOverride(nil), overrides...)

	_ = ValidateDateRange(stay("2024-06-01", "2024-06-04"), overrides, MustParseDate("2024-05-01"))

	assert.Equal(t, snapshot, overrides)
}

func TestRangeValidation_Err(t *testing.T) {
	valid := RangeValidation{Status: RangeValid}
	assert.NoError(t, valid.Err())

	past := RangeValidation{Status: RangeInvalid, Reason: RangeReasonPast}
	err := past.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRange))
	var rangeErr *RangeError
	require.True(t, errors.As(err, &rangeErr))
	assert.Equal(t, RangeReasonPast, rangeErr.Reason)
	assert.True(t, IsValidationError(err))

	blocked := RangeValidation{Status: RangeUnavailable, ConflictingDates: []Date{MustParseDate("2024-06-03")}}
	err = blocked.Err()
	assert.True(t, errors.Is(err, ErrDatesUnavailable))
	assert.True(t, IsConflictError(err))
	assert.Contains(t, err.Error(), "2024-06-03")
	var unavailableErr *UnavailableError
	require.True(t, errors.As(err, &unavailableErr))
	assert.Len(t, unavailableErr.Dates, 1)
}

func TestIndexOverrides_LaterRecordWins(t *testing.T) {
	idx := IndexOverrides([]AvailabilityOverride{
		unavailable("2024-06-02"),
		priced("2024-06-02", "120.00"),
	})

	assert.Len(t, idx, 1)
	assert.True(t, idx.IsAvailable(MustParseDate("2024-06-02")))

	price, overridden := idx.NightlyPrice(MustParseDate("2024-06-02"), decimal.NewFromInt(100))
	assert.True(t, overridden)
	assert.Equal(t, "120", price.String())
}

func TestOverrideIndex_Within(t *testing.T) {
	idx := IndexOverrides([]AvailabilityOverride{
		unavailable("2024-07-01"),
		priced("2024-06-15", "80.00"),
		unavailable("2024-05-31"),
		priced("2024-06-01", "70.00"),
	})

	got := idx.Within(MustParseDate("2024-06-01"), MustParseDate("2024-07-01"))

	require.Len(t, got, 2)
	assert.Equal(t, "2024-06-01", got[0].Date.String())
	assert.Equal(t, "2024-06-15", got[1].Date.String())
}
