package model

import (
	"testing"
	"time"
)

func TestDeriveInstallmentStatus(t *testing.T) {
	dueDate := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		ins  Installment
		asOf time.Time
		want InstallmentStatus
	}{
		{
			name: "due today stays pending",
			ins:  Installment{DueDate: dueDate, Status: InstallmentStatusPending},
			asOf: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
			want: InstallmentStatusPending,
		},
		{
			name: "due today stays pending in western timezone",
			ins:  Installment{DueDate: dueDate, Status: InstallmentStatusPending},
			asOf: time.Date(2024, 3, 10, 10, 0, 0, 0, time.FixedZone("UTC-5", -5*60*60)),
			want: InstallmentStatusPending,
		},
		{
			name: "due today stays pending in eastern timezone",
			ins:  Installment{DueDate: dueDate, Status: InstallmentStatusPending},
			asOf: time.Date(2024, 3, 10, 1, 0, 0, 0, time.FixedZone("UTC+9", 9*60*60)),
			want: InstallmentStatusPending,
		},
		{
			name: "past due derives overdue",
			ins:  Installment{DueDate: dueDate, Status: InstallmentStatusPending},
			asOf: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
			want: InstallmentStatusOverdue,
		},
		{
			name: "future due stays pending",
			ins:  Installment{DueDate: dueDate, Status: InstallmentStatusPending},
			asOf: time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC),
			want: InstallmentStatusPending,
		},
		{
			name: "paid is final",
			ins:  Installment{DueDate: dueDate, Status: InstallmentStatusPaid},
			asOf: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			want: InstallmentStatusPaid,
		},
		{
			name: "materialized overdue is kept",
			ins:  Installment{DueDate: dueDate, Status: InstallmentStatusOverdue},
			asOf: time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC),
			want: InstallmentStatusOverdue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveInstallmentStatus(tt.ins, tt.asOf)
			if got != tt.want {
				t.Fatalf("DeriveInstallmentStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}
