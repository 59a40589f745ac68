package app

import (
	"errors"
	"testing"
	"time"
)

func TestNewOperation(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.FixedZone("CET", 3600))

	op := NewOperation("Serve", now)

	if op.ID != "20240115T093000Z-serve" {
		t.Errorf("ID = %q, want %q", op.ID, "20240115T093000Z-serve")
	}
	if op.Name != "Serve" {
		t.Errorf("Name = %q, want %q", op.Name, "Serve")
	}
	if op.Status != "success" {
		t.Errorf("Status = %q, want %q", op.Status, "success")
	}
	if !op.StartedAt.Equal(now) {
		t.Errorf("StartedAt = %v, want %v", op.StartedAt, now)
	}
}

func TestOperation_Fail(t *testing.T) {
	op := NewOperation("Seed", time.Now())

	if err := op.Fail(nil); err != nil {
		t.Fatalf("Fail(nil) = %v", err)
	}
	if op.Status != "success" {
		t.Errorf("Status after Fail(nil) = %q, want success", op.Status)
	}

	boom := errors.New("boom")
	if err := op.Fail(boom); !errors.Is(err, boom) {
		t.Errorf("Fail() = %v, want %v", err, boom)
	}
	if op.Status != "error" {
		t.Errorf("Status = %q, want error", op.Status)
	}
}
