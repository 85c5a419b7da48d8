package service

import (
	"context"
	"errors"
	"testing"

	"github.com/mmeshcher/installment-system/internal/model"
	"github.com/mmeshcher/installment-system/internal/repository"
)

func TestRunScheduleJob_CompletesOnSuccess(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(repo, nil)

	svc.runScheduleJob(context.Background(), model.ScheduleJob{ID: "job-1", OrderID: 7})

	if len(repo.completedJobs) != 1 || repo.completedJobs[0] != "job-1" {
		t.Fatalf("completed = %v, want [job-1]", repo.completedJobs)
	}
	if len(repo.failedJobs) != 0 {
		t.Fatalf("failed = %v, want none", repo.failedJobs)
	}
}

func TestRunScheduleJob_DropsOnPermanentError(t *testing.T) {
	repo := &stubRepo{
		generateErr: repository.ErrOrderNotFound,
	}
	svc := newTestService(repo, nil)

	svc.runScheduleJob(context.Background(), model.ScheduleJob{ID: "job-2", OrderID: 404})

	// Задача по исчезнувшему заказу снимается с очереди без повторов
	if len(repo.completedJobs) != 1 || repo.completedJobs[0] != "job-2" {
		t.Fatalf("completed = %v, want [job-2]", repo.completedJobs)
	}
	if len(repo.failedJobs) != 0 {
		t.Fatalf("failed = %v, want none", repo.failedJobs)
	}
}

func TestRunScheduleJob_DefersOnTransientError(t *testing.T) {
	repo := &stubRepo{
		generateErr: errors.New("connection refused"),
	}
	svc := newTestService(repo, nil)

	svc.runScheduleJob(context.Background(), model.ScheduleJob{ID: "job-3", OrderID: 7, Attempts: 2})

	if len(repo.completedJobs) != 0 {
		t.Fatalf("completed = %v, want none", repo.completedJobs)
	}
	if len(repo.failedJobs) != 1 || repo.failedJobs[0] != "job-3" {
		t.Fatalf("failed = %v, want [job-3]", repo.failedJobs)
	}
	if len(repo.failDelays) != 1 || repo.failDelays[0].Minutes() != 3 {
		t.Fatalf("delay = %v, want 3m for third attempt", repo.failDelays)
	}
}
