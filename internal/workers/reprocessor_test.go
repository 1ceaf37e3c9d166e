package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/starcrunch/starcrunch-api/internal/models"
	"github.com/starcrunch/starcrunch-api/internal/queue"
)

func TestReprocessor_ScheduleReprocessingJobs(t *testing.T) {
	t.Parallel()

	user1 := uuid.New()
	user2 := uuid.New()

	tests := []struct {
		name        string
		setupMocks  func() (*mockTaskRepo, *mockActivityRepo, *mockJobQueue)
		expectError bool
		validate    func(*testing.T, *mockJobQueue)
	}{
		{
			name: "schedules a morning and an evening pass per user",
			setupMocks: func() (*mockTaskRepo, *mockActivityRepo, *mockJobQueue) {
				taskRepo := &mockTaskRepo{
					listUserIDsFunc: func(ctx context.Context) ([]uuid.UUID, error) {
						return []uuid.UUID{user1, user2}, nil
					},
				}
				return taskRepo, &mockActivityRepo{}, &mockJobQueue{}
			},
			expectError: false,
			validate: func(t *testing.T, jobQueue *mockJobQueue) {
				if len(jobQueue.enqueued) != 4 {
					t.Fatalf("expected 4 jobs for 2 users, got %d", len(jobQueue.enqueued))
				}
				morning, evening := 0, 0
				for _, job := range jobQueue.enqueued {
					if job.Type != queue.JobTypeReprocessUser {
						t.Errorf("job type = %s, want %s", job.Type, queue.JobTypeReprocessUser)
					}
					if job.UserID != user1 && job.UserID != user2 {
						t.Errorf("job enqueued for unexpected user %s", job.UserID)
					}
					if job.NotBefore == nil {
						t.Fatal("reprocessing job must carry a scheduled time")
					}
					switch job.NotBefore.Hour() {
					case morningReprocessHour:
						morning++
					case eveningReprocessHour:
						evening++
					default:
						t.Errorf("scheduled at hour %d, want %d or %d",
							job.NotBefore.Hour(), morningReprocessHour, eveningReprocessHour)
					}
					if job.NotAfter == nil || !job.NotAfter.Equal(job.NotBefore.Add(24*time.Hour)) {
						t.Error("job should expire a day after its scheduled time")
					}
				}
				if morning != 2 || evening != 2 {
					t.Errorf("got %d morning and %d evening jobs, want 2 and 2", morning, evening)
				}
			},
		},
		{
			name: "paused users are left out",
			setupMocks: func() (*mockTaskRepo, *mockActivityRepo, *mockJobQueue) {
				taskRepo := &mockTaskRepo{
					listUserIDsFunc: func(ctx context.Context) ([]uuid.UUID, error) {
						return []uuid.UUID{user1, user2}, nil
					},
				}
				activityRepo := &mockActivityRepo{
					getByUserIDFunc: func(ctx context.Context, uid uuid.UUID) (*models.UserActivity, error) {
						return &models.UserActivity{
							UserID:             uid,
							ReprocessingPaused: uid == user2,
						}, nil
					},
				}
				return taskRepo, activityRepo, &mockJobQueue{}
			},
			expectError: false,
			validate: func(t *testing.T, jobQueue *mockJobQueue) {
				if len(jobQueue.enqueued) != 2 {
					t.Fatalf("expected 2 jobs for the unpaused user, got %d", len(jobQueue.enqueued))
				}
				for _, job := range jobQueue.enqueued {
					if job.UserID != user1 {
						t.Errorf("job enqueued for paused user %s", job.UserID)
					}
				}
			},
		},
		{
			name: "user listing failure",
			setupMocks: func() (*mockTaskRepo, *mockActivityRepo, *mockJobQueue) {
				taskRepo := &mockTaskRepo{
					listUserIDsFunc: func(ctx context.Context) ([]uuid.UUID, error) {
						return nil, errors.New("connection lost")
					},
				}
				return taskRepo, &mockActivityRepo{}, &mockJobQueue{}
			},
			expectError: true,
			validate: func(t *testing.T, jobQueue *mockJobQueue) {
				if len(jobQueue.enqueued) != 0 {
					t.Errorf("expected no jobs, got %d", len(jobQueue.enqueued))
				}
			},
		},
		{
			name: "enqueue failures do not abort the round",
			setupMocks: func() (*mockTaskRepo, *mockActivityRepo, *mockJobQueue) {
				taskRepo := &mockTaskRepo{
					listUserIDsFunc: func(ctx context.Context) ([]uuid.UUID, error) {
						return []uuid.UUID{user1, user2}, nil
					},
				}
				jobQueue := &mockJobQueue{
					enqueueFunc: func(ctx context.Context, job *queue.Job) error {
						return errors.New("broker unavailable")
					},
				}
				return taskRepo, &mockActivityRepo{}, jobQueue
			},
			expectError: false,
			validate: func(t *testing.T, jobQueue *mockJobQueue) {
				if len(jobQueue.enqueued) != 4 {
					t.Errorf("expected every user still attempted, got %d enqueue calls", len(jobQueue.enqueued))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			taskRepo, activityRepo, jobQueue := tt.setupMocks()
			reprocessor := NewReprocessor(jobQueue, taskRepo, activityRepo, zap.NewNop())

			err := reprocessor.ScheduleReprocessingJobs(context.Background())

			if tt.expectError && err == nil {
				t.Error("expected error but got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.validate != nil {
				tt.validate(t, jobQueue)
			}
		})
	}
}

func TestReprocessor_ScheduleReprocessingJobs_HousekeepingRunsFirst(t *testing.T) {
	t.Parallel()

	var order []string
	taskRepo := &mockTaskRepo{
		listUserIDsFunc: func(ctx context.Context) ([]uuid.UUID, error) {
			order = append(order, "list_users")
			return nil, nil
		},
	}
	activityRepo := &mockActivityRepo{
		pauseStaleFunc: func(ctx context.Context, inactiveFor time.Duration) (int64, error) {
			order = append(order, "pause_stale")
			if inactiveFor != reprocessInactivityWindow {
				t.Errorf("pause window = %v, want %v", inactiveFor, reprocessInactivityWindow)
			}
			return 1, nil
		},
	}
	reprocessor := NewReprocessor(&mockJobQueue{}, taskRepo, activityRepo, zap.NewNop())

	if err := reprocessor.ScheduleReprocessingJobs(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(order) != 2 || order[0] != "pause_stale" || order[1] != "list_users" {
		t.Errorf("pause sweep must run before the eligibility listing, got %v", order)
	}

	if len(taskRepo.deleteCutoffs) != 1 {
		t.Fatalf("expected one retention sweep, got %d", len(taskRepo.deleteCutoffs))
	}
	cutoff := taskRepo.deleteCutoffs[0]
	if cutoff.After(time.Now().Add(-89*24*time.Hour)) || cutoff.Before(time.Now().Add(-91*24*time.Hour)) {
		t.Errorf("retention cutoff %v is not about 90 days back", cutoff)
	}
}

func TestReprocessor_ScheduleReprocessingJobs_HousekeepingFailuresDoNotBlock(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	taskRepo := &mockTaskRepo{
		listUserIDsFunc: func(ctx context.Context) ([]uuid.UUID, error) {
			return []uuid.UUID{userID}, nil
		},
		deleteCompletedBeforeFunc: func(ctx context.Context, cutoff time.Time) (int64, error) {
			return 0, errors.New("lock timeout")
		},
	}
	activityRepo := &mockActivityRepo{
		pauseStaleFunc: func(ctx context.Context, inactiveFor time.Duration) (int64, error) {
			return 0, errors.New("lock timeout")
		},
	}
	jobQueue := &mockJobQueue{}
	reprocessor := NewReprocessor(jobQueue, taskRepo, activityRepo, zap.NewNop())

	if err := reprocessor.ScheduleReprocessingJobs(context.Background()); err != nil {
		t.Fatalf("housekeeping failures must not block scheduling, got %v", err)
	}
	if len(jobQueue.enqueued) != 2 {
		t.Errorf("expected 2 jobs despite failed sweeps, got %d", len(jobQueue.enqueued))
	}
}

func TestReprocessor_GetEligibleUsers(t *testing.T) {
	t.Parallel()

	user1 := uuid.New()
	user2 := uuid.New()
	user3 := uuid.New()

	tests := []struct {
		name       string
		setupMocks func() (*mockTaskRepo, *mockActivityRepo)
		want       []uuid.UUID
		wantErr    bool
	}{
		{
			name: "everyone active",
			setupMocks: func() (*mockTaskRepo, *mockActivityRepo) {
				taskRepo := &mockTaskRepo{
					listUserIDsFunc: func(ctx context.Context) ([]uuid.UUID, error) {
						return []uuid.UUID{user1, user2}, nil
					},
				}
				return taskRepo, &mockActivityRepo{}
			},
			want: []uuid.UUID{user1, user2},
		},
		{
			name: "paused user dropped",
			setupMocks: func() (*mockTaskRepo, *mockActivityRepo) {
				taskRepo := &mockTaskRepo{
					listUserIDsFunc: func(ctx context.Context) ([]uuid.UUID, error) {
						return []uuid.UUID{user1, user2, user3}, nil
					},
				}
				activityRepo := &mockActivityRepo{
					getByUserIDFunc: func(ctx context.Context, uid uuid.UUID) (*models.UserActivity, error) {
						return &models.UserActivity{
							UserID:             uid,
							ReprocessingPaused: uid == user2,
						}, nil
					},
				}
				return taskRepo, activityRepo
			},
			want: []uuid.UUID{user1, user3},
		},
		{
			name: "missing activity row counts as eligible",
			setupMocks: func() (*mockTaskRepo, *mockActivityRepo) {
				taskRepo := &mockTaskRepo{
					listUserIDsFunc: func(ctx context.Context) ([]uuid.UUID, error) {
						return []uuid.UUID{user1}, nil
					},
				}
				activityRepo := &mockActivityRepo{
					getByUserIDFunc: func(ctx context.Context, uid uuid.UUID) (*models.UserActivity, error) {
						return nil, nil
					},
				}
				return taskRepo, activityRepo
			},
			want: []uuid.UUID{user1},
		},
		{
			name: "activity lookup failure counts as eligible",
			setupMocks: func() (*mockTaskRepo, *mockActivityRepo) {
				taskRepo := &mockTaskRepo{
					listUserIDsFunc: func(ctx context.Context) ([]uuid.UUID, error) {
						return []uuid.UUID{user1}, nil
					},
				}
				activityRepo := &mockActivityRepo{
					getByUserIDFunc: func(ctx context.Context, uid uuid.UUID) (*models.UserActivity, error) {
						return nil, errors.New("connection lost")
					},
				}
				return taskRepo, activityRepo
			},
			want: []uuid.UUID{user1},
		},
		{
			name: "listing failure",
			setupMocks: func() (*mockTaskRepo, *mockActivityRepo) {
				taskRepo := &mockTaskRepo{
					listUserIDsFunc: func(ctx context.Context) ([]uuid.UUID, error) {
						return nil, errors.New("connection lost")
					},
				}
				return taskRepo, &mockActivityRepo{}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			taskRepo, activityRepo := tt.setupMocks()
			reprocessor := NewReprocessor(&mockJobQueue{}, taskRepo, activityRepo, zap.NewNop())

			got, err := reprocessor.GetEligibleUsers(context.Background())

			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("eligible users = %d, want %d", len(got), len(tt.want))
			}
			for i, userID := range tt.want {
				if got[i] != userID {
					t.Errorf("eligible[%d] = %s, want %s", i, got[i], userID)
				}
			}
		})
	}
}
