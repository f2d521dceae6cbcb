package workers

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"go.uber.org/goleak"
)

func TestEventStatusWorker_RunOnce(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(`UPDATE events SET status = 'completed'.+WHERE status IN \('upcoming', 'ongoing'\) AND date < \$1`).
		WithArgs(now.Add(-48 * time.Hour)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	w := &EventStatusWorker{DB: db, GraceHours: 48, Now: func() time.Time { return now }}
	n, err := w.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 rows, got %d", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sql expectations: %v", err)
	}
}

func TestEventStatusWorker_StartStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	mock.ExpectExec(`UPDATE events`).WillReturnResult(sqlmock.NewResult(0, 0))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	w := &EventStatusWorker{DB: db, Interval: time.Hour}
	go func() {
		w.Start(ctx)
		close(done)
	}()

	deadline := time.After(5 * time.Second)
	for mock.ExpectationsWereMet() != nil {
		select {
		case <-deadline:
			t.Fatalf("initial pass never ran")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("worker did not stop")
	}
}
