package postgres

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/stephaneglaugier91/daulingo/internal/core/domain"
)

func TestStateRepository_Replace(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewStateRepository(mock)

	start := domain.NewDate(2024, time.January, 1)
	end := domain.NewDate(2024, time.January, 2)
	computedAt := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	lastActive := domain.NewDate(2024, time.January, 1)

	rows := []domain.DailyState{
		{AsOfDate: start, UserID: "amy.lee", State: domain.StateNew, LastActiveDate: &lastActive, ComputedAt: computedAt},
		{AsOfDate: end, UserID: "amy.lee", State: domain.StateAtRiskWAU, LastActiveDate: &lastActive, ComputedAt: computedAt},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM daulingo\.user_state_daily WHERE as_of_date BETWEEN \$1 AND \$2`).
		WithArgs(start.Time(), end.Time()).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectExec(`INSERT INTO daulingo\.user_state_daily`).
		WithArgs(
			start.Time(), "amy.lee", domain.StateNew, lastActive.Time(), computedAt,
			end.Time(), "amy.lee", domain.StateAtRiskWAU, lastActive.Time(), computedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	deleted, inserted, err := repo.Replace(context.Background(), start, end, rows)
	if err != nil {
		t.Fatalf("Replace returned error: %v", err)
	}
	if deleted != 3 {
		t.Fatalf("expected 3 deleted, got %d", deleted)
	}
	if inserted != 2 {
		t.Fatalf("expected 2 inserted, got %d", inserted)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStateRepository_Replace_ChunksInserts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewStateRepository(mock).WithInsertChunk(2)

	start := domain.NewDate(2024, time.January, 1)
	end := domain.NewDate(2024, time.January, 3)
	computedAt := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

	var rows []domain.DailyState
	for i := 0; i < 3; i++ {
		rows = append(rows, domain.DailyState{
			AsOfDate:   start.AddDays(i),
			UserID:     "amy.lee",
			State:      domain.StateAtRiskWAU,
			ComputedAt: computedAt,
		})
	}

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM daulingo\.user_state_daily`).
		WithArgs(start.Time(), end.Time()).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`INSERT INTO daulingo\.user_state_daily`).
		WithArgs(
			rows[0].AsOfDate.Time(), "amy.lee", domain.StateAtRiskWAU, nil, computedAt,
			rows[1].AsOfDate.Time(), "amy.lee", domain.StateAtRiskWAU, nil, computedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectExec(`INSERT INTO daulingo\.user_state_daily`).
		WithArgs(
			rows[2].AsOfDate.Time(), "amy.lee", domain.StateAtRiskWAU, nil, computedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	deleted, inserted, err := repo.Replace(context.Background(), start, end, rows)
	if err != nil {
		t.Fatalf("Replace returned error: %v", err)
	}
	if deleted != 0 || inserted != 3 {
		t.Fatalf("expected 0 deleted and 3 inserted, got %d/%d", deleted, inserted)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStateRepository_Timeseries(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewStateRepository(mock)

	start := domain.NewDate(2024, time.January, 1)
	end := domain.NewDate(2024, time.January, 2)

	rows := pgxmock.NewRows([]string{"as_of_date", "state", "users"}).
		AddRow(start.Time(), "NEW", int64(4)).
		AddRow(end.Time(), "CURRENT", int64(2))

	mock.ExpectQuery(`SELECT as_of_date, state, COUNT\(\*\) AS users FROM daulingo\.user_state_daily`).
		WithArgs(start.Time(), end.Time()).
		WillReturnRows(rows)

	counts, err := repo.Timeseries(context.Background(), start, end)
	if err != nil {
		t.Fatalf("Timeseries returned error: %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(counts))
	}
	if counts[0].State != domain.StateNew || counts[0].Users != 4 {
		t.Fatalf("unexpected first row: %+v", counts[0])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStateRepository_Transitions(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewStateRepository(mock)

	day := domain.NewDate(2024, time.January, 2)

	rows := pgxmock.NewRows([]string{"as_of_date", "prev_state", "curr_state", "users"}).
		AddRow(day.Time(), "NEW", "CURRENT", int64(4)).
		AddRow(day.Time(), "NEW", "AT_RISK_WAU", int64(6))

	mock.ExpectQuery(`JOIN daulingo\.user_state_daily prev ON prev\.user_id = curr\.user_id AND prev\.as_of_date = curr\.as_of_date - 1`).
		WithArgs(day.Time()).
		WillReturnRows(rows)

	start := day
	transitions, err := repo.Transitions(context.Background(), &start, nil)
	if err != nil {
		t.Fatalf("Transitions returned error: %v", err)
	}
	if len(transitions) != 2 {
		t.Fatalf("expected 2 transitions, got %d", len(transitions))
	}
	if transitions[0].PrevState != domain.StateNew || transitions[0].CurrState != domain.StateCurrent || transitions[0].Users != 4 {
		t.Fatalf("unexpected first transition: %+v", transitions[0])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStateRepository_DateRange(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewStateRepository(mock)

	minDay := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	maxDay := time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows([]string{"min", "max"}).AddRow(minDay, maxDay)
	mock.ExpectQuery(`SELECT MIN\(as_of_date\), MAX\(as_of_date\) FROM daulingo\.user_state_daily`).
		WillReturnRows(rows)

	r, err := repo.DateRange(context.Background())
	if err != nil {
		t.Fatalf("DateRange returned error: %v", err)
	}
	if r == nil || !r.Min.Equal(domain.NewDate(2024, time.January, 1)) || !r.Max.Equal(domain.NewDate(2024, time.February, 10)) {
		t.Fatalf("unexpected range: %+v", r)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
