package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gorilla/mux"
	"golang.org/x/net/websocket"
)

func TestGetCounters_CreatesRowLazily(t *testing.T) {
	db, mock := newMockDB(t)
	h := New(db)
	now := time.Now().UTC()

	mock.ExpectExec(`INSERT INTO counters \(id\) VALUES \(\$1\) ON CONFLICT \(id\) DO NOTHING`).
		WithArgs("main").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT id, brigas, acidentes, pts, updated_at FROM counters WHERE id = \$1`).
		WithArgs("main").
		WillReturnRows(sqlmock.NewRows(counterCols).AddRow("main", 0, 0, 0, now))

	rr := httptest.NewRecorder()
	h.GetCounters(rr, httptest.NewRequest(http.MethodGet, "/api/counters", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%q", rr.Code, rr.Body.String())
	}
	var out map[string]any
	decodeBody(t, rr, &out)
	if out["id"] != "main" || out["brigas"] != float64(0) {
		t.Fatalf("unexpected counter %#v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sql expectations: %v", err)
	}
}

func TestPatchCounters_MovesOnlyNamedTally(t *testing.T) {
	cases := []struct {
		body  string
		col   string
		delta int
	}{
		{`{"type":"brigas"}`, "brigas", 1},
		{`{"type":"acidentes","action":"increment"}`, "acidentes", 1},
		{`{"type":"pts","action":"decrement"}`, "pts", -1},
	}
	for _, tc := range cases {
		t.Run(tc.body, func(t *testing.T) {
			db, mock := newMockDB(t)
			h := New(db)
			now := time.Now().UTC()

			mock.ExpectBegin()
			mock.ExpectExec(`INSERT INTO counters \(id\) VALUES \(\$1\) ON CONFLICT`).WithArgs("main").
				WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectQuery(`UPDATE counters SET ` + tc.col + ` = GREATEST\(` + tc.col + ` \+ \$2, 0\)`).
				WithArgs("main", tc.delta).
				WillReturnRows(sqlmock.NewRows(counterCols).AddRow("main", 1, 2, 3, now))
			mock.ExpectCommit()

			rr := httptest.NewRecorder()
			h.PatchCounters(rr, httptest.NewRequest(http.MethodPatch, "/api/counters", bytes.NewBufferString(tc.body)))

			if rr.Code != http.StatusOK {
				t.Fatalf("expected 200 got %d body=%q", rr.Code, rr.Body.String())
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("unmet sql expectations: %v", err)
			}
		})
	}
}

func TestPatchCounters_InvalidInput(t *testing.T) {
	h := New(nil)
	cases := map[string]string{
		`{"type":"gols"}`:                     msgInvalidCounterType,
		`{}`:                                  msgInvalidCounterType,
		`{"type":"brigas","action":"double"}`: "Ação de contador inválida",
	}
	for body, want := range cases {
		rr := httptest.NewRecorder()
		h.PatchCounters(rr, httptest.NewRequest(http.MethodPatch, "/api/counters", bytes.NewBufferString(body)))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400 got %d", body, rr.Code)
		}
		if msg := errorMessage(t, rr); msg != want {
			t.Fatalf("body %s: unexpected message %q", body, msg)
		}
	}
}

func TestPatchCounters_RollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	h := New(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO counters`).WithArgs("main").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`UPDATE counters`).WillReturnError(errBoom)
	mock.ExpectRollback()

	rr := httptest.NewRecorder()
	h.PatchCounters(rr, httptest.NewRequest(http.MethodPatch, "/api/counters", bytes.NewBufferString(`{"type":"pts"}`)))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rr.Code)
	}
	if msg := errorMessage(t, rr); msg != "Erro ao atualizar contador" {
		t.Fatalf("unexpected message %q", msg)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sql expectations: %v", err)
	}
}

func TestPutCounters(t *testing.T) {
	db, mock := newMockDB(t)
	h := New(db)
	now := time.Now().UTC()

	mock.ExpectQuery(`INSERT INTO counters \(id, brigas, acidentes, pts, updated_at\) .+ ON CONFLICT \(id\) DO UPDATE SET`).
		WithArgs("main", 7, nil, 0).
		WillReturnRows(sqlmock.NewRows(counterCols).AddRow("main", 7, 4, 0, now))

	rr := httptest.NewRecorder()
	h.PutCounters(rr, httptest.NewRequest(http.MethodPut, "/api/counters", bytes.NewBufferString(`{"brigas":7,"pts":0}`)))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%q", rr.Code, rr.Body.String())
	}
	var out map[string]any
	decodeBody(t, rr, &out)
	if out["brigas"] != float64(7) || out["acidentes"] != float64(4) {
		t.Fatalf("unexpected counter %#v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sql expectations: %v", err)
	}
}

func TestPutCounters_RejectsNegative(t *testing.T) {
	h := New(nil)
	rr := httptest.NewRecorder()
	h.PutCounters(rr, httptest.NewRequest(http.MethodPut, "/api/counters", bytes.NewBufferString(`{"acidentes":-1}`)))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
}

func TestCountersWebSocket_PushesSnapshotAndUpdates(t *testing.T) {
	db, mock := newMockDB(t)
	h := New(db)
	now := time.Now().UTC()

	mock.ExpectExec(`INSERT INTO counters \(id\)`).WithArgs("main").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`FROM counters WHERE id = \$1`).WithArgs("main").
		WillReturnRows(sqlmock.NewRows(counterCols).AddRow("main", 1, 0, 0, now))
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO counters \(id\)`).WithArgs("main").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`UPDATE counters SET brigas`).WithArgs("main", 1).
		WillReturnRows(sqlmock.NewRows(counterCols).AddRow("main", 2, 0, 0, now))
	mock.ExpectCommit()

	r := mux.NewRouter()
	RegisterRoutes(h, r)
	srv := httptest.NewServer(r)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/counters/ws"
	conn, err := websocket.Dial(wsURL, "", srv.URL)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	readCounter := func() realtimeEvent {
		t.Helper()
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var raw string
		if err := websocket.Message.Receive(conn, &raw); err != nil {
			t.Fatalf("receive: %v", err)
		}
		var ev realtimeEvent
		if err := json.Unmarshal([]byte(raw), &ev); err != nil {
			t.Fatalf("decode %q: %v", raw, err)
		}
		return ev
	}

	if ev := readCounter(); ev.Type != "counters" || ev.Counter == nil || ev.Counter.Brigas != 1 {
		t.Fatalf("unexpected snapshot %#v", ev)
	}

	resp, err := http.Post(srv.URL+"/api/counters", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for POST, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodPatch, srv.URL+"/api/counters", strings.NewReader(`{"type":"brigas"}`))
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.StatusCode)
	}

	if ev := readCounter(); ev.Counter == nil || ev.Counter.Brigas != 2 {
		t.Fatalf("unexpected update %#v", ev)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sql expectations: %v", err)
	}
}
