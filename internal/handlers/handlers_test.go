package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trentd187/golf-metrics/internal/middleware"
	"github.com/trentd187/golf-metrics/internal/models"
	"github.com/trentd187/golf-metrics/internal/repository"
	"github.com/trentd187/golf-metrics/internal/testutil"
)

type testServer struct {
	t       *testing.T
	app     *fiber.App
	factory *testutil.Factory
	store   *repository.Store
}

func newServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.NewDB(t)
	log, _ := logtest.NewNullLogger()

	env := &Env{Store: repository.New(db), Log: log, PageSize: 10, MaxPageSize: 100}
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(log)})
	app.Use(middleware.RequestLogger(log))
	Register(app, env)

	return &testServer{t: t, app: app, factory: testutil.NewFactory(t, db), store: env.Store}
}

// do sends a request with an optional JSON body and decodes the JSON response, if any.
func (s *testServer) do(method, path string, body interface{}) (int, map[string]interface{}) {
	s.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			b, err := json.Marshal(body)
			require.NoError(s.t, err)
			raw = string(b)
		}
		reader = strings.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	var out map[string]interface{}
	if len(data) > 0 {
		require.NoError(s.t, json.Unmarshal(data, &out), string(data))
	}
	return resp.StatusCode, out
}

func results(t *testing.T, body map[string]interface{}) []map[string]interface{} {
	t.Helper()
	raw, ok := body["results"].([]interface{})
	require.True(t, ok, "results missing: %v", body)
	out := make([]map[string]interface{}, len(raw))
	for i, r := range raw {
		out[i] = r.(map[string]interface{})
	}
	return out
}

func TestHealthCheck(t *testing.T) {
	s := newServer(t)
	status, body := s.do("GET", "/health", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", body["database"])
}

func TestTournamentCRUD(t *testing.T) {
	s := newServer(t)

	status, created := s.do("POST", "/api/tournaments/", map[string]interface{}{
		"name":       "Members Cup",
		"start_date": "2026-05-01",
		"end_date":   "2026-05-03",
		"location":   "  ",
	})
	require.Equal(t, fiber.StatusCreated, status, created)
	assert.Equal(t, true, created["is_active"], "is_active defaults to true")
	assert.Nil(t, created["location"], "blank optional text is stored as null")
	assert.EqualValues(t, 0, created["total_groups"])
	id := uint(created["id"].(float64))

	status, patched := s.do("PATCH", fmt.Sprintf("/api/tournaments/%d/", id), map[string]interface{}{"is_active": false})
	require.Equal(t, fiber.StatusOK, status, patched)
	assert.Equal(t, "Members Cup", patched["name"])
	assert.Equal(t, false, patched["is_active"])

	status, body := s.do("PUT", fmt.Sprintf("/api/tournaments/%d/", id), map[string]interface{}{"name": "Renamed"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body, "start_date")
	assert.Contains(t, body, "end_date")

	status, body = s.do("PATCH", fmt.Sprintf("/api/tournaments/%d/", id), map[string]interface{}{"end_date": "2026-04-30"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, []interface{}{"end date must be on or after start date"}, body["end_date"])

	status, _ = s.do("DELETE", fmt.Sprintf("/api/tournaments/%d/", id), nil)
	assert.Equal(t, fiber.StatusNoContent, status)

	status, body = s.do("GET", fmt.Sprintf("/api/tournaments/%d/", id), nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "tournament not found", body["error"])
}

func TestCreateTournament_Validation(t *testing.T) {
	s := newServer(t)

	status, body := s.do("POST", "/api/tournaments/", map[string]interface{}{
		"start_date": "2026-05-03",
		"end_date":   "2026-05-01",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, []interface{}{"this field is required"}, body["name"])
	assert.Contains(t, body, "end_date")

	status, body = s.do("POST", "/api/tournaments/", `{"name": `)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body, "detail")
}

func TestGet_NonNumericID(t *testing.T) {
	s := newServer(t)
	status, body := s.do("GET", "/api/golfers/abc/", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "golfer not found", body["error"])
}

func TestListPagination(t *testing.T) {
	s := newServer(t)
	for i := 0; i < 12; i++ {
		s.factory.Tournament()
	}

	status, body := s.do("GET", "/api/tournaments/?page_size=5&is_active=true", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 12, body["count"])
	assert.Len(t, results(t, body), 5)
	assert.Nil(t, body["previous"])
	require.NotNil(t, body["next"])
	assert.Contains(t, body["next"], "page=2")
	assert.Contains(t, body["next"], "is_active=true")

	status, body = s.do("GET", "/api/tournaments/?page_size=5&page=3", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, results(t, body), 2)
	assert.Nil(t, body["next"])
	assert.Contains(t, body["previous"], "page=2")

	status, body = s.do("GET", "/api/tournaments/?page=9", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "invalid page", body["error"])
}

func TestListFilters_MalformedValue(t *testing.T) {
	s := newServer(t)
	status, body := s.do("GET", "/api/shots/?hole_number=abc", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body, "hole_number")
}

func TestGroups(t *testing.T) {
	s := newServer(t)
	tr := s.factory.Tournament()
	s.factory.Group(&tr.ID, 3)

	status, created := s.do("POST", "/api/groups/", map[string]interface{}{"tournament": tr.ID, "nickname": "Early Birds"})
	require.Equal(t, fiber.StatusCreated, status, created)
	assert.EqualValues(t, 4, created["group_number"])
	assert.EqualValues(t, 4, created["max_golfers"])
	assert.Equal(t, "Group 4 (Early Birds)", created["display_name"])
	assert.Equal(t, tr.Name, created["tournament_name"])

	status, body := s.do("POST", "/api/groups/", map[string]interface{}{"tournament": tr.ID, "group_number": 3})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body, "group_number")

	status, body = s.do("POST", "/api/groups/", map[string]interface{}{"tournament": 999, "max_golfers": 9})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body, "tournament")
	assert.Contains(t, body, "max_golfers")

	status, body = s.do("GET", fmt.Sprintf("/api/tournaments/%d/retrieve_with_groups/", tr.ID), nil)
	require.Equal(t, fiber.StatusOK, status)
	groups := body["groups"].([]interface{})
	require.Len(t, groups, 2)
	assert.EqualValues(t, 3, groups[0].(map[string]interface{})["group_number"])
	assert.EqualValues(t, 2, body["total_groups"])
}

func TestGolfers(t *testing.T) {
	s := newServer(t)
	full := s.factory.Group(nil, 1, func(g *models.Group) { g.MaxGolfers = 1 })
	s.factory.Golfer(&full.ID)

	status, created := s.do("POST", "/api/golfers/", map[string]interface{}{
		"first_name":    "Jane",
		"last_name":     "Smithson",
		"date_of_birth": "1990-01-15",
	})
	require.Equal(t, fiber.StatusCreated, status, created)
	assert.Regexp(t, `^JSMI[0-9A-F]{4}$`, created["golfer_id"])
	assert.Equal(t, "Jane Smithson", created["full_name"])
	assert.Equal(t, "intermediate", created["skill_level"])
	assert.NotNil(t, created["age"])

	status, body := s.do("POST", "/api/golfers/", map[string]interface{}{
		"first_name": "Sam",
		"last_name":  "Snead",
		"email":      "not-an-email",
		"group":      full.ID,
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body, "email")
	assert.Equal(t, []interface{}{"Group 1 is full (max 1 golfers)"}, body["group"])

	status, body = s.do("GET", "/api/golfers/unassigned/", nil)
	require.Equal(t, fiber.StatusOK, status)
	rows := results(t, body)
	require.Len(t, rows, 1)
	assert.Equal(t, created["id"], rows[0]["id"])

	status, body = s.do("GET", fmt.Sprintf("/api/groups/%d/retrieve_with_golfers/", full.ID), nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["is_full"])
	assert.EqualValues(t, 0, body["available_spots"])
	assert.Len(t, body["golfers"], 1)
}

func TestShotsAndStatistics(t *testing.T) {
	s := newServer(t)
	golfer := s.factory.Golfer(nil)

	status, created := s.do("POST", "/api/shots/", map[string]interface{}{
		"golfer":          golfer.ID,
		"club_used":       "driver",
		"ball_speed":      150.0,
		"club_head_speed": 100.0,
	})
	require.Equal(t, fiber.StatusCreated, status, created)
	assert.EqualValues(t, 1, created["shot_number"])
	assert.Equal(t, "drive", created["shot_type"])
	assert.InDelta(t, 1.5, created["smash_factor"], 0.001)
	assert.Equal(t, golfer.FullName(), created["golfer_name"])

	status, body := s.do("POST", "/api/shots/", map[string]interface{}{"hole_number": 19, "club_used": "spoon"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body, "hole_number")
	assert.Contains(t, body, "club_used")

	status, unassigned := s.do("POST", "/api/shots/", map[string]interface{}{"shot_type": "putt"})
	require.Equal(t, fiber.StatusCreated, status)
	_, hasSmash := unassigned["smash_factor"]
	assert.False(t, hasSmash, "smash factor is omitted without both speeds")

	status, body = s.do("GET", "/api/shots/?club_used=driver&shot_type=drive", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 1, body["count"])

	status, body = s.do("GET", fmt.Sprintf("/api/shots/statistics/?golfer_id=%d", golfer.ID), nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 1, body["total_shots"])
	ball := body["metrics"].(map[string]interface{})["ball_speed"].(map[string]interface{})
	assert.InDelta(t, 150.0, ball["avg"], 0.001)

	status, body = s.do("GET", "/api/shots/statistics/?hole_number=7", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 0, body["total_shots"])
	spin := body["metrics"].(map[string]interface{})["spin_rate"].(map[string]interface{})
	assert.Nil(t, spin["avg"])
	assert.Empty(t, body["clubs"])
}

func TestShotResponses_IncludeGolferChain(t *testing.T) {
	s := newServer(t)
	tr := s.factory.Tournament()
	group := s.factory.Group(&tr.ID, 2)
	golfer := s.factory.Golfer(&group.ID)
	shot := s.factory.Shot(&golfer.ID)

	check := func(t *testing.T, row map[string]interface{}) {
		t.Helper()
		assert.Equal(t, golfer.FullName(), row["golfer_name"])
		assert.EqualValues(t, golfer.ID, row["golfer"])
		assert.EqualValues(t, group.ID, row["group"])
		assert.Equal(t, "Group 2", row["group_name"])
		assert.EqualValues(t, tr.ID, row["tournament"])
		assert.Equal(t, tr.Name, row["tournament_name"])
	}

	status, body := s.do("GET", fmt.Sprintf("/api/shots/%d/", shot.ID), nil)
	require.Equal(t, fiber.StatusOK, status, body)
	check(t, body)

	status, body = s.do("GET", "/api/shots/", nil)
	require.Equal(t, fiber.StatusOK, status, body)
	rows := results(t, body)
	require.Len(t, rows, 1)
	check(t, rows[0])
}

func TestAssignAndRemoveGolfers(t *testing.T) {
	s := newServer(t)
	group := s.factory.Group(nil, 1, func(g *models.Group) { g.MaxGolfers = 2 })
	a, b, c := s.factory.Golfer(nil), s.factory.Golfer(nil), s.factory.Golfer(nil)

	path := fmt.Sprintf("/api/groups/%d/assign_golfers/", group.ID)
	status, body := s.do("POST", path, map[string]interface{}{"golfer_ids": []uint{a.ID, b.ID, c.ID}})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 2, body["assigned_count"])
	assert.Contains(t, body["message"], "1 could not be assigned")

	status, body = s.do("POST", path, map[string]interface{}{"golfer_ids": []uint{}})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])

	status, _ = s.do("POST", "/api/groups/999/assign_golfers/", map[string]interface{}{"golfer_ids": []uint{a.ID}})
	assert.Equal(t, fiber.StatusNotFound, status)

	status, body = s.do("POST", fmt.Sprintf("/api/groups/%d/remove_golfers/", group.ID),
		map[string]interface{}{"golfer_ids": []uint{a.ID, c.ID}})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.EqualValues(t, 1, body["removed_count"])
}

func TestBulkDelete(t *testing.T) {
	s := newServer(t)
	tr := s.factory.Tournament()
	group := s.factory.Group(&tr.ID, 1)
	golfer := s.factory.Golfer(&group.ID)
	s.factory.Shot(&golfer.ID)

	status, body := s.do("POST", "/api/tournaments/bulk_delete/", map[string]interface{}{"ids": []uint{}})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body, "error")

	status, body = s.do("POST", "/api/tournaments/bulk_delete/", map[string]interface{}{
		"ids":             []uint{tr.ID},
		"delete_children": true,
	})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 1, body["deleted_count"])
	assert.Equal(t, true, body["children_deleted"])

	status, body = s.do("GET", "/api/shots/", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 0, body["count"])
}

func TestDelete_DetachesByDefault(t *testing.T) {
	s := newServer(t)
	golfer := s.factory.Golfer(nil)
	shot := s.factory.Shot(&golfer.ID)

	status, _ := s.do("DELETE", fmt.Sprintf("/api/golfers/%d/", golfer.ID), nil)
	require.Equal(t, fiber.StatusNoContent, status)

	status, body := s.do("GET", fmt.Sprintf("/api/shots/%d/", shot.ID), nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Nil(t, body["golfer"])

	status, body = s.do("GET", "/api/shots/unassigned/", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 1, body["count"])
}

func TestRequireJSONBody(t *testing.T) {
	s := newServer(t)
	req := httptest.NewRequest("POST", "/api/tournaments/", strings.NewReader("name=x"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnsupportedMediaType, resp.StatusCode)
}

// The request validate tags spell out each enum by hand; keep them in step with models.
func TestEnumValuesAccepted(t *testing.T) {
	s := newServer(t)

	for _, level := range models.SkillLevels() {
		status, body := s.do("POST", "/api/golfers/", map[string]interface{}{
			"first_name":  "Ana",
			"last_name":   "Lopez",
			"skill_level": level,
		})
		assert.Equal(t, fiber.StatusCreated, status, "skill level %s: %v", level, body)
	}
	for _, shotType := range models.ShotTypes() {
		status, body := s.do("POST", "/api/shots/", map[string]interface{}{"shot_type": shotType})
		assert.Equal(t, fiber.StatusCreated, status, "shot type %s: %v", shotType, body)
	}
	for _, club := range models.Clubs() {
		status, body := s.do("POST", "/api/shots/", map[string]interface{}{"club_used": club})
		assert.Equal(t, fiber.StatusCreated, status, "club %s: %v", club, body)
	}
}
