package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"p9e.in/agrisurvey/config"
	"p9e.in/agrisurvey/middleware"
	"p9e.in/agrisurvey/models"
)

// testEnv is a fully seeded application wired to an in-memory database.
type testEnv struct {
	handler http.Handler

	admin models.User
	alice models.User
	bob   models.User

	routeNorth models.Route
	routeEast  models.Route
	farmGreen  models.Farm
}

const testPassword = "fieldwork-2026"

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Route{},
		&models.Farm{},
		&models.Crop{},
		&models.SoilSample{},
		&models.WaterSample{},
		&models.PestDiseaseReport{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	config.DB = db

	env := &testEnv{handler: RegisterRoutes()}

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	env.admin = models.User{
		Username: "admin", Email: "admin@example.com", Name: "Admin",
		PasswordHash: string(hash), Role: models.RoleAdmin, IsActive: true,
	}
	env.alice = models.User{
		Username: "alice", Email: "alice@example.com", Name: "Alice",
		PasswordHash: string(hash), Role: models.RoleEnumerator, IsActive: true,
	}
	env.bob = models.User{
		Username: "bob", Email: "bob@example.com", Name: "Bob",
		PasswordHash: string(hash), Role: models.RoleEnumerator, IsActive: true,
	}
	for _, u := range []*models.User{&env.admin, &env.alice, &env.bob} {
		if err := db.Create(u).Error; err != nil {
			t.Fatalf("create user: %v", err)
		}
	}

	env.routeNorth = models.Route{Name: "Akola North", AssignedToID: env.alice.ID}
	env.routeEast = models.Route{Name: "Bidar East", AssignedToID: env.bob.ID}
	for _, rt := range []*models.Route{&env.routeNorth, &env.routeEast} {
		if err := db.Create(rt).Error; err != nil {
			t.Fatalf("create route: %v", err)
		}
	}

	env.farmGreen = models.Farm{
		RouteID: env.routeNorth.ID, Name: "Green Acres",
		OwnerName: "R. Kale", SizeHa: 12.5,
	}
	if err := db.Create(&env.farmGreen).Error; err != nil {
		t.Fatalf("create farm: %v", err)
	}
	return env
}

func (e *testEnv) tokenFor(t *testing.T, u models.User) string {
	t.Helper()
	token, err := middleware.GenerateToken(u.ID.String(), u.Role, u.Name, u.Username)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

// do runs one request through the full router.
func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

type errResp struct {
	Error string `json:"error"`
	Field string `json:"field"`
}

func TestRegisterForcesEnumeratorRole(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "POST", "/register", "", map[string]string{
		"username": "carol",
		"email":    "carol@example.com",
		"name":     "Carol",
		"password": "longenough",
		"role":     "admin",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var user struct {
		Role string `json:"role"`
	}
	decodeBody(t, rec, &user)
	if user.Role != models.RoleEnumerator {
		t.Errorf("role = %q, requested admin role must be ignored", user.Role)
	}
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		body  map[string]string
		field string
	}{
		{"missing username", map[string]string{"email": "x@example.com", "password": "longenough"}, "username"},
		{"missing email", map[string]string{"username": "x", "password": "longenough"}, "email"},
		{"short password", map[string]string{"username": "x", "email": "x@example.com", "password": "short"}, "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, "POST", "/register", "", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			var body errResp
			decodeBody(t, rec, &body)
			if body.Field != tt.field {
				t.Errorf("field = %q, want %q", body.Field, tt.field)
			}
		})
	}
}

func TestLoginAndToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "POST", "/login", "", map[string]string{
		"username": "alice",
		"password": testPassword,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
	var login struct {
		Token string `json:"token"`
		User  struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	decodeBody(t, rec, &login)
	if login.Token == "" || login.User.Username != "alice" {
		t.Fatalf("unexpected login payload: %s", rec.Body.String())
	}

	rec = env.do(t, "GET", "/token", login.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("token status = %d", rec.Code)
	}

	rec = env.do(t, "POST", "/login", "", map[string]string{
		"username": "alice",
		"password": "wrong-password",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad password status = %d, want 401", rec.Code)
	}
}

func TestAPIRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/api/v1/dashboard", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRouteWritesAreAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	aliceToken := env.tokenFor(t, env.alice)
	adminToken := env.tokenFor(t, env.admin)

	body := map[string]interface{}{"name": "New Route", "assignedTo": env.alice.ID}

	rec := env.do(t, "POST", "/api/v1/routes", aliceToken, body)
	if rec.Code != http.StatusForbidden {
		t.Errorf("enumerator create status = %d, want 403", rec.Code)
	}

	rec = env.do(t, "POST", "/api/v1/routes", adminToken, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("admin create status = %d, body %s", rec.Code, rec.Body.String())
	}

	// Assigning to a non-enumerator account is a validation failure.
	rec = env.do(t, "POST", "/api/v1/routes", adminToken, map[string]interface{}{
		"name": "Bad Route", "assignedTo": env.admin.ID,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp errResp
	decodeBody(t, rec, &resp)
	if resp.Field != "assignedTo" {
		t.Errorf("field = %q, want assignedTo", resp.Field)
	}
}

func TestRouteListIsScoped(t *testing.T) {
	env := newTestEnv(t)

	var routes []struct {
		Name string `json:"name"`
	}
	rec := env.do(t, "GET", "/api/v1/routes", env.tokenFor(t, env.alice), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	decodeBody(t, rec, &routes)
	if len(routes) != 1 || routes[0].Name != "Akola North" {
		t.Errorf("alice sees %v, want only Akola North", routes)
	}

	rec = env.do(t, "GET", "/api/v1/routes", env.tokenFor(t, env.admin), nil)
	decodeBody(t, rec, &routes)
	if len(routes) != 2 {
		t.Errorf("admin sees %d routes, want 2", len(routes))
	}
}

func TestUpdateRouteStatus(t *testing.T) {
	env := newTestEnv(t)
	aliceToken := env.tokenFor(t, env.alice)

	path := fmt.Sprintf("/api/v1/routes/%s/status", env.routeNorth.ID)

	t.Run("assigned enumerator may update", func(t *testing.T) {
		rec := env.do(t, "PATCH", path, aliceToken, map[string]string{"status": "in_progress"})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		var route struct {
			Status string `json:"status"`
		}
		decodeBody(t, rec, &route)
		if route.Status != models.RouteStatusInProgress {
			t.Errorf("route status = %q, want in_progress", route.Status)
		}
	})

	t.Run("invalid status names the valid set", func(t *testing.T) {
		rec := env.do(t, "PATCH", path, aliceToken, map[string]string{"status": "done"})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		var resp errResp
		decodeBody(t, rec, &resp)
		if resp.Field != "status" {
			t.Errorf("field = %q, want status", resp.Field)
		}
		for _, valid := range models.ValidRouteStatuses() {
			if !strings.Contains(resp.Error, valid) {
				t.Errorf("error %q does not mention %q", resp.Error, valid)
			}
		}
	})

	t.Run("unassigned enumerator is forbidden", func(t *testing.T) {
		otherPath := fmt.Sprintf("/api/v1/routes/%s/status", env.routeEast.ID)
		rec := env.do(t, "PATCH", otherPath, aliceToken, map[string]string{"status": "complete"})
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("unknown route is not found", func(t *testing.T) {
		rec := env.do(t, "PATCH", "/api/v1/routes/not-a-uuid/status", aliceToken, map[string]string{"status": "complete"})
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestCreateFarmValidation(t *testing.T) {
	env := newTestEnv(t)
	aliceToken := env.tokenFor(t, env.alice)

	tests := []struct {
		name  string
		body  map[string]interface{}
		field string
	}{
		{
			"size must be positive",
			map[string]interface{}{
				"route": env.routeNorth.ID, "name": "Tiny", "ownerName": "O", "sizeHa": 0,
			},
			"sizeHa",
		},
		{
			"name required",
			map[string]interface{}{
				"route": env.routeNorth.ID, "ownerName": "O", "sizeHa": 1,
			},
			"name",
		},
		{
			"boundary must be GeoJSON",
			map[string]interface{}{
				"route": env.routeNorth.ID, "name": "Geo", "ownerName": "O", "sizeHa": 1,
				"boundaryGeo": map[string]string{"type": "Nonsense"},
			},
			"boundaryGeo",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, "POST", "/api/v1/farms", aliceToken, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			var resp errResp
			decodeBody(t, rec, &resp)
			if resp.Field != tt.field {
				t.Errorf("field = %q, want %q", resp.Field, tt.field)
			}
		})
	}

	t.Run("enumerator cannot attach to a foreign route", func(t *testing.T) {
		rec := env.do(t, "POST", "/api/v1/farms", aliceToken, map[string]interface{}{
			"route": env.routeEast.ID, "name": "Trespass", "ownerName": "O", "sizeHa": 1,
		})
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("valid farm is created", func(t *testing.T) {
		rec := env.do(t, "POST", "/api/v1/farms", aliceToken, map[string]interface{}{
			"route": env.routeNorth.ID, "name": "Valid Farm", "ownerName": "O", "sizeHa": 3.5,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
	})
}

func TestCropHarvestBeforePlanting(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "POST", "/api/v1/crops", env.tokenFor(t, env.alice), map[string]interface{}{
		"farm":            env.farmGreen.ID,
		"cropType":        "cotton",
		"plantingDate":    "2026-06-01",
		"expectedHarvest": "2026-05-01",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp errResp
	decodeBody(t, rec, &resp)
	if resp.Field != "expectedHarvest" {
		t.Errorf("field = %q, want expectedHarvest", resp.Field)
	}
}

func TestSoilSampleValidation(t *testing.T) {
	env := newTestEnv(t)
	aliceToken := env.tokenFor(t, env.alice)

	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")

	t.Run("pH out of range", func(t *testing.T) {
		rec := env.do(t, "POST", "/api/v1/soil-samples", aliceToken, map[string]interface{}{
			"farm": env.farmGreen.ID, "sampleDate": yesterday, "pH": 15.2,
		})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
		var resp errResp
		decodeBody(t, rec, &resp)
		if resp.Field != "pH" {
			t.Errorf("field = %q, want pH", resp.Field)
		}
	})

	t.Run("future sample date", func(t *testing.T) {
		future := time.Now().AddDate(0, 0, 7).Format("2006-01-02")
		rec := env.do(t, "POST", "/api/v1/soil-samples", aliceToken, map[string]interface{}{
			"farm": env.farmGreen.ID, "sampleDate": future, "pH": 6.5,
		})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
		var resp errResp
		decodeBody(t, rec, &resp)
		if resp.Field != "sampleDate" {
			t.Errorf("field = %q, want sampleDate", resp.Field)
		}
	})

	t.Run("valid sample is created", func(t *testing.T) {
		rec := env.do(t, "POST", "/api/v1/soil-samples", aliceToken, map[string]interface{}{
			"farm": env.farmGreen.ID, "sampleDate": yesterday, "pH": 6.5, "moisturePct": 41.5,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
	})
}

func TestPestReportValidation(t *testing.T) {
	env := newTestEnv(t)
	aliceToken := env.tokenFor(t, env.alice)

	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")

	rec := env.do(t, "POST", "/api/v1/pest-disease", aliceToken, map[string]interface{}{
		"farm": env.farmGreen.ID, "reportDate": yesterday,
		"name": "Aphids", "category": "fungus", "severity": "high",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp errResp
	decodeBody(t, rec, &resp)
	if resp.Field != "category" {
		t.Errorf("field = %q, want category", resp.Field)
	}

	rec = env.do(t, "POST", "/api/v1/pest-disease", aliceToken, map[string]interface{}{
		"farm": env.farmGreen.ID, "reportDate": yesterday,
		"name": "Aphids", "category": "pest", "severity": "high",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestDashboardEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/api/v1/dashboard", env.tokenFor(t, env.alice), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var dash struct {
		User struct {
			Username string `json:"username"`
		} `json:"user"`
		Routes struct {
			Total int64 `json:"total"`
		} `json:"routes"`
		Farms struct {
			Total int64 `json:"total"`
		} `json:"farms"`
	}
	decodeBody(t, rec, &dash)
	if dash.User.Username != "alice" {
		t.Errorf("user = %q, want alice", dash.User.Username)
	}
	if dash.Routes.Total != 1 || dash.Farms.Total != 1 {
		t.Errorf("scoped totals = %d routes / %d farms, want 1/1", dash.Routes.Total, dash.Farms.Total)
	}
}

func TestExportEndpoint(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.tokenFor(t, env.admin)

	t.Run("enumerator is forbidden", func(t *testing.T) {
		rec := env.do(t, "GET", "/api/v1/export/farms", env.tokenFor(t, env.alice), nil)
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("unknown kind", func(t *testing.T) {
		rec := env.do(t, "GET", "/api/v1/export/harvests", adminToken, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("csv download", func(t *testing.T) {
		rec := env.do(t, "GET", "/api/v1/export/farms", adminToken, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
			t.Errorf("content type = %q, want text/csv", ct)
		}
		if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "farms_") {
			t.Errorf("content disposition = %q", cd)
		}
		firstLine := strings.SplitN(rec.Body.String(), "\n", 2)[0]
		if !strings.HasPrefix(firstLine, "ID,Name,Owner Name") {
			t.Errorf("csv header = %q", firstLine)
		}
	})

	t.Run("xlsx download", func(t *testing.T) {
		rec := env.do(t, "GET", "/api/v1/export/farms?format=xlsx", adminToken, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		want := "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		if ct := rec.Header().Get("Content-Type"); ct != want {
			t.Errorf("content type = %q", ct)
		}
	})
}

func TestAdminUserEndpoints(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.tokenFor(t, env.admin)

	t.Run("enumerator is forbidden", func(t *testing.T) {
		rec := env.do(t, "GET", "/api/v1/admin/users", env.tokenFor(t, env.alice), nil)
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("admin creates with explicit role", func(t *testing.T) {
		rec := env.do(t, "POST", "/api/v1/admin/users", adminToken, map[string]string{
			"username": "dara", "email": "dara@example.com", "name": "Dara",
			"password": "longenough", "role": "admin",
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		var user struct {
			Role string `json:"role"`
		}
		decodeBody(t, rec, &user)
		if user.Role != models.RoleAdmin {
			t.Errorf("role = %q, want admin", user.Role)
		}
	})

	t.Run("invalid role is rejected", func(t *testing.T) {
		rec := env.do(t, "POST", "/api/v1/admin/users", adminToken, map[string]string{
			"username": "eve", "email": "eve@example.com",
			"password": "longenough", "role": "supervisor",
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("self delete is blocked", func(t *testing.T) {
		rec := env.do(t, "DELETE", "/api/v1/admin/users/"+env.admin.ID.String(), adminToken, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("delete another user", func(t *testing.T) {
		rec := env.do(t, "DELETE", "/api/v1/admin/users/"+env.bob.ID.String(), adminToken, nil)
		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d, want 204", rec.Code)
		}
	})
}

func TestFarmSubResources(t *testing.T) {
	env := newTestEnv(t)
	aliceToken := env.tokenFor(t, env.alice)

	sample := models.SoilSample{
		FarmID: env.farmGreen.ID, SampleDate: models.NewDate(time.Now().AddDate(0, 0, -1)), PH: 6.9,
	}
	if err := config.DB.Create(&sample).Error; err != nil {
		t.Fatalf("create sample: %v", err)
	}

	rec := env.do(t, "GET", "/api/v1/farms/"+env.farmGreen.ID.String()+"/samples", aliceToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Soil  []json.RawMessage `json:"soilSamples"`
		Water []json.RawMessage `json:"waterSamples"`
	}
	decodeBody(t, rec, &payload)
	if len(payload.Soil) != 1 || len(payload.Water) != 0 {
		t.Errorf("samples = %d soil / %d water, want 1/0", len(payload.Soil), len(payload.Water))
	}

	// Foreign farms are indistinguishable from missing ones on reads.
	rec = env.do(t, "GET", "/api/v1/farms/"+env.farmGreen.ID.String()+"/samples", env.tokenFor(t, env.bob), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("foreign farm status = %d, want 404", rec.Code)
	}
}
