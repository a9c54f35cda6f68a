package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"p9e.in/agrisurvey/handlers"
	"p9e.in/agrisurvey/middleware"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	// =====================================================
	// Public Routes (no authentication)
	// =====================================================
	r.HandleFunc("/register", handlers.Register).Methods("POST")
	r.HandleFunc("/login", handlers.Login).Methods("POST")
	r.Handle("/token", middleware.JWTMiddleware(
		http.HandlerFunc(handlers.GetCurrentUser))).Methods("GET")
	r.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir("./uploads"))),
	)

	// =====================================================
	// Protected API Routes (require JWT authentication)
	// =====================================================
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.JWTMiddleware)

	api.HandleFunc("/dashboard", handlers.GetDashboard).Methods("GET")

	registerSurveyRoutes(api)
	registerFileRoutes(api)
	registerExportRoutes(api)

	// =====================================================
	// Admin Routes (require admin role)
	// =====================================================
	admin := api.PathPrefix("/admin").Subrouter()
	registerAdminRoutes(admin)

	return r
}

// registerSurveyRoutes registers the field data resources
func registerSurveyRoutes(api *mux.Router) {
	// Routes: enumerators read their own, only admins reshape them.
	registerCRUDRoutes(api, "/routes", crudHandlers{
		getAll:     handlers.GetAllRoutes,
		create:     handlers.CreateRoute,
		getOne:     handlers.GetRoute,
		update:     handlers.UpdateRoute,
		delete:     handlers.DeleteRoute,
		adminWrite: true,
	})
	api.HandleFunc("/routes/{id}/status", handlers.UpdateRouteStatus).Methods("POST", "PATCH")

	// Farms
	registerCRUDRoutes(api, "/farms", crudHandlers{
		getAll: handlers.GetAllFarms,
		create: handlers.CreateFarm,
		getOne: handlers.GetFarm,
		update: handlers.UpdateFarm,
		delete: handlers.DeleteFarm,
	})
	api.HandleFunc("/farms/{id}/samples", handlers.GetFarmSamples).Methods("GET")
	api.HandleFunc("/farms/{id}/pest-disease", handlers.GetFarmPestDisease).Methods("GET")

	// Crops
	registerCRUDRoutes(api, "/crops", crudHandlers{
		getAll: handlers.GetAllCrops,
		create: handlers.CreateCrop,
		getOne: handlers.GetCrop,
		update: handlers.UpdateCrop,
		delete: handlers.DeleteCrop,
	})

	// Soil Samples
	registerCRUDRoutes(api, "/soil-samples", crudHandlers{
		getAll: handlers.GetAllSoilSamples,
		create: handlers.CreateSoilSample,
		getOne: handlers.GetSoilSample,
		update: handlers.UpdateSoilSample,
		delete: handlers.DeleteSoilSample,
	})

	// Water Samples
	registerCRUDRoutes(api, "/water-samples", crudHandlers{
		getAll: handlers.GetAllWaterSamples,
		create: handlers.CreateWaterSample,
		getOne: handlers.GetWaterSample,
		update: handlers.UpdateWaterSample,
		delete: handlers.DeleteWaterSample,
	})

	// Pest and Disease Reports
	registerCRUDRoutes(api, "/pest-disease", crudHandlers{
		getAll: handlers.GetAllPestReports,
		create: handlers.CreatePestReport,
		getOne: handlers.GetPestReport,
		update: handlers.UpdatePestReport,
		delete: handlers.DeletePestReport,
	})
}

// crudHandlers holds handlers for a CRUD resource
type crudHandlers struct {
	getAll func(http.ResponseWriter, *http.Request)
	create func(http.ResponseWriter, *http.Request)
	getOne func(http.ResponseWriter, *http.Request)
	update func(http.ResponseWriter, *http.Request)
	delete func(http.ResponseWriter, *http.Request)

	// adminWrite gates create/update/delete behind the admin role.
	adminWrite bool
}

// registerCRUDRoutes registers standard CRUD routes for a resource
func registerCRUDRoutes(router *mux.Router, path string, h crudHandlers) {
	write := func(fn func(http.ResponseWriter, *http.Request)) http.Handler {
		if h.adminWrite {
			return middleware.RequireAdmin(http.HandlerFunc(fn))
		}
		return http.HandlerFunc(fn)
	}

	router.HandleFunc(path, h.getAll).Methods("GET")
	router.Handle(path, write(h.create)).Methods("POST")
	router.HandleFunc(path+"/{id}", h.getOne).Methods("GET")
	router.Handle(path+"/{id}", write(h.update)).Methods("PUT")
	router.Handle(path+"/{id}", write(h.delete)).Methods("DELETE")
}

// registerFileRoutes registers file upload endpoints
func registerFileRoutes(api *mux.Router) {
	api.HandleFunc("/files/upload", handlers.UploadPhoto).Methods("POST")
}

// registerExportRoutes registers data export endpoints
func registerExportRoutes(api *mux.Router) {
	api.HandleFunc("/export/{kind}", handlers.ExportDataset).Methods("GET")
}

// registerAdminRoutes registers admin-only routes
func registerAdminRoutes(admin *mux.Router) {
	admin.Use(middleware.RequireAdmin)

	admin.HandleFunc("/users", handlers.GetAllUsers).Methods("GET")
	admin.HandleFunc("/users", handlers.CreateUser).Methods("POST")
	admin.HandleFunc("/users/{id}", handlers.GetUserByID).Methods("GET")
	admin.HandleFunc("/users/{id}", handlers.UpdateUser).Methods("PUT")
	admin.HandleFunc("/users/{id}", handlers.DeleteUser).Methods("DELETE")
}
