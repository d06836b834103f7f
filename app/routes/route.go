package routes

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"github.com/jdlcruz/go-hardwarepos/app/configs"
	"github.com/jdlcruz/go-hardwarepos/app/handlers"
	"github.com/jdlcruz/go-hardwarepos/app/middlewares"
	"github.com/jdlcruz/go-hardwarepos/app/repositories"
	"github.com/jdlcruz/go-hardwarepos/app/services"
	"github.com/jdlcruz/go-hardwarepos/app/utils/sessions"
	"github.com/unrolled/render"
	"gorm.io/gorm"
)

func NewRouter(db *gorm.DB, env configs.ENV, sessionKeys *configs.SessionKeys) http.Handler {
	rnd := render.New()
	validate := validator.New()
	sessionStore := sessions.NewCookieSessionStore(sessionKeys.AuthKey, sessionKeys.EncKey)

	variantRepo := repositories.NewVariantRepository(db)
	productRepo := repositories.NewProductRepository(db)
	reservationRepo := repositories.NewReservationRepository(db)
	historyRepo := repositories.NewReservationHistoryRepository(db)
	supplyRepo := repositories.NewSupplyHistoryRepository(db)
	userRepo := repositories.NewUserRepository(db)

	resolver := services.NewStockResolver(variantRepo)
	lineValidator := services.NewLineValidator(resolver)
	ledger := services.NewStockLedger(variantRepo, resolver)
	mailer := services.NewMailer(services.MailerConfig{
		Host:     env.EmailHost,
		Port:     env.EmailPort,
		Username: env.EmailUsername,
		Password: env.EmailPassword,
		From:     env.EmailFrom,
	})
	reservationService := services.NewReservationService(reservationRepo, variantRepo, historyRepo, resolver, lineValidator, ledger, mailer)
	supplyService := services.NewSupplyService(supplyRepo, variantRepo)

	authHandler := handlers.NewAuthHandler(rnd, validate, userRepo, sessionStore)
	productHandler := handlers.NewProductHandler(rnd, validate, productRepo, variantRepo)
	stockHandler := handlers.NewStockHandler(rnd, resolver)
	reservationHandler := handlers.NewReservationHandler(rnd, validate, reservationService)
	supplyHandler := handlers.NewSupplyHandler(rnd, validate, supplyService)

	router := mux.NewRouter()
	router.Use(middlewares.RequestLogMiddleware)
	router.Use(middlewares.ActorMiddleware(userRepo, sessionStore))

	router.HandleFunc("/login", authHandler.Login).Methods("POST")
	router.HandleFunc("/logout", authHandler.Logout).Methods("POST")

	router.HandleFunc("/products", productHandler.List).Methods("GET")
	router.HandleFunc("/products/{id}", productHandler.Get).Methods("GET")
	router.HandleFunc("/variants/{id}/available", stockHandler.Available).Methods("GET")

	router.HandleFunc("/reservations", reservationHandler.Create).Methods("POST")
	router.HandleFunc("/reservations/{id}", reservationHandler.Get).Methods("GET")
	router.HandleFunc("/reservations/{id}/status", reservationHandler.ChangeStatus).Methods("PUT")

	// Staff-only POS surface; stricter gate plus CSRF protection since the
	// POS UI is browser-based.
	staff := router.PathPrefix("/staff").Subrouter()
	staff.Use(middlewares.StaffOnlyMiddleware())
	staff.Use(csrf.Protect([]byte(env.CSRFKey), csrf.Secure(env.APP_ENV == "production")))

	staff.HandleFunc("/products", productHandler.Create).Methods("POST")
	staff.HandleFunc("/products/{id}/variants", productHandler.CreateVariant).Methods("POST")

	staff.HandleFunc("/reservations/{id}/details", reservationHandler.EditDetails).Methods("PUT")
	staff.HandleFunc("/reservations/{id}/details/validate", reservationHandler.ValidateLine).Methods("POST")
	staff.HandleFunc("/reservations/{id}/history", reservationHandler.History).Methods("GET")

	staff.HandleFunc("/variants/{id}/restock", supplyHandler.Restock).Methods("POST")
	staff.HandleFunc("/variants/{id}/supply-histories", supplyHandler.HistoryForVariant).Methods("GET")
	staff.HandleFunc("/supply-histories/{id}/pull-out", supplyHandler.PullOut).Methods("POST")
	staff.HandleFunc("/supply-histories/{id}/redo", supplyHandler.Redo).Methods("POST")

	return router
}
