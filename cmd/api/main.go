package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/CodeVerseByAnuj/sajag-ledger/pkg/interest"
	"github.com/CodeVerseByAnuj/sajag-ledger/pkg/ledger"
	"github.com/CodeVerseByAnuj/sajag-ledger/pkg/models"
	"github.com/CodeVerseByAnuj/sajag-ledger/pkg/store"
)

// Server holds the ledger instance.
type Server struct {
	ledger  *ledger.Ledger
	storage store.Storage // kept so main can close it
}

func NewServer(s store.Storage) *Server {
	return &Server{
		ledger:  ledger.NewLedger(s),
		storage: s,
	}
}

// listResponse is the envelope for paginated listings.
type listResponse struct {
	Data  interface{} `json:"data"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
	Total int         `json:"total"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusForError(err), map[string]string{"error": err.Error()})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrInvalidInput),
		errors.Is(err, ledger.ErrInvalidPaymentDate),
		errors.Is(err, ledger.ErrEmptyPayment),
		errors.Is(err, ledger.ErrOverpayment),
		errors.Is(err, ledger.ErrAmountMismatch),
		errors.Is(err, ledger.ErrNegativeAmount),
		errors.Is(err, interest.ErrInvalidDateRange),
		errors.Is(err, interest.ErrNegativeAmount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return uuid.Nil, errors.New("invalid id in path")
	}
	return id, nil
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

func (s *Server) createCustomerHandler(w http.ResponseWriter, r *http.Request) {
	var in ledger.CustomerInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	customer, err := s.ledger.CreateCustomer(in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, customer)
}

func (s *Server) listCustomersHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.CustomerFilter{
		Name:         q.Get("name"),
		GuardianName: q.Get("guardianName"),
		Address:      q.Get("address"),
		Page:         queryInt(r, "page"),
		Limit:        queryInt(r, "limit"),
		SortBy:       q.Get("sortBy"),
		SortOrder:    q.Get("sortOrder"),
	}
	customers, total, err := s.ledger.ListCustomers(f)
	if err != nil {
		writeError(w, err)
		return
	}
	if customers == nil {
		customers = []*models.Customer{}
	}
	writeJSON(w, http.StatusOK, listResponse{Data: customers, Page: max(f.Page, 1), Limit: f.Limit, Total: total})
}

func (s *Server) getCustomerHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	customer, err := s.ledger.GetCustomer(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

func (s *Server) updateCustomerHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var in ledger.CustomerInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	customer, err := s.ledger.UpdateCustomer(id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

func (s *Server) deleteCustomerHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.ledger.DeleteCustomer(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) createItemHandler(w http.ResponseWriter, r *http.Request) {
	var in ledger.ItemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	item, err := s.ledger.CreateItem(in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) listItemsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.ItemFilter{
		Name:      q.Get("name"),
		Category:  models.Category(q.Get("category")),
		Page:      queryInt(r, "page"),
		Limit:     queryInt(r, "limit"),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}
	if raw := q.Get("customerId"); raw != "" {
		customerID, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, "invalid customerId", http.StatusBadRequest)
			return
		}
		f.CustomerID = customerID
	}
	items, total, err := s.ledger.ListItems(f)
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []*models.Item{}
	}
	writeJSON(w, http.StatusOK, listResponse{Data: items, Page: max(f.Page, 1), Limit: f.Limit, Total: total})
}

func (s *Server) getItemHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	item, err := s.ledger.GetItem(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) updateItemHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var in ledger.ItemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	item, err := s.ledger.UpdateItem(id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) deleteItemHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.ledger.DeleteItem(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) itemPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	details, err := s.ledger.PaymentDetails(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if details.Payments == nil {
		details.Payments = []*models.Payment{}
	}
	writeJSON(w, http.StatusOK, details)
}

func (s *Server) addPaymentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var in ledger.PaymentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	payment, status, err := s.ledger.AddPayment(id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"payment":       payment,
		"currentStatus": status,
	})
}

func (s *Server) interestDueHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	asOf := models.Today()
	if raw := r.URL.Query().Get("asOf"); raw != "" {
		asOf, err = models.ParseDate(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	calc, err := s.ledger.InterestDue(id, asOf)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, calc)
}

func (s *Server) listPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.PaymentFilter{
		Page:      queryInt(r, "page"),
		Limit:     queryInt(r, "limit"),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}
	if raw := q.Get("itemId"); raw != "" {
		itemID, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, "invalid itemId", http.StatusBadRequest)
			return
		}
		f.ItemID = itemID
	}
	if raw := q.Get("customerId"); raw != "" {
		customerID, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, "invalid customerId", http.StatusBadRequest)
			return
		}
		f.CustomerID = customerID
	}
	if raw := q.Get("startDate"); raw != "" {
		d, err := models.ParseDate(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.StartDate = d
	}
	if raw := q.Get("endDate"); raw != "" {
		d, err := models.ParseDate(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.EndDate = d
	}
	payments, total, err := s.ledger.PaymentHistory(f)
	if err != nil {
		writeError(w, err)
		return
	}
	if payments == nil {
		payments = []*models.Payment{}
	}
	writeJSON(w, http.StatusOK, listResponse{Data: payments, Page: max(f.Page, 1), Limit: f.Limit, Total: total})
}

func (s *Server) deletePaymentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.ledger.DeletePayment(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) calculateInterestHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount     decimal.Decimal `json:"amount"`
		Percentage decimal.Decimal `json:"percentage"`
		StartDate  models.Date     `json:"startDate"`
		EndDate    models.Date     `json:"endDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	calc, err := interest.Calculate(req.Amount, req.Percentage, req.StartDate, req.EndDate)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, calc)
}

func (s *Server) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ledger.Dashboard()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()
	router.Use(requestLogger)

	router.HandleFunc("/customers", s.listCustomersHandler).Methods("GET")
	router.HandleFunc("/customers", s.createCustomerHandler).Methods("POST")
	router.HandleFunc("/customers/{id}", s.getCustomerHandler).Methods("GET")
	router.HandleFunc("/customers/{id}", s.updateCustomerHandler).Methods("PUT")
	router.HandleFunc("/customers/{id}", s.deleteCustomerHandler).Methods("DELETE")

	router.HandleFunc("/items", s.listItemsHandler).Methods("GET")
	router.HandleFunc("/items", s.createItemHandler).Methods("POST")
	router.HandleFunc("/items/{id}", s.getItemHandler).Methods("GET")
	router.HandleFunc("/items/{id}", s.updateItemHandler).Methods("PUT")
	router.HandleFunc("/items/{id}", s.deleteItemHandler).Methods("DELETE")

	router.HandleFunc("/items/{id}/payments", s.itemPaymentsHandler).Methods("GET")
	router.HandleFunc("/items/{id}/payments", s.addPaymentHandler).Methods("POST")
	router.HandleFunc("/items/{id}/due", s.interestDueHandler).Methods("GET")
	router.HandleFunc("/payments", s.listPaymentsHandler).Methods("GET")
	router.HandleFunc("/payments/{id}", s.deletePaymentHandler).Methods("DELETE")

	router.HandleFunc("/calculate-interest", s.calculateInterestHandler).Methods("POST")
	router.HandleFunc("/dashboard", s.dashboardHandler).Methods("GET")

	return router
}

// statusRecorder captures the response code for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

type config struct {
	Addr     string
	DBPath   string
	LogLevel string
}

func loadConfig() config {
	_ = godotenv.Load()
	return config{
		Addr:     envOr("SAJAG_ADDR", ":8080"),
		DBPath:   envOr("SAJAG_DB_PATH", "sajag.db"),
		LogLevel: envOr("SAJAG_LOG_LEVEL", "info"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func setupLogging(levelStr string) {
	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
}

func main() {
	cfg := loadConfig()
	setupLogging(cfg.LogLevel)

	sqliteStore, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize SQLite store")
	}
	defer sqliteStore.Close()
	log.Info().Str("db", cfg.DBPath).Msg("database ready")

	server := NewServer(sqliteStore)

	log.Info().Str("addr", cfg.Addr).Msg("server starting")
	if err := http.ListenAndServe(cfg.Addr, server.routes()); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
