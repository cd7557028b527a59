package main

import (
	"net/http"
	"os"
	"time"

	"video-research-backend/database"
	"video-research-backend/handlers"
	"video-research-backend/logger"
	"video-research-backend/services"
	"video-research-backend/state"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

func main() {
	log := logger.New().WithField("component", "main")

	/* ─── ENV ───────────────────────────────────────────────────────────── */
	if err := godotenv.Load(); err != nil {
		log.Warn(".env file not found, falling back to system env")
	}

	/* ─── DATABASE ───────────────────────────────────────────────────────── */
	db, err := database.InitDB(os.Getenv("DATABASE_URL"))
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	defer db.Close()

	/* ─── ADAPTERS ───────────────────────────────────────────────────────── */
	bucket := getenvDefault("CONTENT_BUCKET", "research-videos")
	contentStore, err := services.NewS3ContentStore(bucket)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize content store")
	}

	transcriber := services.NewWhisperTranscriber()
	scorer := services.NewLLMScorer()
	synthesizer := services.NewHTTPSynthesizer()
	videoHost := services.NewStreamVideoHost()
	renderer := services.NewBrowserRenderer()
	eventHub := state.NewEventHub()

	pipeline := services.NewPipeline(db, contentStore, transcriber, scorer,
		synthesizer, videoHost, renderer, eventHub)

	/* ─── ROUTER ─────────────────────────────────────────────────────────── */
	h := handlers.NewPipelineHandler(pipeline, db)
	router := mux.NewRouter()

	router.HandleFunc("/upload", h.UploadHandler()).Methods("POST")
	router.HandleFunc("/initiate-upload", h.InitiateUploadHandler()).Methods("POST")
	router.HandleFunc("/transcribe", h.TranscribeHandler()).Methods("POST")
	router.HandleFunc("/analyze", h.AnalyzeHandler()).Methods("POST")
	router.HandleFunc("/tts", h.TTSHandler()).Methods("POST")
	router.HandleFunc("/render", h.RenderHandler()).Methods("POST")
	router.HandleFunc("/search", h.SearchHandler()).Methods("GET")
	router.HandleFunc("/status", h.StatusHandler()).Methods("GET")
	router.HandleFunc("/categories", h.CategoriesHandler()).Methods("GET")
	router.HandleFunc("/categories/assign", h.AssignCategoryHandler()).Methods("POST")
	router.HandleFunc("/export", h.ExportHandler()).Methods("GET")
	router.HandleFunc("/ws", handlers.WebSocketHandler(eventHub))

	/* ─── CORS & SERVER ──────────────────────────────────────────────────── */
	cors := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins([]string{"*"}),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	addr := getenvDefault("LISTEN_ADDR", ":8080")
	log.WithField("addr", addr).Info("backend listening")
	log.Fatal(http.ListenAndServe(addr, cors(requestLogging(logger.New(), router))))
}

// requestLogging emits one access-log line per handled request
func requestLogging(log *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.WithRequest(r).WithField("duration_ms", time.Since(start).Milliseconds()).Info("request handled")
	})
}

/* utility */
func getenvDefault(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
