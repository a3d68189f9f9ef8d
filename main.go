package main

import (
	"context"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Println("⚠️ Warning: .env file not found, using system environment variables")
	}
}

func main() {

	// Load .env variables
	LoadEnv()

	cfg := LoadConfig()

	// Primary store is required; everything below degrades gracefully
	primary, err := NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseAnonKey)
	if err != nil {
		log.Fatalf("❌ Supabase client failed: %v", err)
	}

	pipeline := &Pipeline{Primary: primary}

	backup, err := NewMongoStore(context.Background(), cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Println("⚠️ MongoDB unavailable, backup store disabled:", err)
	} else {
		pipeline.Backup = backup
	}

	cache, err := NewSQLiteCache(cfg.CacheDBPath)
	if err != nil {
		log.Println("⚠️ local cache unavailable:", err)
	} else {
		pipeline.Cache = cache
	}

	sessions := NewMemoryTokenStore()

	google := NewGoogleAuth(cfg)
	if google == nil {
		log.Println("⚠️ GOOGLE_CLIENT_ID/SECRET not set, Drive integration disabled")
	}

	images, err := NewImageUploader(cfg)
	if err != nil {
		log.Println("⚠️ Cloudinary init failed, image uploads disabled:", err)
	} else if images == nil {
		log.Println("⚠️ Cloudinary credentials not set, image uploads disabled")
	}

	app := &App{
		Config:   cfg,
		Pipeline: pipeline,
		Sessions: sessions,
		Google:   google,
		Drive:    NewDriveExporter(google, sessions),
		Images:   images,
	}

	// Start Gin
	r := gin.Default()

	// CORS: the frontend sends the session cookie, so origins must be explicit
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendOrigin},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Use(SessionMiddleware())

	// Routes
	SetupRoutes(r, app)

	// Start server
	log.Println("🚀 Server running on http://localhost:" + cfg.Port)
	r.Run(":" + cfg.Port)
}
