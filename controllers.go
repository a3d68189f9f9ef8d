package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// App carries the wired backends. Handlers close over it instead of reaching
// for globals; Google, Drive and Images may be nil when unconfigured.
type App struct {
	Config   Config
	Pipeline *Pipeline
	Sessions TokenStore
	Google   *GoogleAuth
	Drive    *DriveExporter
	Images   *ImageUploader
}

// -----------------------------
// Helper functions
// -----------------------------

func jsonError(c *gin.Context, code int, msg string) {
	c.JSON(code, gin.H{"error": msg})
}

// rawIDToString accepts `"id": 15` and `"id": "15"` alike; the frontend has
// sent both over time.
func rawIDToString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return strings.Trim(strings.TrimSpace(string(raw)), `"`)
}

// -----------------------------
// Events
// -----------------------------

// CreateEventRequest is the submission payload. Coordinates arrive as strings
// because the form keeps them in text inputs; coercion happens server-side.
type CreateEventRequest struct {
	Name        string `json:"name" binding:"required"`
	Category    string `json:"category" binding:"required"`
	District    string `json:"district" binding:"required"`
	Upazila     string `json:"upazila"`
	Village     string `json:"village"`
	Address     string `json:"address"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	LinkURL     string `json:"link_url"`
	EventDate   string `json:"event_date" binding:"required"`
	EventDay    string `json:"event_day"`
	StartTime   string `json:"start_time"`
	Contact     string `json:"contact"`
	Latitude    string `json:"latitude"`
	Longitude   string `json:"longitude"`
}

// ToEvent builds the canonical record, stamping created_at exactly once so
// every backend stores the same timestamp.
func (r CreateEventRequest) ToEvent(now time.Time) Event {
	return Event{
		Name:        strings.TrimSpace(r.Name),
		Category:    r.Category,
		District:    strings.TrimSpace(r.District),
		Upazila:     strings.TrimSpace(r.Upazila),
		Village:     strings.TrimSpace(r.Village),
		Address:     strings.TrimSpace(r.Address),
		Description: r.Description,
		ImageURL:    strings.TrimSpace(r.ImageURL),
		LinkURL:     strings.TrimSpace(r.LinkURL),
		EventDate:   strings.TrimSpace(r.EventDate),
		EventDay:    strings.TrimSpace(r.EventDay),
		StartTime:   strings.TrimSpace(r.StartTime),
		Contact:     strings.TrimSpace(r.Contact),
		Latitude:    coerceCoord(r.Latitude),
		Longitude:   coerceCoord(r.Longitude),
		CreatedAt:   now.UTC().Format(time.RFC3339),
	}
}

func CreateEvent(app *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body CreateEventRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			jsonError(c, http.StatusBadRequest, "invalid request: "+err.Error())
			return
		}

		if !validCategory(body.Category) {
			jsonError(c, http.StatusBadRequest, "category must be one of: "+strings.Join(eventCategories, ", "))
			return
		}

		event := body.ToEvent(time.Now())

		// Drive export joins the fan-out only when this browser session has
		// a linked Google account.
		receipt, err := app.Pipeline.Write(c.Request.Context(), event, app.Drive.StepFor(sessionID(c)))
		if err != nil {
			jsonError(c, http.StatusInternalServerError, "could not save event")
			return
		}

		c.JSON(http.StatusCreated, gin.H{"success": true, "id": receipt.PrimaryID})
	}
}

func GetEvents(app *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := EventFilter{
			Category: c.Query("category"),
			District: c.Query("district"),
			Upazila:  c.Query("upazila"),
			Village:  c.Query("village"),
		}

		events, err := app.Pipeline.List(c.Request.Context(), filter)
		if err != nil {
			jsonError(c, http.StatusInternalServerError, "could not fetch events")
			return
		}
		if events == nil {
			events = []Event{}
		}

		c.JSON(http.StatusOK, events)
	}
}

type DeleteEventRequest struct {
	ID     json.RawMessage `json:"id" binding:"required"`
	Secret string          `json:"secret" binding:"required"`
}

func DeleteEvent(app *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body DeleteEventRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			jsonError(c, http.StatusBadRequest, "invalid request: "+err.Error())
			return
		}

		// Secret check happens before any backend is touched.
		if body.Secret != app.Config.DeleteSecret {
			jsonError(c, http.StatusUnauthorized, "invalid delete secret")
			return
		}

		id := rawIDToString(body.ID)
		if id == "" {
			jsonError(c, http.StatusBadRequest, "missing event id")
			return
		}

		if _, err := app.Pipeline.Delete(c.Request.Context(), id); err != nil {
			jsonError(c, http.StatusInternalServerError, "could not delete event")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// -----------------------------
// Drive export
// -----------------------------

type SaveToDriveRequest struct {
	EventData Event `json:"eventData" binding:"required"`
}

func SaveToDrive(app *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		if app.Drive == nil {
			jsonError(c, http.StatusServiceUnavailable, "Google Drive integration is not configured")
			return
		}

		var body SaveToDriveRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			jsonError(c, http.StatusBadRequest, "invalid request: "+err.Error())
			return
		}
		event := body.EventData
		if event.Name == "" {
			jsonError(c, http.StatusBadRequest, "event name is required")
			return
		}
		if event.CreatedAt == "" {
			event.CreatedAt = time.Now().UTC().Format(time.RFC3339)
		}

		fileID, err := app.Drive.Export(c.Request.Context(), sessionID(c), event)
		switch {
		case errors.Is(err, ErrDriveNotConnected):
			jsonError(c, http.StatusUnauthorized, "Not connected to Google Drive")
			return
		case errors.Is(err, ErrDriveAuthExpired):
			jsonError(c, http.StatusUnauthorized, "Google Drive authorization expired, please reconnect")
			return
		case err != nil:
			jsonError(c, http.StatusInternalServerError, "could not save to Google Drive")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "fileId": fileID})
	}
}

// -----------------------------
// Image upload
// -----------------------------

func UploadEventImage(app *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		if app.Images == nil {
			jsonError(c, http.StatusServiceUnavailable, "image uploads are not configured")
			return
		}

		file, _, err := c.Request.FormFile("image")
		if err != nil {
			jsonError(c, http.StatusBadRequest, "image file is required")
			return
		}
		defer file.Close()

		url, err := app.Images.Upload(c.Request.Context(), file)
		if err != nil {
			jsonError(c, http.StatusInternalServerError, "could not upload image")
			return
		}

		c.JSON(http.StatusOK, gin.H{"url": url})
	}
}
