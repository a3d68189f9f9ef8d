package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const driveFolderName = "Shomabesh Events"

var (
	ErrDriveNotConnected = errors.New("not connected to Google Drive")
	ErrDriveAuthExpired  = errors.New("google drive authorization expired")
)

// DriveExporter writes event text files into the submitter's own Drive,
// under a folder it creates on first use. Every call runs with the token of
// one browser session; there is no service-wide Drive account.
type DriveExporter struct {
	google   *GoogleAuth
	sessions TokenStore
}

func NewDriveExporter(google *GoogleAuth, sessions TokenStore) *DriveExporter {
	if google == nil {
		return nil
	}
	return &DriveExporter{google: google, sessions: sessions}
}

// StepFor returns the pipeline step for one session, or nil when that
// session never connected Google Drive.
func (d *DriveExporter) StepFor(sid string) DriveStep {
	if d == nil {
		return nil
	}
	if _, ok := d.sessions.Get(sid); !ok {
		return nil
	}
	return func(ctx context.Context, e Event) error {
		_, err := d.Export(ctx, sid, e)
		return err
	}
}

// Export writes one event file and returns the Drive file id.
func (d *DriveExporter) Export(ctx context.Context, sid string, e Event) (string, error) {
	token, ok := d.sessions.Get(sid)
	if !ok {
		return "", ErrDriveNotConnected
	}

	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	source := d.google.oauth.TokenSource(ctx, token)
	service, err := drive.NewService(ctx, option.WithTokenSource(source))
	if err != nil {
		return "", err
	}

	folderID, err := d.ensureFolder(ctx, service)
	if err != nil {
		return "", d.checkRevoked(sid, err)
	}

	file := &drive.File{
		Name:     exportFileName(e),
		MimeType: "text/plain",
		Parents:  []string{folderID},
	}
	created, err := service.Files.Create(file).
		Media(strings.NewReader(formatEventText(e))).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", d.checkRevoked(sid, err)
	}

	// The token source refreshes under the hood; keep the session current so
	// the next export skips the refresh round-trip.
	if fresh, terr := source.Token(); terr == nil && fresh.AccessToken != token.AccessToken {
		d.sessions.Set(sid, fresh)
	}
	return created.Id, nil
}

// ensureFolder finds the export folder or creates it. Lookup is by name in
// the user's own Drive, ignoring trashed folders.
func (d *DriveExporter) ensureFolder(ctx context.Context, service *drive.Service) (string, error) {
	query := fmt.Sprintf("name = '%s' and mimeType = 'application/vnd.google-apps.folder' and trashed = false", driveFolderName)

	list, err := service.Files.List().
		Q(query).
		Spaces("drive").
		Fields("files(id)").
		PageSize(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", err
	}
	if len(list.Files) > 0 {
		return list.Files[0].Id, nil
	}

	folder, err := service.Files.Create(&drive.File{
		Name:     driveFolderName,
		MimeType: "application/vnd.google-apps.folder",
	}).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return folder.Id, nil
}

// checkRevoked turns revoked-credential failures into ErrDriveAuthExpired and
// drops the dead token so the status endpoint reports disconnected.
func (d *DriveExporter) checkRevoked(sid string, err error) error {
	if isAuthRevoked(err) {
		d.sessions.Clear(sid)
		return ErrDriveAuthExpired
	}
	return err
}

func isAuthRevoked(err error) bool {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return true
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 401
	}
	return false
}

func exportFileName(e Event) string {
	return e.Name + " - " + e.CreatedAt + ".txt"
}

func formatEventText(e Event) string {
	var b strings.Builder
	add := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%s: %s\n", label, value)
		}
	}

	add("Name", e.Name)
	add("Category", e.Category)
	add("District", e.District)
	add("Upazila", e.Upazila)
	add("Village", e.Village)
	add("Address", e.Address)
	add("Description", e.Description)
	add("Date", e.EventDate)
	add("Day", e.EventDay)
	add("Start time", e.StartTime)
	add("Contact", e.Contact)
	add("Image", e.ImageURL)
	add("Link", e.LinkURL)
	if e.Latitude != nil && e.Longitude != nil {
		fmt.Fprintf(&b, "Location: %f, %f\n", *e.Latitude, *e.Longitude)
	}
	add("Created", e.CreatedAt)
	return b.String()
}
