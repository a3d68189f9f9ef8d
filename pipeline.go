package main

import (
	"context"
	"errors"
	"log"
)

// Step names as they appear in receipts and logs.
const (
	StepPrimary = "primary"
	StepBackup  = "backup"
	StepCache   = "cache"
	StepDrive   = "drive"
)

var errStepSkipped = errors.New("step skipped")

// PrimaryStore is the system of record. Insert returns the id assigned by the
// store; List pushes the filter down and returns newest-first.
type PrimaryStore interface {
	Insert(ctx context.Context, e Event) (string, error)
	List(ctx context.Context, f EventFilter) ([]Event, error)
	Delete(ctx context.Context, id string) error
}

// BackupStore is the secondary document store. List returns the full
// unfiltered snapshot; filtering happens caller-side.
type BackupStore interface {
	Insert(ctx context.Context, e Event) (string, error)
	List(ctx context.Context) ([]Event, error)
	Delete(ctx context.Context, hexID string) error
}

// CacheStore is the local write-only mirror. It is never read on the request
// path; it exists for offline inspection of what the server accepted.
type CacheStore interface {
	Save(ctx context.Context, e Event) error
	Delete(ctx context.Context, id string) error
}

// DriveStep exports one event to the submitter's own storage. Pipelines treat
// a nil step as "not connected" and record it as skipped.
type DriveStep func(ctx context.Context, e Event) error

// StepOutcome records what happened to one backend during a fan-out.
type StepOutcome struct {
	Name     string
	Critical bool
	Skipped  bool
	ID       string
	Err      error
}

// WriteReceipt is the full account of a submission fan-out. PrimaryID is set
// only when the critical step succeeded.
type WriteReceipt struct {
	PrimaryID string
	Steps     []StepOutcome
}

// Pipeline fans writes out to every configured backend and serves reads from
// the primary with the backup as fallback. Backup and Cache may be nil when
// the corresponding backend is not configured.
type Pipeline struct {
	Primary PrimaryStore
	Backup  BackupStore
	Cache   CacheStore
}

// Write persists one event. The primary insert is critical: if it fails the
// whole submission fails and no further step runs. Every later step is
// best-effort; its failure is logged, recorded in the receipt and never
// surfaced to the submitter.
func (p *Pipeline) Write(ctx context.Context, e Event, drive DriveStep) (WriteReceipt, error) {
	var receipt WriteReceipt

	primaryID, err := p.Primary.Insert(ctx, e)
	receipt.Steps = append(receipt.Steps, StepOutcome{Name: StepPrimary, Critical: true, ID: primaryID, Err: err})
	if err != nil {
		log.Printf("❌ primary insert failed: %v", err)
		return receipt, err
	}
	receipt.PrimaryID = primaryID
	e.ID = primaryID

	if p.Backup != nil {
		backupID, berr := p.Backup.Insert(ctx, e)
		receipt.Steps = append(receipt.Steps, StepOutcome{Name: StepBackup, ID: backupID, Err: berr})
		if berr != nil {
			log.Printf("⚠️ backup insert failed: %v", berr)
		}
	} else {
		receipt.Steps = append(receipt.Steps, StepOutcome{Name: StepBackup, Skipped: true, Err: errStepSkipped})
	}

	if p.Cache != nil {
		cerr := p.Cache.Save(ctx, e)
		receipt.Steps = append(receipt.Steps, StepOutcome{Name: StepCache, ID: primaryID, Err: cerr})
		if cerr != nil {
			log.Printf("⚠️ cache save failed: %v", cerr)
		}
	} else {
		receipt.Steps = append(receipt.Steps, StepOutcome{Name: StepCache, Skipped: true, Err: errStepSkipped})
	}

	if drive != nil {
		derr := drive(ctx, e)
		receipt.Steps = append(receipt.Steps, StepOutcome{Name: StepDrive, Err: derr})
		if derr != nil {
			log.Printf("⚠️ drive export failed: %v", derr)
		}
	} else {
		receipt.Steps = append(receipt.Steps, StepOutcome{Name: StepDrive, Skipped: true, Err: errStepSkipped})
	}

	return receipt, nil
}

// List reads events for display. The primary store serves filtered,
// newest-first results; when it is unreachable the backup's unfiltered
// snapshot is filtered and sorted here so readers still see data.
func (p *Pipeline) List(ctx context.Context, f EventFilter) ([]Event, error) {
	events, err := p.Primary.List(ctx, f)
	if err == nil {
		return events, nil
	}
	log.Printf("⚠️ primary list failed, falling back to backup: %v", err)

	if p.Backup == nil {
		return nil, err
	}
	snapshot, berr := p.Backup.List(ctx)
	if berr != nil {
		log.Printf("❌ backup list failed: %v", berr)
		return nil, berr
	}

	filtered := make([]Event, 0, len(snapshot))
	for _, e := range snapshot {
		if f.Matches(e) {
			filtered = append(filtered, e)
		}
	}
	sortNewestFirst(filtered)
	return filtered, nil
}

// Delete removes one event everywhere its id shape can address. Numeric ids
// belong to the primary, where deletion is critical; 24-hex ids belong to the
// backup, where it is best-effort. The cache delete is always attempted with
// the raw id and its failure swallowed.
func (p *Pipeline) Delete(ctx context.Context, id string) ([]StepOutcome, error) {
	var steps []StepOutcome

	if isNumericID(id) {
		err := p.Primary.Delete(ctx, id)
		steps = append(steps, StepOutcome{Name: StepPrimary, Critical: true, ID: id, Err: err})
		if err != nil {
			log.Printf("❌ primary delete failed: %v", err)
			return steps, err
		}
	} else {
		steps = append(steps, StepOutcome{Name: StepPrimary, Critical: true, Skipped: true, Err: errStepSkipped})
	}

	if p.Backup != nil && isHexObjectID(id) {
		err := p.Backup.Delete(ctx, id)
		steps = append(steps, StepOutcome{Name: StepBackup, ID: id, Err: err})
		if err != nil {
			log.Printf("⚠️ backup delete failed: %v", err)
		}
	} else {
		steps = append(steps, StepOutcome{Name: StepBackup, Skipped: true, Err: errStepSkipped})
	}

	if p.Cache != nil {
		err := p.Cache.Delete(ctx, id)
		steps = append(steps, StepOutcome{Name: StepCache, ID: id, Err: err})
		if err != nil {
			log.Printf("⚠️ cache delete failed: %v", err)
		}
	} else {
		steps = append(steps, StepOutcome{Name: StepCache, Skipped: true, Err: errStepSkipped})
	}

	return steps, nil
}

func isNumericID(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isHexObjectID(s string) bool {
	if len(s) != 24 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
