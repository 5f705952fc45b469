package audit

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"mercator-hq/procurement/pkg/procurement"
)

// Config contains configuration for the audit recorder.
type Config struct {
	// WriteTimeout bounds a single storage write.
	// Default: 5 seconds
	WriteTimeout time.Duration

	// Now returns the record timestamp. Default: time.Now
	Now func() time.Time
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		WriteTimeout: 5 * time.Second,
		Now:          time.Now,
	}
}

// Entry is the caller-supplied content of an audit record.
type Entry struct {
	UserID       string
	DepartmentID string
	Action       string
	Details      map[string]any
	Reasoning    string
}

// Recorder writes audit records to a Storage backend.
type Recorder struct {
	storage Storage
	config  *Config
	logger  *slog.Logger
}

// NewRecorder creates a recorder over storage. A nil config uses
// DefaultConfig.
func NewRecorder(storage Storage, config *Config) *Recorder {
	defaults := DefaultConfig()
	if config == nil {
		config = defaults
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}
	if config.Now == nil {
		config.Now = defaults.Now
	}
	return &Recorder{
		storage: storage,
		config:  config,
		logger:  slog.Default().With("component", "audit.recorder"),
	}
}

// Storage returns the backend the recorder writes to.
func (r *Recorder) Storage() Storage {
	return r.storage
}

// Create writes an audit record unconditionally.
func (r *Recorder) Create(ctx context.Context, userID, action string, details map[string]any, reasoning string) (*Record, error) {
	return r.Write(ctx, Entry{
		UserID:    userID,
		Action:    action,
		Details:   details,
		Reasoning: reasoning,
	})
}

// RecordIfRequired writes entry only when the department requires an audit
// trail. It returns a nil record and nil error otherwise.
func (r *Recorder) RecordIfRequired(ctx context.Context, dept *procurement.Department, entry Entry) (*Record, error) {
	if dept == nil || !dept.AuditRequired {
		return nil, nil
	}
	if entry.DepartmentID == "" {
		entry.DepartmentID = dept.ID
	}
	return r.Write(ctx, entry)
}

// Write builds a record from entry and stores it within the write timeout.
// Any failure is returned as a *WriteError.
func (r *Recorder) Write(ctx context.Context, entry Entry) (*Record, error) {
	record := &Record{
		ID:           uuid.NewString(),
		Timestamp:    r.config.Now().UTC(),
		UserID:       entry.UserID,
		DepartmentID: entry.DepartmentID,
		Action:       entry.Action,
		Reasoning:    entry.Reasoning,
	}

	fail := func(err error) (*Record, error) {
		r.logger.Error("Audit write failed",
			"record_id", record.ID,
			"user_id", record.UserID,
			"action", record.Action,
			"error", err,
		)
		return nil, &WriteError{RecordID: record.ID, UserID: record.UserID, Action: record.Action, Cause: err}
	}

	if entry.UserID == "" {
		return fail(fmt.Errorf("user id cannot be empty"))
	}
	if entry.Action == "" {
		return fail(fmt.Errorf("action cannot be empty"))
	}

	details, hash, err := normalizeDetails(entry.Details)
	if err != nil {
		return fail(err)
	}
	record.Details = details
	record.DetailsHash = hash

	writeCtx, cancel := context.WithTimeout(ctx, r.config.WriteTimeout)
	defer cancel()

	if err := r.storage.Store(writeCtx, record); err != nil {
		return fail(err)
	}

	r.logger.Debug("Audit record written",
		"record_id", record.ID,
		"user_id", record.UserID,
		"department_id", record.DepartmentID,
		"action", record.Action,
	)
	return record, nil
}

// HashDetails returns the hex SHA-256 of the canonical JSON form of
// details. Map keys are sorted by encoding/json.
func HashDetails(details map[string]any) (string, error) {
	if details == nil {
		details = map[string]any{}
	}
	data, err := json.Marshal(details)
	if err != nil {
		return "", fmt.Errorf("failed to encode details: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// VerifyHash reports whether the record's details still match its hash.
func VerifyHash(r *Record) bool {
	hash, err := HashDetails(r.Details)
	return err == nil && hash == r.DetailsHash
}

// DecodeDetails decodes stored JSON details, keeping numbers exact.
func DecodeDetails(data []byte) (map[string]any, error) {
	details := map[string]any{}
	if len(data) == 0 {
		return details, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&details); err != nil {
		return nil, err
	}
	return details, nil
}

// normalizeDetails converts details to plain JSON values so the stored form
// and its hash survive a round trip through any backend.
func normalizeDetails(details map[string]any) (map[string]any, string, error) {
	if details == nil {
		details = map[string]any{}
	}
	data, err := json.Marshal(details)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode details: %w", err)
	}
	normalized, err := DecodeDetails(data)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode details: %w", err)
	}
	hash, err := HashDetails(normalized)
	if err != nil {
		return nil, "", err
	}
	return normalized, hash, nil
}
