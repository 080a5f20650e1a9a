// protocol.go
//
// P3DV catalog: local 3D model library host with offline license activation
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of p3dv-catalog.
// p3dv-catalog is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// p3dv-catalog is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with p3dv-catalog.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package license

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/localnerve/p3dv-catalog/internal/types"
)

// ValidityWindow is how long an activation code may be redeemed after it was issued.
const ValidityWindow = 30 * 24 * time.Hour

// State is a step of the activation handshake.
type State string

const (
	StateEnteringKey   State = "entering_key"
	StateCodeGenerated State = "code_generated"
	StateCodeEntered   State = "code_entered"
	StateActivated     State = "activated"
	StateDeactivated   State = "deactivated"
)

// Reason names why an activation code was rejected.
type Reason string

const (
	ReasonMalformedCode          Reason = "MalformedCode"
	ReasonBadSignature           Reason = "BadSignature"
	ReasonFingerprintMismatch    Reason = "FingerprintMismatch"
	ReasonFingerprintUnavailable Reason = "FingerprintUnavailable"
	ReasonWrongProduct           Reason = "WrongProduct"
	ReasonInvalidKeyFormat       Reason = "InvalidKeyFormat"
	ReasonExpired                Reason = "Expired"
	ReasonKeyMismatch            Reason = "KeyMismatch"
)

var reasonErrors = map[Reason]*types.CustomError{
	ReasonMalformedCode:          types.ErrMalformedCode,
	ReasonBadSignature:           types.ErrBadSignature,
	ReasonFingerprintMismatch:    types.ErrFingerprintMismatch,
	ReasonFingerprintUnavailable: types.ErrFingerprintUnavailable,
	ReasonWrongProduct:           types.ErrWrongProduct,
	ReasonInvalidKeyFormat:       types.ErrInvalidKeyFormat,
	ReasonExpired:                types.ErrExpired,
	ReasonKeyMismatch:            types.ErrKeyMismatch,
}

// ActivationError reports a rejected activation with its specific reason.
// errors.Is matches it against the reason's sentinel.
type ActivationError struct {
	Reason Reason
}

func (e *ActivationError) Error() string {
	return "activation rejected: " + string(e.Reason)
}

func (e *ActivationError) Unwrap() error {
	if ce, ok := reasonErrors[e.Reason]; ok {
		return ce
	}
	return nil
}

// Payload is the signed body of an activation code.
type Payload struct {
	LicenseKey  string `json:"licenseKey"`
	Fingerprint string `json:"fingerprint"`
	IssuedAt    int64  `json:"issuedAt"` // unix milliseconds
	Product     string `json:"product"`
	Version     string `json:"version"`
}

// IssuedTime returns IssuedAt as a time.
func (p Payload) IssuedTime() time.Time {
	return time.UnixMilli(p.IssuedAt).UTC()
}

func (p Payload) canonical() []byte {
	raw, _ := json.Marshal(p)
	return raw
}

type activationCode struct {
	Payload
	Signature string `json:"signature"`
}

// Validation is the outcome of checking an activation code.
type Validation struct {
	Valid   bool     `json:"valid"`
	Reason  Reason   `json:"reason,omitempty"`
	Payload *Payload `json:"payload,omitempty"`
}

// ActivationRecord is the machine bound proof of a redeemed activation code.
type ActivationRecord struct {
	LicenseKey          string    `json:"licenseKey"`
	HardwareFingerprint string    `json:"hardwareFingerprint"`
	IssuedAt            int64     `json:"issuedAt"`
	Signature           string    `json:"signature"`
	Product             string    `json:"product"`
	Version             string    `json:"version"`
	ActivatedAt         time.Time `json:"activatedAt"`
}

func (r *ActivationRecord) payload() Payload {
	return Payload{
		LicenseKey:  r.LicenseKey,
		Fingerprint: r.HardwareFingerprint,
		IssuedAt:    r.IssuedAt,
		Product:     r.Product,
		Version:     r.Version,
	}
}

// Status is a snapshot of the manager for the UI.
type Status struct {
	State       State      `json:"state"`
	Activated   bool       `json:"activated"`
	LicenseKey  string     `json:"licenseKey,omitempty"`
	ActivatedAt *time.Time `json:"activatedAt,omitempty"`
	Product     string     `json:"product"`
	Version     string     `json:"version"`
}

// Options wires a Manager.
type Options struct {
	Product      string
	Version      string
	Fingerprints FingerprintProvider
	Signer       *Signer
	Store        RecordStore
	Clock        func() time.Time
	Logger       *slog.Logger
}

// Manager runs the offline activation handshake and owns the activation state.
type Manager struct {
	mu sync.Mutex

	product      string
	version      string
	keyPattern   *regexp.Regexp
	fingerprints FingerprintProvider
	signer       *Signer
	store        RecordStore
	now          func() time.Time
	log          *slog.Logger

	state      State
	pendingKey string
	record     *ActivationRecord
}

// NewManager creates a manager in the EnteringKey state.
func NewManager(opts Options) *Manager {
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		product:      opts.Product,
		version:      opts.Version,
		keyPattern:   KeyPattern(opts.Product),
		fingerprints: opts.Fingerprints,
		signer:       opts.Signer,
		store:        opts.Store,
		now:          now,
		log:          log,
		state:        StateEnteringKey,
	}
}

// ValidateKeyFormat checks key against the product key pattern.
func (m *Manager) ValidateKeyFormat(key string) error {
	return validateKey(m.keyPattern, key)
}

// SampleKey returns a random well formed key for this product.
func (m *Manager) SampleKey() (string, error) {
	return GenerateSampleKey(m.product)
}

// Fingerprint returns the current machine fingerprint.
func (m *Manager) Fingerprint(ctx context.Context) (string, error) {
	fp, err := m.fingerprints.Compute(ctx)
	if err != nil {
		return "", types.Wrap(types.ErrFingerprintUnavailable, err)
	}
	return fp, nil
}

// GenerateActivationRequest builds the signed, base64 encoded activation code for key.
func (m *Manager) GenerateActivationRequest(ctx context.Context, key string) (string, error) {
	if err := m.ValidateKeyFormat(key); err != nil {
		return "", err
	}
	fp, err := m.Fingerprint(ctx)
	if err != nil {
		return "", err
	}

	payload := Payload{
		LicenseKey:  key,
		Fingerprint: fp,
		IssuedAt:    m.now().UnixMilli(),
		Product:     m.product,
		Version:     m.version,
	}
	code, err := m.encode(payload)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateActivated {
		m.state = StateCodeGenerated
	}
	m.pendingKey = key
	return code, nil
}

func (m *Manager) encode(p Payload) (string, error) {
	raw, err := json.Marshal(activationCode{Payload: p, Signature: m.signer.Sign(p.canonical())})
	if err != nil {
		return "", fmt.Errorf("license: encode activation code: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// ValidateActivationResponse decodes and checks an activation code. Checks run in a
// fixed order and the first failure is reported.
func (m *Manager) ValidateActivationResponse(ctx context.Context, code string) Validation {
	v := m.validate(ctx, code)

	m.mu.Lock()
	if m.state != StateActivated {
		m.state = StateCodeEntered
	}
	m.mu.Unlock()

	if !v.Valid {
		m.log.Info("activation code rejected", "reason", v.Reason)
	}
	return v
}

func (m *Manager) validate(ctx context.Context, code string) Validation {
	raw, err := base64.StdEncoding.DecodeString(code)
	if err != nil {
		return Validation{Reason: ReasonMalformedCode}
	}
	var decoded activationCode
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Validation{Reason: ReasonMalformedCode}
	}
	if decoded.Signature == "" || decoded.LicenseKey == "" || decoded.Fingerprint == "" || decoded.IssuedAt == 0 {
		return Validation{Reason: ReasonMalformedCode}
	}

	p := decoded.Payload
	if !m.signer.Verify(p.canonical(), decoded.Signature) {
		return Validation{Reason: ReasonBadSignature}
	}

	fp, err := m.fingerprints.Compute(ctx)
	if err != nil {
		m.log.Warn("fingerprint unavailable during validation", "error", err)
		return Validation{Reason: ReasonFingerprintUnavailable}
	}
	if fp != p.Fingerprint {
		return Validation{Reason: ReasonFingerprintMismatch}
	}
	if p.Product != m.product {
		return Validation{Reason: ReasonWrongProduct}
	}
	if m.ValidateKeyFormat(p.LicenseKey) != nil {
		return Validation{Reason: ReasonInvalidKeyFormat}
	}
	if m.now().Sub(p.IssuedTime()) > ValidityWindow {
		return Validation{Reason: ReasonExpired}
	}
	return Validation{Valid: true, Payload: &p}
}

// Activate redeems code for key, persists the record and enters the Activated state.
func (m *Manager) Activate(ctx context.Context, key, code string) (*ActivationRecord, error) {
	if err := m.ValidateKeyFormat(key); err != nil {
		return nil, err
	}

	v := m.ValidateActivationResponse(ctx, code)
	if !v.Valid {
		return nil, &ActivationError{Reason: v.Reason}
	}
	if v.Payload.LicenseKey != key {
		m.log.Info("activation code rejected", "reason", ReasonKeyMismatch)
		return nil, &ActivationError{Reason: ReasonKeyMismatch}
	}

	p := v.Payload
	now := m.now().UTC()
	record := &ActivationRecord{
		LicenseKey:          p.LicenseKey,
		HardwareFingerprint: p.Fingerprint,
		IssuedAt:            p.IssuedAt,
		Signature:           m.signer.Sign(p.canonical()),
		Product:             p.Product,
		Version:             p.Version,
		ActivatedAt:         now,
	}

	doc := &PersistedLicense{
		LicenseKey:     key,
		IsActivated:    true,
		ActivationData: record,
		SavedAt:        now,
	}
	if err := m.store.Save(ctx, doc); err != nil {
		return nil, types.Wrap(types.ErrFileIO, err)
	}

	m.mu.Lock()
	m.state = StateActivated
	m.record = record
	m.pendingKey = ""
	m.mu.Unlock()

	m.log.Info("license activated", "key", maskKey(key))
	return record, nil
}

// Deactivate clears the persisted record. It is safe to call when nothing is persisted.
func (m *Manager) Deactivate(ctx context.Context) error {
	if err := m.store.Clear(ctx); err != nil {
		return types.Wrap(types.ErrFileIO, err)
	}

	m.mu.Lock()
	wasActive := m.state == StateActivated
	m.state = StateDeactivated
	m.record = nil
	m.pendingKey = ""
	m.mu.Unlock()

	if wasActive {
		m.log.Info("license deactivated")
	}
	return nil
}

// LoadPersisted restores a saved activation. Absent or unreadable records leave the
// manager unactivated. A record whose signature no longer verifies, or that was issued
// to another machine, is cleared.
func (m *Manager) LoadPersisted(ctx context.Context) bool {
	doc, err := m.store.Load(ctx)
	if err != nil {
		m.log.Warn("ignoring unreadable license file", "error", err)
		return false
	}
	if doc == nil || !doc.IsActivated || doc.ActivationData == nil {
		return false
	}

	record := doc.ActivationData
	p := record.payload()
	if record.LicenseKey != doc.LicenseKey || !m.signer.Verify(p.canonical(), record.Signature) {
		m.log.Warn("persisted license failed verification, clearing")
		_ = m.Deactivate(ctx)
		return false
	}

	fp, err := m.fingerprints.Compute(ctx)
	if err != nil {
		m.log.Warn("fingerprint unavailable, license not restored", "error", err)
		return false
	}
	if fp != record.HardwareFingerprint {
		m.log.Warn("hardware fingerprint changed, deactivating license")
		if err := m.Deactivate(ctx); err != nil {
			m.log.Error("failed to clear license", "error", err)
		}
		return false
	}

	m.mu.Lock()
	m.state = StateActivated
	m.record = record
	m.mu.Unlock()
	return true
}

// Status returns a snapshot of the activation state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Status{
		State:   m.state,
		Product: m.product,
		Version: m.version,
	}
	if m.record != nil && m.state == StateActivated {
		at := m.record.ActivatedAt
		s.Activated = true
		s.LicenseKey = m.record.LicenseKey
		s.ActivatedAt = &at
	} else if m.pendingKey != "" {
		s.LicenseKey = m.pendingKey
	}
	return s
}

// IsActivated reports whether a verified activation is loaded.
func (m *Manager) IsActivated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateActivated
}

// ReasonOf extracts the rejection reason from an Activate error.
func ReasonOf(err error) (Reason, bool) {
	var ae *ActivationError
	if errors.As(err, &ae) {
		return ae.Reason, true
	}
	return "", false
}

func maskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return key[:len(key)-4] + "****"
}
