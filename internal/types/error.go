// error.go
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

package types

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind groups errors by how callers are expected to react to them.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindIntegrity  ErrorKind = "integrity"
	KindIO         ErrorKind = "io"
	KindNotFound   ErrorKind = "not_found"
	KindConflict   ErrorKind = "conflict"
)

// CustomError is the single error shape used across the catalog services.
// Two CustomErrors match under errors.Is when their Type is equal, so the
// package level sentinels below can be compared against wrapped instances.
type CustomError struct {
	Code    int       `json:"code"`
	Message string    `json:"message"`
	Type    string    `json:"type"`
	Kind    ErrorKind `json:"kind"`
	Err     error     `json:"-"`
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d: %s [type: %s]: %v", e.Code, e.Message, e.Type, e.Err)
	}
	return fmt.Sprintf("%d: %s [type: %s]", e.Code, e.Message, e.Type)
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a CustomError of the same Type.
func (e *CustomError) Is(target error) bool {
	t, ok := target.(*CustomError)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// Wrap returns a copy of kind carrying err as its cause.
func Wrap(kind *CustomError, err error) *CustomError {
	out := *kind
	out.Err = err
	return &out
}

// Wrapf returns a copy of kind whose message is extended with a formatted detail.
func Wrapf(kind *CustomError, format string, args ...any) *CustomError {
	out := *kind
	out.Message = fmt.Sprintf("%s: %s", kind.Message, fmt.Sprintf(format, args...))
	return &out
}

// KindOf returns the kind of err, or an empty kind when err is not a CustomError.
func KindOf(err error) ErrorKind {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// StatusOf maps err onto an HTTP status code.
func StatusOf(err error) int {
	var ce *CustomError
	if errors.As(err, &ce) && ce.Code != 0 {
		return ce.Code
	}
	return http.StatusInternalServerError
}

func newError(code int, kind ErrorKind, typ, message string) *CustomError {
	return &CustomError{Code: code, Kind: kind, Type: typ, Message: message}
}

// Validation errors, rejected before any I/O.
var (
	ErrInvalidInput            = newError(http.StatusBadRequest, KindValidation, "validation.input", "Invalid input")
	ErrInvalidKeyFormat        = newError(http.StatusBadRequest, KindValidation, "license.invalid_key_format", "Invalid license key format")
	ErrEmptySelection          = newError(http.StatusBadRequest, KindValidation, "bulk.empty_selection", "No models selected")
	ErrNoTagChangeRequested    = newError(http.StatusBadRequest, KindValidation, "bulk.no_tag_change", "Select tags to add or remove")
	ErrConflictingTagChange    = newError(http.StatusBadRequest, KindValidation, "bulk.conflicting_tag_change", "A tag cannot be added and removed at once")
	ErrUnsupportedExportFormat = newError(http.StatusBadRequest, KindValidation, "bulk.unsupported_export_format", "Unsupported export format")
	ErrUnsupportedFile         = newError(http.StatusBadRequest, KindValidation, "storage.unsupported_file", "File type not allowed")
	ErrFileTooLarge            = newError(http.StatusRequestEntityTooLarge, KindValidation, "storage.file_too_large", "File size exceeds the upload limit")
)

// Integrity errors raised by the license protocol.
var (
	ErrMalformedCode          = newError(http.StatusBadRequest, KindIntegrity, "license.malformed_code", "Activation code is malformed")
	ErrBadSignature           = newError(http.StatusBadRequest, KindIntegrity, "license.bad_signature", "Invalid activation code signature")
	ErrFingerprintMismatch    = newError(http.StatusBadRequest, KindIntegrity, "license.fingerprint_mismatch", "Activation code not valid for this machine")
	ErrWrongProduct           = newError(http.StatusBadRequest, KindIntegrity, "license.wrong_product", "Activation code not valid for this product")
	ErrExpired                = newError(http.StatusBadRequest, KindIntegrity, "license.expired", "Activation code has expired")
	ErrKeyMismatch            = newError(http.StatusBadRequest, KindIntegrity, "license.key_mismatch", "License key does not match activation code")
	ErrFingerprintUnavailable = newError(http.StatusServiceUnavailable, KindIO, "license.fingerprint_unavailable", "Hardware fingerprint unavailable")
	ErrHostQuery              = newError(http.StatusServiceUnavailable, KindIO, "license.host_query", "Host identity query failed")
)

// Store, file and lookup errors.
var (
	ErrStore            = newError(http.StatusInternalServerError, KindIO, "store.error", "Store operation failed")
	ErrNotFound         = newError(http.StatusNotFound, KindNotFound, "store.not_found", "Record not found")
	ErrCategoryNotFound = newError(http.StatusBadRequest, KindValidation, "store.category_not_found", "Category not found")
	ErrTagNotFound      = newError(http.StatusBadRequest, KindValidation, "store.tag_not_found", "Tag not found")
	ErrDuplicateName    = newError(http.StatusConflict, KindConflict, "store.duplicate_name", "Name already exists")
	ErrCopyFailed       = newError(http.StatusInternalServerError, KindIO, "storage.copy_failed", "Failed to copy model file")
	ErrFileIO           = newError(http.StatusInternalServerError, KindIO, "storage.io", "File operation failed")
	ErrExportFailed     = newError(http.StatusInternalServerError, KindIO, "bulk.export_failed", "Failed to write export bundle")
	ErrAssetNotFound    = newError(http.StatusNotFound, KindNotFound, "storage.asset_not_found", "Resource Not Found")
)
