// metrics.go
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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters are registered on the default registry, which fiberprometheus serves at /metrics.
var (
	BulkOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "p3dv_bulk_operations_total",
		Help: "Bulk operations run, by operation and outcome.",
	}, []string{"operation", "outcome"})

	BulkItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "p3dv_bulk_items_total",
		Help: "Records processed by bulk operations, by operation and result.",
	}, []string{"operation", "result"})

	BridgeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "p3dv_bridge_requests_total",
		Help: "Asset bridge requests, by result.",
	}, []string{"result"})

	LicenseEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "p3dv_license_events_total",
		Help: "License handshake events, by event and result.",
	}, []string{"event", "result"})
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)
