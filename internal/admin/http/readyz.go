package http

import (
	"context"
	"net/http"
	"time"

	"github.com/tksolution/admin/pkg/adminsdk"
	"github.com/tksolution/admin/pkg/httpx"
)

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe endpoint returning service health status and checks for critical dependencies
//	@Description	Includes uptime, version, and status of the audit sink and identity backend
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	adminsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	adminsdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	auditCheck func(context.Context) error,
	identityCheck func(context.Context) error,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &adminsdk.HealthChecks{
			AuditSink:       "ok",
			IdentityBackend: "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		// Check audit sink connectivity
		if auditCheck != nil {
			if err := auditCheck(r.Context()); err != nil {
				checks.AuditSink = "error: " + err.Error()
				overallStatus = "degraded"
				statusCode = http.StatusServiceUnavailable
			}
		}

		// Check identity backend reachability
		if identityCheck != nil {
			if err := identityCheck(r.Context()); err != nil {
				checks.IdentityBackend = "error: " + err.Error()
				overallStatus = "degraded"
				statusCode = http.StatusServiceUnavailable
			}
		}

		response := adminsdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		}
		httpx.WriteJSON(w, statusCode, response)
	}
}
