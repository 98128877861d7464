package worker

import (
	"github.com/spec-kit/commerce-auth/internal/service"
)

// StartAuditWorker subscribes the audit service to auth events.
func StartAuditWorker(auditService *service.AuditService) {
	if auditService == nil {
		return
	}
	auditService.RegisterHandlers()
}
