package http

import (
	"github.com/quickrollcall/rollcall/internal/infrastructure/config"
	"github.com/quickrollcall/rollcall/internal/infrastructure/export"
	"github.com/quickrollcall/rollcall/internal/infrastructure/qrcode"
	"github.com/quickrollcall/rollcall/internal/interfaces/http/handlers"
)

// allHandlers holds all HTTP handler instances used by the application.
type allHandlers struct {
	sessionHandler    *handlers.SessionHandler
	attendanceHandler *handlers.AttendanceHandler
	exportHandler     *handlers.ExportHandler
	systemHandler     *handlers.SystemHandler
}

func (c *Container) initHandlers() {
	links := handlers.NewLinkResolver(c.cfg.Server.FrontendBaseURL, config.DefaultFrontendBaseURL)

	c.hdlrs = &allHandlers{
		sessionHandler: handlers.NewSessionHandler(
			c.manager, qrcode.NewGenerator(qrcode.DefaultSize), links, c.metrics, c.log,
		),
		attendanceHandler: handlers.NewAttendanceHandler(c.manager, links, c.metrics, c.log),
		exportHandler: handlers.NewExportHandler(
			c.exportUC, c.previewUC, export.NewPDFRenderer(), c.log,
		),
		systemHandler: handlers.NewSystemHandler(c.connector, c.tokens, c.log),
	}
}
