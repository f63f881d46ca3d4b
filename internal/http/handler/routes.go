package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"docpay/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app. Handlers are
// thin translations between HTTP and the services; observe, when non-nil,
// records purchase outcomes for metrics.
func RegisterRoutes(app *fiber.App, db *sql.DB, docSvc service.DocumentService, purchaseSvc service.PurchaseService, observe func(outcome string)) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	// Creator endpoints; identity arrives via trusted headers.
	app.Post("/documents", CreateDocument(docSvc))
	app.Get("/documents", ListDocuments(docSvc))
	app.Get("/documents/:id", GetDocument(docSvc))
	app.Patch("/documents/:id", UpdateDocument(docSvc))
	app.Delete("/documents/:id", DeleteDocument(docSvc))
	app.Post("/documents/:id/cover", UploadCover(docSvc))
	app.Post("/documents/:id/reconcile", ReconcileDocument(docSvc))
	app.Get("/sales", ListSales(purchaseSvc))
	app.Get("/analytics", GetAnalytics(docSvc))

	// Public share-link endpoints; no creator identity required.
	app.Get("/listings/:shareId", GetListing(docSvc))
	app.Post("/listings/:shareId/purchase", PurchaseListing(docSvc, purchaseSvc, observe))
	app.Get("/listings/:shareId/access", CheckAccess(docSvc, purchaseSvc))
}
